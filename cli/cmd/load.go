package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/log"
	"github.com/slipkit/slip/slippi"
	"github.com/slipkit/slip/types"
)

// Exit codes: 0 success, 1 usage or query error, 2 decode failure.
const (
	exitUsage  = 1
	exitDecode = 2
)

// loadReplay reads and decodes the replay file named by the first
// positional argument. Recoverable stream failures (truncation) keep the
// partial replay; the decoder has already logged them.
func loadReplay(c *cli.Context, skipFrames bool) (*types.Replay, *slippi.Collector, error) {
	if c.NArg() < 1 {
		return nil, nil, cli.Exit("replay file required", exitUsage)
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("read %s: %v", path, err), exitDecode)
	}

	logger := log.New(log.LevelForVerbosity(c.Count("verbose"))).WithFile(path, int64(len(data)))
	stats := &slippi.Collector{}

	replay, err := slippi.Decode(data, slippi.Options{
		SkipFrames: skipFrames,
		Logger:     logger,
		Stats:      stats,
	})
	if replay == nil {
		return nil, nil, cli.Exit(fmt.Sprintf("decode %s: %v", path, err), exitDecode)
	}
	return replay, stats, nil
}

// labelTable resolves the enum label tables, applying a --labels overlay
// when given.
func labelTable(c *cli.Context) (*labels.Table, error) {
	path := c.String("labels")
	if path == "" {
		return labels.Default(), nil
	}
	table, err := labels.Load(path)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	return table, nil
}
