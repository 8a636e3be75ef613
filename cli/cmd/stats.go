package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/slipkit/slip/cli/render"
	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/types"
)

// StatsResponse is the one-screen match summary.
type StatsResponse struct {
	File      string `json:"file"`
	Hash      string `json:"hash"`
	Version   string `json:"version"`
	Stage     string `json:"stage"`
	Frames    int    `json:"frames"`
	Duration  string `json:"duration"`
	EndMethod string `json:"end_method"`
	Truncated bool   `json:"truncated"`

	EventsDecoded int64 `json:"events_decoded"`
	EventsSkipped int64 `json:"events_skipped"`
	Rollbacks     int64 `json:"rollbacks"`

	Players []PlayerSummary `json:"players"`
}

// PlayerSummary is one row of the per-port table.
type PlayerSummary struct {
	Port      int    `json:"port"`
	Character string `json:"character"`
	Nametag   string `json:"nametag"`
	Stocks    int    `json:"stocks"`
	Placement string `json:"placement"`
}

// StatsCommand returns the stats command. Stats prints aggregated facts
// about one replay: stage, duration, per-port outcome, decode counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show a match summary for a replay",
		ArgsUsage: "<file.slp>",
		Flags:     append(ReadOnlyFlags(), LabelsFlag),
		Action:    statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	table, err := labelTable(c)
	if err != nil {
		return err
	}

	replay, collector, err := loadReplay(c, false)
	if err != nil {
		return err
	}
	snap := collector.Snapshot()

	resp := StatsResponse{
		File:          c.Args().First(),
		Hash:          replay.Hash,
		Version:       replay.Start.Version.String(),
		Stage:         enumName(table, "stage", int64(replay.Start.Stage)),
		Frames:        replay.Metadata.FrameCount,
		Duration:      gameDuration(replay.Metadata.FrameCount),
		EndMethod:     endMethod(table, replay.End),
		Truncated:     replay.Truncated,
		EventsDecoded: snap.EventsDecoded,
		EventsSkipped: snap.EventsSkipped,
		Rollbacks:     snap.Rollbacks,
	}

	for _, p := range replay.Start.Players {
		resp.Players = append(resp.Players, playerSummary(replay, table, &p))
	}

	return r.Render(resp)
}

func playerSummary(replay *types.Replay, table *labels.Table, p *types.Player) PlayerSummary {
	s := PlayerSummary{
		Port:      p.Port,
		Character: enumName(table, "character", int64(p.Character)),
		Stocks:    int(p.Stocks),
	}
	switch {
	case p.DisplayName != nil && *p.DisplayName != "":
		s.Nametag = *p.DisplayName
	case p.Nametag != nil:
		s.Nametag = *p.Nametag
	}

	// Stocks remaining at the last frame that carried this port's state.
	for i := len(replay.Frames) - 1; i >= 0; i-- {
		pd := replay.Frames[i].PortData(p.Port)
		if pd == nil || pd.Leader.Post == nil {
			continue
		}
		s.Stocks = int(pd.Leader.Post.Stocks)
		break
	}

	if replay.End != nil && replay.End.Placements != nil && p.Port >= 1 && p.Port <= 4 {
		if place := replay.End.Placements[p.Port-1]; place >= 0 {
			s.Placement = fmt.Sprintf("%d", place+1)
		}
	}
	return s
}

func enumName(table *labels.Table, category string, code int64) string {
	if name, ok := table.Lookup(category, code); ok {
		return name
	}
	return fmt.Sprintf("%d", code)
}

func endMethod(table *labels.Table, end *types.End) string {
	if end == nil {
		return "NONE"
	}
	return enumName(table, "game_end_method", int64(end.Method))
}

// gameDuration renders a frame count as m:ss at the fixed 60 fps tick.
func gameDuration(frames int) string {
	if frames <= 0 {
		return "0:00"
	}
	seconds := frames / 60
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
