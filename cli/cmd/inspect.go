package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/slipkit/slip/encode"
	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/query"
)

// InspectCommand returns the inspect command. Inspect decodes one replay
// and prints the model, or the results of path queries against it.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a replay and print its model or query results",
		ArgsUsage: "<file.slp>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Path query, e.g. frames[-1].ports[].leader.post.state (repeatable)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, msgpack",
				Value:   "json",
			},
			&cli.BoolFlag{
				Name:  "names",
				Usage: "Annotate enum values as \"<code>:<LABEL>\"",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Compact output; collapse single-element query results",
			},
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Omit frame data",
			},
			LabelsFlag,
			VerboseFlag,
		},
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	format := c.String("format")
	if format != "json" && format != "msgpack" {
		return cli.Exit(fmt.Sprintf("invalid format: %q (must be json or msgpack)", format), exitUsage)
	}

	table, err := labelTable(c)
	if err != nil {
		return err
	}

	replay, _, err := loadReplay(c, c.Bool("short"))
	if err != nil {
		return err
	}

	root := query.ValueOf(replay)
	if c.Bool("short") {
		root = query.DropField(root, "frames")
	}

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		return emitValue(c, root, format, table)
	}

	// Queries run independently: one bad path reports and moves on, so a
	// batch of extractions over one file degrades per-query.
	failed := false
	for _, expr := range queries {
		result, err := query.Select(root, expr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "query %s: %v\n", expr, err)
			failed = true
			continue
		}
		if c.Bool("quiet") {
			result = query.Flatten(result)
		}
		if err := emitValue(c, result, format, table); err != nil {
			return err
		}
	}
	if failed {
		return cli.Exit("", exitUsage)
	}
	return nil
}

func emitValue(c *cli.Context, v query.Value, format string, table *labels.Table) error {
	if format == "msgpack" {
		data, err := encode.Msgpack(v, encode.MsgpackOptions{
			Annotate: c.Bool("names"),
			Labels:   table,
		})
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	opts := encode.JSONOptions{
		Annotate: c.Bool("names"),
		Labels:   table,
	}
	if !c.Bool("quiet") {
		opts.Indent = "  "
	}
	data, err := encode.JSON(v, opts)
	if err != nil {
		return err
	}
	if opts.Indent == "" {
		data = append(data, '\n')
	}
	_, err = os.Stdout.Write(data)
	return err
}
