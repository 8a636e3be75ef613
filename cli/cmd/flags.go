// Package cmd provides CLI commands for the slip binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags across commands.
var (
	// VerboseFlag raises log verbosity; repeatable (-v, -vv).
	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Increase log verbosity (repeatable)",
	}

	// LabelsFlag overlays enum label tables from a YAML file.
	LabelsFlag = &cli.StringFlag{
		Name:  "labels",
		Usage: "YAML file overlaying the built-in enum label tables",
	}

	// FormatFlag selects output format for summary commands.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

// ReadOnlyFlags returns the shared flags for summary commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		VerboseFlag,
	}
}
