package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/slipkit/slip/archive"
	"github.com/slipkit/slip/columnar"
	"github.com/slipkit/slip/encode"
	"github.com/slipkit/slip/iox"
	"github.com/slipkit/slip/query"
	"github.com/slipkit/slip/types"
)

// ConvertCommand returns the convert command. Convert decodes one replay
// and writes an archive of JSON, raw, and Parquet blobs.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a replay to an archive of JSON and Parquet blobs",
		ArgsUsage: "<file.slp>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (default: input with .tar extension; .zst suffix adds zstd)",
			},
			&cli.StringFlag{
				Name:    "compression",
				Aliases: []string{"c"},
				Usage:   "Parquet column codec: none, snappy, zstd, lz4",
				Value:   columnar.CompressionNone,
			},
			&cli.BoolFlag{
				Name:  "dir",
				Usage: "Write blobs as files under a directory instead of a tar archive",
			},
			VerboseFlag,
		},
		Action: convertAction,
	}
}

func convertAction(c *cli.Context) error {
	replay, _, err := loadReplay(c, false)
	if err != nil {
		return err
	}

	out := c.String("output")
	if out == "" {
		base := strings.TrimSuffix(c.Args().First(), ".slp")
		if c.Bool("dir") {
			out = base
		} else {
			out = base + ".tar"
		}
	}

	if c.Bool("dir") {
		w := archive.NewDirWriter(out)
		return writeBlobs(w, replay, c.String("compression"))
	}

	f, err := os.Create(out)
	if err != nil {
		return cli.Exit(fmt.Sprintf("create %s: %v", out, err), exitUsage)
	}

	var w archive.Writer
	if strings.HasSuffix(out, ".zst") {
		w, err = archive.NewTarZstWriter(f)
		if err != nil {
			iox.DiscardClose(f)
			return err
		}
	} else {
		w = archive.NewTarWriter(f)
	}

	if err := writeBlobs(w, replay, c.String("compression")); err != nil {
		iox.DiscardClose(f)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}
	return nil
}

// writeBlobs emits the archive contents in fixed order. Raw blobs are the
// undecoded Game Start / Game End payload bytes, kept so downstream tools
// can re-decode without the original file.
func writeBlobs(w archive.Writer, replay *types.Replay, compression string) error {
	if err := addJSON(w, "start.json", replay.Start); err != nil {
		return err
	}
	if len(replay.RawStart) > 0 {
		if err := w.AddBlob("start.raw", replay.RawStart); err != nil {
			return err
		}
	}
	if replay.End != nil {
		if err := addJSON(w, "end.json", replay.End); err != nil {
			return err
		}
	}
	if len(replay.RawEnd) > 0 {
		if err := w.AddBlob("end.raw", replay.RawEnd); err != nil {
			return err
		}
	}
	if err := addJSON(w, "metadata.json", replay.Metadata); err != nil {
		return err
	}

	opts := columnar.Options{Compression: compression}

	var frames bytes.Buffer
	if err := columnar.WriteFrames(&frames, replay, opts); err != nil {
		return err
	}
	if err := w.AddBlob("frames.parquet", frames.Bytes()); err != nil {
		return err
	}

	var items bytes.Buffer
	if err := columnar.WriteItems(&items, replay, opts); err != nil {
		return err
	}
	if err := w.AddBlob("items.parquet", items.Bytes()); err != nil {
		return err
	}

	return w.Finalize()
}

func addJSON(w archive.Writer, name string, model any) error {
	data, err := encode.JSON(query.ValueOf(model), encode.JSONOptions{Indent: "  "})
	if err != nil {
		return err
	}
	return w.AddBlob(name, data)
}
