// Package columnar transposes the decoded frame table into per-field
// columns and serializes them as Parquet. Output is byte-stable: column
// order, schema, and writer configuration are fixed, so converting the
// same input twice yields identical files.
package columnar

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
)

// Compression names accepted by Options.Compression.
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionZstd   = "zstd"
	CompressionLZ4    = "lz4"
)

// Options configures Parquet serialization.
type Options struct {
	// Compression selects the column codec; empty means none.
	Compression string
}

func codecFor(name string) (compress.Codec, error) {
	switch name {
	case "", CompressionNone:
		return &parquet.Uncompressed, nil
	case CompressionSnappy:
		return &parquet.Snappy, nil
	case CompressionZstd:
		return &parquet.Zstd, nil
	case CompressionLZ4:
		return &parquet.Lz4Raw, nil
	default:
		return nil, fmt.Errorf("columnar: unknown compression %q", name)
	}
}
