package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// TarWriter streams blobs into a tar archive, optionally wrapped in a
// zstd frame. Header metadata is pinned (zero mtime, fixed mode, no
// owner), so the same blobs always produce the same bytes.
type TarWriter struct {
	tw   *tar.Writer
	zw   *zstd.Encoder
	done bool
}

// NewTarWriter writes a plain tar stream to dst.
func NewTarWriter(dst io.Writer) *TarWriter {
	return &TarWriter{tw: tar.NewWriter(dst)}
}

// NewTarZstWriter writes a zstd-compressed tar stream to dst.
func NewTarZstWriter(dst io.Writer) (*TarWriter, error) {
	// Single-threaded encoding keeps frame layout independent of
	// scheduling, which the byte-stable output contract requires.
	zw, err := zstd.NewWriter(dst, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("archive: init zstd: %w", err)
	}
	return &TarWriter{tw: tar.NewWriter(zw), zw: zw}, nil
}

// AddBlob implements Writer.
func (w *TarWriter) AddBlob(name string, data []byte) error {
	if w.done {
		return fmt.Errorf("archive: add %q after finalize", name)
	}
	if err := checkBlobName(name); err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Unix(0, 0).UTC(),
		Format:  tar.FormatUSTAR,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: write header %q: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("archive: write blob %q: %w", name, err)
	}
	return nil
}

// Finalize implements Writer.
func (w *TarWriter) Finalize() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tw.Close(); err != nil {
		return fmt.Errorf("archive: close tar: %w", err)
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			return fmt.Errorf("archive: close zstd: %w", err)
		}
	}
	return nil
}

// Verify TarWriter implements Writer.
var _ Writer = (*TarWriter)(nil)
