package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirWriter materializes blobs as files under a directory, creating the
// directory on the first write.
type DirWriter struct {
	dir     string
	created bool
}

// NewDirWriter writes blobs under dir.
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{dir: dir}
}

// AddBlob implements Writer.
func (w *DirWriter) AddBlob(name string, data []byte) error {
	if err := checkBlobName(name); err != nil {
		return err
	}
	if !w.created {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return fmt.Errorf("archive: create %s: %w", w.dir, err)
		}
		w.created = true
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	return nil
}

// Finalize implements Writer.
func (w *DirWriter) Finalize() error { return nil }

// Verify DirWriter implements Writer.
var _ Writer = (*DirWriter)(nil)
