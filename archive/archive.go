// Package archive collects the converter's output blobs behind a small
// writer interface, so the encoding pipeline never knows whether it is
// producing a tar stream, a directory, or test fixtures.
package archive

import (
	"fmt"
	"strings"
)

// Writer receives named output blobs. AddBlob calls arrive in a fixed
// order for a given input; implementations must preserve it so archive
// output is reproducible. Finalize flushes and must be called exactly
// once, after the last blob.
type Writer interface {
	// AddBlob stores a blob. The name must be a bare filename: no path
	// separators, no "..".
	AddBlob(name string, data []byte) error

	// Finalize completes the archive.
	Finalize() error
}

func checkBlobName(name string) error {
	if name == "" || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("archive: invalid blob name %q", name)
	}
	return nil
}
