package archive

import "sync"

// MemWriter records blobs in memory for testing.
type MemWriter struct {
	mu        sync.Mutex
	Blobs     map[string][]byte
	Order     []string
	Finalized bool
}

// NewMemWriter creates a new in-memory writer.
func NewMemWriter() *MemWriter {
	return &MemWriter{Blobs: map[string][]byte{}}
}

// AddBlob implements Writer by recording the call.
func (w *MemWriter) AddBlob(name string, data []byte) error {
	if err := checkBlobName(name); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.Blobs[name]; !seen {
		w.Order = append(w.Order, name)
	}
	w.Blobs[name] = append([]byte(nil), data...)
	return nil
}

// Finalize implements Writer.
func (w *MemWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Finalized = true
	return nil
}

// Verify MemWriter implements Writer.
var _ Writer = (*MemWriter)(nil)
