package types

// Replay is the root aggregate: one Start, the ordered frame table, an
// optional End, and derived Metadata. It is built incrementally by the
// stream reader and becomes immutable once consumption completes; after
// that it may be read concurrently by queries and encoders.
type Replay struct {
	Hash     string   `json:"hash"`
	Start    Start    `json:"start"`
	End      *End     `json:"end"`
	Metadata Metadata `json:"metadata"`
	Frames   []Frame  `json:"frames"`

	// Truncated marks a stream that ended mid-payload. Everything decoded
	// before the cut is retained.
	Truncated bool `json:"truncated"`

	// Raw event payloads, kept for the archive's start.raw / end.raw blobs.
	RawStart []byte `json:"-"`
	RawEnd   []byte `json:"-"`
}

// FrameByIndex returns the frame with the given signed index, or nil.
// Frames are stored in increasing index order.
func (r *Replay) FrameByIndex(index int32) *Frame {
	if len(r.Frames) == 0 {
		return nil
	}
	first := r.Frames[0].Index
	i := int(index - first)
	if i < 0 || i >= len(r.Frames) {
		return nil
	}
	if r.Frames[i].Index == index {
		return &r.Frames[i]
	}
	// Sparse frame tables should not happen, but fall back to a scan.
	for j := range r.Frames {
		if r.Frames[j].Index == index {
			return &r.Frames[j]
		}
	}
	return nil
}
