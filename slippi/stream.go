// Package slippi decodes Slippi replay files: an append-only stream of
// typed, versioned binary events wrapped in a UBJSON container.
//
// Decoding is a single sequential pass: event ordering is load-bearing
// (Start before frames before End, frame indices monotonic), so the whole
// input buffer is read up front and consumed in order.
package slippi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/slipkit/slip/log"
	"github.com/slipkit/slip/types"
)

// rawHeader is the UBJSON prefix of a finalized replay file: an outer map
// whose first key is "raw", typed as a length-prefixed array of uint8.
var rawHeader = []byte{'{', 'U', 0x03, 'r', 'a', 'w', '[', '$', 'U', '#', 'l'}

// metadataKey follows the raw element: "U \x08 metadata" then a map value.
var metadataKey = []byte{'U', 0x08, 'm', 'e', 't', 'a', 'd', 'a', 't', 'a'}

// Options controls a decode pass.
type Options struct {
	// SkipFrames drops per-frame events, keeping only Start, End, and the
	// derived metadata scaffold. Used by short/summary output paths.
	SkipFrames bool

	// Logger receives recovered-anomaly warnings. Defaults to a no-op.
	Logger *log.Logger

	// Stats, when non-nil, accumulates decode counters.
	Stats *Collector
}

// Decode parses a complete replay file buffer into the replay model.
//
// Recoverable stream failures (truncation, an undeclared event code) return
// BOTH a partial replay and a *DecodeError: replays saved mid-match are
// common and everything decoded before the cut is valuable. Fatal failures
// (unrecognizable container, malformed Game Start) return a nil replay.
func Decode(data []byte, opts Options) (*types.Replay, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	stats := opts.Stats

	events, metaBuf, err := splitContainer(data)
	if err != nil {
		return nil, err
	}

	sizes, off, err := readSizeTable(events)
	if err != nil {
		return nil, err
	}

	b := newBuilder(logger, stats)
	var streamErr *DecodeError

loop:
	for off < len(events) {
		code := events[off]
		size, ok := sizes[code]
		if !ok {
			streamErr = &DecodeError{
				Kind:   KindUnknownEvent,
				Offset: off,
				Code:   code,
				Msg:    "no declared payload length",
			}
			break loop
		}
		if off+1+int(size) > len(events) {
			streamErr = &DecodeError{
				Kind:   KindTruncatedStream,
				Offset: off,
				Code:   code,
				Msg:    fmt.Sprintf("need %d payload bytes, have %d", size, len(events)-off-1),
			}
			break loop
		}
		payload := events[off+1 : off+1+int(size)]

		switch {
		case code == codeGameStart:
			if b.start != nil {
				logger.Warn("duplicate game start event, skipping", map[string]any{"offset": off})
				stats.RecordSkipped()
				break
			}
			se, err := decodeGameStart(payload)
			if err != nil {
				// No safe default game configuration exists.
				return nil, err
			}
			b.setStart(se)
			stats.RecordEvent()

		case code == codeGameEnd:
			if b.start == nil {
				return nil, startMissing(off, code)
			}
			ev, err := decodeGameEnd(payload, b.version)
			if err != nil {
				stats.RecordMalformed()
				logger.Warn("malformed game end event, skipping", map[string]any{"offset": off, "error": err.Error()})
				break
			}
			b.apply(ev)
			stats.RecordEvent()

		case isFrameEvent(code):
			if b.start == nil {
				return nil, startMissing(off, code)
			}
			if opts.SkipFrames {
				stats.RecordSkipped()
				break
			}
			ev, err := frameDecoders[code](payload, b.version)
			if err != nil {
				stats.RecordMalformed()
				logger.Warn("malformed frame event, skipping", map[string]any{
					"offset": off,
					"code":   fmt.Sprintf("0x%02x", code),
					"error":  err.Error(),
				})
				break
			}
			b.apply(ev)
			stats.RecordEvent()

		default:
			// Declared in the size table but carries nothing we model
			// (gecko code list, message splitter).
			stats.RecordSkipped()
		}

		off += 1 + int(size)
	}

	stats.SetBytesConsumed(int64(off))

	if b.start == nil {
		if streamErr != nil {
			return nil, &DecodeError{
				Kind:   KindMalformedHeader,
				Offset: streamErr.Offset,
				Msg:    "stream ended before game start event",
				Err:    streamErr,
			}
		}
		return nil, &DecodeError{Kind: KindMalformedHeader, Msg: "no game start event"}
	}

	replay := b.finish(metaBuf)
	replay.Hash = fmt.Sprintf("xxh64:%016x", xxhash.Sum64(data))

	if streamErr != nil {
		if streamErr.Kind == KindTruncatedStream {
			replay.Truncated = true
			stats.MarkTruncated(int64(off))
		}
		logger.Warn("stream ended early, retaining partial replay", map[string]any{
			"offset": streamErr.Offset,
			"kind":   streamErr.Kind.String(),
			"frames": len(replay.Frames),
		})
		return replay, streamErr
	}
	return replay, nil
}

func isFrameEvent(code byte) bool {
	switch code {
	case codePreFrame, codePostFrame, codeItem, codeFrameStart, codeFrameBookend:
		return true
	}
	return false
}

func startMissing(off int, code byte) *DecodeError {
	return &DecodeError{
		Kind:   KindMalformedHeader,
		Offset: off,
		Code:   code,
		Msg:    "frame data before game start event",
	}
}

// splitContainer unwraps the UBJSON container, returning the raw event
// stream and, when present, the bytes of the trailing metadata object.
// A bare event stream (first byte is the payload-sizes code) is accepted
// for streams captured without the file container.
func splitContainer(data []byte) (events, metadata []byte, err error) {
	if len(data) == 0 {
		return nil, nil, &DecodeError{Kind: KindMalformedHeader, Msg: "empty input"}
	}
	if data[0] == codePayloadSizes {
		return data, nil, nil
	}
	if !bytes.HasPrefix(data, rawHeader) {
		return nil, nil, &DecodeError{Kind: KindMalformedHeader, Msg: "not a replay file (bad signature)"}
	}
	if len(data) < len(rawHeader)+4 {
		return nil, nil, &DecodeError{Kind: KindMalformedHeader, Msg: "container header truncated"}
	}
	rawLen := binary.BigEndian.Uint32(data[len(rawHeader) : len(rawHeader)+4])
	body := data[len(rawHeader)+4:]

	// A zero length marks an in-progress recording: the raw element runs
	// to end-of-buffer and no metadata was written.
	if rawLen == 0 || int(rawLen) > len(body) {
		return body, nil, nil
	}

	events = body[:rawLen]
	rest := body[rawLen:]
	if bytes.HasPrefix(rest, metadataKey) {
		metadata = rest[len(metadataKey):]
	}
	return events, metadata, nil
}

// readSizeTable parses the mandatory payload-sizes event and returns the
// event code -> payload length mapping plus the offset of the first real
// event.
func readSizeTable(events []byte) (map[byte]uint16, int, error) {
	if len(events) < 2 || events[0] != codePayloadSizes {
		return nil, 0, &DecodeError{Kind: KindMalformedHeader, Msg: "missing payload sizes event"}
	}
	// The declared size includes the size byte itself.
	tableLen := int(events[1])
	if tableLen < 1 || (tableLen-1)%3 != 0 {
		return nil, 0, &DecodeError{Kind: KindMalformedHeader, Msg: "invalid payload sizes length"}
	}
	if 2+tableLen-1 > len(events) {
		return nil, 0, &DecodeError{Kind: KindMalformedHeader, Msg: "payload sizes event truncated"}
	}

	sizes := make(map[byte]uint16, (tableLen-1)/3)
	for off := 2; off < 2+tableLen-1; off += 3 {
		sizes[events[off]] = binary.BigEndian.Uint16(events[off+1 : off+3])
	}
	return sizes, 2 + tableLen - 1, nil
}
