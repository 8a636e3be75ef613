package slippi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Minimal UBJSON reader for the replay container. The outer file is a
// UBJSON map with two keys: "raw" (the event stream, handled by the stream
// reader) and "metadata" (a nested map of side-channel values). Only the
// marker types the recorder emits are supported.

type ubjsonReader struct {
	buf []byte
	off int
}

func (r *ubjsonReader) errAt(format string, args ...any) error {
	return &DecodeError{
		Kind:   KindMalformedEvent,
		Offset: r.off,
		Msg:    fmt.Sprintf("metadata: "+format, args...),
	}
}

func (r *ubjsonReader) byte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, r.errAt("unexpected end")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *ubjsonReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, r.errAt("unexpected end")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// length reads a UBJSON length value (any integer marker).
func (r *ubjsonReader) length() (int, error) {
	marker, err := r.byte()
	if err != nil {
		return 0, err
	}
	v, err := r.intValue(marker)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, r.errAt("negative length %d", v)
	}
	return int(v), nil
}

func (r *ubjsonReader) intValue(marker byte) (int64, error) {
	switch marker {
	case 'i':
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return int64(int8(b[0])), nil
	case 'U':
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return int64(b[0]), nil
	case 'I':
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case 'l':
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case 'L':
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	default:
		return 0, r.errAt("marker %q is not an integer", marker)
	}
}

func (r *ubjsonReader) str() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// value reads one UBJSON value of any supported marker.
func (r *ubjsonReader) value(marker byte) (any, error) {
	switch marker {
	case '{':
		return r.object()
	case '[':
		return r.array()
	case 'S':
		return r.str()
	case 'i', 'U', 'I', 'l', 'L':
		return r.intValue(marker)
	case 'd':
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case 'D':
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case 'T':
		return true, nil
	case 'F':
		return false, nil
	case 'Z':
		return nil, nil
	default:
		return nil, r.errAt("unsupported marker %q", marker)
	}
}

// object reads a UBJSON map body (after the '{' marker) into a Go map.
func (r *ubjsonReader) object() (map[string]any, error) {
	out := map[string]any{}
	for {
		if r.off >= len(r.buf) {
			return nil, r.errAt("unterminated object")
		}
		if r.buf[r.off] == '}' {
			r.off++
			return out, nil
		}
		key, err := r.str()
		if err != nil {
			return nil, err
		}
		marker, err := r.byte()
		if err != nil {
			return nil, err
		}
		v, err := r.value(marker)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
}

func (r *ubjsonReader) array() ([]any, error) {
	var out []any
	for {
		if r.off >= len(r.buf) {
			return nil, r.errAt("unterminated array")
		}
		if r.buf[r.off] == ']' {
			r.off++
			return out, nil
		}
		marker, err := r.byte()
		if err != nil {
			return nil, err
		}
		v, err := r.value(marker)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// parseMetadataBlock decodes the trailing metadata object. buf starts at
// the '{' marker of the metadata value.
func parseMetadataBlock(buf []byte) (map[string]any, error) {
	r := &ubjsonReader{buf: buf}
	marker, err := r.byte()
	if err != nil {
		return nil, err
	}
	if marker != '{' {
		return nil, r.errAt("expected object, got %q", marker)
	}
	return r.object()
}
