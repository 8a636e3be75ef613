package slippi

import (
	"bytes"
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/japanese"
)

// cursor reads big-endian primitives from a byte buffer, advancing an
// offset. Errors are sticky: after the first short read every subsequent
// read returns a zero value, and Err reports the failure once.
type cursor struct {
	buf  []byte
	off  int
	fail bool
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// Err returns a truncation error when any read ran past the buffer.
func (c *cursor) Err() error {
	if c.fail {
		return &DecodeError{Kind: KindTruncatedStream, Offset: c.off, Msg: "payload too short"}
	}
	return nil
}

func (c *cursor) take(n int) []byte {
	if c.fail || c.off+n > len(c.buf) {
		c.fail = true
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) i8() int8 {
	return int8(c.u8())
}

func (c *cursor) boolean() bool {
	return c.u8() != 0
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) f32() float32 {
	return math.Float32frombits(c.u32())
}

func (c *cursor) bytes(n int) []byte {
	b := c.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// shiftJISString decodes a fixed-size NUL-padded Shift-JIS field. Name
// fields in the start block are Shift-JIS regardless of platform.
func shiftJISString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if len(b) == 0 {
		return ""
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		// Keep whatever is valid ASCII rather than dropping the field.
		return string(b)
	}
	return string(decoded)
}

// asciiString decodes a fixed-size NUL-padded ASCII field.
func asciiString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
