// Package encode renders query values to output bytes. Both encoders are
// deterministic: record fields keep model declaration order, so output is
// diffable across runs on the same input.
package encode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/query"
)

// JSONOptions controls JSON rendering.
type JSONOptions struct {
	// Indent is the per-level indent string; empty renders compactly.
	Indent string

	// Annotate renders labeled enum integers as "<code>:<LABEL>" strings,
	// consulting Labels. The underlying stored value is unchanged; a
	// missing label falls back to the bare number.
	Annotate bool
	Labels   *labels.Table
}

// JSON renders a value tree. The absent marker renders as null, never as
// a zero value. float32 leaves use the shortest decimal string that
// round-trips bit-for-bit at 32-bit precision.
func JSON(v query.Value, opts JSONOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, opts, 0); err != nil {
		return nil, err
	}
	if opts.Indent != "" {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v query.Value, opts JSONOptions, depth int) error {
	switch v.Kind() {
	case query.Null:
		buf.WriteString("null")

	case query.Bool:
		if v.BoolVal() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case query.Int:
		if opts.Annotate && v.Label() != "" && opts.Labels != nil {
			if label, ok := opts.Labels.Lookup(v.Label(), v.IntVal()); ok {
				buf.WriteString(fmt.Sprintf("%q", fmt.Sprintf("%d:%s", v.IntVal(), label)))
				return nil
			}
		}
		buf.WriteString(strconv.FormatInt(v.IntVal(), 10))

	case query.Float:
		f := v.FloatVal()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// JSON has no representation for these.
			buf.WriteString("null")
			return nil
		}
		bits := 64
		if v.IsFloat32() {
			bits = 32
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, bits))

	case query.String:
		escaped, err := json.Marshal(v.StringVal())
		if err != nil {
			return err
		}
		buf.Write(escaped)

	case query.Record:
		fields := v.Fields()
		if len(fields) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, opts, depth+1)
			escaped, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(escaped)
			buf.WriteByte(':')
			if opts.Indent != "" {
				buf.WriteByte(' ')
			}
			if err := writeJSON(buf, f.Value, opts, depth+1); err != nil {
				return err
			}
		}
		newline(buf, opts, depth)
		buf.WriteByte('}')

	case query.Sequence:
		elems := v.Elems()
		if len(elems) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, e := range elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, opts, depth+1)
			if err := writeJSON(buf, e, opts, depth+1); err != nil {
				return err
			}
		}
		newline(buf, opts, depth)
		buf.WriteByte(']')

	default:
		return fmt.Errorf("encode: unknown value kind %d", v.Kind())
	}
	return nil
}

func newline(buf *bytes.Buffer, opts JSONOptions, depth int) {
	if opts.Indent == "" {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(opts.Indent)
	}
}
