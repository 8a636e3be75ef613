package encode

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/query"
)

// MsgpackOptions controls msgpack rendering. Annotation follows the same
// rule as JSON: labeled enum integers become "<code>:<LABEL>" strings.
type MsgpackOptions struct {
	Annotate bool
	Labels   *labels.Table
}

// Msgpack renders a value tree as a msgpack document. Map keys are written
// in the model's declaration order rather than via map iteration, so the
// same value always yields the same bytes.
func Msgpack(v query.Value, opts MsgpackOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := writeMsgpack(enc, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMsgpack(enc *msgpack.Encoder, v query.Value, opts MsgpackOptions) error {
	switch v.Kind() {
	case query.Null:
		return enc.EncodeNil()

	case query.Bool:
		return enc.EncodeBool(v.BoolVal())

	case query.Int:
		if opts.Annotate && v.Label() != "" && opts.Labels != nil {
			if label, ok := opts.Labels.Lookup(v.Label(), v.IntVal()); ok {
				return enc.EncodeString(fmt.Sprintf("%d:%s", v.IntVal(), label))
			}
		}
		return enc.EncodeInt(v.IntVal())

	case query.Float:
		if v.IsFloat32() {
			return enc.EncodeFloat32(float32(v.FloatVal()))
		}
		return enc.EncodeFloat64(v.FloatVal())

	case query.String:
		return enc.EncodeString(v.StringVal())

	case query.Record:
		fields := v.Fields()
		if err := enc.EncodeMapLen(len(fields)); err != nil {
			return err
		}
		for _, f := range fields {
			if err := enc.EncodeString(f.Name); err != nil {
				return err
			}
			if err := writeMsgpack(enc, f.Value, opts); err != nil {
				return err
			}
		}
		return nil

	case query.Sequence:
		elems := v.Elems()
		if err := enc.EncodeArrayLen(len(elems)); err != nil {
			return err
		}
		for _, e := range elems {
			if err := writeMsgpack(enc, e, opts); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("encode: unknown value kind %d", v.Kind())
	}
}
