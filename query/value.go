// Package query selects sub-values of the replay model via path
// expressions like "frames[-1].ports[].leader.post.state".
//
// Evaluation runs over a small closed value type (record / sequence /
// scalar) that the typed model is converted into on demand; the model's
// own structs stay the source of truth.
package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind discriminates Value variants.
type Kind uint8

const (
	// Null is the explicit "not recorded" marker: a field present in the
	// model but absent at the stream's format version.
	Null Kind = iota
	Bool
	Int
	Float
	String
	Record
	Sequence
)

// Value is one node of the generic tree: a scalar leaf, an ordered record
// of named fields, or a sequence.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	f32   bool
	s     string
	attrs []Field
	elems []Value

	// label names the enum category used by name-annotated rendering
	// (e.g. "action_state"); empty for unlabeled values.
	label string
}

// Field is one named entry of a Record, in declaration order.
type Field struct {
	Name  string
	Value Value
}

// Kind returns the variant discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the explicit absent marker.
func (v Value) IsNull() bool { return v.kind == Null }

// BoolVal returns the boolean payload.
func (v Value) BoolVal() bool { return v.b }

// IntVal returns the integer payload.
func (v Value) IntVal() int64 { return v.i }

// FloatVal returns the float payload.
func (v Value) FloatVal() float64 { return v.f }

// IsFloat32 reports whether the float payload originated as a 32-bit
// IEEE-754 value, so renderers can use the exact shortest float32 form.
func (v Value) IsFloat32() bool { return v.f32 }

// StringVal returns the string payload.
func (v Value) StringVal() string { return v.s }

// Fields returns a Record's ordered fields.
func (v Value) Fields() []Field { return v.attrs }

// Elems returns a Sequence's elements.
func (v Value) Elems() []Value { return v.elems }

// Label returns the enum category for annotation, or "".
func (v Value) Label() string { return v.label }

// FieldByName returns the named field's value.
func (v Value) FieldByName(name string) (Value, bool) {
	for _, f := range v.attrs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// NullValue returns the explicit absent marker.
func NullValue() Value { return Value{kind: Null} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// Float32Value wraps a game-native 32-bit float.
func Float32Value(f float32) Value { return Value{kind: Float, f: float64(f), f32: true} }

// Float64Value wraps a 64-bit float.
func Float64Value(f float64) Value { return Value{kind: Float, f: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// RecordValue wraps ordered fields.
func RecordValue(fields []Field) Value { return Value{kind: Record, attrs: fields} }

// SequenceValue wraps elements.
func SequenceValue(elems []Value) Value { return Value{kind: Sequence, elems: elems} }

// WithLabel tags a value with an enum category for annotated rendering.
func (v Value) WithLabel(category string) Value {
	v.label = category
	return v
}

// DropField returns a copy of a Record without the named field. Non-record
// values are returned unchanged.
func DropField(v Value, name string) Value {
	if v.kind != Record {
		return v
	}
	fields := make([]Field, 0, len(v.attrs))
	for _, f := range v.attrs {
		if f.Name != name {
			fields = append(fields, f)
		}
	}
	return RecordValue(fields)
}

// ValueOf converts any part of the replay model into the generic tree.
// Struct fields convert in declaration order under their json tag names;
// fields tagged `json:"-"` are skipped; nil pointers become the explicit
// Null marker, never a zero value. A `label` struct tag propagates the
// enum category for annotated rendering.
func ValueOf(model any) Value {
	return valueOf(reflect.ValueOf(model))
}

func valueOf(rv reflect.Value) Value {
	if !rv.IsValid() {
		return NullValue()
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NullValue()
		}
		return valueOf(rv.Elem())

	case reflect.Bool:
		return BoolValue(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntValue(int64(rv.Uint()))

	case reflect.Float32:
		return Float32Value(float32(rv.Float()))

	case reflect.Float64:
		return Float64Value(rv.Float())

	case reflect.String:
		return StringValue(rv.String())

	case reflect.Slice:
		if rv.IsNil() {
			return SequenceValue(nil)
		}
		fallthrough

	case reflect.Array:
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = valueOf(rv.Index(i))
		}
		return SequenceValue(elems)

	case reflect.Struct:
		return structValue(rv)

	default:
		return StringValue(fmt.Sprintf("%v", rv.Interface()))
	}
}

func structValue(rv reflect.Value) Value {
	t := rv.Type()
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "-" {
			continue
		}
		v := valueOf(rv.Field(i))
		if cat := sf.Tag.Get("label"); cat != "" {
			v = v.WithLabel(cat)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return RecordValue(fields)
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}
