package encode

import (
	"bytes"
	"math"
	"testing"

	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/query"
)

func TestJSONScalars(t *testing.T) {
	tests := []struct {
		name string
		v    query.Value
		want string
	}{
		{"null", query.NullValue(), "null"},
		{"true", query.BoolValue(true), "true"},
		{"int", query.IntValue(-123), "-123"},
		{"string", query.StringValue("MANG#0"), `"MANG#0"`},
		{"string escape", query.StringValue("a\"b"), `"a\"b"`},
		{"float64", query.Float64Value(0.5), "0.5"},
		{"nan", query.Float64Value(math.NaN()), "null"},
		{"inf", query.Float64Value(math.Inf(1)), "null"},
		{"empty record", query.RecordValue(nil), "{}"},
		{"empty sequence", query.SequenceValue(nil), "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON(tt.v, JSONOptions{})
			if err != nil {
				t.Fatalf("JSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("JSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestJSONFloat32ShortestRoundTrip(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{42.5, "42.5"},
		{0.1, "0.1"},
		{float32(1) / 3, "0.33333334"},
		{-0, "0"},
	}
	for _, tt := range tests {
		got, err := JSON(query.Float32Value(tt.in), JSONOptions{})
		if err != nil {
			t.Fatalf("JSON() error = %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("JSON(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestJSONRecordOrder(t *testing.T) {
	v := query.RecordValue([]query.Field{
		{Name: "zulu", Value: query.IntValue(1)},
		{Name: "alpha", Value: query.IntValue(2)},
		{Name: "mike", Value: query.NullValue()},
	})
	got, err := JSON(v, JSONOptions{})
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	want := `{"zulu":1,"alpha":2,"mike":null}`
	if string(got) != want {
		t.Errorf("JSON() = %s, want %s (declaration order, not sorted)", got, want)
	}
}

func TestJSONIndent(t *testing.T) {
	v := query.RecordValue([]query.Field{
		{Name: "state", Value: query.IntValue(14)},
	})
	got, err := JSON(v, JSONOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	want := "{\n  \"state\": 14\n}\n"
	if string(got) != want {
		t.Errorf("JSON() = %q, want %q", got, want)
	}
}

func TestJSONAnnotation(t *testing.T) {
	table := labels.Default()

	tests := []struct {
		name     string
		v        query.Value
		annotate bool
		want     string
	}{
		{"wait", query.IntValue(14).WithLabel("action_state"), true, `"14:WAIT"`},
		{"dead left", query.IntValue(1).WithLabel("action_state"), true, `"1:DEAD_LEFT"`},
		{"unknown code stays numeric", query.IntValue(9999).WithLabel("action_state"), true, "9999"},
		{"unlabeled stays numeric", query.IntValue(14), true, "14"},
		{"annotation off", query.IntValue(14).WithLabel("action_state"), false, "14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON(tt.v, JSONOptions{Annotate: tt.annotate, Labels: table})
			if err != nil {
				t.Fatalf("JSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("JSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMsgpackDeterministic(t *testing.T) {
	v := query.RecordValue([]query.Field{
		{Name: "frame", Value: query.IntValue(-123)},
		{Name: "percent", Value: query.Float32Value(42.5)},
		{Name: "tag", Value: query.NullValue()},
		{Name: "states", Value: query.SequenceValue([]query.Value{
			query.IntValue(14), query.IntValue(1),
		})},
	})

	a, err := Msgpack(v, MsgpackOptions{})
	if err != nil {
		t.Fatalf("Msgpack() error = %v", err)
	}
	b, err := Msgpack(v, MsgpackOptions{})
	if err != nil {
		t.Fatalf("Msgpack() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two encodings of the same value differ")
	}
	if len(a) == 0 {
		t.Fatal("empty encoding")
	}
	// fixmap with 4 entries.
	if a[0] != 0x84 {
		t.Errorf("first byte = 0x%02x, want 0x84 (fixmap len 4)", a[0])
	}
}

func TestMsgpackAnnotation(t *testing.T) {
	v := query.IntValue(14).WithLabel("action_state")
	got, err := Msgpack(v, MsgpackOptions{Annotate: true, Labels: labels.Default()})
	if err != nil {
		t.Fatalf("Msgpack() error = %v", err)
	}
	if !bytes.Contains(got, []byte("14:WAIT")) {
		t.Errorf("encoding % x does not contain annotated string", got)
	}
}
