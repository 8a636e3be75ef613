package query

import "fmt"

// Eval evaluates a parsed path against a value tree. Wildcard segments
// broadcast the remainder of the path across every element of the current
// sequence, composing depth-first left to right; the result shape mirrors
// the nested-sequence structure.
func Eval(root Value, path Path) (Value, error) {
	return eval(root, path.segs)
}

// Select parses and evaluates an expression in one step.
func Select(root Value, expr string) (Value, error) {
	path, err := ParsePath(expr)
	if err != nil {
		return Value{}, err
	}
	return Eval(root, path)
}

func eval(v Value, segs []segment) (Value, error) {
	if len(segs) == 0 {
		return v, nil
	}
	s := segs[0]
	rest := segs[1:]

	switch s.kind {
	case segField:
		if v.Kind() != Record {
			return Value{}, &Error{
				Kind:    KindNoSuchField,
				Segment: s.raw,
				Msg:     "not a record",
			}
		}
		field, ok := v.FieldByName(s.name)
		if !ok {
			return Value{}, &Error{Kind: KindNoSuchField, Segment: s.raw}
		}
		return eval(field, rest)

	case segIndex:
		if v.Kind() != Sequence {
			return Value{}, &Error{
				Kind:    KindIndexOutOfRange,
				Segment: s.raw,
				Msg:     "not a sequence",
			}
		}
		elems := v.Elems()
		idx := s.index
		if idx < 0 {
			idx += len(elems)
		}
		if idx < 0 || idx >= len(elems) {
			return Value{}, &Error{
				Kind:    KindIndexOutOfRange,
				Segment: s.raw,
				Msg:     fmt.Sprintf("sequence has %d elements", len(elems)),
			}
		}
		return eval(elems[idx], rest)

	case segWildcard:
		if v.Kind() != Sequence {
			return Value{}, &Error{
				Kind:    KindIndexOutOfRange,
				Segment: s.raw,
				Msg:     "not a sequence",
			}
		}
		results := make([]Value, 0, len(v.Elems()))
		for _, elem := range v.Elems() {
			r, err := eval(elem, rest)
			if err != nil {
				return Value{}, err
			}
			results = append(results, r)
		}
		return SequenceValue(results), nil

	default:
		return Value{}, &Error{Kind: KindBadPath, Segment: s.raw}
	}
}

// Flatten collapses single-element sequence nesting, recursively: the
// "quiet" rendering mode uses it so a query that fans out over one port
// prints the bare value instead of [[x]].
func Flatten(v Value) Value {
	for v.Kind() == Sequence && len(v.Elems()) == 1 {
		v = v.Elems()[0]
	}
	if v.Kind() == Sequence {
		elems := make([]Value, len(v.Elems()))
		for i, e := range v.Elems() {
			elems[i] = Flatten(e)
		}
		return SequenceValue(elems)
	}
	return v
}
