package query

import (
	"fmt"
	"strconv"
)

// segmentKind discriminates path segments.
type segmentKind int

const (
	segField segmentKind = iota
	segIndex
	segWildcard
)

// segment is one step of a parsed path. raw preserves the source text
// (with the owning field name for bracket segments) for error reporting.
type segment struct {
	kind  segmentKind
	name  string
	index int
	raw   string
}

// Path is a parsed query expression: dotted field names and bracketed
// index / wildcard steps, e.g. "frames[-1].ports[].leader.post.state".
type Path struct {
	raw  string
	segs []segment
}

// String returns the original expression.
func (p Path) String() string { return p.raw }

// ParsePath parses a path expression.
//
// Grammar:
//
//	path     = segment { "." segment }
//	segment  = field { bracket } | bracket { bracket }
//	bracket  = "[" [ "-" ] digits "]" | "[]"
//	field    = ident
func ParsePath(expr string) (Path, error) {
	p := Path{raw: expr}
	if expr == "" {
		return p, &Error{Kind: KindBadPath, Segment: expr, Msg: "empty expression"}
	}

	i := 0
	expectSegment := true
	lastField := ""
	for i < len(expr) {
		switch {
		case expr[i] == '.':
			if expectSegment {
				return p, &Error{Kind: KindBadPath, Segment: expr, Msg: fmt.Sprintf("unexpected '.' at position %d", i)}
			}
			expectSegment = true
			i++

		case expr[i] == '[':
			end := i + 1
			for end < len(expr) && expr[end] != ']' {
				end++
			}
			if end == len(expr) {
				return p, &Error{Kind: KindBadPath, Segment: expr, Msg: "unterminated '['"}
			}
			body := expr[i+1 : end]
			raw := lastField + expr[i:end+1]
			if body == "" {
				p.segs = append(p.segs, segment{kind: segWildcard, raw: raw})
			} else {
				n, err := strconv.Atoi(body)
				if err != nil {
					return p, &Error{Kind: KindBadPath, Segment: raw, Msg: "index must be an integer"}
				}
				p.segs = append(p.segs, segment{kind: segIndex, index: n, raw: raw})
			}
			expectSegment = false
			i = end + 1

		case isIdentChar(expr[i]):
			if !expectSegment {
				return p, &Error{Kind: KindBadPath, Segment: expr, Msg: fmt.Sprintf("missing '.' before position %d", i)}
			}
			start := i
			for i < len(expr) && isIdentChar(expr[i]) {
				i++
			}
			name := expr[start:i]
			p.segs = append(p.segs, segment{kind: segField, name: name, raw: name})
			lastField = name
			expectSegment = false

		default:
			return p, &Error{Kind: KindBadPath, Segment: expr, Msg: fmt.Sprintf("unexpected %q at position %d", expr[i], i)}
		}
	}
	if expectSegment {
		return p, &Error{Kind: KindBadPath, Segment: expr, Msg: "trailing '.'"}
	}
	return p, nil
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
