package ast

import (
	"strconv"
	"strings"

	"github.com/rfc9535/jsonpath/internal/object"
)

// SelectorKind identifies the variant stored in a [Selector].
type SelectorKind uint8

const (
	Name     SelectorKind = iota // member name selector
	Index                        // array index selector
	Slice                        // array slice selector
	Wildcard                     // wildcard selector
	Filter                       // filter selector
)

// Selector is a tagged union representing one of the five RFC 9535 selector
// types. Using a concrete struct (instead of an interface) keeps selector
// slices contiguous in memory for cache efficiency.
type Selector struct {
	Kind   SelectorKind
	Name   string      // Name: the member name
	Index  int64       // Index: the array index (may be negative)
	Slice  SliceArgs   // Slice
	Filter *FilterExpr // Filter
}

// SliceArgs holds the optional start, end, step for a slice selector.
type SliceArgs struct {
	Start    int64
	End      int64
	Step     int64
	HasStart bool
	HasEnd   bool
	HasStep  bool
}

// NameSelector returns a Selector for a member name.
func NameSelector(name string) Selector {
	return Selector{Kind: Name, Name: name}
}

// IndexSelector returns a Selector for an array index.
func IndexSelector(idx int64) Selector {
	return Selector{Kind: Index, Index: idx}
}

// SliceSelector returns a Selector for an array slice.
func SliceSelector(args SliceArgs) Selector {
	return Selector{Kind: Slice, Slice: args}
}

// WildcardSelector returns a wildcard Selector.
func WildcardSelector() Selector {
	return Selector{Kind: Wildcard}
}

// FilterSelector returns a filter Selector.
func FilterSelector(expr *FilterExpr) Selector {
	return Selector{Kind: Filter, Filter: expr}
}

// IsSingular reports whether the selector can select at most one node.
// Only name and index selectors are singular.
func (s *Selector) IsSingular() bool {
	return s.Kind == Name || s.Kind == Index
}

// writeTo writes the canonical string representation of s to buf. Name
// selectors use single-quoted strings per RFC 9535 §2.7's canonical form.
func (s *Selector) writeTo(buf *strings.Builder) {
	switch s.Kind {
	case Name:
		writeSingleQuoted(buf, s.Name)
	case Index:
		buf.WriteString(strconv.FormatInt(s.Index, 10))
	case Slice:
		s.Slice.writeTo(buf)
	case Wildcard:
		buf.WriteByte('*')
	case Filter:
		buf.WriteString("?")
		s.Filter.writeTo(buf)
	}
}

// writeSingleQuoted writes s as a single-quoted JSONPath name-selector
// literal, escaping backslash, single quote, and control characters, per the
// same convention as a normalized path's NameElement.
func writeSingleQuoted(buf *strings.Builder, s string) {
	buf.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte("0123456789abcdef"[r>>4])
				buf.WriteByte("0123456789abcdef"[r&0xf])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('\'')
}

// writeDoubleQuoted writes s as a double-quoted JSONPath string literal (used
// for filter-expression string literals, a separate grammar context from
// name selectors), escaping backslash, double quote, and control characters.
func writeDoubleQuoted(buf *strings.Builder, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte("0123456789abcdef"[r>>4])
				buf.WriteByte("0123456789abcdef"[r&0xf])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// String returns the canonical string representation of s.
func (s *Selector) String() string {
	var buf strings.Builder
	s.writeTo(&buf)
	return buf.String()
}

// Apply applies the selector to a node and appends matching results to out.
// env may be nil.
func (s *Selector) Apply(out []any, node, root any, env *Env) []any {
	switch s.Kind {
	case Name:
		if m, ok := node.(*object.Object); ok {
			if v, ok := object.Get(m, s.Name); ok {
				out = append(out, v)
			}
		}
	case Index:
		if arr, ok := node.([]any); ok {
			idx := s.Index
			if idx < 0 {
				idx += int64(len(arr))
			}
			if idx >= 0 && idx < int64(len(arr)) {
				out = append(out, arr[idx])
			}
		}
	case Slice:
		if arr, ok := node.([]any); ok {
			out = s.applySlice(out, arr)
		}
	case Wildcard:
		switch n := node.(type) {
		case *object.Object:
			values := object.Values(n)
			env.shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
			out = append(out, values...)
		case []any:
			out = append(out, n...)
		}
	case Filter:
		switch n := node.(type) {
		case *object.Object:
			values := object.Values(n)
			env.shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
			for _, v := range values {
				if s.Filter.Eval(v, root, env) {
					out = append(out, v)
				}
			}
		case []any:
			for _, v := range n {
				if s.Filter.Eval(v, root, env) {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// applySlice applies a slice selector to an array.
func (s *Selector) applySlice(out []any, arr []any) []any {
	for _, i := range SliceIndices(s.Slice, len(arr)) {
		out = append(out, arr[i])
	}
	return out
}

// SliceIndices computes, in selection order, the array indices a slice
// selector with the given arguments selects from an array of the given
// length, per RFC 9535 §2.3.4.2.2. It is the single implementation shared
// by filter-query evaluation (this package) and top-level path evaluation.
func SliceIndices(args SliceArgs, length int) []int {
	l := int64(length)
	if l == 0 {
		return nil
	}

	start := args.Start
	end := args.End
	step := args.Step

	if !args.HasStep {
		step = 1
	}

	switch {
	case step > 0:
		if !args.HasStart {
			start = 0
		}
		if !args.HasEnd {
			end = l
		}
	case step < 0:
		if !args.HasStart {
			start = l - 1
		}
		if !args.HasEnd {
			end = -l - 1
		}
	default:
		return nil
	}

	if start < 0 {
		start += l
	}
	if end < 0 {
		end += l
	}

	if step > 0 {
		start = clamp(start, 0, l)
		end = clamp(end, 0, l)
	} else {
		start = clamp(start, 0, l-1)
		end = clamp(end, -1, l-1)
	}

	var out []int
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, int(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, int(i))
		}
	}
	return out
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// writeTo writes the canonical slice notation (e.g. "1:5:2") to buf.
func (a *SliceArgs) writeTo(buf *strings.Builder) {
	if a.HasStart {
		buf.WriteString(strconv.FormatInt(a.Start, 10))
	}
	buf.WriteByte(':')
	if a.HasEnd {
		buf.WriteString(strconv.FormatInt(a.End, 10))
	}
	if a.HasStep {
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(a.Step, 10))
	}
}
