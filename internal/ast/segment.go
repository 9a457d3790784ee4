package ast

import (
	"strings"

	"github.com/rfc9535/jsonpath/internal/object"
)

// Segment represents a child or descendant segment as defined in
// RFC 9535 §1.4.2. A segment holds one or more selectors.
type Segment struct {
	selectors  []Selector
	descendant bool
}

// Child creates a child [Segment] that applies selectors to direct children.
func Child(sel ...Selector) Segment {
	return Segment{selectors: sel}
}

// Descendant creates a descendant [Segment] that applies selectors recursively
// to all descendants.
func Descendant(sel ...Selector) Segment {
	return Segment{selectors: sel, descendant: true}
}

// Selectors returns the segment's selectors.
func (s *Segment) Selectors() []Selector { return s.selectors }

// IsDescendant reports whether the segment is a descendant segment.
func (s *Segment) IsDescendant() bool { return s.descendant }

// IsSingular reports whether the segment selects at most one node.
// A segment is singular only if it is a child segment with exactly one
// singular selector.
func (s *Segment) IsSingular() bool {
	if s.descendant || len(s.selectors) != 1 {
		return false
	}
	return s.selectors[0].IsSingular()
}

// writeTo writes the canonical string representation of the segment to buf.
// Child segments format as [<selectors>]; descendant segments as ..[<selectors>].
func (s *Segment) writeTo(buf *strings.Builder) {
	if s.descendant {
		buf.WriteString("..")
	}
	buf.WriteByte('[')
	for i := range s.selectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		s.selectors[i].writeTo(buf)
	}
	buf.WriteByte(']')
}

// String returns the canonical string representation of the segment.
func (s *Segment) String() string {
	var buf strings.Builder
	s.writeTo(&buf)
	return buf.String()
}

// Apply applies the segment to a list of nodes and returns the result. env
// may be nil, in which case default (deterministic, 100-level) behavior
// applies. If a descendant segment's own traversal exceeds env's recursion
// bound, Apply stops early and env.Err() reports the failure.
func (s *Segment) Apply(nodes []any, root any, env *Env) []any {
	if len(nodes) == 0 {
		return nodes
	}

	result := make([]any, 0, len(nodes))
	if s.descendant {
		for _, node := range nodes {
			if env.Failed() {
				break
			}
			result = appendDescendant(result, s.selectors, node, root, env, 0)
		}
	} else {
		for _, node := range nodes {
			result = appendSelectors(result, s.selectors, node, root, env)
		}
	}
	return result
}

// appendSelectors applies selectors to a single node and appends results.
func appendSelectors(out []any, selectors []Selector, node, root any, env *Env) []any {
	for i := range selectors {
		out = selectors[i].Apply(out, node, root, env)
	}
	return out
}

// appendDescendant recursively applies selectors to node and all
// descendants, in depth-first pre-order. depth counts the recursion level
// of this particular descendant segment's own walk; it resets to zero for
// every new top-level node passed to Apply and for every other descendant
// segment in the query, per RFC 9535's silence on depth being a
// per-traversal rather than whole-query bound.
func appendDescendant(out []any, selectors []Selector, node, root any, env *Env, depth int) []any {
	if env.Failed() {
		return out
	}
	if depth > env.maxDepth() {
		env.failRecursion(env.maxDepth())
		return out
	}

	out = appendSelectors(out, selectors, node, root, env)

	switch n := node.(type) {
	case *object.Object:
		values := object.Values(n)
		env.shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
		for _, v := range values {
			out = appendDescendant(out, selectors, v, root, env, depth+1)
			if env.Failed() {
				return out
			}
		}
	case []any:
		for _, v := range n {
			out = appendDescendant(out, selectors, v, root, env, depth+1)
			if env.Failed() {
				return out
			}
		}
	}
	return out
}
