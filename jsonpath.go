package jsonpath

import (
	"errors"
	"iter"
	"slices"

	"github.com/rfc9535/jsonpath/internal/ast"
	"github.com/rfc9535/jsonpath/internal/decode"
	"github.com/rfc9535/jsonpath/internal/object"
)

// Path is a compiled RFC 9535 JSONPath query. Safe for concurrent use: each
// Select/SelectLocated call builds its own evaluation environment, so a
// single compiled Path can be shared across goroutines.
type Path struct {
	query *ast.PathQuery
	cfg   evalConfig
}

// Node pairs a value with the normalized path to its location, as yielded by
// [Path.Iter].
type Node struct {
	value any
	path  NormalizedPath
	root  any
}

// Value returns the node's JSON value.
func (n Node) Value() any { return n.value }

// Location returns the normalized path to the node's location in Root.
func (n Node) Location() NormalizedPath { return n.path }

// Root returns the document the query was evaluated against.
func (n Node) Root() any { return n.root }

// Select returns all nodes matched by p in input. input must be a value
// produced by [QueryJSON]/[QueryJSONLocated] or by decoding JSON into the
// engine's native representation (nil, bool, int64/float64, string, []any,
// *object.Object). If a descendant segment's traversal exceeds the
// configured recursion bound, Select returns the nodes gathered before the
// failure along with a [RecursionError].
func (p *Path) Select(input any) (NodeList, error) {
	if p.query == nil {
		return nil, nil
	}
	env := p.cfg.newEnv()
	nodes := p.query.Select(input, input, env)
	if env.Failed() {
		return NodeList(nodes), env.Err()
	}
	return NodeList(nodes), nil
}

// Find is an alias for [Path.Select].
func (p *Path) Find(input any) (NodeList, error) {
	return p.Select(input)
}

// FindOne returns the first node matched by p in input, and false if no
// node matches (or if evaluation fails before producing one).
func (p *Path) FindOne(input any) (any, bool, error) {
	nodes, err := p.Select(input)
	if len(nodes) == 0 {
		return nil, false, err
	}
	return nodes[0], true, err
}

// SelectLocated returns matched nodes paired with their normalized paths.
func (p *Path) SelectLocated(input any) (LocatedNodeList, error) {
	if p.query == nil {
		return nil, nil
	}
	env := p.cfg.newEnv()
	res := []*LocatedNode{{Value: input, Path: nil}}
	segments := p.query.Segments()
	for i := range segments {
		if env.Failed() {
			break
		}
		res = applySegmentLocated(&segments[i], res, input, env)
	}
	if env.Failed() {
		return LocatedNodeList(res), env.Err()
	}
	return LocatedNodeList(res), nil
}

// Iter returns an iterator over the nodes matched by p in input, each paired
// with its normalized location. Iteration stops early if the consumer stops
// pulling values; a recursion-depth failure truncates the sequence rather
// than surfacing an error, since [iter.Seq] has no error channel — use
// [Path.SelectLocated] when that failure must be observed.
func (p *Path) Iter(input any) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		located, _ := p.SelectLocated(input)
		for _, n := range located {
			if !yield(Node{value: n.Value, path: n.Path, root: input}) {
				return
			}
		}
	}
}

// String returns the canonical string representation of p.
func (p *Path) String() string {
	if p.query == nil {
		return ""
	}
	return p.query.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	path, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = *path
	return nil
}

// Parse compiles a JSONPath expression. Returns [ErrPathParse] on failure.
func Parse(expr string) (*Path, error) {
	p := NewParser()
	return p.Parse(expr)
}

// MustParse compiles a JSONPath expression. Panics on failure.
func MustParse(expr string) *Path {
	path, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}

// Valid reports whether expr is a syntactically valid JSONPath expression.
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

// QueryJSON decodes src into the engine's native JSON representation and
// evaluates path against it.
func QueryJSON(src []byte, path *Path) (NodeList, error) {
	v, err := decode.Value(src)
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.Select(v)
}

// QueryJSONLocated is the located variant of QueryJSON.
func QueryJSONLocated(src []byte, path *Path) (LocatedNodeList, error) {
	v, err := decode.Value(src)
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.SelectLocated(v)
}

// extendPath creates a new path by appending elem to path.
// The original path is not modified.
func extendPath(path NormalizedPath, elem PathElement) NormalizedPath {
	return append(slices.Clone(path), elem)
}

// applySegmentLocated applies a segment to a list of located nodes, tracking
// each result's normalized path alongside the value.
func applySegmentLocated(seg *ast.Segment, nodes []*LocatedNode, root any, env *ast.Env) []*LocatedNode {
	if len(nodes) == 0 {
		return nodes
	}
	out := make([]*LocatedNode, 0, len(nodes))
	if seg.IsDescendant() {
		for _, n := range nodes {
			if env.Failed() {
				break
			}
			out = appendDescendantLocated(out, seg.Selectors(), n.Value, n.Path, root, env, 0)
		}
	} else {
		for _, n := range nodes {
			out = appendSelectorsLocated(out, seg.Selectors(), n.Value, n.Path, root, env)
		}
	}
	return out
}

// appendDescendantLocated recursively applies selectors to node and all its
// descendants, in depth-first pre-order, mirroring internal/ast's own
// descendant walk so both node lists and located node lists fail at the
// same recursion bound. depth resets to zero per top-level node.
func appendDescendantLocated(out []*LocatedNode, selectors []ast.Selector, node any, path NormalizedPath, root any, env *ast.Env, depth int) []*LocatedNode {
	if env.Failed() {
		return out
	}
	if depth > env.DepthLimit() {
		env.FailRecursion()
		return out
	}

	out = appendSelectorsLocated(out, selectors, node, path, root, env)

	switch v := node.(type) {
	case *object.Object:
		pairs := object.Pairs(v)
		env.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
		for _, pair := range pairs {
			out = appendDescendantLocated(out, selectors, pair.Value, extendPath(path, NameElement(pair.Key)), root, env, depth+1)
			if env.Failed() {
				return out
			}
		}
	case []any:
		for idx, child := range v {
			out = appendDescendantLocated(out, selectors, child, extendPath(path, IndexElement(idx)), root, env, depth+1)
			if env.Failed() {
				return out
			}
		}
	}
	return out
}

// appendSelectorsLocated applies a list of selectors to node, appending
// matches to out.
func appendSelectorsLocated(out []*LocatedNode, selectors []ast.Selector, node any, path NormalizedPath, root any, env *ast.Env) []*LocatedNode {
	for i := range selectors {
		out = appendSelectorLocated(out, &selectors[i], node, path, root, env)
	}
	return out
}

// appendSelectorLocated applies a single selector to node, appending matches
// with their extended paths to out.
func appendSelectorLocated(out []*LocatedNode, sel *ast.Selector, node any, path NormalizedPath, root any, env *ast.Env) []*LocatedNode {
	switch sel.Kind {
	case ast.Name:
		if m, ok := node.(*object.Object); ok {
			if v, ok := object.Get(m, sel.Name); ok {
				out = append(out, &LocatedNode{Value: v, Path: extendPath(path, NameElement(sel.Name))})
			}
		}
	case ast.Index:
		if arr, ok := node.([]any); ok {
			idx := sel.Index
			if idx < 0 {
				idx += int64(len(arr))
			}
			if idx >= 0 && idx < int64(len(arr)) {
				out = append(out, &LocatedNode{Value: arr[idx], Path: extendPath(path, IndexElement(idx))})
			}
		}
	case ast.Slice:
		if arr, ok := node.([]any); ok {
			out = appendSliceLocated(out, arr, path, sel.Slice)
		}
	case ast.Wildcard:
		switch v := node.(type) {
		case *object.Object:
			pairs := object.Pairs(v)
			env.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
			for _, pair := range pairs {
				out = append(out, &LocatedNode{Value: pair.Value, Path: extendPath(path, NameElement(pair.Key))})
			}
		case []any:
			for idx, val := range v {
				out = append(out, &LocatedNode{Value: val, Path: extendPath(path, IndexElement(idx))})
			}
		}
	case ast.Filter:
		switch v := node.(type) {
		case *object.Object:
			pairs := object.Pairs(v)
			env.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
			for _, pair := range pairs {
				if sel.Filter.Eval(pair.Value, root, env) {
					out = append(out, &LocatedNode{Value: pair.Value, Path: extendPath(path, NameElement(pair.Key))})
				}
			}
		case []any:
			for idx, val := range v {
				if sel.Filter.Eval(val, root, env) {
					out = append(out, &LocatedNode{Value: val, Path: extendPath(path, IndexElement(idx))})
				}
			}
		}
	}
	return out
}

// appendSliceLocated applies a slice selector to an array, appending
// selected elements with paths to out.
func appendSliceLocated(out []*LocatedNode, arr []any, path NormalizedPath, args ast.SliceArgs) []*LocatedNode {
	for _, idx := range ast.SliceIndices(args, len(arr)) {
		out = append(out, &LocatedNode{Value: arr[idx], Path: extendPath(path, IndexElement(idx))})
	}
	return out
}
