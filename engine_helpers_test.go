package jsonpath

import (
	"sort"

	"github.com/rfc9535/jsonpath/internal/object"
)

// toEngine recursively converts plain Go map[string]any/[]any literals, as
// written in test tables, into the engine's native value representation
// (*object.Object for objects). Object keys are inserted in sorted order for
// determinism, since the source map[string]any has no ordering of its own.
func toEngine(v any) any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := object.NewSized(len(x))
		for _, k := range keys {
			object.Set(o, k, toEngine(x[k]))
		}
		return o
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toEngine(e)
		}
		return out
	default:
		return v
	}
}

// toEngineLocated converts the Value field of each [LocatedNode] in nodes
// via toEngine, leaving Path untouched.
func toEngineLocated(nodes []*LocatedNode) []*LocatedNode {
	out := make([]*LocatedNode, len(nodes))
	for i, n := range nodes {
		out[i] = &LocatedNode{Value: toEngine(n.Value), Path: n.Path}
	}
	return out
}
