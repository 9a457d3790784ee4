// Package object provides the insertion-order-preserving JSON object
// representation used throughout the engine in place of a native Go map,
// whose iteration order is unspecified.
package object

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object: a mapping from string keys to JSON values that
// preserves the order in which members were inserted.
type Object = orderedmap.OrderedMap[string, any]

// Pair is a single key/value member of an Object, as yielded during iteration.
type Pair = orderedmap.Pair[string, any]

// New returns an empty Object.
func New() *Object {
	return orderedmap.New[string, any]()
}

// NewSized returns an empty Object with capacity preallocated for n members.
func NewSized(n int) *Object {
	return orderedmap.New[string, any](orderedmap.WithCapacity[string, any](n))
}

// Get returns the value for key and whether it was present.
func Get(o *Object, key string) (any, bool) {
	return o.Get(key)
}

// Set inserts or updates key with value, preserving key's original
// position if it already existed.
func Set(o *Object, key string, value any) {
	o.Set(key, value)
}

// Len returns the number of members in o. A nil Object has length 0.
func Len(o *Object) int {
	if o == nil {
		return 0
	}
	return o.Len()
}

// Keys returns the object's keys in insertion order.
func Keys(o *Object) []string {
	keys := make([]string, 0, Len(o))
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Values returns the object's values in insertion order.
func Values(o *Object) []any {
	values := make([]any, 0, Len(o))
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// Pairs returns the object's key/value members in insertion order.
func Pairs(o *Object) []Pair {
	pairs := make([]Pair, 0, Len(o))
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		pairs = append(pairs, Pair{Key: pair.Key, Value: pair.Value})
	}
	return pairs
}

// Equal reports whether a and b contain the same members (order-independent
// for equality, since RFC 9535 object equality does not consider member
// order). eq compares two values for deep equality.
func Equal(a, b *Object, eq func(x, y any) bool) bool {
	if Len(a) != Len(b) {
		return false
	}
	for pair := a.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := b.Get(pair.Key)
		if !ok || !eq(pair.Value, v) {
			return false
		}
	}
	return true
}
