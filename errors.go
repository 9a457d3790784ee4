package jsonpath

import "github.com/rfc9535/jsonpath/internal/perr"

// SyntaxError reports a JSONPath expression that does not conform to the
// RFC 9535 grammar.
type SyntaxError = perr.SyntaxError

// TypeError reports a well-typedness violation: a filter expression whose
// static type (Logical/Value/Nodes) is used somewhere it cannot convert to,
// such as comparing a node list directly or negating a value function.
type TypeError = perr.TypeError

// IndexError reports an array index or slice bound outside the engine's
// supported int range, such as a literal "-0" index.
type IndexError = perr.IndexError

// NameError reports an unknown function name used in a filter expression.
type NameError = perr.NameError

// RecursionError reports a descendant segment ("..") whose recursive
// traversal exceeded the configured maximum depth. Returned alongside the
// nodes gathered before the failure, from [Path.Select] and
// [Path.SelectLocated].
type RecursionError = perr.RecursionError
