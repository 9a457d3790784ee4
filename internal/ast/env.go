package ast

import (
	"math/rand/v2"

	"github.com/rfc9535/jsonpath/internal/perr"
)

// DefaultMaxRecursionDepth is the default bound on a descendant segment's
// own recursive traversal depth (configuration constant max_recursion_depth).
const DefaultMaxRecursionDepth = 100

// Env carries per-evaluation configuration through Select/Apply/Eval calls:
// the descendant-segment recursion bound and, in nondeterministic mode, the
// random source used to permute traversal order. A zero-value Env is valid
// and behaves like DefaultEnv.
//
// Env also accumulates the first recursion failure encountered anywhere
// during a top-level Select/SelectLocated call, including inside filter
// sub-queries that share the same Env. Callers check Err after evaluation
// completes; once set, further traversal stops producing additional nodes.
type Env struct {
	MaxDepth         int
	Nondeterministic bool
	Rand             *rand.Rand

	err error
}

// DefaultEnv returns an Env using the package defaults.
func DefaultEnv() *Env {
	return &Env{MaxDepth: DefaultMaxRecursionDepth}
}

func (e *Env) maxDepth() int {
	if e == nil || e.MaxDepth <= 0 {
		return DefaultMaxRecursionDepth
	}
	return e.MaxDepth
}

// Failed reports whether a recursion error has already been recorded.
func (e *Env) Failed() bool {
	return e != nil && e.err != nil
}

// Err returns the first recursion error recorded during evaluation, if any.
func (e *Env) Err() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Env) fail(err error) {
	if e == nil {
		return
	}
	if e.err == nil {
		e.err = err
	}
}

func (e *Env) failRecursion(maxDepth int) {
	e.fail(perr.NewRecursionError("descendant segment exceeded maximum recursion depth", maxDepth))
}

// DepthLimit returns the effective recursion-depth bound e enforces.
func (e *Env) DepthLimit() int { return e.maxDepth() }

// FailRecursion records a recursion-depth failure against e, for callers
// outside this package that implement their own descendant traversal
// (the located-node walk in the root jsonpath package).
func (e *Env) FailRecursion() { e.failRecursion(e.maxDepth()) }

// Shuffle permutes a slice of length n in place when e is in nondeterministic
// mode, for callers outside this package implementing their own traversal.
func (e *Env) Shuffle(n int, swap func(i, j int)) { e.shuffle(n, swap) }

// shuffle permutes a slice of length n in place when the Env is in
// nondeterministic mode, used for wildcard and descendant traversal of
// object members so that iteration order is a random permutation rather
// than fixed insertion order.
func (e *Env) shuffle(n int, swap func(i, j int)) {
	if e == nil || !e.Nondeterministic || e.Rand == nil || n < 2 {
		return
	}
	e.Rand.Shuffle(n, swap)
}
