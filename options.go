package jsonpath

import (
	"fmt"
	"math/rand/v2"

	"github.com/rfc9535/jsonpath/functions"
	"github.com/rfc9535/jsonpath/internal/ast"
	"github.com/rfc9535/jsonpath/internal/parser"
)

// FuncType describes the type of a function extension's return value as
// defined by RFC 9535 §2.4.1.
type FuncType uint8

const (
	// FuncLogical indicates the function returns a logical (bool) value.
	FuncLogical FuncType = iota
	// FuncValue indicates the function returns a single JSON value.
	FuncValue
	// FuncNodes indicates the function returns a node list.
	FuncNodes
)

// ArgType describes the type of a function argument expression for
// parse-time validation.
type ArgType uint8

const (
	// ArgLiteral is a literal JSON value argument.
	ArgLiteral ArgType = iota
	// ArgSingularQuery is a singular query argument (e.g. @.name or $.name).
	ArgSingularQuery
	// ArgFilterQuery is a filter query argument producing a node list.
	ArgFilterQuery
	// ArgLogicalExpr is a logical expression argument.
	ArgLogicalExpr
	// ArgFunctionExpr is a nested function call argument.
	ArgFunctionExpr
)

// Function defines an extension function that can be registered with a
// [Parser] via [WithFunctions]. Implementations must be safe for concurrent
// use if the [Parser] is used concurrently.
type Function interface {
	// Name returns the function name as used in JSONPath expressions.
	Name() string
	// ResultType returns the FuncType of the function's return value.
	ResultType() FuncType
	// Validate checks argument types at parse time. It returns an error
	// if the argument types are incompatible with this function.
	Validate(args []ArgType) error
	// Call evaluates the function at query time and returns the result.
	Call(args []any) any
}

// Option configures a [Parser].
type Option func(*parserOptions)

// parserOptions holds configuration for a [Parser].
type parserOptions struct {
	functions        map[string]Function
	maxRecursionDepth int
	nondeterministic bool
	seed             *[2]uint64
}

// WithFunctions registers additional filter functions beyond the RFC 9535
// built-ins. If multiple functions share the same name, the last one wins.
func WithFunctions(fns ...Function) Option {
	return func(o *parserOptions) {
		for _, fn := range fns {
			o.functions[fn.Name()] = fn
		}
	}
}

// WithMaxRecursionDepth overrides the default bound (100) on a descendant
// segment's own recursive traversal depth. Queries whose ".." traversal
// would exceed depth fail evaluation with a [RecursionError].
func WithMaxRecursionDepth(depth int) Option {
	return func(o *parserOptions) { o.maxRecursionDepth = depth }
}

// WithNondeterministic enables nondeterministic traversal order (RFC 9535
// §2.5.1.1): wildcard selectors and descendant segments visit object
// members and array elements in a random permutation instead of document
// order, while still selecting the same set of nodes. Off by default.
func WithNondeterministic(on bool) Option {
	return func(o *parserOptions) { o.nondeterministic = on }
}

// WithSeed fixes the random source used in nondeterministic mode, for
// reproducible tests. Without it, each evaluation of a compiled [Path] gets
// its own randomly seeded source.
func WithSeed(seed1, seed2 uint64) Option {
	return func(o *parserOptions) { o.seed = &[2]uint64{seed1, seed2} }
}

// config extracts the evaluation configuration a compiled Path carries.
// Each call to Path.Select/SelectLocated builds a fresh [ast.Env] from this
// configuration, so concurrent evaluations of the same compiled Path never
// share mutable state.
func (o *parserOptions) config() evalConfig {
	depth := o.maxRecursionDepth
	if depth <= 0 {
		depth = ast.DefaultMaxRecursionDepth
	}
	return evalConfig{maxDepth: depth, nondeterministic: o.nondeterministic, seed: o.seed}
}

// evalConfig is the evaluation configuration baked into a compiled [Path]
// at parse time.
type evalConfig struct {
	maxDepth         int
	nondeterministic bool
	seed             *[2]uint64
}

// newEnv builds a fresh [ast.Env] for a single Select/SelectLocated call.
func (c evalConfig) newEnv() *ast.Env {
	e := &ast.Env{MaxDepth: c.maxDepth, Nondeterministic: c.nondeterministic}
	if c.nondeterministic {
		if c.seed != nil {
			e.Rand = rand.New(rand.NewPCG(c.seed[0], c.seed[1]))
		} else {
			e.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return e
}

// Parser parses JSONPath expressions into [Path] values, optionally
// configured with extension functions.
type Parser struct {
	opts parserOptions
}

// NewParser creates a new [Parser] configured by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		opts: parserOptions{
			functions: make(map[string]Function),
		},
	}
	for _, o := range opts {
		o(&p.opts)
	}
	return p
}

// RegisterFunction adds fn to p's function table, overriding any built-in or
// previously registered function sharing its name. Unlike [WithFunctions] it
// mutates an existing [Parser] after construction, for callers that build up
// a function set incrementally rather than all at once.
func (p *Parser) RegisterFunction(fn Function) {
	if p.opts.functions == nil {
		p.opts.functions = make(map[string]Function)
	}
	p.opts.functions[fn.Name()] = fn
}

// Parse compiles a JSONPath expression. Returns [ErrPathParse] on failure.
func (p *Parser) Parse(expr string) (*Path, error) {
	registry := newBuiltinRegistry()

	// User-provided functions can override built-ins; a value implementing
	// the public Function interface also satisfies ast.Function, since the
	// two interfaces declare identical method sets.
	for _, fn := range p.opts.functions {
		if af, ok := any(fn).(ast.Function); ok {
			registry.Register(af)
		}
	}

	internalParser, err := parser.New(expr, registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathParse, err)
	}

	query, err := internalParser.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathParse, err)
	}

	return &Path{query: query, cfg: p.opts.config()}, nil
}

// newBuiltinRegistry creates an [ast.Registry] populated with the RFC 9535
// §2.4 built-in functions.
func newBuiltinRegistry() *ast.Registry {
	r := ast.NewRegistry()
	functions.RegisterBuiltins(r)
	return r
}

// MustParse compiles a JSONPath expression. Panics on failure.
func (p *Parser) MustParse(expr string) *Path {
	path, err := p.Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}
