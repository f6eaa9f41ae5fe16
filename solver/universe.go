// Package solver is a structural type solver for a TypeScript-compatible checker.
//
// Types are interned into a shared Interner and referenced by TypeID. Named
// declarations live in a DefRegistry and are referenced through Lazy shapes.
// On top of these sit the Judge (pure structural subtyping), the Lawyer
// (assignability with the language's exceptions), the Inferrer (type argument
// inference at call sites), the Evaluator (conditional, mapped, indexed access,
// keyof and template literal types) and the Narrower (control flow guards).
//
// A compilation creates exactly one Universe before checking starts, and shares
// it by pointer with every worker. The Judge, Lawyer, Inferrer, Evaluator and
// Narrower are cheap to create and must not be shared between goroutines.
package solver

// Resolver is the view of the binder the solver needs: declaration bodies,
// value symbol types and class heritage
type Resolver interface {
	// ResolveLazy returns the body of def, or its Lazy placeholder if def is being lowered
	ResolveLazy(def DefID) TypeID
	Definition(def DefID) (Definition, bool)
	SymbolType(sym SymbolID) (TypeID, bool)
	// IsDerivedFrom reports whether class is base or inherits from it
	IsDerivedFrom(class, base DefID) bool
}

var _ Resolver = (*DefRegistry)(nil)

// AnyMode controls how far `any` escapes structural checks
type AnyMode uint8

const (
	// AnyEverywhere lets `any` satisfy every check at any depth
	AnyEverywhere AnyMode = iota
	// AnyTopLevelOnly lets `any` satisfy a check only at the top of the comparison;
	// nested occurrences must match structurally like `unknown` would
	AnyTopLevelOnly
)

func (m AnyMode) String() string {
	if m == AnyTopLevelOnly {
		return "top-level-only"
	}
	return "everywhere"
}

const (
	DefaultMaxSubtypeDepth    = 100
	DefaultMaxEvaluationDepth = 50
)

type Options struct {
	// StrictNullChecks keeps null and undefined out of every other type
	StrictNullChecks bool
	// StrictFunctionTypes compares the parameters of non-method signatures contravariantly
	StrictFunctionTypes bool
	// AnyMode applies to every comparison except function parameters
	AnyMode AnyMode
	// ParamAnyMode applies to function parameter comparisons under StrictFunctionTypes
	ParamAnyMode AnyMode
	// LooseMethodBivariance compares method parameters bivariantly
	LooseMethodBivariance bool
	// ExactOptionalPropertyTypes stops optional properties from accepting undefined
	ExactOptionalPropertyTypes bool

	MaxSubtypeDepth    int
	MaxEvaluationDepth int
}

// DefaultOptions mirrors a `strict: true` configuration
func DefaultOptions() Options {
	return Options{
		StrictNullChecks:      true,
		StrictFunctionTypes:   true,
		AnyMode:               AnyEverywhere,
		ParamAnyMode:          AnyTopLevelOnly,
		LooseMethodBivariance: true,
		MaxSubtypeDepth:       DefaultMaxSubtypeDepth,
		MaxEvaluationDepth:    DefaultMaxEvaluationDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxSubtypeDepth <= 0 {
		o.MaxSubtypeDepth = DefaultMaxSubtypeDepth
	}
	if o.MaxEvaluationDepth <= 0 {
		o.MaxEvaluationDepth = DefaultMaxEvaluationDepth
	}
	return o
}

// Universe is the per-compilation shared state: the interner and the definition registry
type Universe struct {
	Types   *Interner
	Defs    *DefRegistry
	Options Options
}

func NewUniverse(opts Options) *Universe {
	in := NewInterner()
	return &Universe{
		Types:   in,
		Defs:    NewDefRegistry(in),
		Options: opts.withDefaults(),
	}
}

func (u *Universe) Evaluator() *Evaluator {
	return NewEvaluator(u.Types, u.Defs, u.Options)
}

func (u *Universe) Judge() *Judge {
	return u.Evaluator().judge
}

func (u *Universe) Lawyer() *Lawyer {
	return NewLawyer(u.Judge())
}

func (u *Universe) Inferrer() *Inferrer {
	return NewInferrer(u.Lawyer())
}

func (u *Universe) Narrower() *Narrower {
	return NewNarrower(u.Judge())
}

// Failures returns internal invariant violations recorded so far
func (u *Universe) Failures() []error {
	return u.Types.Failures()
}
