// Package tserr holds the error vocabulary of the solver: sentinel internal
// errors, the Reason kinds structured failures are classified by, and an
// accumulator for reporting several failures at once.
//
// Nothing here assigns diagnostic codes or user-facing message text; that is
// the job of the checker consuming the solver.
package tserr

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownType is an internal invariant violation: a TypeID that was never interned
	ErrUnknownType = errors.New("unknown type id")
	// ErrUnknownDefinition is an internal invariant violation: a DefID that was never registered
	ErrUnknownDefinition = errors.New("unknown definition id")
	// ErrUnknownSymbol is an internal invariant violation: a SymbolID that was never declared
	ErrUnknownSymbol = errors.New("unknown symbol id")
	// ErrDepthExceeded reports that a recursion bound was hit; results computed under it fail closed
	ErrDepthExceeded = errors.New("maximum recursion depth exceeded")
)

// IsInternal reports whether err stems from an invariant violation rather than a type mismatch
func IsInternal(err error) bool {
	switch errors.Cause(err) {
	case ErrUnknownType, ErrUnknownDefinition, ErrUnknownSymbol:
		return true
	}
	return false
}

type Reason int

const (
	None Reason = iota
	NotAssignable
	MissingProperty
	PropertyMismatch
	OptionalityMismatch
	ReadonlyMismatch
	ExcessProperty
	NoCommonProperties
	IndexSignatureMismatch
	TooFewParameters
	TooManyParameters
	ParameterMismatch
	ReturnMismatch
	TupleArityMismatch
	NotAUnionMember
	EnumMismatch
	BrandMismatch
	TypeParameterOpaque
	DepthExceeded
	BoundsViolated
	ArgumentCount
	ArgumentMismatched
	NoOverloadMatched
)

var reasonNames = map[Reason]string{
	None:                   "none",
	NotAssignable:          "not assignable",
	MissingProperty:        "missing property",
	PropertyMismatch:       "property type mismatch",
	OptionalityMismatch:    "optional property where required",
	ReadonlyMismatch:       "readonly mismatch",
	ExcessProperty:         "excess property",
	NoCommonProperties:     "no properties in common with weak type",
	IndexSignatureMismatch: "index signature mismatch",
	TooFewParameters:       "too few parameters",
	TooManyParameters:      "too many parameters",
	ParameterMismatch:      "parameter type mismatch",
	ReturnMismatch:         "return type mismatch",
	TupleArityMismatch:     "tuple arity mismatch",
	NotAUnionMember:        "not assignable to any union member",
	EnumMismatch:           "enums from different declarations",
	BrandMismatch:          "private or protected member from a different declaration",
	TypeParameterOpaque:    "type parameter is opaque",
	DepthExceeded:          "recursion depth exceeded",
	BoundsViolated:         "inferred type violates constraint",
	ArgumentCount:          "wrong number of arguments",
	ArgumentMismatched:     "argument not assignable to parameter",
	NoOverloadMatched:      "no overload matched",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// ParseReason is the inverse of Reason.String
func ParseReason(name string) (Reason, bool) {
	for r, n := range reasonNames {
		if n == name {
			return r, true
		}
	}
	return None, false
}

// Failures accumulates errors. A nil *Failures is empty and ready to use.
type Failures struct {
	errs []error
}

func (f *Failures) With(errs ...error) *Failures {
	if f == nil {
		f = &Failures{}
	}
	f.errs = append(f.errs, errs...)
	return f
}

func (f *Failures) Merge(other *Failures) *Failures {
	if f == nil {
		return other
	}
	if other == nil || len(other.errs) == 0 {
		return f
	}
	return f.With(other.errs...)
}

func (f *Failures) Errors() []error {
	if f == nil {
		return nil
	}
	return f.errs
}

func (f *Failures) HasError() bool {
	return f != nil && len(f.errs) > 0
}

func (f *Failures) Error() string {
	if !f.HasError() {
		return "no failures"
	}
	if len(f.errs) == 1 {
		return f.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", f.errs[0].Error(), len(f.errs)-1)
}

func (f *Failures) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range f.Errors() {
		vals = append(vals, slog.Attr{
			Key:   fmt.Sprint("e", i),
			Value: slog.StringValue(v.Error()),
		})
	}
	return slog.GroupValue(vals...)
}
