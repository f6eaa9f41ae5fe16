package solver

import (
	"fmt"
	"slices"

	"github.com/cottand/tsolve/solver/tserr"
)

// relateSignatures compares parameters contravariantly and the return covariantly.
// Rest parameters of tuple type are unpacked on both sides first, so that
// `(a: A, b: B) => R` and `(...args: [A, B]) => R` compare as equivalent.
func (c *checker) relateSignatures(s, t Signature) Ternary {
	s = c.instantiateSourceSignature(s, t)
	sParams, tParams := c.eval.unpackParams(s.Params), c.eval.unpackParams(t.Params)

	if !hasRestParam(tParams) && minArgs(sParams) > len(tParams) {
		return c.failAt(tserr.TooManyParameters, NoType, NoType, "", len(tParams))
	}
	method := s.Method || t.Method
	result := True
	for i := range max(len(sParams), len(tParams)) {
		sType, sOk := c.eval.paramTypeAt(sParams, i)
		tType, tOk := c.eval.paramTypeAt(tParams, i)
		if !sOk || !tOk {
			continue
		}
		result = result.And(c.relateParam(sType, tType, method))
		if result == False {
			return c.failAt(tserr.ParameterMismatch, sType, tType, "", i)
		}
	}
	if s.This != NoType && t.This != NoType {
		result = result.And(c.relateParam(s.This, t.This, method))
		if result == False {
			return c.failAt(tserr.ParameterMismatch, s.This, t.This, "this", -1)
		}
	}
	if t.Return != NoType && t.Return != TypeVoid {
		ret := s.Return
		if ret == NoType {
			ret = TypeAny
		}
		result = result.And(c.check(ret, t.Return))
		if result == False {
			return c.fail(tserr.ReturnMismatch, ret, t.Return)
		}
	}
	if t.Predicate != nil && t.Predicate.Type != NoType {
		if s.Predicate == nil || s.Predicate.Type == NoType {
			return c.fail(tserr.ReturnMismatch, s.Return, t.Return)
		}
		result = result.And(c.check(s.Predicate.Type, t.Predicate.Type))
	}
	return result
}

// relateParam relates a source parameter to the target parameter at the same position
func (c *checker) relateParam(sType, tType TypeID, method bool) Ternary {
	if !c.rel.strictFunctionTypes || method && c.opts.LooseMethodBivariance {
		saved := c.failure
		if result := c.check(tType, sType); result != False {
			return result
		}
		c.failure = saved
		return c.check(sType, tType)
	}
	return c.withAnyMode(c.rel.paramAnyMode, func() Ternary {
		return c.check(tType, sType)
	})
}

// instantiateSourceSignature removes the type parameters of a generic source,
// either renaming them to the target's or inferring them from the target's parameters
func (c *checker) instantiateSourceSignature(s, t Signature) Signature {
	if len(s.TypeParams) == 0 {
		return s
	}
	if len(s.TypeParams) == len(t.TypeParams) {
		return c.in.InstantiateSignature(s, SubstitutionOf(s.TypeParams, t.TypeParams))
	}
	inf := newInference(c.Judge, s.TypeParams)
	sParams, tParams := c.eval.unpackParams(s.Params), c.eval.unpackParams(t.Params)
	for i := range max(len(sParams), len(tParams)) {
		sType, sOk := c.eval.paramTypeAt(sParams, i)
		tType, tOk := c.eval.paramTypeAt(tParams, i)
		if sOk && tOk {
			inf.infer(tType, sType, covariant)
		}
	}
	return c.in.InstantiateSignature(s, inf.solveLoose())
}

func hasRestParam(params []Param) bool {
	return len(params) > 0 && params[len(params)-1].Rest
}

func minArgs(params []Param) int {
	return Signature{Params: params}.MinArgs()
}

// unpackParams expands a trailing rest parameter of tuple type into positional parameters
func (e *Evaluator) unpackParams(params []Param) []Param {
	if !hasRestParam(params) {
		return params
	}
	last := params[len(params)-1]
	inner, _ := e.unwrapReadonly(last.Type)
	tuple, ok := e.in.shape(inner).(Tuple)
	if !ok {
		return params
	}
	out := slices.Clone(params[:len(params)-1])
	for i, el := range tuple.Elems {
		name := el.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", last.Name, i)
		}
		out = append(out, Param{Name: name, Type: el.Type, Optional: el.Optional, Rest: el.Rest})
	}
	return e.unpackParams(out)
}

// paramTypeAt is the type an argument at position i is checked against
func (e *Evaluator) paramTypeAt(params []Param, i int) (TypeID, bool) {
	n := len(params)
	if i < n && !params[i].Rest {
		return params[i].Type, true
	}
	if hasRestParam(params) && i >= n-1 {
		return e.restElement(params[n-1].Type), true
	}
	return NoType, false
}
