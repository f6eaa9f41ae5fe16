package solver

import (
	"testing"

	"github.com/cottand/tsolve/solver/tserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTernary(t *testing.T) {
	assert.Equal(t, False, True.And(False))
	assert.Equal(t, Unknown, True.And(Unknown))
	assert.Equal(t, False, Unknown.And(False))
	assert.Equal(t, True, Unknown.Or(True))
	assert.Equal(t, Unknown, False.Or(Unknown))
	assert.Equal(t, "unknown", Unknown.String())
}

func TestReflexivity(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	T := in.NewTypeParameter(TypeParameter{Name: "T", Constraint: TypeString})
	var list DefID
	list = u.Defs.Define(Definition{Name: "List", Kind: DefInterface}, func() TypeID {
		return in.Object([]Property{prop("value", TypeNumber), prop("next", in.Union(in.Lazy(list), TypeNull))})
	})

	types := map[string]TypeID{
		"string":    TypeString,
		"literal":   in.StringLiteral("a"),
		"union":     in.Union(TypeString, TypeNumber),
		"object":    in.Object([]Property{prop("a", TypeString), optionalProp("b", TypeNumber)}),
		"readonly":  in.Readonly(in.Object([]Property{prop("a", TypeString)})),
		"array":     in.Array(TypeBoolean),
		"tuple":     in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: in.Array(TypeNumber), Rest: true}),
		"function":  in.Function(fn([]Param{param("x", TypeString)}, TypeNumber)),
		"parameter": T,
		"recursive": in.Lazy(list),
		"template":  in.TemplateLiteral(TemplateSpan{Text: "id-"}, TemplateSpan{Type: TypeNumber}),
	}
	j := u.Judge()
	for name, typ := range types {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, True, j.IsSubtype(typ, typ))
			// a structurally equal copy that is not the same id
			if body := u.Evaluator().whnf(typ); body != typ {
				assert.Equal(t, True, j.IsSubtype(body, typ))
				assert.Equal(t, True, j.IsSubtype(typ, body))
			}
		})
	}
}

func TestRecursiveInterfacesAreRelatedCoinductively(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	var a, b DefID
	a = u.Defs.Define(Definition{Name: "A", Kind: DefInterface}, func() TypeID {
		return in.Object([]Property{prop("next", in.Union(in.Lazy(a), TypeNull))})
	})
	b = u.Defs.Define(Definition{Name: "B", Kind: DefInterface}, func() TypeID {
		return in.Object([]Property{prop("next", in.Union(in.Lazy(b), TypeNull))})
	})
	j := u.Judge()
	assert.Equal(t, True, j.IsSubtype(in.Lazy(a), in.Lazy(b)))
	assert.Equal(t, True, j.IsSubtype(in.Lazy(b), in.Lazy(a)))
}

func TestReadonlyAsymmetry(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	j := u.Judge()
	types := map[string]TypeID{
		"object": in.Object([]Property{prop("a", TypeString)}),
		"array":  in.Array(TypeString),
		"tuple":  in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber}),
	}
	for name, typ := range types {
		t.Run(name, func(t *testing.T) {
			ro := in.Readonly(typ)
			assert.Equal(t, True, j.IsSubtype(typ, ro))
			assert.Equal(t, False, j.IsSubtype(ro, typ))
			assert.Equal(t, True, j.IsSubtype(ro, in.Readonly(ro)))

			failure := j.Explain(ro, typ)
			require.NotNil(t, failure)
			assert.Equal(t, tserr.ReadonlyMismatch, failure.Reason)
		})
	}
}

func TestEnumNominality(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	zero := in.NumberLiteral(0)
	declA := u.Defs.Register(Definition{Name: "A", Kind: DefEnum})
	declB := u.Defs.Register(Definition{Name: "B", Kind: DefEnum})
	ax := in.EnumMember(declA, "X", zero)
	bx := in.EnumMember(declB, "X", zero)
	j := u.Judge()

	assert.Equal(t, False, j.IsSubtype(ax, bx))
	assert.Equal(t, False, j.IsSubtype(bx, ax))
	assert.Equal(t, tserr.EnumMismatch, j.Explain(ax, bx).Reason)
	assert.Equal(t, True, j.IsSubtype(ax, TypeNumber))
	assert.Equal(t, True, j.IsSubtype(ax, zero))
	assert.Equal(t, "A.X", u.Format(ax))
}

func TestUnionAndIntersectionDistribution(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	j := u.Judge()
	pool := []TypeID{
		in.Object([]Property{prop("a", TypeString)}),
		in.Object([]Property{prop("b", TypeNumber)}),
		in.Object([]Property{prop("a", TypeString), prop("b", TypeNumber)}),
		TypeString,
		in.StringLiteral("a"),
		TypeNumber,
	}
	for _, a := range pool {
		for _, b := range pool {
			for _, target := range pool {
				assert.Equal(t, j.IsSubtype(a, target).And(j.IsSubtype(b, target)), j.IsSubtype(in.Union(a, b), target),
					"%s | %s <: %s", in.Format(a), in.Format(b), in.Format(target))
				assert.Equal(t, j.IsSubtype(target, a).And(j.IsSubtype(target, b)), j.IsSubtype(target, in.Intersection(a, b)),
					"%s <: %s & %s", in.Format(target), in.Format(a), in.Format(b))
			}
		}
	}
}

func TestRestParameterTupleEquivalence(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	j := u.Judge()
	positional := in.Function(fn([]Param{param("a", TypeString), param("b", TypeNumber)}, TypeVoid))
	rest := in.Function(fn([]Param{{Name: "args", Type: in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber}), Rest: true}}, TypeVoid))

	assert.Equal(t, True, j.IsSubtype(positional, rest))
	assert.Equal(t, True, j.IsSubtype(rest, positional))
}

func TestSubtype(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	T := in.NewTypeParameter(TypeParameter{Name: "T", Constraint: TypeString})
	objA := in.Object([]Property{prop("a", TypeString)})
	objAB := in.Object([]Property{prop("a", TypeString), prop("b", TypeNumber)})
	optA := in.Object([]Property{optionalProp("a", TypeString)})
	numberRecord := in.Object(nil, IndexSignature{Key: TypeString, Value: TypeNumber})
	wideFn := in.Function(fn([]Param{param("x", in.Union(TypeString, TypeNumber))}, TypeVoid))
	narrowFn := in.Function(fn([]Param{param("x", TypeString)}, TypeVoid))
	template := in.TemplateLiteral(TemplateSpan{Text: "id-"}, TemplateSpan{Type: TypeNumber})

	testCases := []struct {
		name           string
		source, target TypeID
		expected       Ternary
		reason         tserr.Reason
	}{
		{name: "width subtyping", source: objAB, target: objA, expected: True},
		{name: "missing property", source: objA, target: objAB, expected: False, reason: tserr.MissingProperty},
		{name: "required to optional", source: objA, target: optA, expected: True},
		{name: "optional to required", source: optA, target: objA, expected: False, reason: tserr.OptionalityMismatch},
		{name: "literal to primitive", source: in.StringLiteral("x"), target: TypeString, expected: True},
		{name: "primitive to literal", source: TypeString, target: in.StringLiteral("x"), expected: False},
		{name: "never to anything", source: TypeNever, target: objA, expected: True},
		{name: "anything to unknown", source: objA, target: TypeUnknown, expected: True},
		{name: "any to string", source: TypeAny, target: TypeString, expected: True},
		{name: "any to never", source: TypeAny, target: TypeNever, expected: False},
		{name: "error is accepted", source: TypeError, target: TypeString, expected: True},
		{name: "null under strict null checks", source: TypeNull, target: TypeString, expected: False},
		{name: "undefined to void", source: TypeUndefined, target: TypeVoid, expected: True},
		{name: "object to object keyword", source: objA, target: TypeObject, expected: True},
		{name: "string to object keyword", source: TypeString, target: TypeObject, expected: False},
		{name: "function to Function", source: narrowFn, target: TypeFunction, expected: True},
		{name: "implicit index signature", source: objAB, target: in.Object(nil, IndexSignature{Key: TypeString, Value: in.Union(TypeString, TypeNumber)}), expected: True},
		{name: "index signature mismatch", source: objAB, target: numberRecord, expected: False},
		{name: "contravariant parameters", source: wideFn, target: narrowFn, expected: True},
		{name: "parameters are not covariant", source: narrowFn, target: wideFn, expected: False},
		{name: "fewer parameters", source: in.Function(fn(nil, TypeVoid)), target: narrowFn, expected: True},
		{name: "too many parameters", source: narrowFn, target: in.Function(fn(nil, TypeVoid)), expected: False, reason: tserr.TooManyParameters},
		{name: "return is covariant", source: in.Function(fn(nil, TypeString)), target: in.Function(fn(nil, TypeNumber)), expected: False, reason: tserr.NotAssignable},
		{name: "any return to void", source: in.Function(fn(nil, TypeString)), target: in.Function(fn(nil, TypeVoid)), expected: True},
		{name: "tuple to array", source: in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber}), target: in.Array(in.Union(TypeString, TypeNumber)), expected: True},
		{name: "tuple arity", source: in.Tuple(TupleElement{Type: TypeString}), target: in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber}), expected: False, reason: tserr.TupleArityMismatch},
		{name: "optional tuple element", source: in.Tuple(TupleElement{Type: TypeString}), target: in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber, Optional: true}), expected: True},
		{name: "array to tuple", source: in.Array(TypeString), target: in.Tuple(TupleElement{Type: TypeString}), expected: False},
		{name: "constrained parameter to constraint", source: T, target: TypeString, expected: True},
		{name: "constraint to parameter", source: TypeString, target: T, expected: False, reason: tserr.TypeParameterOpaque},
		{name: "literal to template", source: in.StringLiteral("id-42"), target: template, expected: True},
		{name: "literal not matching template", source: in.StringLiteral("id-x"), target: template, expected: False},
		{name: "template to string", source: template, target: TypeString, expected: True},
		{name: "not a union member", source: TypeBoolean, target: in.Union(TypeString, TypeNumber), expected: False, reason: tserr.NotAUnionMember},
		{name: "intersection members jointly", source: in.Intersection(objA, in.Object([]Property{prop("b", TypeNumber)})), target: objAB, expected: True},
	}
	j := u.Judge()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, j.IsSubtype(tc.source, tc.target))
			failure := j.Explain(tc.source, tc.target)
			if tc.expected == True {
				assert.Nil(t, failure)
				return
			}
			require.NotNil(t, failure)
			if tc.reason != tserr.None {
				assert.Equal(t, tc.reason, failure.Reason, failure.Error())
			}
		})
	}
}

func TestAnyModes(t *testing.T) {
	in := func(u *Universe) *Interner { return u.Types }
	fnOf := func(u *Universe, p TypeID) TypeID {
		return in(u).Function(fn([]Param{param("x", p)}, TypeVoid))
	}

	strict := newTestUniverse()
	j := strict.Judge()
	assert.Equal(t, True, j.IsSubtype(in(strict).Array(TypeAny), in(strict).Array(TypeString)), "any is accepted at depth outside parameters")
	assert.Equal(t, True, j.IsSubtype(fnOf(strict, TypeString), fnOf(strict, TypeAny)), "a parameter of type any is top level")
	assert.Equal(t, False, j.IsSubtype(fnOf(strict, in(strict).Array(TypeString)), fnOf(strict, in(strict).Array(TypeAny))),
		"any nested in a parameter does not escape")

	opts := DefaultOptions()
	opts.ParamAnyMode = AnyEverywhere
	loose := NewUniverse(opts)
	assert.Equal(t, True, loose.Judge().IsSubtype(fnOf(loose, in(loose).Array(TypeString)), fnOf(loose, in(loose).Array(TypeAny))))

	opts = DefaultOptions()
	opts.AnyMode = AnyTopLevelOnly
	topOnly := NewUniverse(opts)
	assert.Equal(t, True, topOnly.Judge().IsSubtype(TypeAny, TypeString))
	assert.Equal(t, False, topOnly.Judge().IsSubtype(in(topOnly).Array(TypeAny), in(topOnly).Array(TypeString)))
}

func TestNonStrictNullChecks(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictNullChecks = false
	u := NewUniverse(opts)
	assert.Equal(t, True, u.Judge().IsSubtype(TypeNull, TypeString))
	assert.Equal(t, True, u.Judge().IsSubtype(TypeUndefined, u.Types.Object([]Property{prop("a", TypeString)})))
}

func TestPendingParametersAreUnknown(t *testing.T) {
	u := newTestUniverse()
	T := u.Types.NewTypeParameter(TypeParameter{Name: "T"})
	j := u.Judge().WithPending(T)
	assert.Equal(t, Unknown, j.IsSubtype(T, TypeString))
	assert.Equal(t, Unknown, j.IsSubtype(u.Types.Array(TypeString), u.Types.Array(T)))
	assert.Equal(t, False, u.Judge().IsSubtype(TypeString, T))
}

func TestDepthExceededFailsClosed(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	source, target := TypeString, in.Union(TypeString, TypeNumber)
	for range DefaultMaxSubtypeDepth + 50 {
		source, target = in.Array(source), in.Array(target)
	}
	j := u.Judge()
	assert.Equal(t, False, j.IsSubtype(source, target))
	assert.Equal(t, tserr.DepthExceeded, j.Explain(source, target).Reason)
}

func TestExpandingGenericAliasesFailClosed(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	var deep DefID
	deep = u.Defs.Define(Definition{Name: "Deep", Kind: DefTypeAlias, TypeParams: []TypeID{T}}, func() TypeID {
		return in.Object([]Property{prop("x", in.Application(in.Lazy(deep), in.Array(T)))})
	})
	ofString := in.Application(in.Lazy(deep), TypeString)
	ofNumber := in.Application(in.Lazy(deep), TypeNumber)

	// one level is unfolded, the member stays an application
	assert.Equal(t,
		in.Object([]Property{prop("x", in.Application(in.Lazy(deep), in.Array(TypeString)))}),
		u.Evaluator().Evaluate(ofString))

	j := u.Judge()
	assert.Equal(t, False, j.IsSubtype(ofString, ofNumber))
	assert.Equal(t, False, j.IsSubtype(ofNumber, ofString))
	assert.Equal(t, tserr.DepthExceeded, j.Explain(ofString, ofNumber).Reason)
	assert.Equal(t, True, j.IsSubtype(ofString, ofString))
}

func TestStructurallyIdenticalAliasesAreRelated(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	var l1, l2 DefID
	l1 = u.Defs.Define(Definition{Name: "L1", Kind: DefTypeAlias}, func() TypeID {
		return in.Object([]Property{prop("next", in.Lazy(l1))})
	})
	l2 = u.Defs.Define(Definition{Name: "L2", Kind: DefTypeAlias}, func() TypeID {
		return in.Object([]Property{prop("next", in.Lazy(l2))})
	})
	assert.Equal(t, True, u.Judge().IsSubtype(in.Lazy(l1), in.Lazy(l2)))
}
