package solver

import (
	"testing"

	"github.com/cottand/tsolve/solver/tserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcessProperties(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	l := u.Lawyer()
	ctx := l.Context()
	props := []Property{prop("a", in.NumberLiteral(1)), prop("b", in.NumberLiteral(2))}
	literal := in.FreshObject(props)
	target := in.Object([]Property{prop("a", TypeNumber)})

	ok, failure := l.Check(literal, target, ctx)
	assert.False(t, ok)
	require.NotNil(t, failure)
	assert.Equal(t, tserr.ExcessProperty, failure.Reason)
	assert.Equal(t, "b", failure.Property)

	t.Run("widened literal is not checked", func(t *testing.T) {
		assert.True(t, l.IsAssignable(in.Widen(literal), target, ctx))
	})
	t.Run("source marked fresh by the context", func(t *testing.T) {
		fresh := ctx
		fresh.SourceFresh = true
		ok, failure := l.Check(in.Widen(literal), target, fresh)
		assert.False(t, ok)
		assert.Equal(t, tserr.ExcessProperty, failure.Reason)
	})
	t.Run("the judge alone accepts it", func(t *testing.T) {
		assert.Equal(t, True, u.Judge().IsSubtype(literal, target))
	})
	t.Run("index signature accepts any property", func(t *testing.T) {
		record := in.Object(nil, IndexSignature{Key: TypeString, Value: TypeNumber})
		assert.True(t, l.IsAssignable(literal, record, ctx))
	})
	t.Run("intersection declares properties jointly", func(t *testing.T) {
		both := in.Intersection(target, in.Object([]Property{prop("b", TypeNumber)}))
		assert.True(t, l.IsAssignable(literal, both, ctx))
	})
	t.Run("union declares properties jointly", func(t *testing.T) {
		either := in.Union(target, in.Object([]Property{prop("b", TypeNumber)}))
		assert.True(t, l.IsAssignable(literal, either, ctx))
	})
	t.Run("nested literal", func(t *testing.T) {
		outer := in.FreshObject([]Property{prop("inner", literal)})
		ok, failure := l.Check(outer, in.Object([]Property{prop("inner", target)}), ctx)
		assert.False(t, ok)
		assert.Equal(t, tserr.ExcessProperty, failure.Reason)
	})
}

func TestEnumAssignability(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	zero, one := in.NumberLiteral(0), in.NumberLiteral(1)
	declA := u.Defs.Register(Definition{Name: "A", Kind: DefEnum})
	declB := u.Defs.Register(Definition{Name: "B", Kind: DefEnum})
	ax := in.EnumMember(declA, "X", zero)
	ay := in.EnumMember(declA, "Y", one)
	bx := in.EnumMember(declB, "X", zero)
	l := u.Lawyer()

	testCases := []struct {
		name           string
		source, target TypeID
		expected       bool
		reason         tserr.Reason
	}{
		{name: "other declaration", source: ax, target: bx, expected: false, reason: tserr.EnumMismatch},
		{name: "other member", source: ax, target: ay, expected: false, reason: tserr.NotAssignable},
		{name: "same member", source: ax, target: ax, expected: true},
		{name: "member to number", source: ax, target: TypeNumber, expected: true},
		{name: "matching numeric literal", source: zero, target: ax, expected: true},
		{name: "other numeric literal", source: one, target: ax, expected: false, reason: tserr.NotAssignable},
		{name: "number to numeric member", source: TypeNumber, target: ax, expected: false, reason: tserr.NotAssignable},
		{name: "number to every member", source: TypeNumber, target: in.Union(ax, ay), expected: false, reason: tserr.NotAUnionMember},
		{name: "member to enum union", source: ax, target: in.Union(ax, ay), expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, failure := l.Check(tc.source, tc.target, l.Context())
			assert.Equal(t, tc.expected, ok)
			if !tc.expected {
				require.NotNil(t, failure)
				assert.Equal(t, tc.reason, failure.Reason)
			}
		})
	}
}

func TestWeakTypes(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	l := u.Lawyer()
	weak := in.Object([]Property{optionalProp("a", TypeString), optionalProp("b", TypeNumber)})

	ok, failure := l.Check(in.Object([]Property{prop("c", TypeBoolean)}), weak, l.Context())
	assert.False(t, ok)
	require.NotNil(t, failure)
	assert.Equal(t, tserr.NoCommonProperties, failure.Reason)

	assert.True(t, l.IsAssignable(in.Object([]Property{prop("a", TypeString), prop("c", TypeBoolean)}), weak, l.Context()))
	assert.True(t, l.IsAssignable(in.Object(nil), weak, l.Context()))
	assert.Equal(t, True, u.Judge().IsSubtype(in.Object([]Property{prop("c", TypeBoolean)}), weak))
}

func TestBrands(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	a := u.Defs.Register(Definition{Name: "A", Kind: DefClass})
	b := u.Defs.Register(Definition{Name: "B", Kind: DefClass})
	derived := u.Defs.Register(Definition{Name: "D", Kind: DefClass, Extends: []DefID{a}})
	private := func(decl DefID) Property {
		return Property{Name: "x", Type: TypeNumber, Visibility: Private, DeclaredBy: decl}
	}
	classA := in.Object([]Property{private(a)})
	classB := in.Object([]Property{private(b)})
	classD := in.Object([]Property{private(a), prop("y", TypeString)})
	public := in.Object([]Property{prop("x", TypeNumber)})
	l := u.Lawyer()
	ctx := l.Context()

	ok, failure := l.Check(classB, classA, ctx)
	assert.False(t, ok)
	require.NotNil(t, failure)
	assert.Equal(t, tserr.BrandMismatch, failure.Reason)
	assert.Equal(t, "x", failure.Property)
	assert.Equal(t, True, u.Judge().IsSubtype(classB, classA), "subtyping ignores visibility")

	assert.True(t, l.IsAssignable(classD, classA, ctx))
	assert.False(t, l.IsAssignable(public, classA, ctx))
	assert.False(t, l.IsAssignable(classA, public, ctx))
	assert.True(t, l.IsAssignable(in.Object([]Property{private(derived)}), classA, ctx))
}

func TestAssignContext(t *testing.T) {
	u := newTestUniverse()
	l := u.Lawyer()
	ctx := l.Context()
	assert.True(t, ctx.Strict)
	assert.True(t, ctx.StrictFunctionTypes)

	assert.False(t, l.IsAssignable(TypeNull, TypeString, ctx))
	ctx.Strict = false
	assert.True(t, l.IsAssignable(TypeNull, TypeString, ctx))

	in := u.Types
	narrow := in.Function(fn([]Param{param("x", TypeString)}, TypeVoid))
	wide := in.Function(fn([]Param{param("x", in.Union(TypeString, TypeNumber))}, TypeVoid))
	strict := l.Context()
	assert.False(t, l.IsAssignable(narrow, wide, strict))
	strict.StrictFunctionTypes = false
	assert.True(t, l.IsAssignable(narrow, wide, strict))
}
