package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type shapes struct {
	circle, square, triangle TypeID
}

func discriminated(in *Interner) shapes {
	return shapes{
		circle:   in.Object([]Property{prop("kind", in.StringLiteral("circle")), prop("radius", TypeNumber)}),
		square:   in.Object([]Property{prop("kind", in.StringLiteral("square")), prop("side", TypeNumber)}),
		triangle: in.Object([]Property{prop("kind", in.StringLiteral("triangle")), prop("base", TypeNumber)}),
	}
}

func kindIs(in *Interner, value string) Guard {
	return Guard{Kind: GuardDiscriminant, Property: "kind", Value: in.StringLiteral(value)}
}

func TestNarrowDiscriminatedUnion(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	s := discriminated(in)
	shape := in.Union(s.circle, s.square)
	n := u.Narrower()

	whenTrue, whenFalse := n.Narrow(shape, kindIs(in, "circle"))
	assert.Equal(t, s.circle, whenTrue, u.Format(whenTrue))
	assert.Equal(t, s.square, whenFalse, u.Format(whenFalse))

	t.Run("through an alias", func(t *testing.T) {
		named := alias(u, "Shape", shape)
		whenTrue, whenFalse := n.Narrow(named, kindIs(in, "circle"))
		assert.Equal(t, s.circle, whenTrue)
		assert.Equal(t, s.square, whenFalse)
	})
	t.Run("negated", func(t *testing.T) {
		g := kindIs(in, "circle")
		g.Negated = true
		whenTrue, whenFalse := n.Narrow(shape, g)
		assert.Equal(t, s.square, whenTrue)
		assert.Equal(t, s.circle, whenFalse)
	})
	t.Run("by a value wider than every tag", func(t *testing.T) {
		whenTrue, whenFalse := n.Narrow(shape, Guard{Kind: GuardDiscriminant, Property: "kind", Value: TypeString})
		assert.Equal(t, TypeNever, whenTrue, u.Format(whenTrue))
		assert.Equal(t, shape, whenFalse, u.Format(whenFalse))
	})
}

func TestNarrowExhaustively(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	s := discriminated(in)
	remaining := in.Union(s.circle, s.square, s.triangle)
	n := u.Narrower()

	for _, kind := range []string{"circle", "square", "triangle"} {
		_, remaining = n.Narrow(remaining, kindIs(in, kind))
	}
	assert.Equal(t, TypeNever, remaining)
}

func TestNarrowOptionalDiscriminant(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	maybeA := in.Object([]Property{optionalProp("kind", in.StringLiteral("a")), prop("x", TypeNumber)})
	b := in.Object([]Property{prop("kind", in.StringLiteral("b")), prop("y", TypeNumber)})

	whenTrue, whenFalse := u.Narrower().Narrow(in.Union(maybeA, b), kindIs(in, "a"))
	assert.Equal(t, maybeA, whenTrue)
	assert.Equal(t, in.Union(maybeA, b), whenFalse)
}

func TestNarrow(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	objA := in.Object([]Property{prop("a", TypeString)})
	objB := in.Object([]Property{optionalProp("b", TypeNumber)})
	record := in.Object(nil, IndexSignature{Key: TypeString, Value: TypeNumber})
	animal := in.Object([]Property{prop("name", TypeString)})
	dog := in.Object([]Property{prop("name", TypeString), prop("bark", in.Function(fn(nil, TypeVoid)))})
	a, b := in.StringLiteral("a"), in.StringLiteral("b")

	testCases := []struct {
		name                string
		typ                 TypeID
		guard               Guard
		whenTrue, whenFalse TypeID
	}{
		{
			name:     "truthy removes null",
			typ:      in.Union(TypeString, TypeNull),
			guard:    Guard{Kind: GuardTruthy},
			whenTrue: TypeString, whenFalse: in.Union(in.StringLiteral(""), TypeNull),
		},
		{
			name:     "truthy splits boolean",
			typ:      in.Union(TypeBoolean, objA),
			guard:    Guard{Kind: GuardTruthy},
			whenTrue: in.Union(TypeTrue, objA), whenFalse: TypeFalse,
		},
		{
			name:     "typeof string",
			typ:      in.Union(TypeString, TypeNumber),
			guard:    Guard{Kind: GuardTypeof, Tag: "string"},
			whenTrue: TypeString, whenFalse: TypeNumber,
		},
		{
			name:     "typeof any",
			typ:      TypeAny,
			guard:    Guard{Kind: GuardTypeof, Tag: "string"},
			whenTrue: TypeString, whenFalse: TypeAny,
		},
		{
			name:     "typeof object keeps null",
			typ:      in.Union(TypeString, objA, TypeNull),
			guard:    Guard{Kind: GuardTypeof, Tag: "object"},
			whenTrue: in.Union(objA, TypeNull), whenFalse: TypeString,
		},
		{
			name:     "typeof boolean",
			typ:      in.Union(TypeBoolean, TypeString),
			guard:    Guard{Kind: GuardTypeof, Tag: "boolean"},
			whenTrue: TypeBoolean, whenFalse: TypeString,
		},
		{
			name:     "typeof unknown",
			typ:      TypeUnknown,
			guard:    Guard{Kind: GuardTypeof, Tag: "number"},
			whenTrue: TypeNumber, whenFalse: TypeUnknown,
		},
		{
			name:     "in with required property",
			typ:      in.Union(objA, objB),
			guard:    Guard{Kind: GuardIn, Property: "a"},
			whenTrue: objA, whenFalse: objB,
		},
		{
			name:     "in with optional property",
			typ:      in.Union(objA, objB),
			guard:    Guard{Kind: GuardIn, Property: "b"},
			whenTrue: objB, whenFalse: in.Union(objA, objB),
		},
		{
			name:     "in with index signature",
			typ:      in.Union(objA, record),
			guard:    Guard{Kind: GuardIn, Property: "z"},
			whenTrue: record, whenFalse: in.Union(objA, record),
		},
		{
			name:     "instanceof",
			typ:      in.Union(animal, TypeString),
			guard:    Guard{Kind: GuardInstanceof, Type: dog},
			whenTrue: dog, whenFalse: in.Union(animal, TypeString),
		},
		{
			name:     "predicate",
			typ:      in.Union(TypeString, TypeNumber),
			guard:    Guard{Kind: GuardPredicate, Type: TypeString},
			whenTrue: TypeString, whenFalse: TypeNumber,
		},
		{
			name:     "predicate on unknown",
			typ:      TypeUnknown,
			guard:    Guard{Kind: GuardPredicate, Type: objA},
			whenTrue: objA, whenFalse: TypeUnknown,
		},
		{
			name:     "bare assertion",
			typ:      in.Union(objA, TypeUndefined),
			guard:    Guard{Kind: GuardAssertion},
			whenTrue: objA, whenFalse: TypeUndefined,
		},
		{
			name:     "assertion with type",
			typ:      in.Union(objA, TypeNumber),
			guard:    Guard{Kind: GuardAssertion, Type: TypeNumber},
			whenTrue: TypeNumber, whenFalse: objA,
		},
		{
			name:     "strict equality with a literal",
			typ:      in.Union(a, b),
			guard:    Guard{Kind: GuardEquality, Value: a},
			whenTrue: a, whenFalse: b,
		},
		{
			name:     "equality narrows a primitive",
			typ:      TypeString,
			guard:    Guard{Kind: GuardEquality, Value: a},
			whenTrue: a, whenFalse: TypeString,
		},
		{
			name:     "loose equality with null",
			typ:      in.Union(TypeString, TypeNull, TypeUndefined),
			guard:    Guard{Kind: GuardEquality, Value: TypeNull, Loose: true},
			whenTrue: in.Union(TypeNull, TypeUndefined), whenFalse: TypeString,
		},
		{
			name:     "strict equality with null",
			typ:      in.Union(TypeString, TypeNull, TypeUndefined),
			guard:    Guard{Kind: GuardEquality, Value: TypeNull},
			whenTrue: TypeNull, whenFalse: in.Union(TypeString, TypeUndefined),
		},
	}
	n := u.Narrower()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			whenTrue, whenFalse := n.Narrow(tc.typ, tc.guard)
			assert.Equal(t, tc.whenTrue, whenTrue, "true branch: %s", u.Format(whenTrue))
			assert.Equal(t, tc.whenFalse, whenFalse, "false branch: %s", u.Format(whenFalse))

			again, _ := n.Narrow(whenTrue, tc.guard)
			assert.Equal(t, whenTrue, again, "narrowing is idempotent")
		})
	}
}

func TestParseTypeofTag(t *testing.T) {
	tag, ok := ParseTypeofTag(`"string"`)
	assert.True(t, ok)
	assert.Equal(t, "string", tag)
	tag, ok = ParseTypeofTag("function")
	assert.True(t, ok)
	assert.Equal(t, "function", tag)
	_, ok = ParseTypeofTag("array")
	assert.False(t, ok)

	u := newTestUniverse()
	whenTrue, whenFalse := u.Narrower().Narrow(TypeString, Guard{Kind: GuardTypeof, Tag: "array"})
	assert.Equal(t, TypeNever, whenTrue)
	assert.Equal(t, TypeString, whenFalse)
}
