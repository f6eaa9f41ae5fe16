package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstantiate(t *testing.T) {
	in := NewInterner()
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	U := in.NewTypeParameter(TypeParameter{Name: "U"})
	subst := NewSubstitution().With(T, TypeString)

	testCases := []struct {
		name     string
		input    TypeID
		expected TypeID
	}{
		{name: "parameter", input: T, expected: TypeString},
		{name: "unbound parameter", input: U, expected: U},
		{name: "array", input: in.Array(T), expected: in.Array(TypeString)},
		{name: "union renormalised", input: in.Union(T, in.StringLiteral("a")), expected: TypeString},
		{
			name:     "object",
			input:    in.Object([]Property{prop("a", T), prop("b", U)}),
			expected: in.Object([]Property{prop("a", TypeString), prop("b", U)}),
		},
		{
			name:     "function",
			input:    in.Function(fn([]Param{param("x", T)}, in.Array(T))),
			expected: in.Function(fn([]Param{param("x", TypeString)}, in.Array(TypeString))),
		},
		{name: "lazy is not entered", input: in.Lazy(DefID(3)), expected: in.Lazy(DefID(3))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, in.Instantiate(tc.input, subst))
		})
	}
}

func TestSubstitutionIsPersistent(t *testing.T) {
	in := NewInterner()
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	U := in.NewTypeParameter(TypeParameter{Name: "U"})

	var empty Substitution
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Lookup(T)
	assert.False(t, ok)

	s1 := empty.With(T, TypeString)
	s2 := s1.With(U, TypeNumber)
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 2, s2.Len())
	_, ok = s1.Lookup(U)
	assert.False(t, ok)

	bound := map[TypeID]TypeID{}
	for p, a := range s2.All() {
		bound[p] = a
	}
	assert.Equal(t, map[TypeID]TypeID{T: TypeString, U: TypeNumber}, bound)

	pairs := SubstitutionOf([]TypeID{T, U}, []TypeID{TypeBoolean})
	assert.Equal(t, 1, pairs.Len())
}

func TestInstantiateSignatureDropsBoundParameters(t *testing.T) {
	in := NewInterner()
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	U := in.NewTypeParameter(TypeParameter{Name: "U"})
	sig := Signature{TypeParams: []TypeID{T, U}, Params: []Param{param("x", T), param("y", U)}, Return: T}

	out := in.InstantiateSignature(sig, NewSubstitution().With(T, TypeNumber))
	assert.Equal(t, []TypeID{U}, out.TypeParams)
	assert.Equal(t, TypeNumber, out.Params[0].Type)
	assert.Equal(t, U, out.Params[1].Type)
	assert.Equal(t, TypeNumber, out.Return)
}

func TestNewTypeParameterIsDistinct(t *testing.T) {
	in := NewInterner()
	a := in.NewTypeParameter(TypeParameter{Name: "T"})
	b := in.NewTypeParameter(TypeParameter{Name: "T"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, in.TypeParameter(TypeParameter{Name: "T"}), in.TypeParameter(TypeParameter{Name: "T"}))
}

func TestContainsTypeParameters(t *testing.T) {
	in := NewInterner()
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	assert.True(t, in.ContainsTypeParameters(in.Array(in.Union(T, TypeNull))))
	assert.True(t, in.ContainsTypeParameters(in.Intern(Infer{Name: "U"})))
	assert.False(t, in.ContainsTypeParameters(in.Array(TypeString)))
	assert.False(t, in.ContainsTypeParameters(in.Lazy(DefID(1))))
}
