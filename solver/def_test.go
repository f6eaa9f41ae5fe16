package solver

import (
	"testing"

	"github.com/cottand/tsolve/solver/tserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineLowersOnce(t *testing.T) {
	u := newTestUniverse()
	calls := 0
	body := u.Types.Object([]Property{prop("a", TypeString)})
	def := u.Defs.Define(Definition{Name: "A", Kind: DefInterface}, func() TypeID {
		calls++
		return body
	})

	assert.Equal(t, body, u.Defs.ResolveLazy(def))
	assert.Equal(t, body, u.Defs.ResolveLazy(def))
	assert.Equal(t, 1, calls)

	found, ok := u.Defs.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, def, found)
}

func TestSelfReferenceWhileLowering(t *testing.T) {
	u := newTestUniverse()
	var def DefID
	var seen TypeID
	def = u.Defs.Define(Definition{Name: "List", Kind: DefTypeAlias}, func() TypeID {
		seen = u.Defs.ResolveLazy(def)
		return u.Types.Object([]Property{prop("next", u.Types.Union(u.Types.Lazy(def), TypeNull))})
	})

	body := u.Defs.ResolveLazy(def)
	assert.Equal(t, u.Types.Lazy(def), seen, "a definition being lowered resolves to its placeholder")
	assert.Equal(t, KindObject, u.Types.Kind(body))
	assert.Empty(t, u.Failures())
}

func TestCircularAliasesAreAllFlagged(t *testing.T) {
	u := newTestUniverse()
	a := u.Defs.Register(Definition{Name: "A", Kind: DefTypeAlias})
	b := u.Defs.Register(Definition{Name: "B", Kind: DefTypeAlias, Body: u.Types.Lazy(a)})
	c := u.Defs.Register(Definition{Name: "C", Kind: DefTypeAlias, Body: u.Types.Lazy(b)})
	require.NoError(t, u.Defs.SetBody(a, u.Types.Lazy(c)))
	ok := u.Defs.Register(Definition{Name: "Ok", Kind: DefTypeAlias, Body: TypeString})

	assert.Equal(t, TypeError, u.Defs.ResolveLazy(a))
	assert.Equal(t, []DefID{a, b, c}, u.Defs.CircularAliases())
	assert.Equal(t, TypeString, u.Defs.ResolveLazy(ok))
}

func TestAliasChainsAreFollowed(t *testing.T) {
	u := newTestUniverse()
	a := u.Defs.Register(Definition{Name: "A", Kind: DefTypeAlias, Body: TypeNumber})
	b := u.Defs.Register(Definition{Name: "B", Kind: DefTypeAlias, Body: u.Types.Lazy(a)})
	iface := u.Defs.Register(Definition{Name: "I", Kind: DefInterface, Body: u.Types.Object(nil)})
	c := u.Defs.Register(Definition{Name: "C", Kind: DefTypeAlias, Body: u.Types.Lazy(iface)})

	assert.Equal(t, TypeNumber, u.Defs.ResolveLazy(b))
	assert.Equal(t, u.Types.Lazy(iface), u.Defs.ResolveLazy(c), "interfaces are not aliases")
	assert.Empty(t, u.Defs.CircularAliases())
}

func TestIsDerivedFrom(t *testing.T) {
	u := newTestUniverse()
	animal := u.Defs.Register(Definition{Name: "Animal", Kind: DefClass})
	dog := u.Defs.Register(Definition{Name: "Dog", Kind: DefClass, Extends: []DefID{animal}})
	puppy := u.Defs.Register(Definition{Name: "Puppy", Kind: DefClass})
	cat := u.Defs.Register(Definition{Name: "Cat", Kind: DefClass, Extends: []DefID{animal}})
	require.NoError(t, u.Defs.SetExtends(puppy, dog))

	testCases := []struct {
		class, base DefID
		expected    bool
	}{
		{class: dog, base: dog, expected: true},
		{class: dog, base: animal, expected: true},
		{class: puppy, base: animal, expected: true},
		{class: animal, base: dog, expected: false},
		{class: cat, base: dog, expected: false},
		{class: puppy, base: cat, expected: false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, u.Defs.IsDerivedFrom(tc.class, tc.base), "%d derived from %d", tc.class, tc.base)
	}
}

func TestUnknownDefinitionIsInternal(t *testing.T) {
	u := newTestUniverse()
	assert.Equal(t, TypeError, u.Defs.ResolveLazy(DefID(42)))
	require.Len(t, u.Failures(), 1)
	assert.True(t, tserr.IsInternal(u.Failures()[0]))

	err := u.Defs.SetBody(DefID(42), TypeString)
	assert.True(t, tserr.IsInternal(err))
	_, ok := u.Defs.Definition(DefID(0))
	assert.False(t, ok)
}

func TestSymbols(t *testing.T) {
	u := newTestUniverse()
	x := u.Defs.DeclareSymbol("x", TypeString)
	typ, ok := u.Defs.SymbolType(x)
	assert.True(t, ok)
	assert.Equal(t, TypeString, typ)
	assert.Equal(t, "x", u.Defs.SymbolName(x))

	require.NoError(t, u.Defs.SetSymbolType(x, TypeNumber))
	typ, _ = u.Defs.SymbolType(x)
	assert.Equal(t, TypeNumber, typ)

	assert.True(t, tserr.IsInternal(u.Defs.SetSymbolType(SymbolID(9), TypeNumber)))
	_, ok = u.Defs.SymbolType(SymbolID(9))
	assert.False(t, ok)

	query := u.Types.Intern(TypeQuery{Symbol: x})
	assert.Equal(t, TypeNumber, u.Evaluator().Evaluate(query))
}
