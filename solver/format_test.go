package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	u := newTestUniverse()
	in := u.Types
	T := in.NewTypeParameter(TypeParameter{Name: "T"})
	list := alias(u, "List", in.Array(TypeNumber))

	testCases := []struct {
		expected string
		typ      TypeID
	}{
		{expected: "string", typ: TypeString},
		{expected: `"a"`, typ: in.StringLiteral("a")},
		{expected: "10n", typ: in.BigIntLiteral("10")},
		{expected: "null | string", typ: in.Union(TypeString, TypeNull)},
		{expected: "(number | string)[]", typ: in.Array(in.Union(TypeString, TypeNumber))},
		{expected: "readonly string[]", typ: in.Readonly(in.Array(TypeString))},
		{expected: "{ a: string; b?: number; }", typ: in.Object([]Property{prop("a", TypeString), optionalProp("b", TypeNumber)})},
		{expected: `{ "my-key": boolean; }`, typ: in.Object([]Property{prop("my-key", TypeBoolean)})},
		{expected: "{ [key: string]: number; }", typ: in.Object(nil, IndexSignature{Key: TypeString, Value: TypeNumber})},
		{expected: "{}", typ: TypeEmptyObject},
		{expected: "(x: string) => number", typ: in.Function(fn([]Param{param("x", TypeString)}, TypeNumber))},
		{expected: "[string, number?]", typ: in.Tuple(TupleElement{Type: TypeString}, TupleElement{Type: TypeNumber, Optional: true})},
		{expected: "[x: string, ...rest: number[]]", typ: in.Tuple(TupleElement{Name: "x", Type: TypeString}, TupleElement{Name: "rest", Type: in.Array(TypeNumber), Rest: true})},
		{expected: "`id-${number}`", typ: in.TemplateLiteral(TemplateSpan{Text: "id-"}, TemplateSpan{Type: TypeNumber})},
		{expected: "keyof T", typ: in.KeyOf(T)},
		{expected: "T[\"a\"]", typ: in.IndexedAccess(T, in.StringLiteral("a"))},
		{expected: "List", typ: list},
		{expected: "List<string>", typ: in.Application(list, TypeString)},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, u.Format(tc.typ))
		})
	}

	assert.Regexp(t, `^#\d+$`, in.Format(list), "the interner does not know declaration names")
}

func TestFormatNumber(t *testing.T) {
	testCases := map[float64]string{
		0:            "0",
		1.5:          "1.5",
		-3:           "-3",
		1e21:         "1e+21",
		1e-7:         "1e-7",
		123456789012: "123456789012",
		math.Inf(1):  "Infinity",
	}
	for n, expected := range testCases {
		assert.Equal(t, expected, formatNumber(n))
	}
	assert.Equal(t, "NaN", formatNumber(math.NaN()))
}
