package fixture

import (
	"bytes"
	"embed"
	"path"
	"strings"
	"testing"

	"github.com/cottand/tsolve/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the fixtures
//
//go:embed testdata
var testSet embed.FS

func loadTestFixture(t *testing.T, name string) *World {
	t.Helper()
	content, err := testSet.ReadFile(path.Join("testdata", name))
	require.NoError(t, err)
	f, err := Parse(bytes.NewReader(content))
	require.NoError(t, err)
	w, err := f.Lower()
	require.NoError(t, err)
	return w
}

func lowerText(t *testing.T, text string) (*World, error) {
	t.Helper()
	f, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	return f.Lower()
}

func TestFixtures(t *testing.T) {
	files, err := testSet.ReadDir("testdata")
	require.NoError(t, err)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".yaml") {
			continue
		}
		t.Run(file.Name(), func(t *testing.T) {
			w := loadTestFixture(t, file.Name())
			results := w.Run()
			require.NotEmpty(t, results)
			for _, r := range results {
				t.Run(r.Name, func(t *testing.T) {
					assert.NoError(t, r.Err)
					assert.True(t, r.Pass, r.String())
				})
			}
			assert.True(t, Passed(results))
		})
	}
}

func TestCircularAliases(t *testing.T) {
	w := loadTestFixture(t, "circular.yaml")
	a, ok := w.Lookup("A")
	require.True(t, ok)
	b, ok := w.Lookup("B")
	require.True(t, ok)
	list, ok := w.Lookup("List")
	require.True(t, ok)

	circular := w.Universe.Defs.CircularAliases()
	assert.ElementsMatch(t, []solver.DefID{a, b}, circular)
	assert.NotContains(t, circular, list)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name, text, err string
	}{
		{name: "empty", text: "", err: "empty fixture"},
		{name: "unknown field", text: "name: x\nqueries:\n  - name: q\n    evaluat: string\n", err: "evaluat"},
		{
			name: "two query kinds",
			text: "queries:\n  - name: q\n    evaluate: string\n    keyof: string\n",
			err:  "query sets both",
		},
		{name: "no query kind", text: "queries:\n  - name: q\n    expect: string\n", err: "query 0 (q)"},
		{name: "two declaration kinds", text: "declarations:\n  - alias: A\n    class: A\n", err: "exactly one of alias"},
		{name: "no declaration kind", text: "declarations:\n  - type: string\n", err: "declaration 0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.text))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoweringErrors(t *testing.T) {
	testCases := []struct {
		name, text, err string
	}{
		{
			name: "unknown type",
			text: "declarations:\n  - alias: A\n    type: Nope\n",
			err:  `unknown type "Nope"`,
		},
		{
			name: "declared twice",
			text: "declarations:\n  - alias: A\n    type: string\n  - alias: A\n    type: number\n",
			err:  "A is declared twice",
		},
		{
			name: "private member outside a class",
			text: "declarations:\n  - alias: A\n    type:\n      object:\n        private x: number\n",
			err:  "outside a class",
		},
		{
			name: "infer outside a conditional",
			text: "declarations:\n  - alias: A\n    type: {infer: U}\n",
			err:  "infer U outside",
		},
		{
			name: "two keys in a type mapping",
			text: "declarations:\n  - alias: A\n    type: {array: string, keyof: string}\n",
			err:  "exactly one key",
		},
		{
			name: "unknown kind of type",
			text: "declarations:\n  - alias: A\n    type: {list: string}\n",
			err:  `unknown kind of type "list"`,
		},
		{
			name: "unknown base",
			text: "declarations:\n  - class: A\n    extends: [Base]\n    type: {object: {}}\n",
			err:  `unknown declaration "Base"`,
		},
		{
			name: "unknown symbol",
			text: "declarations:\n  - alias: A\n    type: {typeof: x}\n",
			err:  `unknown symbol "x"`,
		},
		{
			name: "predicate on a missing parameter",
			text: "symbols:\n  isString:\n    fn:\n      params: {x: unknown}\n      returns: boolean\n      guards: {param: y, type: string}\n",
			err:  `unknown parameter "y"`,
		},
		{
			name: "bad mapped modifier",
			text: "declarations:\n  - alias: A\n    type:\n      mapped: {param: K, in: string, template: K, optional: maybe}\n",
			err:  `unknown modifier "maybe"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lowerText(t, tc.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoweringErrorsCarryLines(t *testing.T) {
	_, err := lowerText(t, "declarations:\n  - alias: A\n    type:\n      union: [string, Nope]\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
}

func TestQueryErrors(t *testing.T) {
	testCases := []struct {
		name, query, err string
	}{
		{
			name:  "guard with two kinds",
			query: "narrow: {type: string, guard: {truthy: true, typeof: string}}",
			err:   "exactly one kind",
		},
		{
			name:  "guard without kind",
			query: "narrow: {type: string, guard: {}}",
			err:   "exactly one kind",
		},
		{
			name:  "unknown reason",
			query: "assignable: {source: string, target: number}\n    reason: not a reason",
			err:   `unknown reason "not a reason"`,
		},
		{
			name:  "unknown type in a query",
			query: "evaluate: Nope",
			err:   `unknown type "Nope"`,
		},
		{
			name:  "call of a non function",
			query: "infer: {callee: string}",
			err:   "is not callable",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := lowerText(t, "queries:\n  - name: q\n    "+tc.query+"\n")
			require.NoError(t, err)
			r := w.Query(0)
			require.Error(t, r.Err)
			assert.False(t, r.Pass)
			assert.Contains(t, r.Err.Error(), tc.err)
			assert.Contains(t, r.String(), "ERROR")
		})
	}
}

func TestFailingQueries(t *testing.T) {
	w, err := lowerText(t, `
symbols:
  toUpper:
    fn:
      params: {s: string}
      returns: string
queries:
  - name: wrong answer
    assignable: {source: string, target: number}
    expect: true
  - name: wrong reason
    assignable: {source: string, target: number}
    expect: false
    reason: excess property
  - name: unexpected call error
    infer:
      callee: {typeof: toUpper}
      args: [1]
  - name: expected call error
    infer:
      callee: {typeof: toUpper}
      args: [1]
    error: argument not assignable to parameter
  - name: no expectation
    evaluate: {keyof: {object: {a: string}}}
`)
	require.NoError(t, err)
	results := w.Run()
	require.Len(t, results, 5)

	assert.False(t, results[0].Pass)
	assert.Equal(t, "false (not assignable)", results[0].Got)
	assert.Contains(t, results[0].String(), "FAIL")

	assert.False(t, results[1].Pass, results[1].String())

	assert.False(t, results[2].Pass)
	assert.Equal(t, "no error", results[2].Want)
	assert.NoError(t, results[2].Err)

	assert.True(t, results[3].Pass, results[3].String())

	assert.True(t, results[4].Pass)
	assert.Equal(t, `"a"`, results[4].Got)
	assert.Contains(t, results[4].String(), "--")

	assert.False(t, Passed(results))
}

func TestOptions(t *testing.T) {
	text := `
options:
  strictNullChecks: false
  paramAnyMode: everywhere
  maxSubtypeDepth: 7
queries:
  - name: null is in every type
    assignable: {source: null, target: string}
    expect: true
`
	w, err := lowerText(t, text)
	require.NoError(t, err)
	opts := w.Universe.Options
	assert.False(t, opts.StrictNullChecks)
	assert.True(t, opts.StrictFunctionTypes, "unset options keep their default")
	assert.Equal(t, solver.AnyEverywhere, opts.ParamAnyMode)
	assert.Equal(t, 7, opts.MaxSubtypeDepth)
	assert.Equal(t, solver.DefaultOptions().MaxEvaluationDepth, opts.MaxEvaluationDepth)
	assert.True(t, Passed(w.Run()))

	f, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	w, err = f.Lower(func(o *solver.Options) { o.MaxSubtypeDepth = 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, w.Universe.Options.MaxSubtypeDepth, "overrides apply over the fixture")

	_, err = lowerText(t, "options: {anyMode: sometimes}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown any mode "sometimes"`)
}

func TestWorldType(t *testing.T) {
	w := loadTestFixture(t, "evaluation.yaml")
	in := w.Universe.Types

	keys, err := w.Type("{keyof: Point}")
	require.NoError(t, err)
	assert.Equal(t, in.Union(in.StringLiteral("x"), in.StringLiteral("y")), w.Universe.Evaluator().Evaluate(keys))

	testCases := []struct {
		text     string
		expected solver.TypeID
	}{
		{text: "string", expected: solver.TypeString},
		{text: `"a"`, expected: in.StringLiteral("a")},
		{text: "'a'", expected: in.StringLiteral("a")},
		{text: "1.5", expected: in.NumberLiteral(1.5)},
		{text: "true", expected: solver.TypeTrue},
		{text: "null", expected: solver.TypeNull},
		{text: "10n", expected: in.BigIntLiteral("10")},
		{text: "number[]", expected: in.Array(solver.TypeNumber)},
		{text: "string[][]", expected: in.Array(in.Array(solver.TypeString))},
		{text: "{readonly: {array: boolean}}", expected: in.Readonly(in.Array(solver.TypeBoolean))},
		{text: "{union: [string, undefined]}", expected: in.Union(solver.TypeString, solver.TypeUndefined)},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			actual, err := w.Type(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual, w.Universe.Format(actual))
		})
	}

	_, err = w.Type("Nope")
	assert.Error(t, err)
	_, err = w.Type("")
	assert.Error(t, err)
}

func TestEnums(t *testing.T) {
	w, err := lowerText(t, `
declarations:
  - enum: Color
    members:
      Red:
      Green:
      Blue: 10
      Next:
  - enum: Dir
    members:
      Up: "UP"
`)
	require.NoError(t, err)
	in := w.Universe.Types
	color, ok := w.Lookup("Color")
	require.True(t, ok)
	dir, ok := w.Lookup("Dir")
	require.True(t, ok)

	for name, value := range map[string]float64{"Red": 0, "Green": 1, "Blue": 10, "Next": 11} {
		member, err := w.Type("Color." + name)
		require.NoError(t, err)
		assert.Equal(t, in.EnumMember(color, name, in.NumberLiteral(value)), member, name)
	}
	up, err := w.Type("Dir.Up")
	require.NoError(t, err)
	assert.Equal(t, in.EnumMember(dir, "Up", in.StringLiteral("UP")), up)
}

func TestParseMember(t *testing.T) {
	testCases := []struct {
		key      string
		expected member
	}{
		{key: "a", expected: member{name: "a"}},
		{key: "a?", expected: member{name: "a", optional: true}},
		{key: "readonly a", expected: member{name: "a", readonly: true}},
		{key: "private a", expected: member{name: "a", visibility: solver.Private}},
		{key: "readonly protected a?", expected: member{name: "a", readonly: true, optional: true, visibility: solver.Protected}},
		{key: "m()", expected: member{name: "m", method: true}},
		{key: "m?()", expected: member{name: "m", method: true, optional: true}},
		{key: "[k: string]", expected: member{index: "string"}},
		{key: "readonly [number]", expected: member{index: "number", readonly: true}},
		{key: "readonly", expected: member{name: "readonly"}},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseMember(tc.key))
		})
	}
}
