// Package fixture reads YAML descriptions of type declarations, value symbols
// and solver queries, lowers them into a solver.Universe and runs the queries.
// It takes the place of the binder and checker for tests and the tsolve CLI.
//
// Types are written as YAML nodes:
//
//	string, number, MyAlias, T     names: intrinsics, declarations, type parameters in scope
//	Color.Red                      an enum member
//	"a", 'a', 1, true, null, 10n   literal types (quoted scalars are string literals)
//	string[]                       array shorthand
//	{union: [A, B]}                one-key mappings for every other shape: union,
//	                               intersection, object, fresh, array, readonly, tuple,
//	                               fn, overloads, keyof, index, typeof, template, cond,
//	                               infer, mapped, app, Uppercase, Lowercase,
//	                               Capitalize, Uncapitalize
//
// Declarations are lowered lazily, in any order, but type parameter constraints
// and defaults may only refer to declarations listed before them.
package fixture

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fixture is the decoded content of a fixture file
type Fixture struct {
	Name         string        `yaml:"name"`
	Options      *OptionsSpec  `yaml:"options"`
	Declarations []Declaration `yaml:"declarations"`
	// Symbols maps value names to their types; `unique symbol` declares a unique symbol.
	// Types are widened as a binding would.
	Symbols Expr    `yaml:"symbols"`
	Queries []Query `yaml:"queries"`

	// Path is the file the fixture was loaded from, empty when parsed from a reader
	Path string `yaml:"-"`
}

// OptionsSpec overrides solver.DefaultOptions; unset fields keep their default
type OptionsSpec struct {
	StrictNullChecks           *bool  `yaml:"strictNullChecks"`
	StrictFunctionTypes        *bool  `yaml:"strictFunctionTypes"`
	LooseMethodBivariance      *bool  `yaml:"looseMethodBivariance"`
	ExactOptionalPropertyTypes *bool  `yaml:"exactOptionalPropertyTypes"`
	AnyMode                    string `yaml:"anyMode"`
	ParamAnyMode               string `yaml:"paramAnyMode"`
	MaxSubtypeDepth            int    `yaml:"maxSubtypeDepth"`
	MaxEvaluationDepth         int    `yaml:"maxEvaluationDepth"`
}

// Declaration is a named type. Exactly one of Alias, Interface, Class and Enum is set.
type Declaration struct {
	Alias     string `yaml:"alias"`
	Interface string `yaml:"interface"`
	Class     string `yaml:"class"`
	Enum      string `yaml:"enum"`

	Params  []TypeParamSpec `yaml:"params"`
	Extends []string        `yaml:"extends"`
	Type    Expr            `yaml:"type"`
	// Members of an enum, in order, mapping names to a number or quoted string.
	// Members without a value continue the numbering of the previous one.
	Members Expr `yaml:"members"`
}

// TypeParamSpec is either a bare name or {name, extends, default, const}
type TypeParamSpec struct {
	Name    string `yaml:"name"`
	Extends Expr   `yaml:"extends"`
	Default Expr   `yaml:"default"`
	Const   bool   `yaml:"const"`
}

func (p *TypeParamSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Name = n.Value
		return nil
	}
	type plain TypeParamSpec
	return n.Decode((*plain)(p))
}

// Expr is an unlowered type expression. It is the node itself rather than a
// wrapper so that the decoder keeps `null` nodes.
type Expr = yaml.Node

func isSet(e *Expr) bool { return e.Kind != 0 }

// Query is one question asked of the solver. Exactly one of the query fields is set.
type Query struct {
	Name string `yaml:"name"`

	Assignable *PairSpec   `yaml:"assignable"`
	Subtype    *PairSpec   `yaml:"subtype"`
	Evaluate   Expr        `yaml:"evaluate"`
	KeyOf      Expr        `yaml:"keyof"`
	Narrow     *NarrowSpec `yaml:"narrow"`
	Infer      *InferSpec  `yaml:"infer"`

	// Expect is the expected answer; its form depends on the query. A query
	// without expectation only reports its answer.
	Expect Expr `yaml:"expect"`
	// Reason is the expected tserr.Reason of a refused assignment or subtype check
	Reason string `yaml:"reason"`
	// Error is the expected tserr.Reason of a failed call
	Error string `yaml:"error"`
}

type PairSpec struct {
	Source Expr `yaml:"source"`
	Target Expr `yaml:"target"`
	// Fresh checks the source as an object literal written at the assignment
	Fresh bool `yaml:"fresh"`
}

type NarrowSpec struct {
	Type  Expr      `yaml:"type"`
	Guard GuardSpec `yaml:"guard"`
}

// GuardSpec sets exactly one of the guard fields, Value going with Discriminant
type GuardSpec struct {
	Truthy        bool   `yaml:"truthy"`
	Typeof        string `yaml:"typeof"`
	Instanceof    Expr   `yaml:"instanceof"`
	Discriminant  string `yaml:"discriminant"`
	Value         Expr   `yaml:"value"`
	In            string `yaml:"in"`
	Predicate     Expr   `yaml:"predicate"`
	Asserts       Expr   `yaml:"asserts"`
	AssertsTruthy bool   `yaml:"assertsTruthy"`
	Equals        Expr   `yaml:"equals"`
	Loose         bool   `yaml:"loose"`
	Negated       bool   `yaml:"negated"`
}

// InferSpec is a call of Callee with arguments of types Args
type InferSpec struct {
	Callee     Expr   `yaml:"callee"`
	Args       []Expr `yaml:"args"`
	Contextual Expr   `yaml:"contextual"`
}

// NarrowExpectation is the Expect of a narrow query
type NarrowExpectation struct {
	WhenTrue  Expr `yaml:"whenTrue"`
	WhenFalse Expr `yaml:"whenFalse"`
}

// Load reads the fixture at path
func Load(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open fixture")
	}
	defer file.Close()
	f, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	f.Path = path
	return f, nil
}

func Parse(r io.Reader) (*Fixture, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var f Fixture
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty fixture")
		}
		return nil, errors.Wrap(err, "parse fixture")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, d := range f.Declarations {
		if _, _, err := d.nameAndKind(); err != nil {
			return errors.Wrapf(err, "declaration %d", i)
		}
	}
	for i, q := range f.Queries {
		if _, err := q.kind(); err != nil {
			return errors.Wrapf(err, "query %d (%s)", i, q.Name)
		}
	}
	return nil
}

// kind is the name of the query field set
func (q Query) kind() (string, error) {
	set := map[string]bool{
		"assignable": q.Assignable != nil,
		"subtype":    q.Subtype != nil,
		"evaluate":   isSet(&q.Evaluate),
		"keyof":      isSet(&q.KeyOf),
		"narrow":     q.Narrow != nil,
		"infer":      q.Infer != nil,
	}
	var found string
	for k, ok := range set {
		if !ok {
			continue
		}
		if found != "" {
			return "", errors.Errorf("query sets both %s and %s", found, k)
		}
		found = k
	}
	if found == "" {
		return "", errors.New("query sets none of assignable, subtype, evaluate, keyof, narrow, infer")
	}
	return found, nil
}
