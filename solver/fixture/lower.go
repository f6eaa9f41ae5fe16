package fixture

import (
	"iter"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver"
	"github.com/cottand/tsolve/solver/tserr"
	"github.com/cottand/tsolve/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// World is a fixture lowered into a Universe
type World struct {
	Universe *solver.Universe

	fixture *Fixture
	decls   map[string]solver.DefID
	// members are enum members, keyed Enum.Member
	members map[string]solver.TypeID
	symbols map[string]solver.SymbolID
	// failures are the lowering errors of the current step
	failures *tserr.Failures
	logger   *slog.Logger
}

// scope is what names mean at some point of a type expression
type scope struct {
	// params holds type parameters, mapped type keys and infer bindings by name
	params *immutable.Map[string, solver.TypeID]
	// class is the class whose members are lowered, the declarer of private and protected members
	class solver.DefID
}

func rootScope() scope {
	return scope{params: immutable.NewMap[string, solver.TypeID](nil)}
}

func (s scope) with(name string, id solver.TypeID) scope {
	s.params = s.params.Set(name, id)
	return s
}

// Lower builds a Universe holding the declarations and symbols of the fixture.
// The fixture's options apply over solver.DefaultOptions, and overrides over both.
func (f *Fixture) Lower(overrides ...func(*solver.Options)) (*World, error) {
	opts, err := f.Options.apply(solver.DefaultOptions())
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(&opts)
	}
	w := &World{
		Universe: solver.NewUniverse(opts),
		fixture:  f,
		decls:    make(map[string]solver.DefID, len(f.Declarations)),
		members:  make(map[string]solver.TypeID),
		symbols:  make(map[string]solver.SymbolID),
		logger:   log.For("fixture"),
	}

	ids := make([]solver.DefID, len(f.Declarations))
	for i := range f.Declarations {
		ids[i] = w.declare(&f.Declarations[i])
	}
	for i, d := range f.Declarations {
		w.inherit(ids[i], d)
	}
	w.declareSymbols()
	// lower every body now so that mistakes surface here rather than in queries
	for _, id := range ids {
		w.Universe.Defs.ResolveLazy(id)
	}
	if w.failures.HasError() {
		return nil, w.failures
	}
	w.logger.Debug("lowered fixture", "name", f.Name, "declarations", len(ids), "types", w.Universe.Types.Len())
	return w, nil
}

// Lookup finds a declaration by name
func (w *World) Lookup(name string) (solver.DefID, bool) {
	id, ok := w.decls[name]
	return id, ok
}

// Type lowers a type expression written as YAML text, such as `{keyof: Shape}`
func (w *World) Type(text string) (solver.TypeID, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return solver.NoType, errors.Wrap(err, "parse type")
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) != 1 {
		return solver.NoType, errors.Errorf("not a type: %q", text)
	}
	w.failures = nil
	id := w.typeOf(n.Content[0], rootScope())
	if w.failures.HasError() {
		return solver.NoType, w.failures
	}
	return id, nil
}

func (o *OptionsSpec) apply(opts solver.Options) (solver.Options, error) {
	if o == nil {
		return opts, nil
	}
	for dst, src := range map[*bool]*bool{
		&opts.StrictNullChecks:           o.StrictNullChecks,
		&opts.StrictFunctionTypes:        o.StrictFunctionTypes,
		&opts.LooseMethodBivariance:      o.LooseMethodBivariance,
		&opts.ExactOptionalPropertyTypes: o.ExactOptionalPropertyTypes,
	} {
		if src != nil {
			*dst = *src
		}
	}
	var err error
	if opts.AnyMode, err = parseAnyMode(o.AnyMode, opts.AnyMode); err != nil {
		return opts, err
	}
	if opts.ParamAnyMode, err = parseAnyMode(o.ParamAnyMode, opts.ParamAnyMode); err != nil {
		return opts, err
	}
	if o.MaxSubtypeDepth > 0 {
		opts.MaxSubtypeDepth = o.MaxSubtypeDepth
	}
	if o.MaxEvaluationDepth > 0 {
		opts.MaxEvaluationDepth = o.MaxEvaluationDepth
	}
	return opts, nil
}

func parseAnyMode(s string, current solver.AnyMode) (solver.AnyMode, error) {
	switch s {
	case "":
		return current, nil
	case solver.AnyEverywhere.String():
		return solver.AnyEverywhere, nil
	case solver.AnyTopLevelOnly.String():
		return solver.AnyTopLevelOnly, nil
	}
	return current, errors.Errorf("unknown any mode %q, want %s or %s", s, solver.AnyEverywhere, solver.AnyTopLevelOnly)
}

func (d Declaration) nameAndKind() (string, solver.DefKind, error) {
	var (
		name  string
		kind  solver.DefKind
		count int
	)
	for _, candidate := range []struct {
		name string
		kind solver.DefKind
	}{{d.Alias, solver.DefTypeAlias}, {d.Interface, solver.DefInterface}, {d.Class, solver.DefClass}, {d.Enum, solver.DefEnum}} {
		if candidate.name != "" {
			name, kind = candidate.name, candidate.kind
			count++
		}
	}
	if count != 1 {
		return "", 0, errors.Errorf("a declaration sets exactly one of alias, interface, class and enum, got %d", count)
	}
	return name, kind, nil
}

func (w *World) fail(n *yaml.Node, format string, args ...any) solver.TypeID {
	err := errors.Errorf(format, args...)
	if n != nil && n.Line > 0 {
		err = errors.Wrapf(err, "line %d", n.Line)
	}
	w.failures = w.failures.With(err)
	return solver.TypeError
}

func (w *World) declare(d *Declaration) solver.DefID {
	name, kind, _ := d.nameAndKind()
	defs := w.Universe.Defs
	if _, dup := w.decls[name]; dup {
		w.fail(&d.Type, "%s is declared twice", name)
	}

	sc := rootScope()
	var params []solver.TypeID
	for _, p := range d.Params {
		id := w.typeParameter(p, sc)
		params = append(params, id)
		sc = sc.with(p.Name, id)
	}

	if kind == solver.DefEnum {
		id := defs.Register(solver.Definition{Name: name, Kind: kind})
		w.decls[name] = id
		w.enumMembers(id, name, &d.Members)
		return id
	}

	var id solver.DefID
	id = defs.Define(solver.Definition{Name: name, Kind: kind, TypeParams: params}, func() solver.TypeID {
		body := sc
		if kind == solver.DefClass {
			body.class = id
		}
		if !isSet(&d.Type) {
			return w.fail(nil, "%s %s has no type", kind, name)
		}
		return w.typeOf(&d.Type, body)
	})
	w.decls[name] = id
	w.logger.Debug("declared", "name", name, "kind", kind, "def", id)
	return id
}

func (w *World) typeParameter(p TypeParamSpec, sc scope) solver.TypeID {
	tp := solver.TypeParameter{Name: p.Name, Const: p.Const}
	if isSet(&p.Extends) {
		tp.Constraint = w.typeOf(&p.Extends, sc)
	}
	if isSet(&p.Default) {
		tp.Default = w.typeOf(&p.Default, sc)
	}
	return w.Universe.Types.NewTypeParameter(tp)
}

func (w *World) enumMembers(decl solver.DefID, enum string, n *yaml.Node) {
	in := w.Universe.Types
	if n.Kind != yaml.MappingNode {
		w.fail(n, "enum %s needs a mapping of members", enum)
		return
	}
	var (
		members []solver.TypeID
		next    float64
	)
	for key, value := range pairs(n) {
		var lit solver.TypeID
		switch {
		case value.ShortTag() == "!!null":
			lit = in.NumberLiteral(next)
			next++
		case isQuoted(value):
			lit = in.StringLiteral(value.Value)
		default:
			var num float64
			if err := value.Decode(&num); err != nil {
				w.fail(value, "enum member %s.%s is neither a number nor a quoted string", enum, key.Value)
				continue
			}
			lit = in.NumberLiteral(num)
			next = num + 1
		}
		member := in.EnumMember(decl, key.Value, lit)
		w.members[enum+"."+key.Value] = member
		members = append(members, member)
	}
	if err := w.Universe.Defs.SetBody(decl, in.Union(members...)); err != nil {
		w.failures = w.failures.With(err)
	}
}

func (w *World) inherit(id solver.DefID, d Declaration) {
	if len(d.Extends) == 0 {
		return
	}
	name, _, _ := d.nameAndKind()
	bases := make([]solver.DefID, 0, len(d.Extends))
	for _, base := range d.Extends {
		baseID, ok := w.decls[base]
		if !ok {
			w.failures = w.failures.With(errors.Errorf("%s extends unknown declaration %q", name, base))
			continue
		}
		bases = append(bases, baseID)
	}
	if err := w.Universe.Defs.SetExtends(id, bases...); err != nil {
		w.failures = w.failures.With(err)
	}
}

// declareSymbols declares every symbol before lowering any of their types, which may refer to each other
func (w *World) declareSymbols() {
	n := &w.fixture.Symbols
	if !isSet(n) {
		return
	}
	if n.Kind != yaml.MappingNode {
		w.fail(n, "symbols must be a mapping of names to types")
		return
	}
	defs, in := w.Universe.Defs, w.Universe.Types
	for key := range pairs(n) {
		w.symbols[key.Value] = defs.DeclareSymbol(key.Value, solver.NoType)
	}
	for key, value := range pairs(n) {
		sym := w.symbols[key.Value]
		var typ solver.TypeID
		if value.Kind == yaml.ScalarNode && !isQuoted(value) && value.Value == "unique symbol" {
			typ = in.Intern(solver.UniqueSymbol{Symbol: sym})
		} else {
			typ = in.Widen(w.typeOf(value, rootScope()))
		}
		if err := defs.SetSymbolType(sym, typ); err != nil {
			w.failures = w.failures.With(err)
		}
	}
}

// pairs iterates over the keys and values of a mapping node, in order
func pairs(n *yaml.Node) iter.Seq2[*yaml.Node, *yaml.Node] {
	return func(yield func(*yaml.Node, *yaml.Node) bool) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !yield(n.Content[i], n.Content[i+1]) {
				return
			}
		}
	}
}

// walk iterates over n and every node below it
func walk(n *yaml.Node) iter.Seq[*yaml.Node] {
	return func(yield func(*yaml.Node) bool) {
		var visit func(*yaml.Node) bool
		visit = func(n *yaml.Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.Content {
				if !visit(c) {
					return false
				}
			}
			return true
		}
		visit(n)
	}
}

func isQuoted(n *yaml.Node) bool {
	return n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
}

func hasKey(n *yaml.Node, key string) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	for k := range pairs(n) {
		if k.Value == key {
			return true
		}
	}
	return false
}

var bigIntLiteral = regexp.MustCompile(`^-?[0-9]+n$`)

// typeOf lowers a type expression. Mistakes are recorded and lower to the error type.
func (w *World) typeOf(n *yaml.Node, sc scope) solver.TypeID {
	switch n.Kind {
	case yaml.ScalarNode:
		return w.scalar(n, sc)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return w.fail(n, "a type mapping has exactly one key, got %d", len(n.Content)/2)
		}
		return w.shape(n.Content[0].Value, n.Content[1], sc)
	case yaml.AliasNode:
		return w.typeOf(n.Alias, sc)
	}
	return w.fail(n, "not a type")
}

func (w *World) scalar(n *yaml.Node, sc scope) solver.TypeID {
	in := w.Universe.Types
	if isQuoted(n) {
		return in.StringLiteral(n.Value)
	}
	switch n.ShortTag() {
	case "!!null":
		return solver.TypeNull
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return w.fail(n, "%v", err)
		}
		return in.BooleanLiteral(b)
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return w.fail(n, "%v", err)
		}
		return in.NumberLiteral(f)
	}
	return w.named(n, n.Value, sc)
}

func (w *World) named(n *yaml.Node, name string, sc scope) solver.TypeID {
	in := w.Universe.Types
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return in.Array(w.named(n, elem, sc))
	}
	if bigIntLiteral.MatchString(name) {
		return in.BigIntLiteral(strings.TrimSuffix(name, "n"))
	}
	if id, ok := sc.params.Get(name); ok {
		return id
	}
	if def, ok := w.decls[name]; ok {
		return in.Lazy(def)
	}
	if member, ok := w.members[name]; ok {
		return member
	}
	if id, ok := solver.IntrinsicByName(name); ok {
		return id
	}
	return w.fail(n, "unknown type %q", name)
}

var stringOps = map[string]solver.StringOp{
	"Uppercase":    solver.Uppercase,
	"Lowercase":    solver.Lowercase,
	"Capitalize":   solver.Capitalize,
	"Uncapitalize": solver.Uncapitalize,
}

func (w *World) shape(kind string, v *yaml.Node, sc scope) solver.TypeID {
	in := w.Universe.Types
	switch kind {
	case "union":
		return in.Union(w.list(v, sc)...)
	case "intersection":
		return in.Intersection(w.list(v, sc)...)
	case "object", "fresh":
		return w.object(v, sc, kind == "fresh")
	case "array":
		return in.Array(w.typeOf(v, sc))
	case "readonly":
		return in.Readonly(w.typeOf(v, sc))
	case "keyof":
		return in.KeyOf(w.typeOf(v, sc))
	case "tuple":
		return w.tuple(v, sc)
	case "fn":
		sig, ok := w.signature(v, sc)
		if !ok {
			return solver.TypeError
		}
		return in.Function(sig)
	case "overloads":
		if v.Kind != yaml.SequenceNode {
			return w.fail(v, "overloads is a list of signatures")
		}
		sigs := make([]solver.Signature, 0, len(v.Content))
		for _, s := range v.Content {
			if sig, ok := w.signature(s, sc); ok {
				sigs = append(sigs, sig)
			}
		}
		return in.Callable(sigs...)
	case "index":
		operands := w.list(v, sc)
		if len(operands) != 2 {
			return w.fail(v, "index takes [object, index]")
		}
		return in.IndexedAccess(operands[0], operands[1])
	case "typeof":
		sym, ok := w.symbols[v.Value]
		if !ok {
			return w.fail(v, "unknown symbol %q", v.Value)
		}
		return in.Intern(solver.TypeQuery{Symbol: sym})
	case "template":
		return w.template(v, sc)
	case "cond":
		return w.conditional(v, sc)
	case "infer":
		var spec TypeParamSpec
		if err := v.Decode(&spec); err != nil {
			return w.fail(v, "%v", err)
		}
		if id, ok := sc.params.Get(spec.Name); ok {
			return id
		}
		return w.fail(v, "infer %s outside the extends clause of a conditional", spec.Name)
	case "mapped":
		return w.mapped(v, sc)
	case "app":
		operands := w.list(v, sc)
		if len(operands) == 0 {
			return w.fail(v, "app takes [generic, arguments...]")
		}
		return in.Application(operands[0], operands[1:]...)
	}
	if op, ok := stringOps[kind]; ok {
		return in.Intern(solver.StringIntrinsic{Op: op, Arg: w.typeOf(v, sc)})
	}
	return w.fail(v, "unknown kind of type %q", kind)
}

func (w *World) list(n *yaml.Node, sc scope) []solver.TypeID {
	if n.Kind != yaml.SequenceNode {
		w.fail(n, "expected a list of types")
		return nil
	}
	out := make([]solver.TypeID, len(n.Content))
	for i, c := range n.Content {
		out[i] = w.typeOf(c, sc)
	}
	return out
}

type member struct {
	name string
	// index is the key type of an index signature, empty for properties
	index                      string
	optional, readonly, method bool
	visibility                 solver.Visibility
}

// parseMember reads member keys such as `readonly private name?`, `name()` and `[key: string]`
func parseMember(key string) member {
	var m member
	for {
		word, rest, found := strings.Cut(key, " ")
		if !found || !m.modifier(word) {
			break
		}
		key = rest
	}
	if inner, ok := strings.CutPrefix(key, "["); ok && strings.HasSuffix(inner, "]") {
		inner = strings.TrimSuffix(inner, "]")
		if _, keyType, named := strings.Cut(inner, ":"); named {
			inner = keyType
		}
		m.index = strings.TrimSpace(inner)
		return m
	}
	if name, ok := strings.CutSuffix(key, "()"); ok {
		m.method = true
		key = name
	}
	if name, ok := strings.CutSuffix(key, "?"); ok {
		m.optional = true
		key = name
	}
	m.name = key
	return m
}

func (m *member) modifier(word string) bool {
	switch word {
	case "readonly":
		m.readonly = true
	case "private":
		m.visibility = solver.Private
	case "protected":
		m.visibility = solver.Protected
	default:
		return false
	}
	return true
}

func (w *World) object(n *yaml.Node, sc scope, fresh bool) solver.TypeID {
	in := w.Universe.Types
	if n.Kind != yaml.MappingNode {
		return w.fail(n, "object members must be a mapping")
	}
	var (
		props []solver.Property
		index []solver.IndexSignature
	)
	for key, value := range pairs(n) {
		m := parseMember(key.Value)
		typ := w.typeOf(value, sc)
		if m.index != "" {
			index = append(index, solver.IndexSignature{Key: w.named(key, m.index, sc), Value: typ, Readonly: m.readonly})
			continue
		}
		if m.method {
			typ = w.asMethod(typ)
		}
		p := solver.Property{Name: m.name, Type: typ, Optional: m.optional, Readonly: m.readonly, Method: m.method, Visibility: m.visibility}
		if p.Visibility != solver.Public {
			if sc.class == 0 {
				w.fail(key, "%s is private or protected outside a class", m.name)
			}
			p.DeclaredBy = sc.class
		}
		props = append(props, p)
	}
	if fresh {
		return in.FreshObject(props, index...)
	}
	return in.Object(props, index...)
}

// asMethod marks the signatures of a function type as declared with method syntax
func (w *World) asMethod(id solver.TypeID) solver.TypeID {
	in := w.Universe.Types
	shape, err := in.Lookup(id)
	if err != nil {
		return id
	}
	callable, ok := shape.(solver.Callable)
	if !ok {
		return id
	}
	sigs := slices.Clone(callable.Signatures)
	for i := range sigs {
		sigs[i].Method = true
	}
	return in.Callable(sigs...)
}

type elementSpec struct {
	Name     string `yaml:"name"`
	Type     Expr   `yaml:"type"`
	Optional bool   `yaml:"optional"`
	Rest     bool   `yaml:"rest"`
}

func (w *World) tuple(n *yaml.Node, sc scope) solver.TypeID {
	if n.Kind != yaml.SequenceNode {
		return w.fail(n, "tuple is a list of elements")
	}
	elems := make([]solver.TupleElement, 0, len(n.Content))
	for _, c := range n.Content {
		if !hasKey(c, "type") {
			elems = append(elems, solver.TupleElement{Type: w.typeOf(c, sc)})
			continue
		}
		var spec elementSpec
		if err := c.Decode(&spec); err != nil {
			w.fail(c, "%v", err)
			continue
		}
		elems = append(elems, solver.TupleElement{Name: spec.Name, Type: w.typeOf(&spec.Type, sc), Optional: spec.Optional, Rest: spec.Rest})
	}
	return w.Universe.Types.Tuple(elems...)
}

type signatureSpec struct {
	TypeParams []TypeParamSpec `yaml:"typeParams"`
	// Params maps names to types, in order. `name?` is optional and `...name` a rest parameter.
	Params  Expr           `yaml:"params"`
	Returns Expr           `yaml:"returns"`
	This    Expr           `yaml:"this"`
	Method  bool           `yaml:"method"`
	New     bool           `yaml:"new"`
	Guards  *predicateSpec `yaml:"guards"`
}

// predicateSpec is `param is Type`, or `asserts param [is Type]`; param may be `this`
type predicateSpec struct {
	Param   string `yaml:"param"`
	Type    Expr   `yaml:"type"`
	Asserts bool   `yaml:"asserts"`
}

func (w *World) signature(n *yaml.Node, sc scope) (solver.Signature, bool) {
	var spec signatureSpec
	if err := n.Decode(&spec); err != nil {
		w.fail(n, "signature: %v", err)
		return solver.Signature{}, false
	}
	sig := solver.Signature{Method: spec.Method, Construct: spec.New, Return: solver.TypeVoid}
	for _, p := range spec.TypeParams {
		id := w.typeParameter(p, sc)
		sig.TypeParams = append(sig.TypeParams, id)
		sc = sc.with(p.Name, id)
	}
	if isSet(&spec.Params) {
		if spec.Params.Kind != yaml.MappingNode {
			w.fail(&spec.Params, "params must be a mapping of names to types")
		}
		for key, value := range pairs(&spec.Params) {
			name, rest := strings.CutPrefix(key.Value, "...")
			name, optional := strings.CutSuffix(name, "?")
			sig.Params = append(sig.Params, solver.Param{Name: name, Type: w.typeOf(value, sc), Optional: optional, Rest: rest})
		}
	}
	if isSet(&spec.Returns) {
		sig.Return = w.typeOf(&spec.Returns, sc)
	}
	if isSet(&spec.This) {
		sig.This = w.typeOf(&spec.This, sc)
	}
	if g := spec.Guards; g != nil {
		pred := &solver.TypePredicate{Asserts: g.Asserts, ParamIndex: -1}
		if g.Param != "this" {
			pred.ParamIndex = slices.IndexFunc(sig.Params, func(p solver.Param) bool { return p.Name == g.Param })
			if pred.ParamIndex < 0 {
				w.fail(n, "predicate on unknown parameter %q", g.Param)
			}
		}
		if isSet(&g.Type) {
			pred.Type = w.typeOf(&g.Type, sc)
		}
		sig.Predicate = pred
	}
	return sig, true
}

func (w *World) template(n *yaml.Node, sc scope) solver.TypeID {
	if n.Kind != yaml.SequenceNode {
		return w.fail(n, "template is a list of quoted text and types")
	}
	spans := make([]solver.TemplateSpan, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind == yaml.ScalarNode && isQuoted(c) {
			spans = append(spans, solver.TemplateSpan{Text: c.Value})
			continue
		}
		spans = append(spans, solver.TemplateSpan{Type: w.typeOf(c, sc)})
	}
	return w.Universe.Types.TemplateLiteral(spans...)
}

type conditionalSpec struct {
	Check   Expr `yaml:"check"`
	Extends Expr `yaml:"extends"`
	Then    Expr `yaml:"then"`
	Else    Expr `yaml:"else"`
}

func isInfer(n *yaml.Node) bool {
	return n.Kind == yaml.MappingNode && len(n.Content) == 2 && n.Content[0].Value == "infer"
}

func (w *World) conditional(n *yaml.Node, sc scope) solver.TypeID {
	in := w.Universe.Types
	var spec conditionalSpec
	if err := n.Decode(&spec); err != nil {
		return w.fail(n, "conditional: %v", err)
	}
	check := w.typeOf(&spec.Check, sc)

	// infer bindings are visible in the extends clause and the true branch
	inner := sc
	for binding := range util.FilterIter(walk(&spec.Extends), isInfer) {
		var p TypeParamSpec
		if err := binding.Content[1].Decode(&p); err != nil {
			return w.fail(binding, "%v", err)
		}
		infer := solver.Infer{Name: p.Name}
		if isSet(&p.Extends) {
			infer.Constraint = w.typeOf(&p.Extends, sc)
		}
		inner = inner.with(p.Name, in.Intern(infer))
	}

	return in.Intern(solver.Conditional{
		Check:        check,
		Extends:      w.typeOf(&spec.Extends, inner),
		True:         w.typeOf(&spec.Then, inner),
		False:        w.typeOf(&spec.Else, sc),
		Distributive: in.Kind(check) == solver.KindTypeParameter,
	})
}

type mappedSpec struct {
	Param    string `yaml:"param"`
	In       Expr   `yaml:"in"`
	As       Expr   `yaml:"as"`
	Template Expr   `yaml:"template"`
	Optional string `yaml:"optional"`
	Readonly string `yaml:"readonly"`
}

func parseModifier(s string) (solver.Modifier, error) {
	switch s {
	case "", "keep":
		return solver.ModifierKeep, nil
	case "+", "add":
		return solver.ModifierAdd, nil
	case "-", "remove":
		return solver.ModifierRemove, nil
	}
	return solver.ModifierKeep, errors.Errorf("unknown modifier %q, want add or remove", s)
}

func (w *World) mapped(n *yaml.Node, sc scope) solver.TypeID {
	in := w.Universe.Types
	var spec mappedSpec
	if err := n.Decode(&spec); err != nil {
		return w.fail(n, "mapped: %v", err)
	}
	param := in.NewTypeParameter(solver.TypeParameter{Name: spec.Param})
	inner := sc.with(spec.Param, param)
	m := solver.Mapped{
		Param:      param,
		Constraint: w.typeOf(&spec.In, sc),
		Template:   w.typeOf(&spec.Template, inner),
	}
	if isSet(&spec.As) {
		m.NameType = w.typeOf(&spec.As, inner)
	}
	var err error
	if m.Optional, err = parseModifier(spec.Optional); err != nil {
		return w.fail(n, "%v", err)
	}
	if m.Readonly, err = parseModifier(spec.Readonly); err != nil {
		return w.fail(n, "%v", err)
	}
	return in.Intern(m)
}
