package solver

import (
	"hash/fnv"
	"iter"
	"math"
	"slices"
)

// TypeID identifies an interned Shape. Two ids are equal if and only if their shapes are.
type TypeID uint32

// DefID identifies a named declaration (alias, interface, class, enum) in a DefRegistry
type DefID uint32

// SymbolID identifies a value declaration, used by `typeof x` and `unique symbol`
type SymbolID uint32

const NoType TypeID = 0

// ids of the shapes every Interner is created with
const (
	TypeAny TypeID = iota + 1
	TypeUnknown
	TypeNever
	TypeVoid
	TypeNull
	TypeUndefined
	TypeBoolean
	TypeNumber
	TypeString
	TypeBigInt
	TypeSymbol
	TypeObject
	TypeFunction
	TypeError
	TypeTrue
	TypeFalse
	TypeEmptyObject
	firstUserType
)

type Kind uint8

const (
	KindIntrinsic Kind = iota
	KindLiteral
	KindUnion
	KindIntersection
	KindObject
	KindObjectWithIndex
	KindArray
	KindTuple
	KindCallable
	KindTypeParameter
	KindConditional
	KindInfer
	KindMapped
	KindIndexedAccess
	KindKeyOf
	KindTemplateLiteral
	KindEnum
	KindLazy
	KindReadonly
	KindUniqueSymbol
	KindTypeQuery
	KindApplication
	KindStringIntrinsic
	KindBoundParameter
	KindRecursive
)

var kindNames = [...]string{
	KindIntrinsic:       "intrinsic",
	KindLiteral:         "literal",
	KindUnion:           "union",
	KindIntersection:    "intersection",
	KindObject:          "object",
	KindObjectWithIndex: "object-with-index",
	KindArray:           "array",
	KindTuple:           "tuple",
	KindCallable:        "callable",
	KindTypeParameter:   "type-parameter",
	KindConditional:     "conditional",
	KindInfer:           "infer",
	KindMapped:          "mapped",
	KindIndexedAccess:   "indexed-access",
	KindKeyOf:           "keyof",
	KindTemplateLiteral: "template-literal",
	KindEnum:            "enum",
	KindLazy:            "lazy",
	KindReadonly:        "readonly",
	KindUniqueSymbol:    "unique-symbol",
	KindTypeQuery:       "type-query",
	KindApplication:     "application",
	KindStringIntrinsic: "string-intrinsic",
	KindBoundParameter:  "bound-parameter",
	KindRecursive:       "recursive",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Shape is the closed set of structural type values.
// Shapes only ever refer to other types through TypeID, never by pointer.
type Shape interface {
	Kind() Kind
	hash() uint64
	equal(other Shape) bool
	// children yields every TypeID the shape refers to directly
	children() iter.Seq[TypeID]
	// mapTypes rebuilds the shape with f applied to each direct child
	mapTypes(f func(TypeID) TypeID) Shape
}

var (
	_ Shape = Intrinsic{}
	_ Shape = Literal{}
	_ Shape = Union{}
	_ Shape = Intersection{}
	_ Shape = Object{}
	_ Shape = Array{}
	_ Shape = Tuple{}
	_ Shape = Callable{}
	_ Shape = TypeParameter{}
	_ Shape = Conditional{}
	_ Shape = Infer{}
	_ Shape = Mapped{}
	_ Shape = IndexedAccess{}
	_ Shape = KeyOf{}
	_ Shape = TemplateLiteral{}
	_ Shape = Enum{}
	_ Shape = Lazy{}
	_ Shape = Readonly{}
	_ Shape = UniqueSymbol{}
	_ Shape = TypeQuery{}
	_ Shape = Application{}
	_ Shape = StringIntrinsic{}
	_ Shape = BoundParameter{}
	_ Shape = Recursive{}
)

// hasher is FNV-1a over uint64 words and strings
type hasher struct{ h uint64 }

const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

func newHasher(k Kind) *hasher {
	h := &hasher{h: fnvOffset}
	h.word(uint64(k))
	return h
}

func (h *hasher) word(w uint64) *hasher {
	h.h ^= w
	h.h *= fnvPrime
	return h
}

func (h *hasher) flag(b bool) *hasher {
	if b {
		return h.word(1)
	}
	return h.word(0)
}

func (h *hasher) str(s string) *hasher {
	f := fnv.New64a()
	_, _ = f.Write([]byte(s))
	return h.word(f.Sum64())
}

func (h *hasher) ids(ids []TypeID) *hasher {
	h.word(uint64(len(ids)))
	for _, id := range ids {
		h.word(uint64(id))
	}
	return h
}

func (h *hasher) sum() uint64 { return h.h }

func noChildren(func(TypeID) bool) {}

func childrenOf(ids ...TypeID) iter.Seq[TypeID] {
	return func(yield func(TypeID) bool) {
		for _, id := range ids {
			if id == NoType {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

func mapOptional(f func(TypeID) TypeID, id TypeID) TypeID {
	if id == NoType {
		return NoType
	}
	return f(id)
}

func mapAll(f func(TypeID) TypeID, ids []TypeID) []TypeID {
	mapped := make([]TypeID, len(ids))
	for i, id := range ids {
		mapped[i] = f(id)
	}
	return mapped
}

// --- Intrinsic ---

type IntrinsicKind uint8

const (
	IntrinsicAny IntrinsicKind = iota
	IntrinsicUnknown
	IntrinsicNever
	IntrinsicVoid
	IntrinsicNull
	IntrinsicUndefined
	IntrinsicBoolean
	IntrinsicNumber
	IntrinsicString
	IntrinsicBigInt
	IntrinsicSymbol
	IntrinsicObject
	IntrinsicFunction
	IntrinsicError
)

var intrinsicNames = [...]string{
	IntrinsicAny:       "any",
	IntrinsicUnknown:   "unknown",
	IntrinsicNever:     "never",
	IntrinsicVoid:      "void",
	IntrinsicNull:      "null",
	IntrinsicUndefined: "undefined",
	IntrinsicBoolean:   "boolean",
	IntrinsicNumber:    "number",
	IntrinsicString:    "string",
	IntrinsicBigInt:    "bigint",
	IntrinsicSymbol:    "symbol",
	IntrinsicObject:    "object",
	IntrinsicFunction:  "Function",
	IntrinsicError:     "error",
}

func (k IntrinsicKind) String() string { return intrinsicNames[k] }

// IntrinsicByName maps the spelling of a primitive keyword to its TypeID
func IntrinsicByName(name string) (TypeID, bool) {
	for i, n := range intrinsicNames {
		if n == name {
			return TypeAny + TypeID(i), true
		}
	}
	return NoType, false
}

type Intrinsic struct {
	Which IntrinsicKind
}

func (t Intrinsic) Kind() Kind                     { return KindIntrinsic }
func (t Intrinsic) hash() uint64                   { return newHasher(KindIntrinsic).word(uint64(t.Which)).sum() }
func (t Intrinsic) equal(o Shape) bool             { other, ok := o.(Intrinsic); return ok && other == t }
func (t Intrinsic) children() iter.Seq[TypeID]     { return noChildren }
func (t Intrinsic) mapTypes(func(TypeID) TypeID) Shape { return t }

// --- Literal ---

type LiteralKind uint8

const (
	LitString LiteralKind = iota
	LitNumber
	LitBigInt
	LitBoolean
)

// Literal is a unit type holding a single value. BigInt values are kept in their decimal spelling.
type Literal struct {
	LitKind LiteralKind
	Str     string
	Num     float64
	Bool    bool
}

func (t Literal) Kind() Kind { return KindLiteral }
func (t Literal) hash() uint64 {
	return newHasher(KindLiteral).word(uint64(t.LitKind)).str(t.Str).word(math.Float64bits(t.Num)).flag(t.Bool).sum()
}
func (t Literal) equal(o Shape) bool                 { other, ok := o.(Literal); return ok && other == t }
func (t Literal) children() iter.Seq[TypeID]         { return noChildren }
func (t Literal) mapTypes(func(TypeID) TypeID) Shape { return t }

// Primitive returns the intrinsic a literal widens to
func (t Literal) Primitive() TypeID {
	switch t.LitKind {
	case LitString:
		return TypeString
	case LitNumber:
		return TypeNumber
	case LitBigInt:
		return TypeBigInt
	default:
		return TypeBoolean
	}
}

// --- Union / Intersection ---

// Union members are kept sorted by TypeID and are never themselves unions
type Union struct {
	Members []TypeID
}

func (t Union) Kind() Kind   { return KindUnion }
func (t Union) hash() uint64 { return newHasher(KindUnion).ids(t.Members).sum() }
func (t Union) equal(o Shape) bool {
	other, ok := o.(Union)
	return ok && slices.Equal(t.Members, other.Members)
}
func (t Union) children() iter.Seq[TypeID] { return slices.Values(t.Members) }
func (t Union) mapTypes(f func(TypeID) TypeID) Shape {
	return Union{Members: mapAll(f, t.Members)}
}

type Intersection struct {
	Members []TypeID
}

func (t Intersection) Kind() Kind   { return KindIntersection }
func (t Intersection) hash() uint64 { return newHasher(KindIntersection).ids(t.Members).sum() }
func (t Intersection) equal(o Shape) bool {
	other, ok := o.(Intersection)
	return ok && slices.Equal(t.Members, other.Members)
}
func (t Intersection) children() iter.Seq[TypeID] { return slices.Values(t.Members) }
func (t Intersection) mapTypes(f func(TypeID) TypeID) Shape {
	return Intersection{Members: mapAll(f, t.Members)}
}

// --- Object ---

type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

type Property struct {
	Name     string
	Type     TypeID
	Optional bool
	Readonly bool
	// Method marks properties declared with method syntax, whose parameters
	// are compared bivariantly when method bivariance is enabled
	Method     bool
	Visibility Visibility
	// DeclaredBy is the class declaring a private or protected member
	DeclaredBy DefID
}

type IndexSignature struct {
	// Key is one of TypeString, TypeNumber or TypeSymbol
	Key      TypeID
	Value    TypeID
	Readonly bool
}

// Object is an object type. Properties are sorted by name and index signatures by key.
// An Object with index signatures reports KindObjectWithIndex.
type Object struct {
	Props []Property
	Index []IndexSignature
	// Signatures is a Callable when the object type is also callable, NoType otherwise
	Signatures TypeID
	// Fresh marks object literals which have not been bound yet, see Interner.Widen
	Fresh bool
	// Nominal is the declaration an object type was created from; it is only used for display
	Nominal DefID
}

func (t Object) Kind() Kind {
	if len(t.Index) > 0 {
		return KindObjectWithIndex
	}
	return KindObject
}

func (t Object) hash() uint64 {
	h := newHasher(KindObject)
	for _, p := range t.Props {
		h.str(p.Name).word(uint64(p.Type)).flag(p.Optional).flag(p.Readonly).flag(p.Method).
			word(uint64(p.Visibility)).word(uint64(p.DeclaredBy))
	}
	for _, idx := range t.Index {
		h.word(uint64(idx.Key)).word(uint64(idx.Value)).flag(idx.Readonly)
	}
	return h.word(uint64(t.Signatures)).flag(t.Fresh).word(uint64(t.Nominal)).sum()
}

func (t Object) equal(o Shape) bool {
	other, ok := o.(Object)
	return ok && slices.Equal(t.Props, other.Props) && slices.Equal(t.Index, other.Index) &&
		t.Signatures == other.Signatures && t.Fresh == other.Fresh && t.Nominal == other.Nominal
}

func (t Object) children() iter.Seq[TypeID] {
	return func(yield func(TypeID) bool) {
		for _, p := range t.Props {
			if !yield(p.Type) {
				return
			}
		}
		for _, idx := range t.Index {
			if !yield(idx.Value) {
				return
			}
		}
		if t.Signatures != NoType {
			yield(t.Signatures)
		}
	}
}

func (t Object) mapTypes(f func(TypeID) TypeID) Shape {
	mapped := Object{
		Props:      slices.Clone(t.Props),
		Index:      slices.Clone(t.Index),
		Signatures: mapOptional(f, t.Signatures),
		Fresh:      t.Fresh,
		Nominal:    t.Nominal,
	}
	for i := range mapped.Props {
		mapped.Props[i].Type = f(mapped.Props[i].Type)
	}
	for i := range mapped.Index {
		mapped.Index[i].Value = f(mapped.Index[i].Value)
	}
	return mapped
}

// Property returns the property called name, if present
func (t Object) Property(name string) (Property, bool) {
	i, found := slices.BinarySearchFunc(t.Props, name, func(p Property, name string) int {
		switch {
		case p.Name < name:
			return -1
		case p.Name > name:
			return 1
		}
		return 0
	})
	if !found {
		return Property{}, false
	}
	return t.Props[i], true
}

// IndexFor returns the index signature with the given key primitive
func (t Object) IndexFor(key TypeID) (IndexSignature, bool) {
	for _, idx := range t.Index {
		if idx.Key == key {
			return idx, true
		}
	}
	return IndexSignature{}, false
}

// --- Array / Tuple ---

type Array struct {
	Elem TypeID
}

func (t Array) Kind() Kind                 { return KindArray }
func (t Array) hash() uint64               { return newHasher(KindArray).word(uint64(t.Elem)).sum() }
func (t Array) equal(o Shape) bool         { other, ok := o.(Array); return ok && other == t }
func (t Array) children() iter.Seq[TypeID] { return childrenOf(t.Elem) }
func (t Array) mapTypes(f func(TypeID) TypeID) Shape {
	return Array{Elem: f(t.Elem)}
}

type TupleElement struct {
	Type     TypeID
	Name     string
	Optional bool
	// Rest elements have an array (or tuple) type
	Rest bool
}

type Tuple struct {
	Elems []TupleElement
}

func (t Tuple) Kind() Kind { return KindTuple }
func (t Tuple) hash() uint64 {
	h := newHasher(KindTuple)
	for _, e := range t.Elems {
		h.word(uint64(e.Type)).str(e.Name).flag(e.Optional).flag(e.Rest)
	}
	return h.sum()
}
func (t Tuple) equal(o Shape) bool {
	other, ok := o.(Tuple)
	return ok && slices.Equal(t.Elems, other.Elems)
}
func (t Tuple) children() iter.Seq[TypeID] {
	return func(yield func(TypeID) bool) {
		for _, e := range t.Elems {
			if !yield(e.Type) {
				return
			}
		}
	}
}
func (t Tuple) mapTypes(f func(TypeID) TypeID) Shape {
	elems := slices.Clone(t.Elems)
	for i := range elems {
		elems[i].Type = f(elems[i].Type)
	}
	return Tuple{Elems: elems}
}

// --- Callable ---

type Param struct {
	Name     string
	Type     TypeID
	Optional bool
	Rest     bool
}

// TypePredicate is the `x is T` / `asserts x is T` / `asserts x` annotation of a signature
type TypePredicate struct {
	Asserts bool
	// ParamIndex is the guarded parameter, -1 for `this`
	ParamIndex int
	// Type is NoType for a bare `asserts x`
	Type TypeID
}

type Signature struct {
	TypeParams []TypeID
	Params     []Param
	Return     TypeID
	// This is the declared `this` parameter, NoType when absent
	This      TypeID
	Predicate *TypePredicate
	Method    bool
	Construct bool
}

func (s Signature) equal(other Signature) bool {
	if (s.Predicate == nil) != (other.Predicate == nil) {
		return false
	}
	if s.Predicate != nil && *s.Predicate != *other.Predicate {
		return false
	}
	return slices.Equal(s.TypeParams, other.TypeParams) && slices.Equal(s.Params, other.Params) &&
		s.Return == other.Return && s.This == other.This && s.Method == other.Method && s.Construct == other.Construct
}

func (s Signature) hashInto(h *hasher) {
	h.ids(s.TypeParams)
	for _, p := range s.Params {
		h.str(p.Name).word(uint64(p.Type)).flag(p.Optional).flag(p.Rest)
	}
	h.word(uint64(s.Return)).word(uint64(s.This)).flag(s.Method).flag(s.Construct)
	if s.Predicate != nil {
		h.flag(s.Predicate.Asserts).word(uint64(s.Predicate.ParamIndex + 2)).word(uint64(s.Predicate.Type))
	}
}

func (s Signature) mapTypes(f func(TypeID) TypeID) Signature {
	mapped := Signature{
		TypeParams: mapAll(f, s.TypeParams),
		Params:     slices.Clone(s.Params),
		Return:     mapOptional(f, s.Return),
		This:       mapOptional(f, s.This),
		Method:     s.Method,
		Construct:  s.Construct,
	}
	for i := range mapped.Params {
		mapped.Params[i].Type = f(mapped.Params[i].Type)
	}
	if s.Predicate != nil {
		pred := *s.Predicate
		pred.Type = mapOptional(f, pred.Type)
		mapped.Predicate = &pred
	}
	return mapped
}

// MinArgs is the number of arguments a call must at least supply
func (s Signature) MinArgs() int {
	n := 0
	for i, p := range s.Params {
		if !p.Optional && !p.Rest {
			n = i + 1
		}
	}
	return n
}

// Callable holds one or more overloads, in declaration order
type Callable struct {
	Signatures []Signature
}

func (t Callable) Kind() Kind { return KindCallable }
func (t Callable) hash() uint64 {
	h := newHasher(KindCallable)
	for _, s := range t.Signatures {
		s.hashInto(h)
	}
	return h.sum()
}
func (t Callable) equal(o Shape) bool {
	other, ok := o.(Callable)
	return ok && slices.EqualFunc(t.Signatures, other.Signatures, Signature.equal)
}
func (t Callable) children() iter.Seq[TypeID] {
	return func(yield func(TypeID) bool) {
		for _, s := range t.Signatures {
			for _, id := range s.TypeParams {
				if !yield(id) {
					return
				}
			}
			for _, p := range s.Params {
				if !yield(p.Type) {
					return
				}
			}
			for _, id := range []TypeID{s.Return, s.This} {
				if id != NoType && !yield(id) {
					return
				}
			}
			if s.Predicate != nil && s.Predicate.Type != NoType && !yield(s.Predicate.Type) {
				return
			}
		}
	}
}
func (t Callable) mapTypes(f func(TypeID) TypeID) Shape {
	sigs := make([]Signature, len(t.Signatures))
	for i, s := range t.Signatures {
		sigs[i] = s.mapTypes(f)
	}
	return Callable{Signatures: sigs}
}

// --- Generics ---

// TypeParameter is a declared type parameter. Scope tells apart parameters
// declared with the same name and bounds by different declarations.
type TypeParameter struct {
	Name       string
	Constraint TypeID
	Default    TypeID
	// Const parameters keep literal candidates instead of widening them
	Const bool
	Scope uint32
}

func (t TypeParameter) Kind() Kind { return KindTypeParameter }
func (t TypeParameter) hash() uint64 {
	return newHasher(KindTypeParameter).str(t.Name).word(uint64(t.Constraint)).word(uint64(t.Default)).
		flag(t.Const).word(uint64(t.Scope)).sum()
}
func (t TypeParameter) equal(o Shape) bool         { other, ok := o.(TypeParameter); return ok && other == t }
func (t TypeParameter) children() iter.Seq[TypeID] { return childrenOf(t.Constraint, t.Default) }
func (t TypeParameter) mapTypes(f func(TypeID) TypeID) Shape {
	return TypeParameter{Name: t.Name, Constraint: mapOptional(f, t.Constraint), Default: mapOptional(f, t.Default),
		Const: t.Const, Scope: t.Scope}
}

// Conditional is `Check extends Extends ? True : False`
type Conditional struct {
	Check, Extends, True, False TypeID
	// Distributive is set when Check is a naked type parameter at declaration
	Distributive bool
}

func (t Conditional) Kind() Kind { return KindConditional }
func (t Conditional) hash() uint64 {
	return newHasher(KindConditional).ids([]TypeID{t.Check, t.Extends, t.True, t.False}).flag(t.Distributive).sum()
}
func (t Conditional) equal(o Shape) bool { other, ok := o.(Conditional); return ok && other == t }
func (t Conditional) children() iter.Seq[TypeID] {
	return childrenOf(t.Check, t.Extends, t.True, t.False)
}
func (t Conditional) mapTypes(f func(TypeID) TypeID) Shape {
	return Conditional{Check: f(t.Check), Extends: f(t.Extends), True: f(t.True), False: f(t.False), Distributive: t.Distributive}
}

// Infer is an `infer Name` binding inside the extends clause of a Conditional
type Infer struct {
	Name       string
	Constraint TypeID
}

func (t Infer) Kind() Kind                 { return KindInfer }
func (t Infer) hash() uint64               { return newHasher(KindInfer).str(t.Name).word(uint64(t.Constraint)).sum() }
func (t Infer) equal(o Shape) bool         { other, ok := o.(Infer); return ok && other == t }
func (t Infer) children() iter.Seq[TypeID] { return childrenOf(t.Constraint) }
func (t Infer) mapTypes(f func(TypeID) TypeID) Shape {
	return Infer{Name: t.Name, Constraint: mapOptional(f, t.Constraint)}
}

type Modifier uint8

const (
	// ModifierKeep passes the modifier of the source property through
	ModifierKeep Modifier = iota
	ModifierAdd
	ModifierRemove
)

// Mapped is `{ [Param in Constraint as NameType]: Template }`
type Mapped struct {
	// Param is the TypeParameter bound to each key
	Param      TypeID
	Constraint TypeID
	Template   TypeID
	// NameType is the `as` clause, NoType when absent
	NameType TypeID
	Optional Modifier
	Readonly Modifier
}

func (t Mapped) Kind() Kind { return KindMapped }
func (t Mapped) hash() uint64 {
	return newHasher(KindMapped).ids([]TypeID{t.Param, t.Constraint, t.Template, t.NameType}).
		word(uint64(t.Optional)).word(uint64(t.Readonly)).sum()
}
func (t Mapped) equal(o Shape) bool { other, ok := o.(Mapped); return ok && other == t }
func (t Mapped) children() iter.Seq[TypeID] {
	return childrenOf(t.Param, t.Constraint, t.Template, t.NameType)
}
func (t Mapped) mapTypes(f func(TypeID) TypeID) Shape {
	return Mapped{Param: f(t.Param), Constraint: f(t.Constraint), Template: f(t.Template),
		NameType: mapOptional(f, t.NameType), Optional: t.Optional, Readonly: t.Readonly}
}

// IndexedAccess is `Object[Index]`
type IndexedAccess struct {
	Object, Index TypeID
}

func (t IndexedAccess) Kind() Kind { return KindIndexedAccess }
func (t IndexedAccess) hash() uint64 {
	return newHasher(KindIndexedAccess).word(uint64(t.Object)).word(uint64(t.Index)).sum()
}
func (t IndexedAccess) equal(o Shape) bool         { other, ok := o.(IndexedAccess); return ok && other == t }
func (t IndexedAccess) children() iter.Seq[TypeID] { return childrenOf(t.Object, t.Index) }
func (t IndexedAccess) mapTypes(f func(TypeID) TypeID) Shape {
	return IndexedAccess{Object: f(t.Object), Index: f(t.Index)}
}

type KeyOf struct {
	Inner TypeID
}

func (t KeyOf) Kind() Kind                 { return KindKeyOf }
func (t KeyOf) hash() uint64               { return newHasher(KindKeyOf).word(uint64(t.Inner)).sum() }
func (t KeyOf) equal(o Shape) bool         { other, ok := o.(KeyOf); return ok && other == t }
func (t KeyOf) children() iter.Seq[TypeID] { return childrenOf(t.Inner) }
func (t KeyOf) mapTypes(f func(TypeID) TypeID) Shape {
	return KeyOf{Inner: f(t.Inner)}
}

// TemplateSpan is either literal Text (Type == NoType) or a placeholder of type Type
type TemplateSpan struct {
	Text string
	Type TypeID
}

func (s TemplateSpan) IsText() bool { return s.Type == NoType }

type TemplateLiteral struct {
	Spans []TemplateSpan
}

func (t TemplateLiteral) Kind() Kind { return KindTemplateLiteral }
func (t TemplateLiteral) hash() uint64 {
	h := newHasher(KindTemplateLiteral)
	for _, s := range t.Spans {
		h.str(s.Text).word(uint64(s.Type))
	}
	return h.sum()
}
func (t TemplateLiteral) equal(o Shape) bool {
	other, ok := o.(TemplateLiteral)
	return ok && slices.Equal(t.Spans, other.Spans)
}
func (t TemplateLiteral) children() iter.Seq[TypeID] {
	return func(yield func(TypeID) bool) {
		for _, s := range t.Spans {
			if !s.IsText() && !yield(s.Type) {
				return
			}
		}
	}
}
func (t TemplateLiteral) mapTypes(f func(TypeID) TypeID) Shape {
	spans := slices.Clone(t.Spans)
	for i := range spans {
		spans[i].Type = mapOptional(f, spans[i].Type)
	}
	return TemplateLiteral{Spans: spans}
}

// --- Nominal and reference shapes ---

// Enum is a member of an enum declaration. Its identity is (Decl, Name), its value Member.
type Enum struct {
	Decl   DefID
	Name   string
	Member TypeID
}

func (t Enum) Kind() Kind { return KindEnum }
func (t Enum) hash() uint64 {
	return newHasher(KindEnum).word(uint64(t.Decl)).str(t.Name).word(uint64(t.Member)).sum()
}
func (t Enum) equal(o Shape) bool         { other, ok := o.(Enum); return ok && other == t }
func (t Enum) children() iter.Seq[TypeID] { return childrenOf(t.Member) }
func (t Enum) mapTypes(f func(TypeID) TypeID) Shape {
	return Enum{Decl: t.Decl, Name: t.Name, Member: f(t.Member)}
}

// Lazy refers to a named declaration whose body is looked up through a Resolver
type Lazy struct {
	Def DefID
}

func (t Lazy) Kind() Kind                         { return KindLazy }
func (t Lazy) hash() uint64                       { return newHasher(KindLazy).word(uint64(t.Def)).sum() }
func (t Lazy) equal(o Shape) bool                 { other, ok := o.(Lazy); return ok && other == t }
func (t Lazy) children() iter.Seq[TypeID]         { return noChildren }
func (t Lazy) mapTypes(func(TypeID) TypeID) Shape { return t }

type Readonly struct {
	Inner TypeID
}

func (t Readonly) Kind() Kind                 { return KindReadonly }
func (t Readonly) hash() uint64               { return newHasher(KindReadonly).word(uint64(t.Inner)).sum() }
func (t Readonly) equal(o Shape) bool         { other, ok := o.(Readonly); return ok && other == t }
func (t Readonly) children() iter.Seq[TypeID] { return childrenOf(t.Inner) }
func (t Readonly) mapTypes(f func(TypeID) TypeID) Shape {
	return Readonly{Inner: f(t.Inner)}
}

type UniqueSymbol struct {
	Symbol SymbolID
}

func (t UniqueSymbol) Kind() Kind { return KindUniqueSymbol }
func (t UniqueSymbol) hash() uint64 {
	return newHasher(KindUniqueSymbol).word(uint64(t.Symbol)).sum()
}
func (t UniqueSymbol) equal(o Shape) bool                 { other, ok := o.(UniqueSymbol); return ok && other == t }
func (t UniqueSymbol) children() iter.Seq[TypeID]         { return noChildren }
func (t UniqueSymbol) mapTypes(func(TypeID) TypeID) Shape { return t }

// TypeQuery is `typeof x`
type TypeQuery struct {
	Symbol SymbolID
}

func (t TypeQuery) Kind() Kind                         { return KindTypeQuery }
func (t TypeQuery) hash() uint64                       { return newHasher(KindTypeQuery).word(uint64(t.Symbol)).sum() }
func (t TypeQuery) equal(o Shape) bool                 { other, ok := o.(TypeQuery); return ok && other == t }
func (t TypeQuery) children() iter.Seq[TypeID]         { return noChildren }
func (t TypeQuery) mapTypes(func(TypeID) TypeID) Shape { return t }

// Application instantiates a generic declaration: Base is a Lazy, Args its type arguments
type Application struct {
	Base TypeID
	Args []TypeID
}

func (t Application) Kind() Kind { return KindApplication }
func (t Application) hash() uint64 {
	return newHasher(KindApplication).word(uint64(t.Base)).ids(t.Args).sum()
}
func (t Application) equal(o Shape) bool {
	other, ok := o.(Application)
	return ok && t.Base == other.Base && slices.Equal(t.Args, other.Args)
}
func (t Application) children() iter.Seq[TypeID] {
	return childrenOf(append([]TypeID{t.Base}, t.Args...)...)
}
func (t Application) mapTypes(f func(TypeID) TypeID) Shape {
	return Application{Base: f(t.Base), Args: mapAll(f, t.Args)}
}

type StringOp uint8

const (
	Uppercase StringOp = iota
	Lowercase
	Capitalize
	Uncapitalize
)

var stringOpNames = [...]string{Uppercase: "Uppercase", Lowercase: "Lowercase", Capitalize: "Capitalize", Uncapitalize: "Uncapitalize"}

func (op StringOp) String() string { return stringOpNames[op] }

type StringIntrinsic struct {
	Op  StringOp
	Arg TypeID
}

func (t StringIntrinsic) Kind() Kind { return KindStringIntrinsic }
func (t StringIntrinsic) hash() uint64 {
	return newHasher(KindStringIntrinsic).word(uint64(t.Op)).word(uint64(t.Arg)).sum()
}
func (t StringIntrinsic) equal(o Shape) bool         { other, ok := o.(StringIntrinsic); return ok && other == t }
func (t StringIntrinsic) children() iter.Seq[TypeID] { return childrenOf(t.Arg) }
func (t StringIntrinsic) mapTypes(f func(TypeID) TypeID) Shape {
	return StringIntrinsic{Op: t.Op, Arg: f(t.Arg)}
}

// BoundParameter is the canonical form of the Index-th type parameter of a canonicalised alias
type BoundParameter struct {
	Index uint32
}

func (t BoundParameter) Kind() Kind { return KindBoundParameter }
func (t BoundParameter) hash() uint64 {
	return newHasher(KindBoundParameter).word(uint64(t.Index)).sum()
}
func (t BoundParameter) equal(o Shape) bool                 { other, ok := o.(BoundParameter); return ok && other == t }
func (t BoundParameter) children() iter.Seq[TypeID]         { return noChildren }
func (t BoundParameter) mapTypes(func(TypeID) TypeID) Shape { return t }

// Recursive is the canonical form of a reference to the alias Index levels up the expansion path
type Recursive struct {
	Index uint32
}

func (t Recursive) Kind() Kind                         { return KindRecursive }
func (t Recursive) hash() uint64                       { return newHasher(KindRecursive).word(uint64(t.Index)).sum() }
func (t Recursive) equal(o Shape) bool                 { other, ok := o.(Recursive); return ok && other == t }
func (t Recursive) children() iter.Seq[TypeID]         { return noChildren }
func (t Recursive) mapTypes(func(TypeID) TypeID) Shape { return t }
