package solver

import (
	"log/slog"
	"strconv"

	"github.com/cottand/tsolve/internal/log"
	"github.com/hashicorp/go-set/v3"
)

type GuardKind uint8

const (
	// GuardTruthy is `if (x)`
	GuardTruthy GuardKind = iota
	// GuardTypeof is `typeof x === Tag`
	GuardTypeof
	// GuardInstanceof is `x instanceof C`, Type being the instance type of C
	GuardInstanceof
	// GuardDiscriminant is `x.Property === Value`
	GuardDiscriminant
	// GuardIn is `Property in x`
	GuardIn
	// GuardPredicate is a call to a function declared `(x) => x is Type`
	GuardPredicate
	// GuardAssertion is a call to a function declared `asserts x is Type`, or `asserts x` when Type is NoType
	GuardAssertion
	// GuardEquality is `x === Value`
	GuardEquality
)

var guardKindNames = [...]string{
	GuardTruthy:       "truthy",
	GuardTypeof:       "typeof",
	GuardInstanceof:   "instanceof",
	GuardDiscriminant: "discriminant",
	GuardIn:           "in",
	GuardPredicate:    "predicate",
	GuardAssertion:    "assertion",
	GuardEquality:     "equality",
}

func (k GuardKind) String() string { return guardKindNames[k] }

// Guard is a condition about a reference whose type is narrowed
type Guard struct {
	Kind GuardKind
	// Tag is the string `typeof x` is compared to
	Tag string
	// Type is the class instance type of instanceof and the type of predicates and assertions
	Type TypeID
	// Property is the discriminant property, or the left operand of `in`
	Property string
	// Value is the type of the value compared against, for discriminants and equality
	Value TypeID
	// Negated swaps both branches, as `!==` or a leading `!` do
	Negated bool
	// Loose is `==` equality, under which null and undefined are equal
	Loose bool
}

func (g Guard) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", g.Kind.String()),
		slog.String("tag", g.Tag),
		slog.Uint64("type", uint64(g.Type)),
		slog.String("property", g.Property),
		slog.Uint64("value", uint64(g.Value)),
		slog.Bool("negated", g.Negated),
	)
}

// Narrower computes the types a reference has on either branch of a guard.
// It is a pure function of its inputs; where the branches apply is up to the caller.
type Narrower struct {
	judge  *Judge
	eval   *Evaluator
	in     *Interner
	logger *slog.Logger
}

func NewNarrower(j *Judge) *Narrower {
	return &Narrower{judge: j, eval: j.eval, in: j.in, logger: log.For("solver.narrow")}
}

// Narrow returns the type of a reference of type typ where g holds and where it does not
func (n *Narrower) Narrow(typ TypeID, g Guard) (whenTrue, whenFalse TypeID) {
	whenTrue, whenFalse = n.narrow(typ, g)
	if g.Negated {
		whenTrue, whenFalse = whenFalse, whenTrue
	}
	n.logger.Debug("narrowed", "type", typ, "guard", g, "true", whenTrue, "false", whenFalse)
	return whenTrue, whenFalse
}

func (n *Narrower) narrow(typ TypeID, g Guard) (TypeID, TypeID) {
	switch g.Kind {
	case GuardTruthy:
		return n.byTruthiness(typ)
	case GuardTypeof:
		tag, ok := ParseTypeofTag(g.Tag)
		if !ok {
			// no value has this tag
			return TypeNever, typ
		}
		return n.byTypeof(typ, tag)
	case GuardInstanceof:
		return n.byInstanceof(typ, g.Type)
	case GuardDiscriminant:
		return n.byDiscriminant(typ, g.Property, g.Value)
	case GuardIn:
		return n.byIn(typ, g.Property)
	case GuardPredicate:
		return n.byPredicate(typ, g.Type)
	case GuardAssertion:
		if g.Type == NoType {
			return n.byTruthiness(typ)
		}
		return n.byPredicate(typ, g.Type)
	case GuardEquality:
		return n.byEquality(typ, g.Value, g.Loose)
	}
	return typ, typ
}

// members resolves references and wrappers around typ and returns its union members
func (n *Narrower) members(typ TypeID) []TypeID {
	typ = n.eval.whnf(typ)
	if typ == TypeBoolean {
		return []TypeID{TypeTrue, TypeFalse}
	}
	u, ok := n.in.shape(typ).(Union)
	if !ok {
		return []TypeID{typ}
	}
	out := make([]TypeID, 0, len(u.Members))
	for _, m := range u.Members {
		if m == TypeBoolean {
			out = append(out, TypeTrue, TypeFalse)
			continue
		}
		out = append(out, m)
	}
	return out
}

// partition splits the members of typ: keep maps a member to its type on the
// true branch and on the false branch, never dropping it from that branch
func (n *Narrower) partition(typ TypeID, keep func(member TypeID) (TypeID, TypeID)) (TypeID, TypeID) {
	var whenTrue, whenFalse []TypeID
	for _, m := range n.members(typ) {
		t, f := keep(m)
		whenTrue = append(whenTrue, t)
		whenFalse = append(whenFalse, f)
	}
	return n.in.Union(whenTrue...), n.in.Union(whenFalse...)
}

// --- truthiness ---

func (n *Narrower) byTruthiness(typ TypeID) (TypeID, TypeID) {
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		switch n.truthiness(m) {
		case alwaysTruthy:
			return m, TypeNever
		case alwaysFalsy:
			return TypeNever, m
		}
		return m, n.falsyPart(m)
	})
}

type truthiness uint8

const (
	maybeTruthy truthiness = iota
	alwaysTruthy
	alwaysFalsy
)

func (n *Narrower) truthiness(m TypeID) truthiness {
	switch m {
	case TypeNull, TypeUndefined, TypeVoid, TypeFalse:
		return alwaysFalsy
	case TypeTrue:
		return alwaysTruthy
	}
	switch s := n.in.shape(n.eval.whnf(m)).(type) {
	case Literal:
		switch s.LitKind {
		case LitString:
			return truthinessOf(s.Str != "")
		case LitNumber:
			return truthinessOf(s.Num != 0 && s.Num == s.Num)
		case LitBigInt:
			return truthinessOf(s.Str != "0")
		}
	case Enum:
		return n.truthiness(s.Member)
	case Object, Array, Tuple, Callable, UniqueSymbol:
		return alwaysTruthy
	case Readonly:
		return alwaysTruthy
	case Intrinsic:
		switch m {
		case TypeObject, TypeFunction, TypeSymbol:
			return alwaysTruthy
		}
	}
	return maybeTruthy
}

func truthinessOf(truthy bool) truthiness {
	if truthy {
		return alwaysTruthy
	}
	return alwaysFalsy
}

// falsyPart is what remains of a possibly falsy member on the false branch
func (n *Narrower) falsyPart(m TypeID) TypeID {
	switch m {
	case TypeString:
		return n.in.StringLiteral("")
	case TypeNumber:
		return n.in.NumberLiteral(0)
	case TypeBigInt:
		return n.in.BigIntLiteral("0")
	}
	return m
}

// --- typeof ---

var typeofTags = []string{"string", "number", "bigint", "boolean", "symbol", "undefined", "object", "function"}

// typeofType is the type a value has when `typeof` gives tag
func (n *Narrower) typeofType(tag string) TypeID {
	switch tag {
	case "string":
		return TypeString
	case "number":
		return TypeNumber
	case "bigint":
		return TypeBigInt
	case "boolean":
		return TypeBoolean
	case "symbol":
		return TypeSymbol
	case "undefined":
		return TypeUndefined
	case "object":
		return n.in.Union(TypeObject, TypeNull)
	case "function":
		return TypeFunction
	}
	return TypeNever
}

// typeofTagsOf lists the results `typeof` may give for values of type m
func (n *Narrower) typeofTagsOf(m TypeID) *set.Set[string] {
	switch m {
	case TypeAny, TypeUnknown, TypeEmptyObject:
		tags := set.From(typeofTags)
		if m == TypeEmptyObject {
			tags.Remove("undefined")
		}
		return tags
	case TypeNull:
		return set.From([]string{"object"})
	case TypeUndefined, TypeVoid:
		return set.From([]string{"undefined"})
	case TypeObject:
		return set.From([]string{"object", "function"})
	case TypeFunction:
		return set.From([]string{"function"})
	}
	resolved := n.eval.whnf(m)
	switch s := n.in.shape(resolved).(type) {
	case Enum:
		return n.typeofTagsOf(s.Member)
	case TypeParameter, Infer:
		if base, ok := n.eval.baseConstraint(resolved); ok {
			return n.typeofTagsOf(base)
		}
	case Union:
		tags := set.New[string](len(typeofTags))
		for _, member := range s.Members {
			tags.InsertSet(n.typeofTagsOf(member))
		}
		return tags
	case Callable:
		return set.From([]string{"function"})
	case Object:
		if s.Signatures != NoType {
			return set.From([]string{"function"})
		}
		if len(s.Props) == 0 && len(s.Index) == 0 {
			tags := set.From(typeofTags)
			tags.Remove("undefined")
			return tags
		}
		return set.From([]string{"object"})
	case Array, Tuple, Readonly, Intersection:
		return set.From([]string{"object"})
	}
	switch n.in.primitiveClass(resolved) {
	case TypeString:
		return set.From([]string{"string"})
	case TypeNumber:
		return set.From([]string{"number"})
	case TypeBigInt:
		return set.From([]string{"bigint"})
	case TypeBoolean:
		return set.From([]string{"boolean"})
	case TypeSymbol:
		return set.From([]string{"symbol"})
	}
	return set.From(typeofTags)
}

func (n *Narrower) byTypeof(typ TypeID, tag string) (TypeID, TypeID) {
	target := n.typeofType(tag)
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		if m == TypeAny {
			return target, m
		}
		tags := n.typeofTagsOf(m)
		switch {
		case !tags.Contains(tag):
			return TypeNever, m
		case tags.Size() == 1:
			return m, TypeNever
		case n.in.Kind(m) == KindTypeParameter:
			return n.in.Intersection(m, target), m
		case m == TypeObject && tag == "object":
			return TypeObject, m
		}
		return n.narrowTo(m, target), m
	})
}

// --- instanceof ---

func (n *Narrower) byInstanceof(typ, instance TypeID) (TypeID, TypeID) {
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		switch {
		case m == TypeAny || m == TypeUnknown:
			return instance, m
		case n.judge.IsSubtype(m, instance) == True:
			return m, TypeNever
		case n.judge.IsSubtype(instance, m) == True:
			return instance, m
		}
		return TypeNever, m
	})
}

// --- discriminants ---

// byDiscriminant keeps, on the true branch, the members whose property could hold
// value, and drops, on the false branch, those whose property can only hold value.
// A member with an optional discriminant stays on the false branch.
func (n *Narrower) byDiscriminant(typ TypeID, property string, value TypeID) (TypeID, TypeID) {
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		if m == TypeAny {
			return m, m
		}
		prop, found, objectLike := n.eval.propertyOf(m, property)
		if !objectLike {
			return TypeNever, m
		}
		if !found {
			if value == TypeUndefined {
				return m, m
			}
			return TypeNever, m
		}
		propType := prop.Type
		if prop.Optional {
			propType = n.in.Union(propType, TypeUndefined)
		}
		if !n.fits(value, propType) {
			return TypeNever, m
		}
		if !prop.Optional && n.in.isUnit(value) && n.sameUnit(n.eval.whnf(prop.Type), value) {
			return m, TypeNever
		}
		return m, m
	})
}

// fits reports whether some member of value is a subtype of typ.
// A wider value, such as string against a literal tag, does not fit.
func (n *Narrower) fits(value, typ TypeID) bool {
	for _, v := range n.members(value) {
		if n.judge.IsSubtype(v, typ) != False {
			return true
		}
	}
	return false
}

// couldBe reports whether value and typ are comparable in either direction
func (n *Narrower) couldBe(value, typ TypeID) bool {
	for _, v := range n.members(value) {
		if n.judge.IsSubtype(v, typ) != False {
			return true
		}
		if n.judge.IsSubtype(typ, v) != False {
			return true
		}
	}
	return false
}

func (n *Narrower) sameUnit(a, b TypeID) bool {
	return a == b || n.in.sameUnitValue(a, b)
}

// --- in ---

func (n *Narrower) byIn(typ TypeID, property string) (TypeID, TypeID) {
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		if m == TypeAny || m == TypeUnknown {
			return m, m
		}
		obj, _, ok := n.eval.apparentObject(m)
		if !ok || n.in.primitiveClass(n.eval.whnf(m)) != NoType {
			return TypeNever, TypeNever
		}
		required, optional := n.propertyNames(obj)
		switch {
		case required.Contains(property):
			return m, TypeNever
		case optional.Contains(property):
			return m, m
		case n.indexCovers(obj, property):
			return m, m
		}
		return TypeNever, m
	})
}

func (n *Narrower) propertyNames(obj Object) (required, optional *set.Set[string]) {
	required, optional = set.New[string](len(obj.Props)), set.New[string](0)
	for _, p := range obj.Props {
		if p.Optional {
			optional.Insert(p.Name)
		} else {
			required.Insert(p.Name)
		}
	}
	return required, optional
}

func (n *Narrower) indexCovers(obj Object, property string) bool {
	for _, idx := range obj.Index {
		if indexApplies(idx.Key, property) {
			return true
		}
	}
	return false
}

// --- predicates and equality ---

func (n *Narrower) byPredicate(typ, guarded TypeID) (TypeID, TypeID) {
	members := n.members(typ)
	var whenTrue, whenFalse []TypeID
	for _, m := range members {
		if m != TypeAny && m != TypeUnknown && n.judge.IsSubtype(m, guarded) == True {
			whenTrue = append(whenTrue, m)
			continue
		}
		whenFalse = append(whenFalse, m)
	}
	if len(whenTrue) == 0 {
		return n.narrowTo(typ, guarded), n.in.Union(whenFalse...)
	}
	return n.in.Union(whenTrue...), n.in.Union(whenFalse...)
}

// narrowTo is typ where it is known to be guarded: guarded itself if it is more
// specific, otherwise their intersection
func (n *Narrower) narrowTo(typ, guarded TypeID) TypeID {
	switch {
	case typ == TypeAny || typ == TypeUnknown:
		return guarded
	case n.judge.IsSubtype(typ, guarded) == True:
		return typ
	case n.judge.IsSubtype(guarded, typ) == True:
		return guarded
	}
	var parts []TypeID
	for _, g := range n.members(guarded) {
		if n.judge.IsSubtype(g, typ) == True {
			parts = append(parts, g)
		}
	}
	if len(parts) > 0 {
		return n.in.Union(parts...)
	}
	return n.in.Intersection(typ, guarded)
}

// byEquality narrows by `x === value`. Only unit values narrow the false branch.
func (n *Narrower) byEquality(typ, value TypeID, loose bool) (TypeID, TypeID) {
	nullish := func(id TypeID) bool { return id == TypeNull || id == TypeUndefined || id == TypeVoid }
	matches := func(m TypeID) bool {
		if loose && nullish(value) {
			return nullish(m)
		}
		return n.sameUnit(m, value)
	}
	unit := n.in.isUnit(value) || nullish(value)
	return n.partition(typ, func(m TypeID) (TypeID, TypeID) {
		switch {
		case m == TypeAny:
			return value, m
		case unit && matches(m):
			return m, TypeNever
		case unit && loose && nullish(value) && m == TypeUnknown:
			return n.in.Union(TypeNull, TypeUndefined), m
		case n.couldBe(value, m):
			return n.narrowTo(m, value), m
		}
		return TypeNever, m
	})
}

// ParseTypeofTag validates the right operand of a typeof comparison, quoted or not
func ParseTypeofTag(s string) (string, bool) {
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	for _, tag := range typeofTags {
		if tag == s {
			return s, true
		}
	}
	return "", false
}
