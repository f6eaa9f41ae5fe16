package solver

import (
	"log/slog"

	"github.com/cottand/tsolve/solver/tserr"
	"github.com/cottand/tsolve/util"
	set "github.com/hashicorp/go-set/v3"
)

// Ternary is the answer of a subtype query
type Ternary uint8

const (
	False Ternary = iota
	True
	// Unknown is only answered while a side is an unresolved inference placeholder
	// or a declaration still being lowered
	Unknown
)

var ternaryNames = [...]string{False: "false", True: "true", Unknown: "unknown"}

func (t Ternary) String() string { return ternaryNames[t] }

func (t Ternary) And(other Ternary) Ternary {
	switch {
	case t == False || other == False:
		return False
	case t == Unknown || other == Unknown:
		return Unknown
	}
	return True
}

func (t Ternary) Or(other Ternary) Ternary {
	switch {
	case t == True || other == True:
		return True
	case t == Unknown || other == Unknown:
		return Unknown
	}
	return False
}

func ternaryOf(b bool) Ternary {
	if b {
		return True
	}
	return False
}

// Judge decides structural subtyping. It has no notion of the language's
// assignability exceptions, for those see Lawyer.
type Judge struct {
	in   *Interner
	res  Resolver
	opts Options
	eval *Evaluator
	// pending are type parameters being inferred, comparisons involving them are Unknown
	pending *set.Set[TypeID]

	logger *slog.Logger
}

func NewJudge(in *Interner, res Resolver, opts Options) *Judge {
	return NewEvaluator(in, res, opts).judge
}

// WithPending returns a Judge answering Unknown for comparisons involving params
func (j *Judge) WithPending(params ...TypeID) *Judge {
	cp := *j
	cp.pending = set.From(params)
	return &cp
}

func (j *Judge) Evaluator() *Evaluator { return j.eval }

// IsSubtype reports whether every value of source is a value of target
func (j *Judge) IsSubtype(source, target TypeID) Ternary {
	result, _ := j.relate(source, target, j.defaultRelation())
	return result
}

// Explain returns why source is not a subtype of target, or nil if it is
func (j *Judge) Explain(source, target TypeID) *SubtypeFailure {
	result, failure := j.relate(source, target, j.defaultRelation())
	if result == True {
		return nil
	}
	return failure
}

func (j *Judge) defaultRelation() relation {
	paramMode := j.opts.AnyMode
	if j.opts.StrictFunctionTypes {
		paramMode = j.opts.ParamAnyMode
	}
	return relation{
		anyMode:             j.opts.AnyMode,
		paramAnyMode:        paramMode,
		strictFunctionTypes: j.opts.StrictFunctionTypes,
		strictNullChecks:    j.opts.StrictNullChecks,
	}
}

// relation parametrises a query: the Judge runs it bare, the Lawyer with its rules
type relation struct {
	anyMode             AnyMode
	paramAnyMode        AnyMode
	strictFunctionTypes bool
	strictNullChecks    bool
	// sourceFresh marks the top level source as a fresh literal
	sourceFresh bool
	rules       []rule
}

// rule is an assignability override. It is consulted for every pair once both
// sides are resolved; ok reports whether the answer is definite.
type rule struct {
	name  string
	apply func(c *checker, source, target TypeID) (result Ternary, ok bool)
}

func (j *Judge) relate(source, target TypeID, rel relation) (Ternary, *SubtypeFailure) {
	c := &checker{
		Judge:      j,
		rel:        rel,
		inProgress: set.NewHashSet[typePair, uint64](0),
		falseCache: make(map[util.Pair[typePair, bool]]struct{}),
		anyMode:    rel.anyMode,
	}
	result := c.check(source, target)
	if result == False && c.failure == nil {
		c.failure = &SubtypeFailure{Reason: tserr.NotAssignable, Source: source, Target: target, Index: -1}
	}
	j.logger.Debug("relate", "source", source, "target", target, "result", result, "failure", c.failure)
	return result, c.failure
}

type typePair struct {
	source, target TypeID
}

func (p typePair) Hash() uint64 {
	return uint64(p.source)<<32 | uint64(p.target)
}

// checker holds the state of a single query
type checker struct {
	*Judge
	rel relation

	inProgress *set.HashSet[typePair, uint64]
	// falseCache remembers refuted pairs, keyed by whether `any` was permitted at the time.
	// A refutation never depends on a coinductive assumption, so it is safe to reuse.
	falseCache map[util.Pair[typePair, bool]]struct{}
	depth      int
	exceeded   bool

	anyMode AnyMode
	// anyBase is the depth at which anyMode was entered
	anyBase int

	failure *SubtypeFailure
}

func (c *checker) anyAllowed() bool {
	return c.anyMode == AnyEverywhere || c.depth == c.anyBase
}

// withAnyMode runs f with mode in effect, f's own comparison being the top level
func (c *checker) withAnyMode(mode AnyMode, f func() Ternary) Ternary {
	prevMode, prevBase := c.anyMode, c.anyBase
	c.anyMode, c.anyBase = mode, c.depth
	defer func() { c.anyMode, c.anyBase = prevMode, prevBase }()
	return f()
}

func (c *checker) fail(reason tserr.Reason, source, target TypeID) Ternary {
	return c.failAt(reason, source, target, "", -1)
}

// failAt records the innermost failure; enclosing calls keep it
func (c *checker) failAt(reason tserr.Reason, source, target TypeID, property string, index int) Ternary {
	if c.failure == nil {
		c.failure = &SubtypeFailure{Reason: reason, Source: source, Target: target, Property: property, Index: index}
	}
	return False
}

// every is the conjunction of f over ids, stopping at the first refutation
func (c *checker) every(ids []TypeID, f func(TypeID) Ternary) Ternary {
	result := True
	for _, id := range ids {
		result = result.And(f(id))
		if result == False {
			return False
		}
	}
	return result
}

// some is the disjunction of f over ids. Failures of alternatives that are
// superseded by a success are forgotten.
func (c *checker) some(ids []TypeID, f func(TypeID) Ternary) Ternary {
	saved := c.failure
	result := False
	for _, id := range ids {
		c.failure = saved
		result = result.Or(f(id))
		if result == True {
			c.failure = saved
			return True
		}
	}
	if result == Unknown {
		c.failure = saved
	}
	return result
}

func (c *checker) check(source, target TypeID) Ternary {
	if source == target {
		return True
	}
	key := typePair{source, target}
	if c.inProgress.Contains(key) {
		return True
	}
	anyAllowed := c.anyAllowed()
	cacheKey := util.NewPair(key, anyAllowed)
	if _, refuted := c.falseCache[cacheKey]; refuted {
		return False
	}
	if c.depth >= c.opts.MaxSubtypeDepth {
		c.exceeded = true
		c.logger.Debug("subtype depth exceeded", "source", source, "target", target, "depth", c.depth)
		return c.fail(tserr.DepthExceeded, source, target)
	}

	c.inProgress.Insert(key)
	c.depth++
	result := c.dispatch(source, target, anyAllowed)
	c.depth--
	c.inProgress.Remove(key)

	if result == False && !c.exceeded {
		c.falseCache[cacheKey] = struct{}{}
	}
	return result
}

// dispatch is the single entry point from which every shape specific rule is reached
func (c *checker) dispatch(source, target TypeID, anyAllowed bool) Ternary {
	if c.sameCanonicalAlias(source, target) {
		return True
	}
	source, target = c.eval.whnf(source), c.eval.whnf(target)
	if source == target {
		return True
	}
	if c.eval.Truncated(source) || c.eval.Truncated(target) {
		c.exceeded = true
		return c.fail(tserr.DepthExceeded, source, target)
	}
	switch {
	case source == TypeError || target == TypeError:
		return True
	case target == TypeAny || target == TypeUnknown:
		return True
	case source == TypeAny:
		if anyAllowed && target != TypeNever {
			return True
		}
		return c.fail(tserr.NotAssignable, source, target)
	case source == TypeNever:
		return True
	case target == TypeNever:
		return c.fail(tserr.NotAssignable, source, target)
	}
	if !c.rel.strictNullChecks && (source == TypeNull || source == TypeUndefined) {
		return True
	}
	if c.isPending(source) || c.isPending(target) || c.isPlaceholder(source) || c.isPlaceholder(target) {
		return Unknown
	}
	for _, r := range c.rel.rules {
		if result, ok := r.apply(c, source, target); ok {
			c.logger.Debug("rule decided", "rule", r.name, "source", source, "target", target, "result", result)
			return result
		}
	}
	return c.structural(source, target)
}

func (c *checker) isPending(id TypeID) bool {
	return c.pending != nil && c.pending.Contains(id)
}

// isPlaceholder reports a Lazy reference to a declaration that is still being lowered
func (c *checker) isPlaceholder(id TypeID) bool {
	return c.in.Kind(id) == KindLazy
}

func (c *checker) sameCanonicalAlias(source, target TypeID) bool {
	sl, ok := c.in.shape(source).(Lazy)
	if !ok {
		return false
	}
	tl, ok := c.in.shape(target).(Lazy)
	if !ok {
		return false
	}
	for _, def := range []DefID{sl.Def, tl.Def} {
		if d, ok := c.res.Definition(def); !ok || !d.Kind.Structural() || len(d.TypeParams) > 0 {
			return false
		}
	}
	return c.eval.Canonicalize(source) == c.eval.Canonicalize(target)
}

func (c *checker) structural(source, target TypeID) Ternary {
	sShape, tShape := c.in.shape(source), c.in.shape(target)

	if su, ok := sShape.(Union); ok {
		return c.every(su.Members, func(m TypeID) Ternary { return c.check(m, target) })
	}
	if ti, ok := tShape.(Intersection); ok {
		return c.every(ti.Members, func(m TypeID) Ternary { return c.check(source, m) })
	}
	if tu, ok := tShape.(Union); ok {
		return c.toUnion(source, sShape, target, tu)
	}
	if si, ok := sShape.(Intersection); ok {
		return c.fromIntersection(source, si, target, tShape)
	}
	if tr, ok := tShape.(Readonly); ok {
		// only peel the target when the source is not itself readonly, so that
		// Readonly<T> stays related to Readonly<T>
		if sr, ok := sShape.(Readonly); ok {
			return c.check(sr.Inner, tr.Inner)
		}
		return c.check(source, tr.Inner)
	}
	if base, ok := c.eval.baseConstraint(source); ok {
		if sShape.Kind() == tShape.Kind() {
			saved := c.failure
			if result := c.visitTarget(source, sShape, target, tShape); result != False {
				return result
			}
			c.failure = saved
		}
		if result := c.check(base, target); result != False {
			return result
		}
		if _, ok := tShape.(TypeParameter); ok {
			c.failure = nil
			return c.fail(tserr.TypeParameterOpaque, source, target)
		}
		return False
	}
	return c.visitTarget(source, sShape, target, tShape)
}

func (c *checker) toUnion(source TypeID, sShape Shape, target TypeID, tu Union) Ternary {
	result := c.some(tu.Members, func(m TypeID) Ternary { return c.check(source, m) })
	if result != False {
		return result
	}
	if base, ok := c.eval.baseConstraint(source); ok {
		saved := c.failure
		if result := c.check(base, target); result != False {
			c.failure = saved
			return result
		}
	}
	c.failure = &SubtypeFailure{Reason: tserr.NotAUnionMember, Source: source, Target: target, Index: -1}
	return False
}

func (c *checker) fromIntersection(source TypeID, si Intersection, target TypeID, tShape Shape) Ternary {
	if result := c.some(si.Members, func(m TypeID) Ternary { return c.check(m, target) }); result != False {
		return result
	}
	// members may jointly have every property the target asks for
	tObj, ok := tShape.(Object)
	if !ok {
		return False
	}
	merged, ok := c.eval.mergeIntersection(si.Members)
	if !ok {
		return False
	}
	c.failure = nil
	return c.relateObjects(source, merged, false, target, tObj)
}

func (c *checker) visitTarget(source TypeID, sShape Shape, target TypeID, tShape Shape) Ternary {
	switch t := tShape.(type) {
	case Intrinsic:
		return c.toIntrinsic(source, sShape, target)
	case Literal:
		if e, ok := sShape.(Enum); ok {
			return c.check(e.Member, target)
		}
		return c.fail(tserr.NotAssignable, source, target)
	case Enum:
		if _, ok := sShape.(Enum); ok {
			return c.fail(tserr.EnumMismatch, source, target)
		}
		return c.fail(tserr.NotAssignable, source, target)
	case UniqueSymbol:
		return c.fail(tserr.NotAssignable, source, target)
	case TypeParameter:
		return c.fail(tserr.TypeParameterOpaque, source, target)
	case Object:
		return c.toObject(source, sShape, target, t)
	case Array:
		return c.toArray(source, target, t)
	case Tuple:
		return c.toTuple(source, target, t)
	case Callable:
		return c.toCallable(source, sShape, target, t)
	case KeyOf:
		if s, ok := sShape.(KeyOf); ok {
			return c.check(t.Inner, s.Inner)
		}
	case IndexedAccess:
		if s, ok := sShape.(IndexedAccess); ok {
			return c.check(s.Object, t.Object).And(c.check(s.Index, t.Index))
		}
	case TemplateLiteral:
		return c.toTemplate(source, sShape, target, t)
	case StringIntrinsic:
		return c.toStringIntrinsic(source, sShape, target, t)
	case Conditional:
		if s, ok := sShape.(Conditional); ok && s.Check == t.Check && s.Extends == t.Extends {
			return c.check(s.True, t.True).And(c.check(s.False, t.False))
		}
	case Mapped:
		if s, ok := sShape.(Mapped); ok && s.Constraint == t.Constraint {
			renamed := c.in.Instantiate(s.Template, NewSubstitution().With(s.Param, t.Param))
			return c.check(renamed, t.Template)
		}
	case Application:
		if s, ok := sShape.(Application); ok && s.Base == t.Base && len(s.Args) == len(t.Args) {
			result := True
			for i := range s.Args {
				result = result.And(c.check(s.Args[i], t.Args[i]))
			}
			return result
		}
	case Infer:
		if t.Constraint != NoType {
			return c.check(source, t.Constraint)
		}
		return True
	}
	return c.fail(tserr.NotAssignable, source, target)
}

func (c *checker) toIntrinsic(source TypeID, sShape Shape, target TypeID) Ternary {
	switch target {
	case TypeVoid:
		if source == TypeUndefined {
			return True
		}
	case TypeObject:
		if c.eval.isNonPrimitive(sShape) {
			return True
		}
	case TypeFunction:
		if len(c.eval.signaturesOf(source)) > 0 {
			return True
		}
	case TypeString, TypeNumber, TypeBigInt, TypeBoolean, TypeSymbol:
		if c.in.primitiveClass(source) == target {
			return True
		}
	}
	return c.fail(tserr.NotAssignable, source, target)
}

func (c *checker) toArray(source, target TypeID, t Array) Ternary {
	inner, readonly := c.eval.unwrapReadonly(source)
	switch s := c.in.shape(inner).(type) {
	case Array:
		if readonly {
			return c.fail(tserr.ReadonlyMismatch, source, target)
		}
		return c.check(s.Elem, t.Elem)
	case Tuple:
		if readonly {
			return c.fail(tserr.ReadonlyMismatch, source, target)
		}
		result := True
		for i, e := range s.Elems {
			elem := e.Type
			if e.Rest {
				elem = c.eval.restElement(e.Type)
			}
			result = result.And(c.check(elem, t.Elem))
			if result == False {
				return c.failAt(tserr.NotAssignable, source, target, "", i)
			}
		}
		return result
	}
	return c.fail(tserr.NotAssignable, source, target)
}

func (c *checker) toTuple(source, target TypeID, t Tuple) Ternary {
	inner, readonly := c.eval.unwrapReadonly(source)
	switch s := c.in.shape(inner).(type) {
	case Tuple:
		if readonly {
			return c.fail(tserr.ReadonlyMismatch, source, target)
		}
		return c.relateTuples(source, s, target, t)
	case Array:
		if readonly {
			return c.fail(tserr.ReadonlyMismatch, source, target)
		}
		if len(t.Elems) == 1 && t.Elems[0].Rest {
			return c.check(inner, t.Elems[0].Type)
		}
	}
	return c.fail(tserr.NotAssignable, source, target)
}

func restIndex(elems []TupleElement) int {
	for i, e := range elems {
		if e.Rest {
			return i
		}
	}
	return -1
}

func (c *checker) relateTuples(source TypeID, s Tuple, target TypeID, t Tuple) Ternary {
	tRest := restIndex(t.Elems)
	tFixed := t.Elems
	if tRest >= 0 {
		tFixed = t.Elems[:tRest]
	}
	result := True
	for i, se := range s.Elems {
		if se.Rest {
			if tRest < 0 {
				return c.failAt(tserr.TupleArityMismatch, source, target, "", i)
			}
			// the source rest may be empty, so it cannot fill required target elements
			for j := i; j < len(tFixed); j++ {
				if !tFixed[j].Optional {
					return c.failAt(tserr.TupleArityMismatch, source, target, "", j)
				}
				result = result.And(c.check(c.eval.restElement(se.Type), tFixed[j].Type))
			}
			return result.And(c.check(se.Type, t.Elems[tRest].Type))
		}
		var elem TypeID
		switch {
		case i < len(tFixed):
			if se.Optional && !tFixed[i].Optional {
				return c.failAt(tserr.OptionalityMismatch, source, target, "", i)
			}
			elem = tFixed[i].Type
		case tRest >= 0:
			elem = c.eval.restElement(t.Elems[tRest].Type)
		default:
			return c.failAt(tserr.TupleArityMismatch, source, target, "", i)
		}
		result = result.And(c.check(se.Type, elem))
		if result == False {
			return c.failAt(tserr.NotAssignable, source, target, "", i)
		}
	}
	for j := len(s.Elems); j < len(tFixed); j++ {
		if !tFixed[j].Optional {
			return c.failAt(tserr.TupleArityMismatch, source, target, "", j)
		}
	}
	return result
}

func (c *checker) toCallable(source TypeID, sShape Shape, target TypeID, t Callable) Ternary {
	sigs := c.eval.signaturesOf(source)
	if len(sigs) == 0 {
		return c.fail(tserr.NotAssignable, source, target)
	}
	result := True
	for _, tSig := range t.Signatures {
		saved := c.failure
		matched := False
		for _, sSig := range sigs {
			if sSig.Construct != tSig.Construct {
				continue
			}
			c.failure = saved
			matched = matched.Or(c.relateSignatures(sSig, tSig))
			if matched == True {
				c.failure = saved
				break
			}
		}
		result = result.And(matched)
		if result == False {
			return c.fail(tserr.NotAssignable, source, target)
		}
	}
	return result
}
