package solver

import (
	"log/slog"

	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver/tserr"
	"github.com/hashicorp/go-set/v3"
)

// AssignContext carries the checker settings in effect at one assignment site
type AssignContext struct {
	// Strict enables strict null checks
	Strict bool
	// StrictFunctionTypes compares non-method parameters contravariantly
	StrictFunctionTypes bool
	// SourceFresh marks the source as an object literal written at the assignment,
	// even when its type is no longer marked fresh
	SourceFresh bool
}

// Lawyer decides assignability: structural subtyping plus the language's
// exceptions to it. Each exception is a rule consulted, in order, for every pair
// of types the comparison reaches; the first definite answer wins and the Judge
// decides the rest.
type Lawyer struct {
	judge  *Judge
	rules  []rule
	logger *slog.Logger
}

func NewLawyer(j *Judge) *Lawyer {
	l := &Lawyer{judge: j, logger: log.For("solver.lawyer")}
	l.rules = []rule{
		{name: "excess-property", apply: l.excessProperties},
		{name: "enum", apply: l.enumNominality},
		{name: "brand", apply: l.brands},
		{name: "weak-type", apply: l.weakType},
	}
	return l
}

func (l *Lawyer) Judge() *Judge { return l.judge }

// Context returns the AssignContext matching the Lawyer's options
func (l *Lawyer) Context() AssignContext {
	return AssignContext{Strict: l.judge.opts.StrictNullChecks, StrictFunctionTypes: l.judge.opts.StrictFunctionTypes}
}

func (l *Lawyer) IsAssignable(source, target TypeID, ctx AssignContext) bool {
	ok, _ := l.Check(source, target, ctx)
	return ok
}

// Check is IsAssignable with the reason of a refusal. A comparison that cannot be
// decided yet, because it involves parameters being inferred, is not refused.
func (l *Lawyer) Check(source, target TypeID, ctx AssignContext) (bool, *SubtypeFailure) {
	result, failure := l.judge.relate(source, target, l.relation(ctx))
	l.logger.Debug("assignable", "source", source, "target", target, "result", result)
	if result == False {
		return false, failure
	}
	return true, nil
}

func (l *Lawyer) relation(ctx AssignContext) relation {
	opts := l.judge.opts
	paramMode := opts.AnyMode
	if ctx.StrictFunctionTypes {
		paramMode = opts.ParamAnyMode
	}
	return relation{
		anyMode:             opts.AnyMode,
		paramAnyMode:        paramMode,
		strictFunctionTypes: ctx.StrictFunctionTypes,
		strictNullChecks:    ctx.Strict,
		sourceFresh:         ctx.SourceFresh,
		rules:               l.rules,
	}
}

// excessProperties rejects fresh object literals carrying properties the target does not declare
func (l *Lawyer) excessProperties(c *checker, source, target TypeID) (Ternary, bool) {
	obj, ok := c.in.shape(source).(Object)
	if !ok || !obj.Fresh && !(c.rel.sourceFresh && c.depth == 1) {
		return False, false
	}
	known, ok := l.targetPropertyNames(c, target)
	if !ok {
		return False, false
	}
	for _, p := range obj.Props {
		if !known.Contains(p.Name) {
			return c.failAt(tserr.ExcessProperty, source, target, p.Name, -1), true
		}
	}
	if !obj.Fresh {
		return False, false
	}
	// union and intersection members each declare only part of the properties
	obj.Fresh = false
	return c.check(c.in.Intern(obj), target), true
}

// targetPropertyNames collects the property names declared by the object members of target.
// ok is false when target accepts any property: it has an index signature, is empty, or is not an object type.
func (l *Lawyer) targetPropertyNames(c *checker, target TypeID) (*set.Set[string], bool) {
	members := []TypeID{target}
	switch s := c.in.shape(target).(type) {
	case Union:
		members = s.Members
	case Intersection:
		members = s.Members
	}
	names := set.New[string](0)
	objects := 0
	for _, m := range members {
		m = c.eval.whnf(m)
		if c.in.primitiveClass(m) != NoType {
			continue
		}
		obj, _, ok := c.eval.apparentObject(m)
		if !ok || len(obj.Index) > 0 {
			return nil, false
		}
		if len(obj.Props) == 0 {
			return nil, false
		}
		objects++
		for _, p := range obj.Props {
			names.Insert(p.Name)
		}
	}
	return names, objects > 0
}

// enumNominality keeps members of different enum declarations apart. A numeric
// literal may enter the member holding its value, a bare number no member.
func (l *Lawyer) enumNominality(c *checker, source, target TypeID) (Ternary, bool) {
	t, ok := c.in.shape(target).(Enum)
	if !ok {
		return False, false
	}
	switch s := c.in.shape(source).(type) {
	case Enum:
		if s.Decl != t.Decl {
			return c.fail(tserr.EnumMismatch, source, target), true
		}
		return c.fail(tserr.NotAssignable, source, target), true
	case Literal:
		if s.LitKind == LitNumber && c.in.primitiveClass(t.Member) == TypeNumber {
			if source == t.Member {
				return True, true
			}
			return c.fail(tserr.NotAssignable, source, target), true
		}
	case Intrinsic:
		if source == TypeNumber && c.in.primitiveClass(t.Member) == TypeNumber {
			return c.fail(tserr.NotAssignable, source, target), true
		}
	}
	return False, false
}

// brands requires private and protected members to come from the same class declaration
func (l *Lawyer) brands(c *checker, source, target TypeID) (Ternary, bool) {
	tObj, ok := c.in.shape(target).(Object)
	if !ok {
		return False, false
	}
	branded := false
	for _, tp := range tObj.Props {
		if tp.Visibility != Public {
			branded = true
			break
		}
	}
	sObj, _, ok := c.eval.apparentObject(source)
	if !ok {
		return False, false
	}
	for _, tp := range tObj.Props {
		sp, found := sObj.Property(tp.Name)
		if !found {
			continue
		}
		switch {
		case tp.Visibility == Public && sp.Visibility != Public:
			return c.failAt(tserr.BrandMismatch, source, target, tp.Name, -1), true
		case !branded || tp.Visibility == Public:
		case sp.Visibility != tp.Visibility || !c.res.IsDerivedFrom(sp.DeclaredBy, tp.DeclaredBy):
			return c.failAt(tserr.BrandMismatch, source, target, tp.Name, -1), true
		}
	}
	return False, false
}

// weakType rejects a source sharing no property with a target whose properties are all optional
func (l *Lawyer) weakType(c *checker, source, target TypeID) (Ternary, bool) {
	tObj, ok := c.in.shape(target).(Object)
	if !ok || len(tObj.Props) == 0 || len(tObj.Index) > 0 || tObj.Signatures != NoType {
		return False, false
	}
	for _, p := range tObj.Props {
		if !p.Optional {
			return False, false
		}
	}
	sObj, _, ok := c.eval.apparentObject(source)
	if !ok || len(sObj.Props) == 0 || c.in.primitiveClass(source) != NoType {
		return False, false
	}
	for _, p := range sObj.Props {
		if _, shared := tObj.Property(p.Name); shared {
			return False, false
		}
	}
	return c.fail(tserr.NoCommonProperties, source, target), true
}
