package solver

import (
	"log/slog"

	"github.com/cottand/tsolve/internal/log"
	set "github.com/hashicorp/go-set/v3"
)

// Evaluator computes derived types: conditional, mapped, keyof, indexed access,
// template literal and string intrinsic types, and generic applications.
// Results are memoised, so an Evaluator must not be shared between goroutines.
type Evaluator struct {
	in    *Interner
	res   Resolver
	opts  Options
	judge *Judge

	memo  map[TypeID]TypeID
	canon map[TypeID]TypeID
	// inProgress guards against types whose evaluation requires themselves
	inProgress *set.Set[TypeID]
	depth      int
	// truncated are the types left unevaluated because MaxEvaluationDepth was reached
	truncated *set.Set[TypeID]

	logger *slog.Logger
}

func NewEvaluator(in *Interner, res Resolver, opts Options) *Evaluator {
	opts = opts.withDefaults()
	e := &Evaluator{
		in:         in,
		res:        res,
		opts:       opts,
		memo:       make(map[TypeID]TypeID),
		canon:      make(map[TypeID]TypeID),
		inProgress: set.New[TypeID](0),
		truncated:  set.New[TypeID](0),
		logger:     log.For("solver.evaluate"),
	}
	e.judge = &Judge{in: in, res: res, opts: opts, eval: e, logger: log.For("solver.judge")}
	return e
}

func (e *Evaluator) Judge() *Judge { return e.judge }

// Evaluate normalises id: derived types are computed where their operands allow
// it and deferred otherwise. Declarations and generic applications referenced by
// the members of a structural result stay as they are, only a top level reference
// is expanded. Evaluate is idempotent.
//
// Past MaxEvaluationDepth id is returned unevaluated and reported by Truncated.
func (e *Evaluator) Evaluate(id TypeID) TypeID {
	if id < firstUserType {
		return id
	}
	if done, ok := e.memo[id]; ok {
		return done
	}
	if e.inProgress.Contains(id) {
		return id
	}
	if e.depth >= e.opts.MaxEvaluationDepth {
		e.logger.Debug("evaluation depth exceeded", "type", id, "depth", e.depth)
		e.truncated.Insert(id)
		return id
	}
	e.inProgress.Insert(id)
	e.depth++
	out := e.evaluate(id)
	e.depth--
	e.inProgress.Remove(id)

	e.memo[id] = out
	e.memo[out] = out
	return out
}

func (e *Evaluator) evaluate(id TypeID) TypeID {
	switch s := e.in.shape(id).(type) {
	case Lazy:
		body := e.res.ResolveLazy(s.Def)
		if body == id {
			return id
		}
		return e.Evaluate(body)
	case TypeQuery:
		t, ok := e.res.SymbolType(s.Symbol)
		if !ok {
			return TypeError
		}
		return e.Evaluate(t)
	case Application:
		expanded := e.expandApplication(id, s)
		if expanded == id {
			return id
		}
		return e.Evaluate(expanded)
	case Conditional:
		return e.evalConditional(id, s)
	case Mapped:
		return e.evalMapped(id, s)
	case KeyOf:
		return e.evalKeyOf(id, s)
	case IndexedAccess:
		return e.evalIndexedAccess(id, s)
	case TemplateLiteral:
		return e.evalTemplate(s)
	case StringIntrinsic:
		return e.evalStringIntrinsic(id, s)
	case Union, Intersection:
		return e.evalMembers(id, s, e.nested)
	case Object, Array, Tuple, Readonly, Callable:
		return e.evalMembers(id, s, e.member)
	}
	return id
}

func (e *Evaluator) evalMembers(id TypeID, s Shape, f func(TypeID) TypeID) TypeID {
	mapped := s.mapTypes(f)
	if mapped.equal(s) {
		return id
	}
	return e.in.Intern(mapped)
}

// nested evaluates a constituent of a union or intersection, leaving references as they are
func (e *Evaluator) nested(id TypeID) TypeID {
	switch e.in.Kind(id) {
	case KindLazy, KindTypeQuery:
		return id
	}
	return e.Evaluate(id)
}

// member evaluates a component of a structural type. Applications are expanded
// on demand by whnf, so that a recursive generic alias is unfolded one level at a time.
func (e *Evaluator) member(id TypeID) TypeID {
	if e.in.Kind(id) == KindApplication {
		return id
	}
	return e.nested(id)
}

// Truncated reports whether the evaluation of id was abandoned at MaxEvaluationDepth
func (e *Evaluator) Truncated(id TypeID) bool {
	return e.truncated.Contains(id)
}

// expandApplication instantiates the body of a generic declaration with the
// application's arguments, filling missing ones from the declared defaults
func (e *Evaluator) expandApplication(id TypeID, app Application) TypeID {
	lazy, ok := e.in.shape(app.Base).(Lazy)
	if !ok {
		return id
	}
	def, ok := e.res.Definition(lazy.Def)
	if !ok {
		return TypeError
	}
	body := e.res.ResolveLazy(lazy.Def)
	if body == app.Base {
		return id
	}
	return e.in.Instantiate(body, e.typeArguments(def.TypeParams, app.Args))
}

// typeArguments binds params to args, using defaults (or constraints, or unknown) for missing args
func (e *Evaluator) typeArguments(params, args []TypeID) Substitution {
	subst := NewSubstitution()
	for i, p := range params {
		if i < len(args) {
			subst = subst.With(p, args[i])
			continue
		}
		tp, _ := e.in.shape(p).(TypeParameter)
		switch {
		case tp.Default != NoType:
			subst = subst.With(p, e.in.Instantiate(tp.Default, subst))
		case tp.Constraint != NoType:
			subst = subst.With(p, e.in.Instantiate(tp.Constraint, subst))
		default:
			subst = subst.With(p, TypeUnknown)
		}
	}
	return subst
}

// isGeneric reports whether id mentions a type parameter, so that its evaluation must be deferred
func (e *Evaluator) isGeneric(id TypeID) bool {
	return e.in.ContainsTypeParameters(id)
}
