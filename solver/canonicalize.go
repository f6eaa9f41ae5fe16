package solver

import (
	"github.com/cottand/tsolve/util"
)

// Canonicalize returns the canonical form of id: type aliases are inlined, a
// reference back to an alias being inlined becomes Recursive(n), n counting
// enclosing aliases outwards, and the type parameters of inlined generic aliases
// become BoundParameter(n). Structurally identical aliases, recursive ones
// included, have the same canonical form whatever their names.
//
// Interfaces, classes and enums are nominal enough to be kept as references.
func (e *Evaluator) Canonicalize(id TypeID) TypeID {
	if out, ok := e.canon[id]; ok {
		return out
	}
	c := &canonicalizer{e: e, memo: make(map[TypeID]TypeID)}
	out := c.apply(id)
	e.canon[id] = out
	return out
}

// Canonicalize is Evaluator.Canonicalize on a fresh evaluator
func (u *Universe) Canonicalize(id TypeID) TypeID {
	return u.Evaluator().Canonicalize(id)
}

type canonicalizer struct {
	e *Evaluator
	// path holds the alias references (Lazy or Application) being inlined, innermost on top
	path   util.Stack[TypeID]
	params Substitution
	bound  uint32
	// memo only holds results that do not depend on path
	memo map[TypeID]TypeID
}

func (c *canonicalizer) apply(id TypeID) TypeID {
	if id < firstUserType {
		return id
	}
	if p, ok := c.params.Lookup(id); ok {
		return p
	}
	if n := c.path.IndexFunc(func(ref TypeID) bool { return ref == id }); n >= 0 {
		return c.e.in.Intern(Recursive{Index: uint32(n)})
	}
	if c.path.Len() == 0 && c.params.Len() == 0 {
		if out, ok := c.memo[id]; ok {
			return out
		}
	}
	s := c.e.in.shape(id)
	var out TypeID
	switch s := s.(type) {
	case Lazy:
		out = c.inline(id, s.Def, nil)
	case Application:
		lazy, ok := c.e.in.shape(s.Base).(Lazy)
		if !ok {
			out = c.rebuild(id, s)
			break
		}
		args := make([]TypeID, len(s.Args))
		for i, a := range s.Args {
			args[i] = c.apply(a)
		}
		out = c.inline(id, lazy.Def, args)
	case Intrinsic, Literal, UniqueSymbol, TypeQuery, BoundParameter, Recursive:
		out = id
	default:
		out = c.rebuild(id, s)
	}
	if c.path.Len() == 0 && c.params.Len() == 0 {
		c.memo[id] = out
	}
	return out
}

func (c *canonicalizer) rebuild(id TypeID, s Shape) TypeID {
	mapped := s.mapTypes(c.apply)
	if mapped.equal(s) {
		return id
	}
	return c.e.in.Intern(mapped)
}

// inline replaces the reference ref to def by the canonical form of def's body.
// args are the already canonical type arguments of an Application, nil for a bare reference.
func (c *canonicalizer) inline(ref TypeID, def DefID, args []TypeID) TypeID {
	d, ok := c.e.res.Definition(def)
	if !ok || !d.Kind.Structural() {
		if args == nil {
			return ref
		}
		return c.e.in.Application(c.e.in.Lazy(def), args...)
	}
	if c.path.Len() >= c.e.opts.MaxEvaluationDepth {
		c.e.logger.Debug("canonical expansion too deep, keeping reference", "ref", ref)
		return ref
	}
	body := c.e.res.ResolveLazy(def)
	if body == TypeError || c.e.in.Kind(body) == KindLazy && body == c.e.in.Lazy(def) {
		return body
	}

	savedParams, savedBound := c.params, c.bound
	if args != nil {
		body = c.e.in.Instantiate(body, c.e.typeArguments(d.TypeParams, args))
	} else {
		for i, tp := range d.TypeParams {
			c.params = c.params.With(tp, c.e.in.Intern(BoundParameter{Index: c.bound + uint32(i)}))
		}
		c.bound += uint32(len(d.TypeParams))
	}
	c.path.Push(ref)
	out := c.apply(body)
	c.path.Pop()
	c.params, c.bound = savedParams, savedBound
	return out
}
