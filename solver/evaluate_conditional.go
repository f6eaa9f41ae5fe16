package solver

// evalConditional resolves `Check extends Extends ? True : False`.
// A distributive conditional is applied to each member of a union check type
// separately, and a never check type yields never.
func (e *Evaluator) evalConditional(id TypeID, c Conditional) TypeID {
	check := e.Evaluate(c.Check)
	if !c.Distributive {
		return e.resolveConditional(id, c, check)
	}
	members := e.distributionMembers(check)
	if members == nil {
		return e.resolveConditional(id, c, check)
	}
	if len(members) == 0 {
		return TypeNever
	}
	results := make([]TypeID, len(members))
	for i, m := range members {
		subst := NewSubstitution().With(c.Check, m)
		branch := Conditional{
			Check:   m,
			Extends: e.in.Instantiate(c.Extends, subst),
			True:    e.in.Instantiate(c.True, subst),
			False:   e.in.Instantiate(c.False, subst),
		}
		results[i] = e.resolveConditional(NoType, branch, m)
	}
	return e.in.Union(results...)
}

// distributionMembers returns the members a distributive conditional is applied to,
// or nil when check is not a union
func (e *Evaluator) distributionMembers(check TypeID) []TypeID {
	if check == TypeNever {
		return []TypeID{}
	}
	if check == TypeBoolean {
		return []TypeID{TypeTrue, TypeFalse}
	}
	if u, ok := e.in.shape(check).(Union); ok {
		var members []TypeID
		for _, m := range u.Members {
			if m == TypeBoolean {
				members = append(members, TypeTrue, TypeFalse)
				continue
			}
			members = append(members, m)
		}
		return members
	}
	return nil
}

// resolveConditional picks a branch for an already evaluated check type.
// The conditional is deferred while either side mentions a type parameter, or
// when the relation cannot be decided yet.
func (e *Evaluator) resolveConditional(id TypeID, c Conditional, check TypeID) TypeID {
	deferred := func() TypeID {
		if id != NoType && check == c.Check {
			return id
		}
		return e.in.Intern(Conditional{Check: check, Extends: c.Extends, True: c.True, False: c.False,
			Distributive: c.Distributive})
	}
	if e.hasFreeTypeParameters(check) {
		return deferred()
	}

	extends, trueBranch := c.Extends, c.True
	if infers := e.in.collectKind(extends, KindInfer); len(infers) > 0 {
		inf := newInference(e.judge, infers)
		inf.infer(check, extends, covariant)
		subst := inf.solveLoose()
		e.logger.Debug("inferred conditional bindings", "check", check, "bindings", subst)
		extends = e.in.Instantiate(extends, subst)
		trueBranch = e.in.Instantiate(trueBranch, subst)
	}
	extends = e.Evaluate(extends)
	if e.hasFreeTypeParameters(extends) {
		return deferred()
	}

	if check == TypeAny {
		if extends == TypeAny || extends == TypeUnknown {
			return e.Evaluate(trueBranch)
		}
		return e.in.Union(e.Evaluate(trueBranch), e.Evaluate(c.False))
	}
	switch e.judge.IsSubtype(check, extends) {
	case True:
		return e.Evaluate(trueBranch)
	case False:
		return e.Evaluate(c.False)
	}
	return deferred()
}

// hasFreeTypeParameters reports whether id mentions a declared type parameter.
// Unlike isGeneric, infer bindings do not count.
func (e *Evaluator) hasFreeTypeParameters(id TypeID) bool {
	return e.in.containsKind(id, make(map[TypeID]bool), KindTypeParameter)
}
