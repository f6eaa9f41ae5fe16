package solver

import (
	"log/slog"

	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver/tserr"
)

// Argument is the type of one argument expression at a call site
type Argument struct {
	Type TypeID
	// ContextSensitive marks function and object literals whose type depends on
	// the parameter type they are checked against. They are only used for
	// inference once the other arguments have been.
	ContextSensitive bool
	// Retype recomputes the type of a context sensitive argument against a
	// contextual parameter type. When nil, Type is used as is.
	Retype func(contextual TypeID) TypeID
}

// CallResult is a successfully checked call
type CallResult struct {
	Substitution Substitution
	// Signature is the called signature instantiated with Substitution
	Signature Signature
	Return    TypeID
	// Arguments are the final argument types, after contextual retyping
	Arguments []TypeID
}

// Inferrer infers the type arguments of generic calls and resolves overloads
type Inferrer struct {
	lawyer *Lawyer
	judge  *Judge
	in     *Interner
	eval   *Evaluator
	logger *slog.Logger
}

func NewInferrer(l *Lawyer) *Inferrer {
	return &Inferrer{lawyer: l, judge: l.judge, in: l.judge.in, eval: l.judge.eval, logger: log.For("solver.infer")}
}

// InferCall infers the type parameters of sig from the arguments of a call, and
// from contextualReturn (NoType when absent) with a lower priority.
//
// Arguments whose type does not depend on context are matched first. Context
// sensitive ones are then retyped against their parameter type instantiated
// with what was inferred so far, parameters without candidates being left in
// place, and matched in turn.
func (inf *Inferrer) InferCall(sig Signature, args []Argument, contextualReturn TypeID) (Substitution, error) {
	subst, _, err := inf.inferCall(sig, args, contextualReturn)
	return subst, err
}

func (inf *Inferrer) inferCall(sig Signature, args []Argument, contextualReturn TypeID) (Substitution, []TypeID, error) {
	argTypes := make([]TypeID, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}
	if len(sig.TypeParams) == 0 {
		return NewSubstitution(), inf.retype(args, argTypes, sig.Params, NewSubstitution()), nil
	}
	ctx := newInference(inf.judge, sig.TypeParams)
	params := inf.eval.unpackParams(sig.Params)

	inf.inferArguments(ctx, params, args, argTypes, false)
	if contextualReturn != NoType && sig.Return != NoType {
		ctx.priority = priorityReturn
		ctx.infer(contextualReturn, sig.Return, covariant)
		ctx.priority = priorityDirect
	}

	partial := ctx.solvePartial()
	argTypes = inf.retype(args, argTypes, params, partial)
	inf.inferArguments(ctx, params, args, argTypes, true)

	subst, err := ctx.solve()
	inf.logger.Debug("inferred call", "params", len(sig.TypeParams), "substitution", subst, "err", err)
	return subst, argTypes, err
}

// inferArguments matches the arguments of one pass against their parameters.
// Arguments spread over a rest parameter whose type is a type parameter are
// matched as a single tuple.
func (inf *Inferrer) inferArguments(ctx *inference, params []Param, args []Argument, argTypes []TypeID, contextual bool) {
	rest := -1
	if hasRestParam(params) {
		if _, ok := ctx.infos[params[len(params)-1].Type]; ok {
			rest = len(params) - 1
		}
	}
	for i, a := range args {
		if a.ContextSensitive != contextual || rest >= 0 && i >= rest {
			continue
		}
		if pt, ok := inf.eval.paramTypeAt(params, i); ok {
			ctx.infer(argTypes[i], pt, covariant)
		}
	}
	if rest < 0 || anyContextSensitive(args[min(rest, len(args)):]) != contextual {
		return
	}
	elems := make([]TupleElement, 0, max(len(args)-rest, 0))
	for i := rest; i < len(args); i++ {
		elems = append(elems, TupleElement{Type: argTypes[i]})
	}
	ctx.infer(inf.in.Tuple(elems...), params[rest].Type, covariant)
}

func anyContextSensitive(args []Argument) bool {
	for _, a := range args {
		if a.ContextSensitive {
			return true
		}
	}
	return false
}

// retype gives context sensitive arguments their type against the instantiated parameter
func (inf *Inferrer) retype(args []Argument, argTypes []TypeID, params []Param, subst Substitution) []TypeID {
	out := make([]TypeID, len(argTypes))
	copy(out, argTypes)
	for i, a := range args {
		if !a.ContextSensitive || a.Retype == nil {
			continue
		}
		pt, ok := inf.eval.paramTypeAt(params, i)
		if !ok {
			continue
		}
		out[i] = a.Retype(inf.in.Instantiate(pt, subst))
	}
	return out
}

// CheckCall infers the type arguments of sig and checks every argument against
// its instantiated parameter. Failures are *ArgumentMismatch or *BoundsViolation.
func (inf *Inferrer) CheckCall(sig Signature, args []Argument, contextualReturn TypeID) (CallResult, error) {
	params := inf.eval.unpackParams(sig.Params)
	if len(args) < minArgs(params) || !hasRestParam(params) && len(args) > len(params) {
		return CallResult{}, &ArgumentMismatch{Reason: tserr.ArgumentCount, Index: len(args)}
	}
	subst, argTypes, err := inf.inferCall(sig, args, contextualReturn)
	if err != nil {
		return CallResult{}, err
	}
	inst := inf.in.InstantiateSignature(sig, subst)
	instParams := inf.eval.unpackParams(inst.Params)
	for i, arg := range argTypes {
		pt, ok := inf.eval.paramTypeAt(instParams, i)
		if !ok {
			continue
		}
		ctx := inf.lawyer.Context()
		ctx.SourceFresh = inf.in.IsFresh(arg)
		if ok, failure := inf.lawyer.Check(arg, pt, ctx); !ok {
			return CallResult{}, &ArgumentMismatch{Reason: tserr.ArgumentMismatched, Index: i, Argument: arg, Parameter: pt, Cause: failure}
		}
	}
	ret := inst.Return
	if ret == NoType {
		ret = TypeAny
	}
	return CallResult{Substitution: subst, Signature: inst, Return: ret, Arguments: argTypes}, nil
}

// ResolveOverload picks the first of sigs that accepts the arguments. When none
// does, the error is a *NoOverloadMatched holding the failure of each signature.
func (inf *Inferrer) ResolveOverload(sigs []Signature, args []Argument, contextualReturn TypeID) (int, CallResult, error) {
	attempts := make([]*tserr.Failures, 0, len(sigs))
	for i, sig := range sigs {
		result, err := inf.CheckCall(sig, args, contextualReturn)
		if err == nil {
			inf.logger.Debug("overload selected", "index", i, "of", len(sigs))
			return i, result, nil
		}
		attempts = append(attempts, new(tserr.Failures).With(err))
	}
	return -1, CallResult{}, &NoOverloadMatched{Attempts: attempts}
}
