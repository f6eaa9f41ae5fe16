package fixture

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cottand/tsolve/solver"
	"github.com/cottand/tsolve/solver/tserr"
	"github.com/cottand/tsolve/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Result is the answer to one query
type Result struct {
	Index int
	Name  string
	Kind  string
	// Got is the solver's answer
	Got string
	// Want is the expected answer, empty when the query has no expectation
	Want string
	Pass bool
	// Err is set when the query could not be asked
	Err error
}

func (r Result) String() string {
	status := "ok"
	switch {
	case r.Err != nil:
		return fmt.Sprintf("ERROR %d %s %q: %v", r.Index, r.Kind, r.Name, r.Err)
	case !r.Pass:
		status = "FAIL"
	case r.Want == "":
		status = "--"
	}
	out := fmt.Sprintf("%-4s %d %s %q: %s", status, r.Index, r.Kind, r.Name, r.Got)
	if !r.Pass {
		out += ", want " + r.Want
	}
	return out
}

// Passed reports whether every result holds
func Passed(results []Result) bool {
	return util.AllIter(slices.Values(results), func(r Result) bool { return r.Pass })
}

// Run answers every query of the fixture, in order
func (w *World) Run() []Result {
	results := make([]Result, len(w.fixture.Queries))
	for i := range w.fixture.Queries {
		results[i] = w.Query(i)
	}
	return results
}

// Query answers the i-th query of the fixture
func (w *World) Query(i int) Result {
	q := &w.fixture.Queries[i]
	kind, _ := q.kind()
	r := Result{Index: i, Name: q.Name, Kind: kind}
	w.failures = nil

	var err error
	switch kind {
	case "assignable":
		err = w.assignable(q, &r)
	case "subtype":
		err = w.subtype(q, &r)
	case "evaluate":
		e := w.Universe.Evaluator()
		w.expectType(&r, e.Evaluate(w.typeOf(&q.Evaluate, rootScope())), &q.Expect, e)
	case "keyof":
		e := w.Universe.Evaluator()
		w.expectType(&r, e.Evaluate(w.Universe.Types.KeyOf(w.typeOf(&q.KeyOf, rootScope()))), &q.Expect, e)
	case "narrow":
		err = w.narrow(q, &r)
	case "infer":
		err = w.infer(q, &r)
	}
	if err == nil && w.failures.HasError() {
		err = w.failures
	}
	if err != nil {
		r.Err, r.Pass = err, false
	}
	w.logger.Debug("query", "index", i, "kind", kind, "got", r.Got, "pass", r.Pass)
	return r
}

func expectedReason(name string) (tserr.Reason, error) {
	reason, ok := tserr.ParseReason(name)
	if !ok {
		return tserr.None, errors.Errorf("unknown reason %q", name)
	}
	return reason, nil
}

// expectAnswer checks a true/false answer, and the reason of a false one
func expectAnswer(q *Query, r *Result, got string, failure *solver.SubtypeFailure) error {
	r.Got = got
	if failure != nil {
		r.Got += " (" + failure.Reason.String() + ")"
	}
	r.Pass = true
	if isSet(&q.Expect) {
		r.Want = q.Expect.Value
		r.Pass = got == q.Expect.Value
	}
	if q.Reason != "" {
		reason, err := expectedReason(q.Reason)
		if err != nil {
			return err
		}
		r.Want += " (" + reason.String() + ")"
		r.Pass = r.Pass && failure != nil && failure.Reason == reason
	}
	return nil
}

func (w *World) assignable(q *Query, r *Result) error {
	spec := q.Assignable
	source, target := w.typeOf(&spec.Source, rootScope()), w.typeOf(&spec.Target, rootScope())
	l := w.Universe.Lawyer()
	ctx := l.Context()
	ctx.SourceFresh = spec.Fresh
	ok, failure := l.Check(source, target, ctx)
	return expectAnswer(q, r, strconv.FormatBool(ok), failure)
}

func (w *World) subtype(q *Query, r *Result) error {
	spec := q.Subtype
	source, target := w.typeOf(&spec.Source, rootScope()), w.typeOf(&spec.Target, rootScope())
	j := w.Universe.Judge()
	got := j.IsSubtype(source, target)
	var failure *solver.SubtypeFailure
	if got == solver.False {
		failure = j.Explain(source, target)
	}
	return expectAnswer(q, r, got.String(), failure)
}

// expectType compares got with the expected type, both evaluated so that
// aliases compare equal to their bodies
func (w *World) expectType(r *Result, got solver.TypeID, want *Expr, e *solver.Evaluator) {
	r.Got = w.Universe.Format(got)
	r.Pass = true
	if !isSet(want) {
		return
	}
	wantID := e.Evaluate(w.typeOf(want, rootScope()))
	r.Want = w.Universe.Format(wantID)
	r.Pass = e.Evaluate(got) == wantID
}

func (w *World) guard(g *GuardSpec) (solver.Guard, error) {
	out := solver.Guard{Negated: g.Negated, Loose: g.Loose}
	kinds := 0
	is := func(k solver.GuardKind) {
		out.Kind = k
		kinds++
	}
	if g.Truthy {
		is(solver.GuardTruthy)
	}
	if g.Typeof != "" {
		is(solver.GuardTypeof)
		out.Tag = g.Typeof
	}
	if isSet(&g.Instanceof) {
		is(solver.GuardInstanceof)
		out.Type = w.typeOf(&g.Instanceof, rootScope())
	}
	if g.Discriminant != "" {
		is(solver.GuardDiscriminant)
		out.Property = g.Discriminant
		out.Value = w.typeOf(&g.Value, rootScope())
	}
	if g.In != "" {
		is(solver.GuardIn)
		out.Property = g.In
	}
	if isSet(&g.Predicate) {
		is(solver.GuardPredicate)
		out.Type = w.typeOf(&g.Predicate, rootScope())
	}
	if isSet(&g.Asserts) {
		is(solver.GuardAssertion)
		out.Type = w.typeOf(&g.Asserts, rootScope())
	}
	if g.AssertsTruthy {
		is(solver.GuardAssertion)
	}
	if isSet(&g.Equals) {
		is(solver.GuardEquality)
		out.Value = w.typeOf(&g.Equals, rootScope())
	}
	if kinds != 1 {
		return out, errors.Errorf("a guard has exactly one kind, got %d", kinds)
	}
	return out, nil
}

func (w *World) narrow(q *Query, r *Result) error {
	typ := w.typeOf(&q.Narrow.Type, rootScope())
	g, err := w.guard(&q.Narrow.Guard)
	if err != nil {
		return err
	}
	whenTrue, whenFalse := w.Universe.Narrower().Narrow(typ, g)
	r.Got = fmt.Sprintf("true: %s; false: %s", w.Universe.Format(whenTrue), w.Universe.Format(whenFalse))
	r.Pass = true
	if !isSet(&q.Expect) {
		return nil
	}
	var want NarrowExpectation
	if err := q.Expect.Decode(&want); err != nil {
		return errors.Wrap(err, "narrow expectation")
	}
	e := w.Universe.Evaluator()
	branch := func(got solver.TypeID, want *Expr) string {
		if !isSet(want) {
			return "?"
		}
		wantID := e.Evaluate(w.typeOf(want, rootScope()))
		r.Pass = r.Pass && e.Evaluate(got) == wantID
		return w.Universe.Format(wantID)
	}
	r.Want = fmt.Sprintf("true: %s; false: %s", branch(whenTrue, &want.WhenTrue), branch(whenFalse, &want.WhenFalse))
	return nil
}

func (w *World) infer(q *Query, r *Result) error {
	spec := q.Infer
	in := w.Universe.Types
	callee := w.typeOf(&spec.Callee, rootScope())
	args := make([]solver.Argument, len(spec.Args))
	for i := range spec.Args {
		arg := w.typeOf(&spec.Args[i], rootScope())
		args[i] = solver.Argument{Type: arg}
	}
	contextual := solver.NoType
	if isSet(&spec.Contextual) {
		contextual = w.typeOf(&spec.Contextual, rootScope())
	}
	if w.failures.HasError() {
		return w.failures
	}

	sigs := w.Universe.Evaluator().Signatures(callee)
	inf := w.Universe.Inferrer()
	var (
		index  int
		result solver.CallResult
		err    error
	)
	switch len(sigs) {
	case 0:
		return errors.Errorf("%s is not callable", w.Universe.Format(callee))
	case 1:
		result, err = inf.CheckCall(sigs[0], args, contextual)
	default:
		index, result, err = inf.ResolveOverload(sigs, args, contextual)
	}

	if q.Error != "" {
		reason, parseErr := expectedReason(q.Error)
		if parseErr != nil {
			return parseErr
		}
		r.Want = "error: " + reason.String()
		r.Pass = err != nil && solver.ReasonOf(err) == reason
	}
	if err != nil {
		r.Got = "error: " + solver.ReasonOf(err).String()
		if q.Error == "" {
			r.Want = "no error"
		}
		return nil
	}

	// the answer lists inferred type arguments by name, then the return type
	answer := map[string]solver.TypeID{"return": result.Return}
	var got []string
	if len(sigs) > 1 {
		got = append(got, fmt.Sprintf("overload %d", index))
	}
	for _, p := range sigs[index].TypeParams {
		name := typeParameterName(in, p)
		arg, ok := result.Substitution.Lookup(p)
		if !ok {
			continue
		}
		answer[name] = arg
		got = append(got, name+" = "+w.Universe.Format(arg))
	}
	got = append(got, "return "+w.Universe.Format(result.Return))
	r.Got = strings.Join(got, ", ")

	if q.Error != "" || !isSet(&q.Expect) {
		r.Pass = q.Error == ""
		return nil
	}
	if q.Expect.Kind != yaml.MappingNode {
		return errors.New("infer expectation maps type parameter names and `return` to types")
	}
	r.Pass = true
	var want []string
	e := w.Universe.Evaluator()
	for key, value := range pairs(&q.Expect) {
		wantID := e.Evaluate(w.typeOf(value, rootScope()))
		gotID, ok := answer[key.Value]
		r.Pass = r.Pass && ok && e.Evaluate(gotID) == wantID
		want = append(want, key.Value+" = "+w.Universe.Format(wantID))
	}
	r.Want = strings.Join(want, ", ")
	return nil
}

func typeParameterName(in *solver.Interner, p solver.TypeID) string {
	shape, err := in.Lookup(p)
	if err != nil {
		return fmt.Sprint("#", p)
	}
	if tp, ok := shape.(solver.TypeParameter); ok {
		return tp.Name
	}
	return fmt.Sprint("#", p)
}
