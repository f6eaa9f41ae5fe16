package solver

import (
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cottand/tsolve/util"
)

type variance uint8

const (
	covariant variance = iota
	contravariant
)

func (v variance) flip() variance {
	if v == covariant {
		return contravariant
	}
	return covariant
}

// inferencePriority ranks where a candidate came from, lower is preferred
type inferencePriority uint8

const (
	priorityDirect inferencePriority = iota
	// priorityReturn candidates come from the contextual return type of a call
	priorityReturn
)

type candidate struct {
	typ      TypeID
	priority inferencePriority
}

// paramInference is the constraint set of one type parameter (or infer binding)
type paramInference struct {
	param      TypeID
	name       string
	constraint TypeID
	def        TypeID
	isConst    bool
	// lower are covariant candidates, upper contravariant ones
	lower []candidate
	upper []TypeID
}

type inferKey = util.Pair[typePair, variance]

// inference collects candidates for a fixed set of type parameters by structurally
// matching a source type against a target type mentioning them
type inference struct {
	*Judge
	params   []TypeID
	infos    map[TypeID]*paramInference
	priority inferencePriority
	visited  map[inferKey]struct{}
	depth    int
}

func newInference(j *Judge, params []TypeID) *inference {
	inf := &inference{
		Judge:   j,
		params:  slices.Clone(params),
		infos:   make(map[TypeID]*paramInference, len(params)),
		visited: make(map[inferKey]struct{}),
	}
	for _, p := range params {
		info := &paramInference{param: p}
		switch s := j.in.shape(p).(type) {
		case TypeParameter:
			info.name, info.constraint, info.def, info.isConst = s.Name, s.Constraint, s.Default, s.Const
		case Infer:
			info.name, info.constraint = s.Name, s.Constraint
		}
		inf.infos[p] = info
	}
	return inf
}

func (inf *inference) mentionsParams(id TypeID) bool {
	return inf.in.containsKind(id, make(map[TypeID]bool), KindTypeParameter, KindInfer)
}

func (inf *inference) addCandidate(info *paramInference, source TypeID, v variance) {
	if source == TypeError {
		return
	}
	if v == covariant {
		info.lower = append(info.lower, candidate{typ: source, priority: inf.priority})
	} else {
		info.upper = append(info.upper, source)
	}
	inf.logger.Debug("inference candidate", "param", info.name, "type", source, "contravariant", v == contravariant)
}

// infer records the candidates implied by source flowing into target
func (inf *inference) infer(source, target TypeID, v variance) {
	if source == NoType || target == NoType || source == target {
		return
	}
	if info, ok := inf.infos[target]; ok {
		inf.addCandidate(info, source, v)
		return
	}
	if !inf.mentionsParams(target) {
		return
	}
	key := inferKey{Fst: typePair{source, target}, Snd: v}
	if _, seen := inf.visited[key]; seen || inf.depth >= inf.opts.MaxSubtypeDepth {
		return
	}
	inf.visited[key] = struct{}{}
	inf.depth++
	defer func() { inf.depth-- }()

	e := inf.eval
	if app, ok := inf.in.shape(target).(Application); ok {
		if sApp, ok := inf.in.shape(source).(Application); ok && sApp.Base == app.Base && len(sApp.Args) == len(app.Args) {
			for i := range app.Args {
				inf.infer(sApp.Args[i], app.Args[i], v)
			}
			return
		}
	}
	source = e.whnf(source)
	if source == TypeAny {
		inf.inferAnything(source, target, v)
		return
	}

	switch t := inf.in.shape(target).(type) {
	case Union:
		inf.inferToUnion(source, t, v)
	case Intersection:
		for _, m := range t.Members {
			inf.infer(source, m, v)
		}
	case Readonly:
		inner, _ := e.unwrapReadonly(source)
		inf.infer(inner, t.Inner, v)
	case Array:
		inner, _ := e.unwrapReadonly(source)
		switch s := inf.in.shape(inner).(type) {
		case Array:
			inf.infer(s.Elem, t.Elem, v)
		case Tuple:
			inf.infer(e.restElement(inner), t.Elem, v)
		default:
			if obj, _, ok := e.apparentObject(inner); ok {
				if idx, ok := obj.IndexFor(TypeNumber); ok {
					inf.infer(idx.Value, t.Elem, v)
				}
			}
		}
	case Tuple:
		inf.inferToTuple(source, t, v)
	case Object:
		inf.inferToObject(source, t, v)
	case Callable:
		inf.inferSignatures(e.signaturesOf(source), t.Signatures, v)
	case TemplateLiteral:
		inf.inferToTemplate(source, t, v)
	case Application, Lazy, Conditional, Mapped, IndexedAccess, KeyOf:
		if expanded := e.whnf(target); expanded != target {
			inf.infer(source, expanded, v)
		}
	}
}

// inferAnything propagates any to every parameter mentioned by target
func (inf *inference) inferAnything(source, target TypeID, v variance) {
	for _, p := range inf.in.collectKind(target, KindTypeParameter) {
		if info, ok := inf.infos[p]; ok {
			inf.addCandidate(info, source, v)
		}
	}
	for _, p := range inf.in.collectKind(target, KindInfer) {
		if info, ok := inf.infos[p]; ok {
			inf.addCandidate(info, source, v)
		}
	}
}

// inferToUnion matches identical members first, infers to every member that is
// not a naked parameter, and gives what is left of source to the single naked
// parameter of the union, if there is one
func (inf *inference) inferToUnion(source TypeID, t Union, v variance) {
	var naked []*paramInference
	var fixed []TypeID
	for _, m := range t.Members {
		if info, ok := inf.infos[m]; ok {
			naked = append(naked, info)
		} else {
			fixed = append(fixed, m)
		}
	}
	sources := []TypeID{source}
	if su, ok := inf.in.shape(source).(Union); ok {
		sources = su.Members
	}
	var remaining []TypeID
	for _, s := range sources {
		if slices.Contains(fixed, s) {
			continue
		}
		matched := false
		for _, f := range fixed {
			if !inf.mentionsParams(f) && inf.IsSubtype(s, f) == True {
				matched = true
				break
			}
		}
		if !matched {
			remaining = append(remaining, s)
		}
	}
	for _, f := range fixed {
		if inf.mentionsParams(f) {
			for _, s := range remaining {
				inf.infer(s, f, v)
			}
		}
	}
	if len(naked) == 1 && len(remaining) > 0 {
		inf.addCandidate(naked[0], inf.in.Union(remaining...), v)
	}
}

func (inf *inference) inferToTuple(source TypeID, t Tuple, v variance) {
	e := inf.eval
	inner, _ := e.unwrapReadonly(source)
	switch s := inf.in.shape(inner).(type) {
	case Array:
		for _, el := range t.Elems {
			if el.Rest {
				inf.infer(inner, el.Type, v)
				continue
			}
			inf.infer(s.Elem, el.Type, v)
		}
	case Tuple:
		for i, el := range t.Elems {
			if el.Rest {
				tail := s.Elems[min(i, len(s.Elems)):]
				if info, ok := inf.infos[el.Type]; ok {
					inf.addCandidate(info, inf.in.Tuple(tail...), v)
				} else {
					inf.infer(inf.in.Tuple(tail...), el.Type, v)
				}
				return
			}
			if i >= len(s.Elems) {
				return
			}
			if s.Elems[i].Rest {
				inf.infer(e.restElement(s.Elems[i].Type), el.Type, v)
				continue
			}
			inf.infer(s.Elems[i].Type, el.Type, v)
		}
	}
}

func (inf *inference) inferToObject(source TypeID, t Object, v variance) {
	e := inf.eval
	obj, _, ok := e.apparentObject(source)
	if !ok {
		return
	}
	for _, tp := range t.Props {
		if sp, ok := obj.Property(tp.Name); ok {
			inf.infer(sp.Type, tp.Type, v)
		}
	}
	for _, ti := range t.Index {
		if si, ok := obj.IndexFor(ti.Key); ok {
			inf.infer(si.Value, ti.Value, v)
			continue
		}
		var values []TypeID
		for _, p := range obj.Props {
			if indexApplies(ti.Key, p.Name) {
				values = append(values, p.Type)
			}
		}
		if len(values) > 0 {
			inf.infer(inf.in.Union(values...), ti.Value, v)
		}
	}
	if t.Signatures != NoType {
		inf.inferSignatures(e.signaturesOf(source), e.signaturesOf(t.Signatures), v)
	}
}

// inferSignatures pairs source and target overloads from the last one backwards
func (inf *inference) inferSignatures(sources, targets []Signature, v variance) {
	n := min(len(sources), len(targets))
	for i := range n {
		inf.inferSignature(sources[len(sources)-n+i], targets[len(targets)-n+i], v)
	}
}

func (inf *inference) inferSignature(s, t Signature, v variance) {
	e := inf.eval
	if len(s.TypeParams) > 0 {
		subst := NewSubstitution()
		for _, tp := range s.TypeParams {
			bound := TypeUnknown
			if p, ok := inf.in.shape(tp).(TypeParameter); ok && p.Constraint != NoType {
				bound = p.Constraint
			}
			subst = subst.With(tp, bound)
		}
		s = inf.in.InstantiateSignature(s, subst)
	}
	sParams, tParams := e.unpackParams(s.Params), e.unpackParams(t.Params)
	fixed := len(tParams)
	if hasRestParam(tParams) {
		fixed--
	}
	for i := range min(len(sParams), fixed) {
		sType, _ := e.paramTypeAt(sParams, i)
		inf.infer(sType, tParams[i].Type, v.flip())
	}
	if hasRestParam(tParams) {
		rest := tParams[len(tParams)-1].Type
		if info, ok := inf.infos[rest]; ok {
			inf.addCandidate(info, inf.restTuple(sParams, fixed), v.flip())
		} else {
			for i := fixed; i < len(sParams); i++ {
				sType, _ := e.paramTypeAt(sParams, i)
				inf.infer(sType, e.restElement(rest), v.flip())
			}
		}
	}
	if s.This != NoType && t.This != NoType {
		inf.infer(s.This, t.This, v.flip())
	}
	if s.Return != NoType && t.Return != NoType {
		inf.infer(s.Return, t.Return, v)
	}
	if s.Predicate != nil && t.Predicate != nil && s.Predicate.Type != NoType {
		inf.infer(s.Predicate.Type, t.Predicate.Type, v)
	}
}

// restTuple synthesises the tuple type of the parameters from position start on
func (inf *inference) restTuple(params []Param, start int) TypeID {
	elems := make([]TupleElement, 0, max(len(params)-start, 0))
	for _, p := range params[min(start, len(params)):] {
		elems = append(elems, TupleElement{Type: p.Type, Name: p.Name, Optional: p.Optional, Rest: p.Rest})
	}
	return inf.in.Tuple(elems...)
}

// inferToTemplate matches a string literal source against a template with parameter placeholders.
// A placeholder followed by text extends to the first occurrence of that text, one followed
// by another placeholder takes a single character, and a trailing one takes the rest.
func (inf *inference) inferToTemplate(source TypeID, t TemplateLiteral, v variance) {
	if su, ok := inf.in.shape(source).(Union); ok {
		for _, m := range su.Members {
			inf.inferToTemplate(m, t, v)
		}
		return
	}
	lit, ok := inf.in.shape(source).(Literal)
	if !ok || lit.LitKind != LitString {
		return
	}
	str := lit.Str
	for i, span := range t.Spans {
		if span.IsText() {
			if !strings.HasPrefix(str, span.Text) {
				return
			}
			str = str[len(span.Text):]
			continue
		}
		var part string
		switch {
		case i == len(t.Spans)-1:
			part, str = str, ""
		case t.Spans[i+1].IsText():
			end := strings.Index(str, t.Spans[i+1].Text)
			if end < 0 {
				return
			}
			part, str = str[:end], str[end:]
		default:
			_, size := utf8.DecodeRuneInString(str)
			part, str = str[:size], str[size:]
		}
		inf.infer(inf.placeholderValue(span.Type, part), span.Type, v)
	}
}

// placeholderValue is the literal type text stands for in a placeholder of type typ.
// Parameters constrained to number or bigint receive numeric literals.
func (inf *inference) placeholderValue(typ TypeID, text string) TypeID {
	info, ok := inf.infos[typ]
	if !ok || info.constraint == NoType {
		return inf.in.StringLiteral(text)
	}
	switch inf.eval.Evaluate(info.constraint) {
	case TypeNumber:
		if isNumericText(text) {
			n, _ := strconv.ParseFloat(text, 64)
			if formatNumber(n) == text {
				return inf.in.NumberLiteral(n)
			}
		}
	case TypeBigInt:
		if n, ok := new(big.Int).SetString(text, 10); ok && n.String() == text {
			return inf.in.BigIntLiteral(text)
		}
	case TypeBoolean:
		if text == "true" || text == "false" {
			return inf.in.BooleanLiteral(text == "true")
		}
	}
	return inf.in.StringLiteral(text)
}

// --- solving ---

// solution computes the type of one parameter from its constraint set.
// Candidates of the best priority are unioned and widened to their primitive,
// unless the parameter is const or constrained to primitives. Without covariant
// candidates the contravariant ones are intersected; without any, the default,
// then the constraint, then unknown is used.
func (inf *inference) solution(info *paramInference, subst Substitution) TypeID {
	if len(info.lower) > 0 {
		best := slices.MinFunc(info.lower, func(a, b candidate) int { return int(a.priority) - int(b.priority) }).priority
		var types []TypeID
		for _, c := range info.lower {
			if c.priority == best {
				types = append(types, c.typ)
			}
		}
		t := inf.in.Union(types...)
		if !info.isConst && !inf.keepsLiterals(info.constraint) {
			t = inf.in.WidenLiteral(t)
		}
		return inf.in.Widen(t)
	}
	if len(info.upper) > 0 {
		return inf.in.Intersection(info.upper...)
	}
	switch {
	case info.def != NoType:
		return inf.in.Instantiate(info.def, subst)
	case info.constraint != NoType:
		return inf.in.Instantiate(info.constraint, subst)
	}
	return TypeUnknown
}

// keepsLiterals reports whether a constraint asks for literal inference, as `T extends string` does
func (inf *inference) keepsLiterals(constraint TypeID) bool {
	if constraint == NoType {
		return false
	}
	constraint = inf.eval.Evaluate(constraint)
	members := []TypeID{constraint}
	if u, ok := inf.in.shape(constraint).(Union); ok {
		members = u.Members
	}
	for _, m := range members {
		if inf.in.primitiveClass(m) != NoType && m != TypeNull && m != TypeUndefined && m != TypeVoid {
			return true
		}
	}
	return false
}

// solveLoose solves every parameter without checking bounds. An infer binding
// whose candidate violates its constraint is solved to the constraint.
func (inf *inference) solveLoose() Substitution {
	subst := NewSubstitution()
	for _, p := range inf.params {
		info := inf.infos[p]
		t := inf.solution(info, subst)
		if info.constraint != NoType {
			c := inf.in.Instantiate(info.constraint, subst)
			if inf.IsSubtype(t, c) == False {
				t = c
			}
		}
		subst = subst.With(p, t)
	}
	return subst
}

// solvePartial solves only the parameters with candidates, leaving the others in place
func (inf *inference) solvePartial() Substitution {
	subst := NewSubstitution()
	for _, p := range inf.params {
		info := inf.infos[p]
		if len(info.lower) == 0 && len(info.upper) == 0 {
			continue
		}
		subst = subst.With(p, inf.solution(info, subst))
	}
	return subst
}

// solve solves every parameter and checks the result against its upper bounds and
// its declared constraint
func (inf *inference) solve() (Substitution, error) {
	subst := NewSubstitution()
	for _, p := range inf.params {
		subst = subst.With(p, inf.solution(inf.infos[p], subst))
	}
	for _, p := range inf.params {
		info := inf.infos[p]
		t, _ := subst.Lookup(p)
		bounds := slices.Clone(info.upper)
		if info.constraint != NoType {
			bounds = append(bounds, info.constraint)
		}
		for _, bound := range bounds {
			bound = inf.in.Instantiate(bound, subst)
			if inf.IsSubtype(t, bound) == False {
				lower := make([]TypeID, len(info.lower))
				for i, c := range info.lower {
					lower[i] = c.typ
				}
				return subst, &BoundsViolation{Param: p, Inferred: t, Lower: lower, Upper: bound}
			}
		}
	}
	return subst, nil
}
