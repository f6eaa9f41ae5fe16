package solver

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tsolve/util/idset"
)

// idHasher hashes the solver's integer ids for immutable collections
type idHasher[T ~uint32] struct{}

func (idHasher[T]) Hash(id T) uint32   { return uint32(id) }
func (idHasher[T]) Equal(a, b T) bool { return a == b }

// Substitution maps type parameters to type arguments.
// It is persistent: With leaves the receiver untouched. The zero value is empty.
type Substitution struct {
	m *immutable.Map[TypeID, TypeID]
}

func NewSubstitution() Substitution {
	return Substitution{m: immutable.NewMap[TypeID, TypeID](idHasher[TypeID]{})}
}

// SubstitutionOf pairs params with args positionally, ignoring extra params or args
func SubstitutionOf(params, args []TypeID) Substitution {
	s := NewSubstitution()
	for i := 0; i < len(params) && i < len(args); i++ {
		s = s.With(params[i], args[i])
	}
	return s
}

func (s Substitution) With(param, arg TypeID) Substitution {
	if s.m == nil {
		s = NewSubstitution()
	}
	return Substitution{m: s.m.Set(param, arg)}
}

func (s Substitution) Lookup(param TypeID) (TypeID, bool) {
	if s.m == nil {
		return NoType, false
	}
	return s.m.Get(param)
}

func (s Substitution) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

func (s Substitution) All() iter.Seq2[TypeID, TypeID] {
	return func(yield func(TypeID, TypeID) bool) {
		if s.m == nil {
			return
		}
		it := s.m.Iterator()
		for !it.Done() {
			k, v, _ := it.Next()
			if !yield(k, v) {
				return
			}
		}
	}
}

func (s Substitution) LogValue() slog.Value {
	var attrs []slog.Attr
	for param, arg := range s.All() {
		attrs = append(attrs, slog.Uint64(fmt.Sprint(param), uint64(arg)))
	}
	return slog.GroupValue(attrs...)
}

// Instantiate replaces every type parameter of subst occurring in id by its argument.
// Declarations referenced through Lazy are not entered.
func (in *Interner) Instantiate(id TypeID, subst Substitution) TypeID {
	if subst.Len() == 0 {
		return id
	}
	inst := &instantiator{in: in, subst: subst, memo: make(map[TypeID]TypeID)}
	return inst.apply(id)
}

type instantiator struct {
	in    *Interner
	subst Substitution
	memo  map[TypeID]TypeID
}

func (inst *instantiator) apply(id TypeID) TypeID {
	if arg, ok := inst.subst.Lookup(id); ok {
		return arg
	}
	if id < firstUserType {
		return id
	}
	if done, ok := inst.memo[id]; ok {
		return done
	}
	// shapes are acyclic by construction, cycles only go through Lazy
	inst.memo[id] = id
	s := inst.in.shape(id)
	var out TypeID
	switch s.(type) {
	case Lazy, Intrinsic, Literal, UniqueSymbol, TypeQuery, BoundParameter, Recursive:
		out = id
	default:
		mapped := s.mapTypes(inst.apply)
		if mapped.equal(s) {
			out = id
		} else {
			out = inst.in.Intern(mapped)
		}
	}
	inst.memo[id] = out
	return out
}

// InstantiateSignature substitutes into every part of sig, and drops the type
// parameters bound by subst from its own type parameter list
func (in *Interner) InstantiateSignature(sig Signature, subst Substitution) Signature {
	if subst.Len() == 0 {
		return sig
	}
	inst := &instantiator{in: in, subst: subst, memo: make(map[TypeID]TypeID)}
	out := sig.mapTypes(inst.apply)
	out.TypeParams = nil
	for _, tp := range sig.TypeParams {
		if _, bound := subst.Lookup(tp); !bound {
			out.TypeParams = append(out.TypeParams, tp)
		}
	}
	return out
}

// ContainsTypeParameters reports whether a TypeParameter (or infer binding) occurs in id,
// without entering declarations
func (in *Interner) ContainsTypeParameters(id TypeID) bool {
	return in.containsKind(id, make(map[TypeID]bool), KindTypeParameter, KindInfer)
}

func (in *Interner) containsKind(id TypeID, seen map[TypeID]bool, kinds ...Kind) bool {
	if id < firstUserType {
		return false
	}
	if found, ok := seen[id]; ok {
		return found
	}
	seen[id] = false
	s := in.shape(id)
	found := false
	for _, k := range kinds {
		if s.Kind() == k {
			found = true
		}
	}
	if !found {
		for child := range s.children() {
			if in.containsKind(child, seen, kinds...) {
				found = true
				break
			}
		}
	}
	seen[id] = found
	return found
}

// collectKind returns the ids of kind occurring in id, in TypeID order,
// without entering declarations
func (in *Interner) collectKind(id TypeID, kind Kind) []TypeID {
	var found []TypeID
	seen := make(map[TypeID]bool)
	var walk func(TypeID)
	walk = func(id TypeID) {
		if id < firstUserType || seen[id] {
			return
		}
		seen[id] = true
		s := in.shape(id)
		if s.Kind() == kind {
			found = append(found, id)
		}
		for child := range s.children() {
			walk(child)
		}
	}
	walk(id)
	return idset.From(found...)
}
