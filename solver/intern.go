package solver

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver/tserr"
	"github.com/cottand/tsolve/util/idset"
	"github.com/pkg/errors"
)

// maxDistributedIntersection bounds the number of members produced by distributing
// an intersection over unions, past which the intersection is kept as written
const maxDistributedIntersection = 64

// Interner hands out canonical TypeIDs for Shapes.
// Lookups may run concurrently; interning a new shape takes an exclusive lock.
type Interner struct {
	mu     sync.RWMutex
	shapes []Shape
	// index buckets TypeIDs by Shape.hash, collisions are resolved with Shape.equal
	index map[uint64][]TypeID

	// failures are internal invariant violations, never caused by well-formed input
	failuresMu sync.Mutex
	failures   []error

	// scopes hands out TypeParameter.Scope values
	scopes atomic.Uint32

	logger *slog.Logger
}

func NewInterner() *Interner {
	in := &Interner{
		shapes: make([]Shape, 1, 256),
		index:  make(map[uint64][]TypeID, 256),
		logger: log.For("solver.intern"),
	}
	for kind := IntrinsicAny; kind <= IntrinsicError; kind++ {
		in.internRaw(Intrinsic{Which: kind})
	}
	in.internRaw(Literal{LitKind: LitBoolean, Bool: true})
	in.internRaw(Literal{LitKind: LitBoolean, Bool: false})
	in.internRaw(Object{})
	if TypeID(len(in.shapes)) != firstUserType {
		panic("interner: builtin ids out of sync")
	}
	return in
}

// Len is the number of interned shapes
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.shapes) - 1
}

// Lookup dereferences id. An unknown id is an internal error wrapping tserr.ErrUnknownType.
func (in *Interner) Lookup(id TypeID) (Shape, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoType || int(id) >= len(in.shapes) {
		return nil, errors.Wrapf(tserr.ErrUnknownType, "type id %d (interned: %d)", id, len(in.shapes)-1)
	}
	return in.shapes[id], nil
}

// shape is Lookup for internal callers: an unknown id is recorded as a failure
// and treated as the error type, so that it fails closed
func (in *Interner) shape(id TypeID) Shape {
	s, err := in.Lookup(id)
	if err != nil {
		in.addFailure(err)
		return Intrinsic{Which: IntrinsicError}
	}
	return s
}

func (in *Interner) addFailure(err error) {
	in.logger.Warn("internal failure", "err", err)
	in.failuresMu.Lock()
	defer in.failuresMu.Unlock()
	in.failures = append(in.failures, err)
}

// Failures returns the internal errors recorded so far
func (in *Interner) Failures() []error {
	in.failuresMu.Lock()
	defer in.failuresMu.Unlock()
	return slices.Clone(in.failures)
}

func (in *Interner) internRaw(s Shape) TypeID {
	h := s.hash()
	in.mu.RLock()
	for _, id := range in.index[h] {
		if in.shapes[id].equal(s) {
			in.mu.RUnlock()
			return id
		}
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// another writer may have won the race between the two locks
	for _, id := range in.index[h] {
		if in.shapes[id].equal(s) {
			return id
		}
	}
	id := TypeID(len(in.shapes))
	in.shapes = append(in.shapes, s)
	in.index[h] = append(in.index[h], id)
	return id
}

// Intern returns the TypeID of s, normalising unions, intersections and objects first
func (in *Interner) Intern(s Shape) TypeID {
	switch s := s.(type) {
	case Union:
		return in.Union(s.Members...)
	case Intersection:
		return in.Intersection(s.Members...)
	case Object:
		return in.object(s)
	case Tuple:
		return in.Tuple(s.Elems...)
	case Readonly:
		return in.Readonly(s.Inner)
	case nil:
		in.addFailure(errors.New("interning a nil shape"))
		return TypeError
	default:
		return in.internRaw(s)
	}
}

func (in *Interner) Kind(id TypeID) Kind {
	return in.shape(id).Kind()
}

// --- constructors ---

func (in *Interner) StringLiteral(s string) TypeID {
	return in.internRaw(Literal{LitKind: LitString, Str: s})
}

func (in *Interner) NumberLiteral(n float64) TypeID {
	return in.internRaw(Literal{LitKind: LitNumber, Num: n})
}

func (in *Interner) BigIntLiteral(digits string) TypeID {
	return in.internRaw(Literal{LitKind: LitBigInt, Str: digits})
}

func (in *Interner) BooleanLiteral(b bool) TypeID {
	if b {
		return TypeTrue
	}
	return TypeFalse
}

func (in *Interner) Array(elem TypeID) TypeID {
	return in.internRaw(Array{Elem: elem})
}

func (in *Interner) Tuple(elems ...TupleElement) TypeID {
	return in.internRaw(Tuple{Elems: slices.Clone(elems)})
}

// Readonly wraps inner. Wrapping is idempotent and primitives are left untouched.
func (in *Interner) Readonly(inner TypeID) TypeID {
	switch in.shape(inner).(type) {
	case Readonly, Intrinsic, Literal, Enum, UniqueSymbol:
		return inner
	}
	return in.internRaw(Readonly{Inner: inner})
}

func (in *Interner) KeyOf(inner TypeID) TypeID {
	return in.internRaw(KeyOf{Inner: inner})
}

func (in *Interner) IndexedAccess(object, index TypeID) TypeID {
	return in.internRaw(IndexedAccess{Object: object, Index: index})
}

func (in *Interner) Lazy(def DefID) TypeID {
	return in.internRaw(Lazy{Def: def})
}

func (in *Interner) TypeParameter(p TypeParameter) TypeID {
	return in.internRaw(p)
}

// NewTypeParameter interns a type parameter distinct from every other one, even
// from those with the same name and bounds
func (in *Interner) NewTypeParameter(p TypeParameter) TypeID {
	p.Scope = in.scopes.Add(1)
	return in.internRaw(p)
}

func (in *Interner) Function(sig Signature) TypeID {
	return in.Callable(sig)
}

func (in *Interner) Callable(sigs ...Signature) TypeID {
	return in.internRaw(Callable{Signatures: slices.Clone(sigs)})
}

func (in *Interner) EnumMember(decl DefID, name string, value TypeID) TypeID {
	return in.internRaw(Enum{Decl: decl, Name: name, Member: value})
}

func (in *Interner) Application(base TypeID, args ...TypeID) TypeID {
	if len(args) == 0 {
		return base
	}
	return in.internRaw(Application{Base: base, Args: slices.Clone(args)})
}

// TemplateLiteral merges adjacent text spans; a template without placeholders is a string literal
func (in *Interner) TemplateLiteral(spans ...TemplateSpan) TypeID {
	merged := make([]TemplateSpan, 0, len(spans))
	for _, s := range spans {
		if s.IsText() && s.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && s.IsText() && merged[n-1].IsText() {
			merged[n-1].Text += s.Text
			continue
		}
		merged = append(merged, s)
	}
	switch {
	case len(merged) == 0:
		return in.StringLiteral("")
	case len(merged) == 1 && merged[0].IsText():
		return in.StringLiteral(merged[0].Text)
	}
	return in.internRaw(TemplateLiteral{Spans: merged})
}

// Object interns a non-fresh object type
func (in *Interner) Object(props []Property, index ...IndexSignature) TypeID {
	return in.object(Object{Props: slices.Clone(props), Index: slices.Clone(index)})
}

// FreshObject interns an object literal type which is subject to excess property checks
func (in *Interner) FreshObject(props []Property, index ...IndexSignature) TypeID {
	return in.object(Object{Props: slices.Clone(props), Index: slices.Clone(index), Fresh: true})
}

func (in *Interner) object(o Object) TypeID {
	slices.SortStableFunc(o.Props, func(a, b Property) int { return cmp.Compare(a.Name, b.Name) })
	o.Props = slices.CompactFunc(o.Props, func(a, b Property) bool { return a.Name == b.Name })
	slices.SortFunc(o.Index, func(a, b IndexSignature) int { return cmp.Compare(a.Key, b.Key) })
	return in.internRaw(o)
}

// --- unions ---

// Union builds the normalised union of members: nested unions are flattened,
// members deduplicated and sorted, never dropped, literals absorbed by their
// primitive, and any/unknown absorb everything
func (in *Interner) Union(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	for _, m := range members {
		if u, ok := in.shape(m).(Union); ok {
			flat = append(flat, u.Members...)
		} else {
			flat = append(flat, m)
		}
	}
	flat = idset.From(flat...)

	switch {
	case idset.Contains(flat, TypeError):
		return TypeError
	case idset.Contains(flat, TypeAny):
		return TypeAny
	case idset.Contains(flat, TypeUnknown):
		return TypeUnknown
	}
	flat = idset.Diff(flat, []TypeID{TypeNever})
	flat = in.absorbLiterals(flat)

	switch len(flat) {
	case 0:
		return TypeNever
	case 1:
		return flat[0]
	}
	return in.internRaw(Union{Members: flat})
}

func (in *Interner) absorbLiterals(flat []TypeID) []TypeID {
	if idset.Contains(flat, TypeTrue) && idset.Contains(flat, TypeFalse) {
		flat = idset.Union(idset.Diff(flat, []TypeID{TypeTrue, TypeFalse}), []TypeID{TypeBoolean})
	}
	return slices.DeleteFunc(flat, func(id TypeID) bool {
		lit, ok := in.shape(id).(Literal)
		return ok && idset.Contains(flat, lit.Primitive())
	})
}

// --- intersections ---

// Intersection builds the normalised intersection of members. It reduces to never
// when members are disjoint primitives or literals, and distributes over union members.
func (in *Interner) Intersection(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	for _, m := range members {
		if i, ok := in.shape(m).(Intersection); ok {
			flat = append(flat, i.Members...)
		} else {
			flat = append(flat, m)
		}
	}
	flat = idset.From(flat...)

	switch {
	case idset.Contains(flat, TypeError):
		return TypeError
	case idset.Contains(flat, TypeNever):
		return TypeNever
	case idset.Contains(flat, TypeAny):
		return TypeAny
	}
	flat = idset.Diff(flat, []TypeID{TypeUnknown})

	if in.hasDisjointUnits(flat) {
		return TypeNever
	}
	flat = in.dropSubsumedPrimitives(flat)

	switch len(flat) {
	case 0:
		return TypeUnknown
	case 1:
		return flat[0]
	}
	if distributed, ok := in.distributeIntersection(flat); ok {
		return distributed
	}
	return in.internRaw(Intersection{Members: flat})
}

// primitiveClass returns the primitive a unit-ish type belongs to, or NoType for object-like types
func (in *Interner) primitiveClass(id TypeID) TypeID {
	switch s := in.shape(id).(type) {
	case Intrinsic:
		switch s.Which {
		case IntrinsicString, IntrinsicNumber, IntrinsicBigInt, IntrinsicBoolean, IntrinsicSymbol,
			IntrinsicNull, IntrinsicUndefined, IntrinsicVoid:
			return id
		}
	case Literal:
		return s.Primitive()
	case Enum:
		return in.primitiveClass(s.Member)
	case UniqueSymbol:
		return TypeSymbol
	case TemplateLiteral, StringIntrinsic:
		return TypeString
	}
	return NoType
}

func (in *Interner) isUnit(id TypeID) bool {
	switch in.shape(id).(type) {
	case Literal, Enum, UniqueSymbol:
		return true
	}
	return id == TypeNull || id == TypeUndefined
}

func (in *Interner) hasDisjointUnits(flat []TypeID) bool {
	var class TypeID
	var unit TypeID
	for _, id := range flat {
		c := in.primitiveClass(id)
		if c == NoType {
			continue
		}
		if c == TypeVoid {
			c = TypeUndefined
		}
		if class != NoType && class != c {
			return true
		}
		class = c
		if in.isUnit(id) {
			if unit != NoType && unit != id && !in.sameUnitValue(unit, id) {
				return true
			}
			unit = id
		}
	}
	return false
}

func (in *Interner) sameUnitValue(a, b TypeID) bool {
	unwrap := func(id TypeID) TypeID {
		if e, ok := in.shape(id).(Enum); ok {
			return e.Member
		}
		return id
	}
	return unwrap(a) == unwrap(b)
}

// dropSubsumedPrimitives removes `string` from `string & "a"` and the like
func (in *Interner) dropSubsumedPrimitives(flat []TypeID) []TypeID {
	return slices.DeleteFunc(flat, func(id TypeID) bool {
		if _, ok := in.shape(id).(Intrinsic); !ok {
			return false
		}
		return slices.ContainsFunc(flat, func(other TypeID) bool {
			return other != id && in.primitiveClass(other) == id
		})
	})
}

func (in *Interner) distributeIntersection(flat []TypeID) (TypeID, bool) {
	product := [][]TypeID{{}}
	distributes := false
	for _, m := range flat {
		u, ok := in.shape(m).(Union)
		if !ok {
			for i := range product {
				product[i] = append(product[i], m)
			}
			continue
		}
		distributes = true
		if len(product)*len(u.Members) > maxDistributedIntersection {
			return NoType, false
		}
		next := make([][]TypeID, 0, len(product)*len(u.Members))
		for _, prefix := range product {
			for _, member := range u.Members {
				next = append(next, append(slices.Clone(prefix), member))
			}
		}
		product = next
	}
	if !distributes {
		return NoType, false
	}
	members := make([]TypeID, len(product))
	for i, combination := range product {
		members[i] = in.Intersection(combination...)
	}
	return in.Union(members...), true
}

// --- freshness and widening ---

// IsFresh reports whether id is an object literal type that has not been bound yet
func (in *Interner) IsFresh(id TypeID) bool {
	o, ok := in.shape(id).(Object)
	return ok && o.Fresh
}

// Widen clears freshness from id and every object literal nested in it. It is
// applied when a literal is first bound to a binding without a type annotation.
func (in *Interner) Widen(id TypeID) TypeID {
	return in.widen(id, make(map[TypeID]TypeID))
}

func (in *Interner) widen(id TypeID, seen map[TypeID]TypeID) TypeID {
	if done, ok := seen[id]; ok {
		return done
	}
	seen[id] = id
	var widened TypeID
	switch s := in.shape(id).(type) {
	case Object:
		mapped := s.mapTypes(func(child TypeID) TypeID { return in.widen(child, seen) }).(Object)
		mapped.Fresh = false
		widened = in.object(mapped)
	case Union, Intersection, Array, Tuple, Readonly:
		widened = in.Intern(s.mapTypes(func(child TypeID) TypeID { return in.widen(child, seen) }))
	default:
		widened = id
	}
	seen[id] = widened
	return widened
}

// WidenLiteral widens literal types (and unions of them) to their primitive,
// as done for mutable bindings and non-const inference candidates
func (in *Interner) WidenLiteral(id TypeID) TypeID {
	switch s := in.shape(id).(type) {
	case Literal:
		return s.Primitive()
	case TemplateLiteral, StringIntrinsic:
		return TypeString
	case UniqueSymbol:
		return TypeSymbol
	case Union:
		return in.Union(mapAll(in.WidenLiteral, s.Members)...)
	}
	return id
}

func (in *Interner) String() string {
	return fmt.Sprintf("Interner(%d shapes)", in.Len())
}
