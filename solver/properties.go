package solver

import (
	"cmp"
	"slices"
	"strconv"
)

// whnf resolves the outermost layer of id (references, applications, derived
// types) until a structural shape, a deferred generic type or a placeholder is reached
func (e *Evaluator) whnf(id TypeID) TypeID {
	for range e.opts.MaxEvaluationDepth {
		var next TypeID
		switch s := e.in.shape(id).(type) {
		case Lazy:
			next = e.res.ResolveLazy(s.Def)
		case TypeQuery:
			t, ok := e.res.SymbolType(s.Symbol)
			if !ok {
				return TypeError
			}
			next = t
		case Application, Conditional, Mapped, IndexedAccess, KeyOf, TemplateLiteral, StringIntrinsic:
			next = e.Evaluate(id)
		default:
			return id
		}
		if next == id {
			return id
		}
		id = next
	}
	return id
}

// baseConstraint returns what a generic type is known to be a subtype of
func (e *Evaluator) baseConstraint(id TypeID) (TypeID, bool) {
	switch s := e.in.shape(id).(type) {
	case TypeParameter:
		if s.Constraint != NoType {
			return s.Constraint, true
		}
		return TypeUnknown, true
	case Infer:
		if s.Constraint != NoType {
			return s.Constraint, true
		}
		return TypeUnknown, true
	case KeyOf:
		return e.keyofAnything(), true
	case IndexedAccess:
		obj, objOk := e.baseConstraint(s.Object)
		idx, idxOk := e.baseConstraint(s.Index)
		if !objOk {
			obj = s.Object
		}
		if !idxOk {
			idx = s.Index
		}
		if !objOk && !idxOk {
			return TypeUnknown, true
		}
		return e.Evaluate(e.in.IndexedAccess(obj, idx)), true
	case Conditional:
		return e.in.Union(s.True, s.False), true
	case TemplateLiteral, StringIntrinsic:
		return TypeString, true
	}
	return NoType, false
}

func (e *Evaluator) keyofAnything() TypeID {
	return e.in.Union(TypeString, TypeNumber, TypeSymbol)
}

func (e *Evaluator) unwrapReadonly(id TypeID) (TypeID, bool) {
	id = e.whnf(id)
	if r, ok := e.in.shape(id).(Readonly); ok {
		return e.whnf(r.Inner), true
	}
	return id, false
}

// restElement is the element type of a rest parameter or rest tuple element of type id
func (e *Evaluator) restElement(id TypeID) TypeID {
	inner, _ := e.unwrapReadonly(id)
	switch s := e.in.shape(inner).(type) {
	case Array:
		return s.Elem
	case Tuple:
		elems := make([]TypeID, len(s.Elems))
		for i, el := range s.Elems {
			elems[i] = el.Type
			if el.Rest {
				elems[i] = e.restElement(el.Type)
			}
		}
		return e.in.Union(elems...)
	}
	if inner == TypeAny {
		return TypeAny
	}
	return e.Evaluate(e.in.IndexedAccess(inner, TypeNumber))
}

// apparentObject is the object type whose members a value of type id has,
// readonly reports whether it was seen through a Readonly wrapper
func (e *Evaluator) apparentObject(id TypeID) (obj Object, readonly bool, ok bool) {
	id = e.whnf(id)
	switch s := e.in.shape(id).(type) {
	case Object:
		return s, false, true
	case Readonly:
		obj, _, ok := e.apparentObject(s.Inner)
		return obj, true, ok
	case Array:
		return e.arrayObject(s.Elem), false, true
	case Tuple:
		return e.tupleObject(s), false, true
	case Callable:
		return Object{Signatures: id}, false, true
	case Intersection:
		merged, ok := e.mergeIntersection(s.Members)
		return merged, false, ok
	case Intrinsic:
		switch id {
		case TypeString:
			return e.stringObject(), false, true
		case TypeNumber, TypeBigInt, TypeBoolean, TypeSymbol, TypeObject, TypeFunction:
			return Object{}, false, true
		}
	case Literal:
		return e.apparentObject(s.Primitive())
	case Enum:
		return e.apparentObject(s.Member)
	case TemplateLiteral, StringIntrinsic:
		return e.stringObject(), false, true
	case UniqueSymbol:
		return Object{}, false, true
	case TypeParameter, Infer, IndexedAccess, Conditional:
		if base, ok := e.baseConstraint(id); ok && base != TypeUnknown {
			return e.apparentObject(base)
		}
	}
	return Object{}, false, false
}

func sortProps(props []Property) []Property {
	slices.SortStableFunc(props, func(a, b Property) int { return cmp.Compare(a.Name, b.Name) })
	return props
}

func (e *Evaluator) stringObject() Object {
	return Object{
		Props: []Property{{Name: "length", Type: TypeNumber, Readonly: true}},
		Index: []IndexSignature{{Key: TypeNumber, Value: TypeString, Readonly: true}},
	}
}

func (e *Evaluator) arrayObject(elem TypeID) Object {
	return Object{
		Props: []Property{{Name: "length", Type: TypeNumber}},
		Index: []IndexSignature{{Key: TypeNumber, Value: elem}},
	}
}

func (e *Evaluator) tupleObject(t Tuple) Object {
	props := make([]Property, 0, len(t.Elems)+1)
	fixedLength := true
	for i, el := range t.Elems {
		if el.Rest {
			fixedLength = false
			continue
		}
		fixedLength = fixedLength && !el.Optional
		props = append(props, Property{Name: strconv.Itoa(i), Type: el.Type, Optional: el.Optional})
	}
	length := TypeNumber
	if fixedLength {
		length = e.in.NumberLiteral(float64(len(t.Elems)))
	}
	props = append(props, Property{Name: "length", Type: length})
	return Object{
		Props: sortProps(props),
		Index: []IndexSignature{{Key: TypeNumber, Value: e.restElement(e.in.Intern(t))}},
	}
}

// mergeIntersection combines the members of an intersection into a single object
// type, intersecting the types of properties declared by several members
func (e *Evaluator) mergeIntersection(members []TypeID) (Object, bool) {
	var merged Object
	byName := make(map[string]int)
	var sigs []Signature
	for _, m := range members {
		obj, readonly, ok := e.apparentObject(m)
		if !ok {
			return Object{}, false
		}
		for _, p := range obj.Props {
			p.Readonly = p.Readonly || readonly
			i, seen := byName[p.Name]
			if !seen {
				byName[p.Name] = len(merged.Props)
				merged.Props = append(merged.Props, p)
				continue
			}
			existing := &merged.Props[i]
			existing.Type = e.in.Intersection(existing.Type, p.Type)
			existing.Optional = existing.Optional && p.Optional
			existing.Readonly = existing.Readonly && p.Readonly
			if existing.Visibility == Public {
				existing.Visibility, existing.DeclaredBy = p.Visibility, p.DeclaredBy
			}
		}
		for _, idx := range obj.Index {
			j := slices.IndexFunc(merged.Index, func(other IndexSignature) bool { return other.Key == idx.Key })
			if j < 0 {
				merged.Index = append(merged.Index, idx)
				continue
			}
			merged.Index[j].Value = e.in.Intersection(merged.Index[j].Value, idx.Value)
			merged.Index[j].Readonly = merged.Index[j].Readonly && idx.Readonly
		}
		if obj.Signatures != NoType {
			sigs = append(sigs, e.signaturesOf(obj.Signatures)...)
		}
	}
	sortProps(merged.Props)
	slices.SortFunc(merged.Index, func(a, b IndexSignature) int { return cmp.Compare(a.Key, b.Key) })
	if len(sigs) > 0 {
		merged.Signatures = e.in.Callable(sigs...)
	}
	return merged, true
}

// Signatures returns the call and construct signatures of id, in declaration order
func (e *Evaluator) Signatures(id TypeID) []Signature {
	return e.signaturesOf(id)
}

func (e *Evaluator) signaturesOf(id TypeID) []Signature {
	id = e.whnf(id)
	switch s := e.in.shape(id).(type) {
	case Callable:
		return s.Signatures
	case Object:
		if s.Signatures != NoType {
			return e.signaturesOf(s.Signatures)
		}
	case Readonly:
		return e.signaturesOf(s.Inner)
	case Intersection:
		var sigs []Signature
		for _, m := range s.Members {
			sigs = append(sigs, e.signaturesOf(m)...)
		}
		return sigs
	case TypeParameter:
		if base, ok := e.baseConstraint(id); ok {
			return e.signaturesOf(base)
		}
	}
	return nil
}

// isNonPrimitive reports whether every value of the shape is an object
func (e *Evaluator) isNonPrimitive(s Shape) bool {
	switch s := s.(type) {
	case Object, Array, Tuple, Callable, Mapped:
		return true
	case Readonly:
		return e.isNonPrimitive(e.in.shape(e.whnf(s.Inner)))
	case Intrinsic:
		return s.Which == IntrinsicObject || s.Which == IntrinsicFunction
	case Intersection:
		for _, m := range s.Members {
			if e.isNonPrimitive(e.in.shape(e.whnf(m))) {
				return true
			}
		}
	}
	return false
}

// propertyOf looks up name on the apparent object of id, reporting whether id has any members at all
func (e *Evaluator) propertyOf(id TypeID, name string) (prop Property, found bool, objectLike bool) {
	obj, readonly, ok := e.apparentObject(id)
	if !ok {
		return Property{}, false, false
	}
	prop, found = obj.Property(name)
	prop.Readonly = prop.Readonly || readonly
	return prop, found, true
}
