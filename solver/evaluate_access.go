package solver

import (
	"strconv"
)

// evalKeyOf computes the keys of an evaluated type.
// The keys of a union are the keys common to every member, those of an
// intersection are the keys of any member.
func (e *Evaluator) evalKeyOf(id TypeID, k KeyOf) TypeID {
	inner := e.Evaluate(k.Inner)
	switch s := e.in.shape(inner).(type) {
	case Intrinsic:
		switch inner {
		case TypeAny, TypeNever:
			return e.keyofAnything()
		case TypeUnknown, TypeNull, TypeUndefined, TypeVoid:
			return TypeNever
		case TypeError:
			return TypeError
		}
	case Union:
		keys := make([]TypeID, len(s.Members))
		for i, m := range s.Members {
			keys[i] = e.Evaluate(e.in.KeyOf(m))
		}
		return e.in.Intersection(keys...)
	case Intersection:
		keys := make([]TypeID, len(s.Members))
		for i, m := range s.Members {
			keys[i] = e.Evaluate(e.in.KeyOf(m))
		}
		return e.in.Union(keys...)
	case Mapped:
		if s.NameType == NoType {
			return e.Evaluate(s.Constraint)
		}
	}
	if e.hasFreeTypeParameters(inner) {
		switch e.in.Kind(inner) {
		case KindTypeParameter, KindConditional, KindIndexedAccess, KindMapped, KindApplication:
			if inner == k.Inner {
				return id
			}
			return e.in.KeyOf(inner)
		}
	}
	obj, _, ok := e.apparentObject(inner)
	if !ok {
		return TypeNever
	}
	return e.keysOf(obj)
}

// keysOf is the union of the property names of obj and the key types of its index signatures.
// A string index signature also admits number keys.
func (e *Evaluator) keysOf(obj Object) TypeID {
	keys := make([]TypeID, 0, len(obj.Props)+len(obj.Index))
	for _, p := range obj.Props {
		if p.Visibility != Public {
			continue
		}
		keys = append(keys, e.in.StringLiteral(p.Name))
	}
	for _, idx := range obj.Index {
		keys = append(keys, idx.Key)
		if idx.Key == TypeString {
			keys = append(keys, TypeNumber)
		}
	}
	return e.in.Union(keys...)
}

// evalIndexedAccess computes `Object[Index]`, distributing over unions on either side
func (e *Evaluator) evalIndexedAccess(id TypeID, ia IndexedAccess) TypeID {
	obj, idx := e.Evaluate(ia.Object), e.Evaluate(ia.Index)
	if u, ok := e.in.shape(idx).(Union); ok {
		results := make([]TypeID, len(u.Members))
		for i, m := range u.Members {
			results[i] = e.Evaluate(e.in.IndexedAccess(obj, m))
		}
		return e.in.Union(results...)
	}
	if u, ok := e.in.shape(obj).(Union); ok {
		results := make([]TypeID, len(u.Members))
		for i, m := range u.Members {
			results[i] = e.Evaluate(e.in.IndexedAccess(m, idx))
		}
		return e.in.Union(results...)
	}
	if e.hasFreeTypeParameters(obj) || e.hasFreeTypeParameters(idx) {
		if obj == ia.Object && idx == ia.Index {
			return id
		}
		return e.in.IndexedAccess(obj, idx)
	}
	return e.access(obj, idx)
}

// access looks up the member idx of the concrete type obj. A missing member is never.
func (e *Evaluator) access(obj, idx TypeID) TypeID {
	switch {
	case obj == TypeAny || idx == TypeAny:
		return TypeAny
	case obj == TypeError || idx == TypeError:
		return TypeError
	case idx == TypeNever:
		return TypeNever
	}
	if t, ok := e.in.shape(e.whnf(obj)).(Tuple); ok {
		if out, ok := e.tupleAccess(t, idx); ok {
			return out
		}
	}
	o, _, ok := e.apparentObject(obj)
	if !ok {
		return TypeNever
	}
	switch k := e.in.shape(idx).(type) {
	case Literal:
		if k.LitKind != LitString && k.LitKind != LitNumber {
			return TypeNever
		}
		name := literalText(k)
		if p, ok := o.Property(name); ok {
			return e.propertyValue(p)
		}
		if k.LitKind == LitNumber || isNumericName(name) {
			if sig, ok := o.IndexFor(TypeNumber); ok {
				return sig.Value
			}
		}
		if sig, ok := o.IndexFor(TypeString); ok {
			return sig.Value
		}
	case Enum:
		return e.access(obj, k.Member)
	case UniqueSymbol:
		if sig, ok := o.IndexFor(TypeSymbol); ok {
			return sig.Value
		}
	case TemplateLiteral, StringIntrinsic:
		if sig, ok := o.IndexFor(TypeString); ok {
			return sig.Value
		}
	case Intrinsic:
		switch idx {
		case TypeNumber:
			if sig, ok := o.IndexFor(TypeNumber); ok {
				return sig.Value
			}
			if sig, ok := o.IndexFor(TypeString); ok {
				return sig.Value
			}
		case TypeString, TypeSymbol:
			if sig, ok := o.IndexFor(idx); ok {
				return sig.Value
			}
		}
	}
	return TypeNever
}

func (e *Evaluator) tupleAccess(t Tuple, idx TypeID) (TypeID, bool) {
	lit, ok := e.in.shape(idx).(Literal)
	switch {
	case idx == TypeNumber:
		return e.restElement(e.in.Intern(t)), true
	case !ok:
		return NoType, false
	}
	var pos int
	switch lit.LitKind {
	case LitNumber:
		pos = int(lit.Num)
		if float64(pos) != lit.Num {
			return NoType, false
		}
	case LitString:
		n, err := strconv.Atoi(lit.Str)
		if err != nil {
			return NoType, false
		}
		pos = n
	default:
		return NoType, false
	}
	for i, el := range t.Elems {
		if el.Rest {
			return e.restElement(e.in.Intern(Tuple{Elems: t.Elems[i:]})), true
		}
		if i == pos {
			if el.Optional && e.opts.StrictNullChecks {
				return e.in.Union(el.Type, TypeUndefined), true
			}
			return el.Type, true
		}
	}
	return TypeNever, pos >= 0
}

// propertyValue is the type read from p, which includes undefined when p is optional
func (e *Evaluator) propertyValue(p Property) TypeID {
	if p.Optional && e.opts.StrictNullChecks {
		return e.in.Union(p.Type, TypeUndefined)
	}
	return p.Type
}
