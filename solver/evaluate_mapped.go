package solver

import (
	"strconv"
)

// evalMapped expands `{ [P in K as N]: T }` into an object type.
// A mapped type over `keyof X` is homomorphic: it keeps the modifiers of the
// properties of X, maps arrays and tuples to arrays and tuples, distributes over
// unions and leaves primitives untouched.
func (e *Evaluator) evalMapped(id TypeID, m Mapped) TypeID {
	if k, ok := e.in.shape(m.Constraint).(KeyOf); ok && m.NameType == NoType {
		if out, ok := e.mapHomomorphic(id, m, k.Inner); ok {
			return out
		}
	}
	keys := e.Evaluate(m.Constraint)
	if e.hasFreeTypeParameters(keys) {
		return id
	}
	var source *Object
	var sourceReadonly bool
	if k, ok := e.in.shape(m.Constraint).(KeyOf); ok {
		if obj, readonly, ok := e.apparentObject(k.Inner); ok {
			source, sourceReadonly = &obj, readonly
		}
	}
	return e.mapKeys(m, keys, source, sourceReadonly)
}

func (e *Evaluator) mapHomomorphic(id TypeID, m Mapped, inner TypeID) (TypeID, bool) {
	source := e.Evaluate(inner)
	if e.hasFreeTypeParameters(source) {
		if _, ok := e.in.shape(source).(TypeParameter); ok {
			return id, true
		}
	}
	switch s := e.in.shape(source).(type) {
	case Intrinsic:
		switch source {
		case TypeAny, TypeUnknown, TypeNever, TypeError, TypeObject:
			return NoType, false
		}
		return source, true
	case Literal, Enum, UniqueSymbol, TemplateLiteral, StringIntrinsic:
		return source, true
	case Union:
		results := make([]TypeID, len(s.Members))
		for i, member := range s.Members {
			each := m
			each.Constraint = e.in.KeyOf(member)
			each.Template = e.in.Instantiate(m.Template, NewSubstitution().With(inner, member).With(source, member))
			results[i] = e.Evaluate(e.in.Intern(each))
		}
		return e.in.Union(results...), true
	case Array:
		arr := e.in.Array(e.mapValue(m, TypeNumber))
		if m.Readonly == ModifierAdd {
			return e.in.Readonly(arr), true
		}
		return arr, true
	case Tuple:
		return e.mapTuple(m, s), true
	case Readonly:
		mapped, ok := e.mapHomomorphic(id, m, s.Inner)
		if !ok || m.Readonly == ModifierRemove {
			return mapped, ok
		}
		return e.in.Readonly(mapped), true
	}
	return NoType, false
}

// mapValue instantiates the template of m for one key
func (e *Evaluator) mapValue(m Mapped, key TypeID) TypeID {
	return e.Evaluate(e.in.Instantiate(m.Template, NewSubstitution().With(m.Param, key)))
}

func (e *Evaluator) mapTuple(m Mapped, t Tuple) TypeID {
	elems := make([]TupleElement, len(t.Elems))
	for i, el := range t.Elems {
		out := el
		if el.Rest {
			out.Type = e.in.Array(e.mapValue(m, TypeNumber))
		} else {
			out.Type = e.mapValue(m, e.in.StringLiteral(strconv.Itoa(i)))
			out.Optional = applyModifier(m.Optional, el.Optional)
			if m.Optional == ModifierRemove && el.Optional {
				out.Type = e.removeUndefined(out.Type)
			}
		}
		elems[i] = out
	}
	tuple := e.in.Tuple(elems...)
	if m.Readonly == ModifierAdd {
		return e.in.Readonly(tuple)
	}
	return tuple
}

// mapKeys builds the object type with one member per key of keys
func (e *Evaluator) mapKeys(m Mapped, keys TypeID, source *Object, sourceReadonly bool) TypeID {
	var props []Property
	var index []IndexSignature
	for _, key := range e.flattenUnion(keys) {
		names := []TypeID{key}
		if m.NameType != NoType {
			names = e.flattenUnion(e.Evaluate(e.in.Instantiate(m.NameType, NewSubstitution().With(m.Param, key))))
		}
		value := e.mapValue(m, key)

		var from Property
		hasSource := false
		if source != nil {
			if name, ok := e.propertyName(key); ok {
				from, hasSource = source.Property(name)
			}
		}
		optional := applyModifier(m.Optional, hasSource && from.Optional)
		readonly := applyModifier(m.Readonly, hasSource && (from.Readonly || sourceReadonly))
		if m.Optional == ModifierRemove && hasSource && from.Optional {
			value = e.removeUndefined(value)
		}

		for _, name := range names {
			if propName, ok := e.propertyName(name); ok {
				props = append(props, Property{Name: propName, Type: value, Optional: optional, Readonly: readonly})
				continue
			}
			switch name {
			case TypeString, TypeNumber, TypeSymbol:
				index = append(index, IndexSignature{Key: name, Value: value, Readonly: readonly})
			case TypeNever:
			default:
				if e.in.primitiveClass(name) == TypeString {
					index = append(index, IndexSignature{Key: TypeString, Value: value, Readonly: readonly})
				}
			}
		}
	}
	return e.in.Object(props, index...)
}

// propertyName is the property a literal key type names
func (e *Evaluator) propertyName(key TypeID) (string, bool) {
	switch s := e.in.shape(key).(type) {
	case Literal:
		if s.LitKind == LitString || s.LitKind == LitNumber {
			return literalText(s), true
		}
	case Enum:
		return e.propertyName(s.Member)
	}
	return "", false
}

func applyModifier(m Modifier, inherited bool) bool {
	switch m {
	case ModifierAdd:
		return true
	case ModifierRemove:
		return false
	}
	return inherited
}

func (e *Evaluator) flattenUnion(id TypeID) []TypeID {
	if id == TypeNever {
		return nil
	}
	if u, ok := e.in.shape(id).(Union); ok {
		return u.Members
	}
	return []TypeID{id}
}

// removeUndefined drops undefined from id, as `-?` does
func (e *Evaluator) removeUndefined(id TypeID) TypeID {
	if id == TypeUndefined {
		return TypeNever
	}
	u, ok := e.in.shape(id).(Union)
	if !ok {
		return id
	}
	kept := make([]TypeID, 0, len(u.Members))
	for _, m := range u.Members {
		if m != TypeUndefined {
			kept = append(kept, m)
		}
	}
	return e.in.Union(kept...)
}
