package solver

import (
	"strconv"

	"github.com/cottand/tsolve/solver/tserr"
)

func (c *checker) toObject(source TypeID, sShape Shape, target TypeID, t Object) Ternary {
	src, readonly, ok := c.eval.apparentObject(source)
	if !ok {
		return c.fail(tserr.NotAssignable, source, target)
	}
	return c.relateObjects(source, src, readonly, target, t)
}

// relateObjects is width subtyping: every property the target requires must be
// present in the source with a compatible type; extra source properties are fine.
// readonly marks a source seen through a Readonly wrapper.
func (c *checker) relateObjects(source TypeID, s Object, readonly bool, target TypeID, t Object) Ternary {
	result := True
	for _, tp := range t.Props {
		sp, ok := s.Property(tp.Name)
		if !ok {
			if tp.Optional {
				continue
			}
			return c.failAt(tserr.MissingProperty, source, target, tp.Name, -1)
		}
		if sp.Optional && !tp.Optional {
			return c.failAt(tserr.OptionalityMismatch, source, target, tp.Name, -1)
		}
		if readonly && !tp.Readonly {
			return c.failAt(tserr.ReadonlyMismatch, source, target, tp.Name, -1)
		}
		result = result.And(c.check(c.propType(sp), c.propType(tp)))
		if result == False {
			return c.failAt(tserr.PropertyMismatch, source, target, tp.Name, -1)
		}
	}
	for _, ti := range t.Index {
		result = result.And(c.relateIndex(source, s, readonly, target, ti))
		if result == False {
			return False
		}
	}
	if t.Signatures != NoType {
		if s.Signatures == NoType {
			return c.fail(tserr.NotAssignable, source, target)
		}
		result = result.And(c.check(s.Signatures, t.Signatures))
	}
	return result
}

// propType is the type read from p, which includes undefined when p is optional
func (c *checker) propType(p Property) TypeID {
	if p.Optional && c.rel.strictNullChecks && !c.opts.ExactOptionalPropertyTypes {
		return c.in.Union(p.Type, TypeUndefined)
	}
	return p.Type
}

func (c *checker) relateIndex(source TypeID, s Object, readonly bool, target TypeID, ti IndexSignature) Ternary {
	si, ok := s.IndexFor(ti.Key)
	if !ok && ti.Key == TypeNumber {
		si, ok = s.IndexFor(TypeString)
	}
	if ok {
		if (si.Readonly || readonly) && !ti.Readonly {
			return c.fail(tserr.ReadonlyMismatch, source, target)
		}
		if c.check(si.Value, ti.Value) == False {
			return c.fail(tserr.IndexSignatureMismatch, source, target)
		}
		return True
	}
	// declared interfaces and classes have no implicit index signature
	if s.Nominal != 0 {
		if def, ok := c.res.Definition(s.Nominal); ok && def.Kind != DefTypeAlias {
			return c.fail(tserr.IndexSignatureMismatch, source, target)
		}
	}
	result := True
	for _, p := range s.Props {
		if !indexApplies(ti.Key, p.Name) {
			continue
		}
		result = result.And(c.check(c.propType(p), ti.Value))
		if result == False {
			return c.failAt(tserr.IndexSignatureMismatch, source, target, p.Name, -1)
		}
	}
	return result
}

// indexApplies reports whether a property called name is covered by an index signature keyed by key
func indexApplies(key TypeID, name string) bool {
	switch key {
	case TypeString:
		return true
	case TypeNumber:
		return isNumericName(name)
	}
	return false
}

func isNumericName(name string) bool {
	n, err := strconv.ParseFloat(name, 64)
	return err == nil && formatNumber(n) == name
}
