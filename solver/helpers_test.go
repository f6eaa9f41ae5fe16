package solver

func newTestUniverse() *Universe {
	return NewUniverse(DefaultOptions())
}

func prop(name string, typ TypeID) Property {
	return Property{Name: name, Type: typ}
}

func optionalProp(name string, typ TypeID) Property {
	return Property{Name: name, Type: typ, Optional: true}
}

func fn(params []Param, ret TypeID) Signature {
	return Signature{Params: params, Return: ret}
}

func param(name string, typ TypeID) Param {
	return Param{Name: name, Type: typ}
}

// alias registers a type alias whose body is already lowered
func alias(u *Universe, name string, body TypeID, typeParams ...TypeID) TypeID {
	def := u.Defs.Register(Definition{Name: name, Kind: DefTypeAlias, TypeParams: typeParams, Body: body})
	return u.Types.Lazy(def)
}
