package solver

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatNumber spells n the way JavaScript's Number#toString does
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// literalText is the string a literal produces when converted to a string
func literalText(l Literal) string {
	switch l.LitKind {
	case LitString, LitBigInt:
		return l.Str
	case LitNumber:
		return formatNumber(l.Num)
	}
	return strconv.FormatBool(l.Bool)
}

// Format renders id in TypeScript syntax. Declarations are shown by id; use
// Universe.Format to show their names.
func (in *Interner) Format(id TypeID) string {
	p := &printer{in: in}
	p.print(id, 0)
	return p.sb.String()
}

// Format renders id in TypeScript syntax, naming declarations and symbols
func (u *Universe) Format(id TypeID) string {
	p := &printer{in: u.Types, defs: u.Defs}
	p.print(id, 0)
	return p.sb.String()
}

// printer precedences: a type printed inside a tighter context is parenthesised
const (
	precUnion = iota
	precIntersection
	precPostfix
)

type printer struct {
	in   *Interner
	defs *DefRegistry
	sb   strings.Builder
}

func (p *printer) write(s string) { p.sb.WriteString(s) }

func (p *printer) parens(open bool, f func()) {
	if open {
		p.write("(")
	}
	f()
	if open {
		p.write(")")
	}
}

func (p *printer) defName(def DefID) string {
	if p.defs != nil {
		if d, ok := p.defs.Definition(def); ok {
			return d.Name
		}
	}
	return fmt.Sprintf("#%d", def)
}

func (p *printer) symbolName(sym SymbolID) string {
	if p.defs != nil {
		if name := p.defs.SymbolName(sym); name != "" {
			return name
		}
	}
	return fmt.Sprintf("$%d", sym)
}

func (p *printer) list(ids []TypeID, sep string, prec int) {
	for i, id := range ids {
		if i > 0 {
			p.write(sep)
		}
		p.print(id, prec)
	}
}

func (p *printer) print(id TypeID, prec int) {
	s, err := p.in.Lookup(id)
	if err != nil {
		p.write(fmt.Sprintf("<invalid %d>", id))
		return
	}
	switch s := s.(type) {
	case Intrinsic:
		p.write(s.Which.String())
	case Literal:
		switch s.LitKind {
		case LitString:
			p.write(strconv.Quote(s.Str))
		case LitBigInt:
			p.write(s.Str + "n")
		default:
			p.write(literalText(s))
		}
	case Union:
		p.parens(prec > precUnion, func() { p.list(s.Members, " | ", precIntersection) })
	case Intersection:
		p.parens(prec > precIntersection, func() { p.list(s.Members, " & ", precPostfix) })
	case Object:
		p.object(s)
	case Array:
		p.print(s.Elem, precPostfix)
		p.write("[]")
	case Tuple:
		p.write("[")
		for i, el := range s.Elems {
			if i > 0 {
				p.write(", ")
			}
			if el.Rest {
				p.write("...")
			}
			if el.Name != "" {
				p.write(el.Name)
				if el.Optional {
					p.write("?")
				}
				p.write(": ")
				p.print(el.Type, precUnion)
				continue
			}
			p.print(el.Type, precPostfix)
			if el.Optional {
				p.write("?")
			}
		}
		p.write("]")
	case Callable:
		if len(s.Signatures) == 1 && !s.Signatures[0].Construct {
			p.parens(prec > precUnion, func() { p.signature(s.Signatures[0], " => ") })
			return
		}
		p.write("{ ")
		for _, sig := range s.Signatures {
			p.signature(sig, ": ")
			p.write("; ")
		}
		p.write("}")
	case TypeParameter:
		p.write(s.Name)
	case Infer:
		p.write("infer " + s.Name)
		if s.Constraint != NoType {
			p.write(" extends ")
			p.print(s.Constraint, precPostfix)
		}
	case Conditional:
		p.parens(prec > precUnion, func() {
			p.print(s.Check, precPostfix)
			p.write(" extends ")
			p.print(s.Extends, precPostfix)
			p.write(" ? ")
			p.print(s.True, precUnion)
			p.write(" : ")
			p.print(s.False, precUnion)
		})
	case Mapped:
		p.mapped(s)
	case IndexedAccess:
		p.print(s.Object, precPostfix)
		p.write("[")
		p.print(s.Index, precUnion)
		p.write("]")
	case KeyOf:
		p.parens(prec > precIntersection, func() {
			p.write("keyof ")
			p.print(s.Inner, precPostfix)
		})
	case TemplateLiteral:
		p.write("`")
		for _, span := range s.Spans {
			if span.IsText() {
				p.write(strings.ReplaceAll(span.Text, "`", "\\`"))
				continue
			}
			p.write("${")
			p.print(span.Type, precUnion)
			p.write("}")
		}
		p.write("`")
	case Enum:
		p.write(p.defName(s.Decl) + "." + s.Name)
	case Lazy:
		p.write(p.defName(s.Def))
	case Readonly:
		p.parens(prec > precIntersection, func() {
			p.write("readonly ")
			p.print(s.Inner, precPostfix)
		})
	case UniqueSymbol:
		p.write("typeof " + p.symbolName(s.Symbol))
	case TypeQuery:
		p.write("typeof " + p.symbolName(s.Symbol))
	case Application:
		p.print(s.Base, precPostfix)
		p.write("<")
		p.list(s.Args, ", ", precUnion)
		p.write(">")
	case StringIntrinsic:
		p.write(s.Op.String() + "<")
		p.print(s.Arg, precUnion)
		p.write(">")
	case BoundParameter:
		p.write(fmt.Sprintf("$%d", s.Index))
	case Recursive:
		p.write(fmt.Sprintf("^%d", s.Index))
	}
}

func (p *printer) object(o Object) {
	if o.Nominal != 0 && p.defs != nil {
		p.write(p.defName(o.Nominal))
		return
	}
	if len(o.Props) == 0 && len(o.Index) == 0 && o.Signatures == NoType {
		p.write("{}")
		return
	}
	p.write("{ ")
	if o.Signatures != NoType {
		if c, ok := p.in.shape(o.Signatures).(Callable); ok {
			for _, sig := range c.Signatures {
				p.signature(sig, ": ")
				p.write("; ")
			}
		}
	}
	for _, idx := range o.Index {
		if idx.Readonly {
			p.write("readonly ")
		}
		p.write("[key: ")
		p.print(idx.Key, precUnion)
		p.write("]: ")
		p.print(idx.Value, precUnion)
		p.write("; ")
	}
	for _, prop := range o.Props {
		if prop.Readonly {
			p.write("readonly ")
		}
		p.write(propertyKey(prop.Name))
		if prop.Optional {
			p.write("?")
		}
		p.write(": ")
		p.print(prop.Type, precUnion)
		p.write("; ")
	}
	p.write("}")
}

func propertyKey(name string) string {
	if name == "" {
		return `""`
	}
	for i, r := range name {
		ident := r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9'
		if !ident {
			if isNumericName(name) {
				return name
			}
			return strconv.Quote(name)
		}
	}
	return name
}

func (p *printer) signature(sig Signature, arrow string) {
	if sig.Construct {
		p.write("new ")
	}
	if len(sig.TypeParams) > 0 {
		p.write("<")
		for i, tp := range sig.TypeParams {
			if i > 0 {
				p.write(", ")
			}
			p.print(tp, precUnion)
			if param, ok := p.in.shape(tp).(TypeParameter); ok && param.Constraint != NoType {
				p.write(" extends ")
				p.print(param.Constraint, precUnion)
			}
		}
		p.write(">")
	}
	p.write("(")
	first := true
	if sig.This != NoType {
		p.write("this: ")
		p.print(sig.This, precUnion)
		first = false
	}
	for i, param := range sig.Params {
		if !first || i > 0 {
			p.write(", ")
		}
		if param.Rest {
			p.write("...")
		}
		name := param.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		p.write(name)
		if param.Optional {
			p.write("?")
		}
		p.write(": ")
		p.print(param.Type, precUnion)
	}
	p.write(")" + arrow)
	switch {
	case sig.Predicate != nil:
		if sig.Predicate.Asserts {
			p.write("asserts ")
		}
		p.write(p.predicateSubject(sig))
		if sig.Predicate.Type != NoType {
			p.write(" is ")
			p.print(sig.Predicate.Type, precUnion)
		}
	case sig.Return == NoType:
		p.write("any")
	default:
		p.print(sig.Return, precUnion)
	}
}

func (p *printer) predicateSubject(sig Signature) string {
	i := sig.Predicate.ParamIndex
	if i < 0 || i >= len(sig.Params) {
		return "this"
	}
	if sig.Params[i].Name == "" {
		return fmt.Sprintf("arg%d", i)
	}
	return sig.Params[i].Name
}

func (p *printer) mapped(m Mapped) {
	p.write("{ ")
	switch m.Readonly {
	case ModifierAdd:
		p.write("readonly ")
	case ModifierRemove:
		p.write("-readonly ")
	}
	p.write("[")
	p.print(m.Param, precUnion)
	p.write(" in ")
	p.print(m.Constraint, precUnion)
	if m.NameType != NoType {
		p.write(" as ")
		p.print(m.NameType, precUnion)
	}
	p.write("]")
	switch m.Optional {
	case ModifierAdd:
		p.write("?")
	case ModifierRemove:
		p.write("-?")
	}
	p.write(": ")
	p.print(m.Template, precUnion)
	p.write("; }")
}
