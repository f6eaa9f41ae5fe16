package solver

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cottand/tsolve/solver/tserr"
)

func (c *checker) toTemplate(source TypeID, sShape Shape, target TypeID, t TemplateLiteral) Ternary {
	switch s := sShape.(type) {
	case Literal:
		if s.LitKind == LitString && c.matchTemplate(s.Str, t.Spans) {
			return True
		}
	case Enum:
		return c.check(s.Member, target)
	case TemplateLiteral:
		if len(s.Spans) != len(t.Spans) {
			break
		}
		result := True
		for i := range s.Spans {
			ss, ts := s.Spans[i], t.Spans[i]
			switch {
			case ss.IsText() && ts.IsText():
				if ss.Text != ts.Text {
					return c.fail(tserr.NotAssignable, source, target)
				}
			case !ss.IsText() && !ts.IsText():
				result = result.And(c.check(ss.Type, ts.Type))
			default:
				return c.fail(tserr.NotAssignable, source, target)
			}
		}
		if result != False {
			return result
		}
	}
	return c.fail(tserr.NotAssignable, source, target)
}

// matchTemplate reports whether str is an instance of the template spans
func (c *checker) matchTemplate(str string, spans []TemplateSpan) bool {
	if len(spans) == 0 {
		return str == ""
	}
	span := spans[0]
	if span.IsText() {
		return strings.HasPrefix(str, span.Text) && c.matchTemplate(str[len(span.Text):], spans[1:])
	}
	for end := 0; end <= len(str); end++ {
		if end < len(str) && !utf8.RuneStart(str[end]) {
			continue
		}
		if c.placeholderAccepts(span.Type, str[:end]) && c.matchTemplate(str[end:], spans[1:]) {
			return true
		}
	}
	return false
}

// placeholderAccepts reports whether text could be produced by a placeholder of type typ
func (c *checker) placeholderAccepts(typ TypeID, text string) bool {
	typ = c.eval.whnf(typ)
	switch s := c.in.shape(typ).(type) {
	case Intrinsic:
		switch typ {
		case TypeString, TypeAny:
			return true
		case TypeNumber:
			return isNumericText(text)
		case TypeBigInt:
			_, err := strconv.ParseInt(text, 10, 64)
			return err == nil
		case TypeBoolean:
			return text == "true" || text == "false"
		case TypeNull:
			return text == "null"
		case TypeUndefined:
			return text == "undefined"
		}
	case Literal:
		return literalText(s) == text
	case Enum:
		return c.placeholderAccepts(s.Member, text)
	case Union:
		for _, m := range s.Members {
			if c.placeholderAccepts(m, text) {
				return true
			}
		}
	case TemplateLiteral:
		return c.matchTemplate(text, s.Spans)
	case StringIntrinsic:
		return applyStringOp(s.Op, text) == text && c.placeholderAccepts(s.Arg, text)
	}
	return false
}

func isNumericText(text string) bool {
	if text == "" || strings.TrimSpace(text) != text || strings.ContainsAny(text, "nNiI_") {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

func (c *checker) toStringIntrinsic(source TypeID, sShape Shape, target TypeID, t StringIntrinsic) Ternary {
	switch s := sShape.(type) {
	case Literal:
		if s.LitKind == LitString && applyStringOp(t.Op, s.Str) == s.Str {
			return c.check(source, t.Arg)
		}
	case StringIntrinsic:
		if s.Op == t.Op {
			return c.check(s.Arg, t.Arg)
		}
	}
	return c.fail(tserr.NotAssignable, source, target)
}
