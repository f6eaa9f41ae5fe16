package solver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTemplateCrossProduct bounds the number of string literals a template literal
// type expands to, past which it is widened to string
const maxTemplateCrossProduct = 10_000

// evalTemplate inlines literal placeholders and expands finite unions into a union of
// templates. A placeholder of type any makes the whole template string, and one of
// type never makes it never.
func (e *Evaluator) evalTemplate(t TemplateLiteral) TypeID {
	spans := make([]TemplateSpan, len(t.Spans))
	for i, s := range t.Spans {
		spans[i] = s
		if !s.IsText() {
			spans[i].Type = e.Evaluate(s.Type)
		}
	}
	for _, s := range spans {
		if s.Type == TypeAny {
			return TypeString
		}
	}
	for _, s := range spans {
		if !s.IsText() && s.Type == TypeNever {
			return TypeNever
		}
	}

	alternatives := [][]TemplateSpan{{}}
	for _, s := range spans {
		choices := [][]TemplateSpan{{s}}
		if !s.IsText() {
			choices = e.templateChoices(s.Type)
		}
		if len(alternatives)*len(choices) > maxTemplateCrossProduct {
			e.logger.Debug("template literal too large, widening to string", "size", len(alternatives)*len(choices))
			return TypeString
		}
		next := make([][]TemplateSpan, 0, len(alternatives)*len(choices))
		for _, prefix := range alternatives {
			for _, choice := range choices {
				next = append(next, append(append([]TemplateSpan(nil), prefix...), choice...))
			}
		}
		alternatives = next
	}
	results := make([]TypeID, len(alternatives))
	for i, alt := range alternatives {
		results[i] = e.in.TemplateLiteral(alt...)
	}
	return e.in.Union(results...)
}

// templateChoices lists the span sequences a placeholder of type typ can stand for
func (e *Evaluator) templateChoices(typ TypeID) [][]TemplateSpan {
	switch s := e.in.shape(typ).(type) {
	case Literal:
		return [][]TemplateSpan{{{Text: literalText(s)}}}
	case Enum:
		return e.templateChoices(s.Member)
	case Union:
		var out [][]TemplateSpan
		for _, m := range s.Members {
			out = append(out, e.templateChoices(m)...)
		}
		return out
	case TemplateLiteral:
		return [][]TemplateSpan{s.Spans}
	case Intrinsic:
		switch typ {
		case TypeBoolean:
			return [][]TemplateSpan{{{Text: "true"}}, {{Text: "false"}}}
		case TypeNull:
			return [][]TemplateSpan{{{Text: "null"}}}
		case TypeUndefined:
			return [][]TemplateSpan{{{Text: "undefined"}}}
		}
	}
	return [][]TemplateSpan{{{Type: typ}}}
}

// evalStringIntrinsic applies Uppercase, Lowercase, Capitalize or Uncapitalize
func (e *Evaluator) evalStringIntrinsic(id TypeID, s StringIntrinsic) TypeID {
	arg := e.Evaluate(s.Arg)
	switch a := e.in.shape(arg).(type) {
	case Union:
		results := make([]TypeID, len(a.Members))
		for i, m := range a.Members {
			results[i] = e.Evaluate(e.in.Intern(StringIntrinsic{Op: s.Op, Arg: m}))
		}
		return e.in.Union(results...)
	case Literal:
		if a.LitKind == LitString {
			return e.in.StringLiteral(applyStringOp(s.Op, a.Str))
		}
		return TypeNever
	case Enum:
		return e.Evaluate(e.in.Intern(StringIntrinsic{Op: s.Op, Arg: a.Member}))
	case Intrinsic:
		switch arg {
		case TypeAny, TypeNever, TypeError:
			return arg
		}
	case TemplateLiteral:
		return e.mapTemplateSpans(s.Op, a)
	}
	if arg == s.Arg {
		return id
	}
	return e.in.Intern(StringIntrinsic{Op: s.Op, Arg: arg})
}

// mapTemplateSpans pushes a string operation into the spans of a template.
// Capitalize and Uncapitalize only touch the first span.
func (e *Evaluator) mapTemplateSpans(op StringOp, t TemplateLiteral) TypeID {
	spans := make([]TemplateSpan, len(t.Spans))
	for i, s := range t.Spans {
		spans[i] = s
		if i > 0 && (op == Capitalize || op == Uncapitalize) {
			continue
		}
		if s.IsText() {
			spans[i].Text = applyStringOp(op, s.Text)
		} else {
			spans[i].Type = e.in.Intern(StringIntrinsic{Op: op, Arg: s.Type})
		}
	}
	return e.in.TemplateLiteral(spans...)
}

func applyStringOp(op StringOp, s string) string {
	switch op {
	case Uppercase:
		return strings.ToUpper(s)
	case Lowercase:
		return strings.ToLower(s)
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	if op == Capitalize {
		r = unicode.ToUpper(r)
	} else {
		r = unicode.ToLower(r)
	}
	return string(r) + s[size:]
}
