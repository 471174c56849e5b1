package stdlib

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

func stringBuiltins() []builtin {
	return []builtin{
		{"parse_int", builtinParseInt},
		{"str", builtinStr},
		{"concat", builtinConcat},
		{"lf", constString("\n")},
		{"cr", constString("\r")},
		{"upper", caseMapper(func(t language.Tag) cases.Caser { return cases.Upper(t) })},
		{"lower", caseMapper(func(t language.Tag) cases.Caser { return cases.Lower(t) })},
		{"format_int", builtinFormatInt},
		{"markdown", builtinMarkdown},
	}
}

func builtinParseInt(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	s, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	n, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return nil, c.fail("VALUE-0002", map[string]any{"Text": s})
	}
	return integer(n), nil
}

// builtinStr renders any value the way print would.
func builtinStr(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	return str(evaluator.PrintString(c.args[0])), nil
}

func builtinConcat(c *call) (evaluator.Value, error) {
	var sb strings.Builder
	for _, arg := range c.args {
		sb.WriteString(evaluator.PrintString(arg))
	}
	return str(sb.String()), nil
}

func constString(s string) builtinFunc {
	return func(c *call) (evaluator.Value, error) {
		if err := c.arity(0); err != nil {
			return nil, err
		}
		return str(s), nil
	}
}

// caseMapper builds upper/lower: (text[, locale]).
func caseMapper(caser func(language.Tag) cases.Caser) builtinFunc {
	return func(c *call) (evaluator.Value, error) {
		if err := c.arityRange(1, 2); err != nil {
			return nil, err
		}
		s, err := c.strArg(0)
		if err != nil {
			return nil, err
		}
		tag := language.Und
		if len(c.args) == 2 {
			if tag, err = c.localeArg(1); err != nil {
				return nil, err
			}
		}
		return str(caser(tag).String(s)), nil
	}
}

func (c *call) localeArg(i int) (language.Tag, error) {
	name, err := c.strArg(i)
	if err != nil {
		return language.Und, err
	}
	tag, perr := language.Parse(name)
	if perr != nil {
		return language.Und, c.fail("VALUE-0005", map[string]any{"Locale": name})
	}
	return tag, nil
}

// builtinFormatInt groups digits for a locale, English by default:
// format_int(1234567) is "1,234,567", format_int(1234567, "de") "1.234.567".
func builtinFormatInt(c *call) (evaluator.Value, error) {
	if err := c.arityRange(1, 2); err != nil {
		return nil, err
	}
	n, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	tag := language.English
	if len(c.args) == 2 {
		if tag, err = c.localeArg(1); err != nil {
			return nil, err
		}
	}
	p := message.NewPrinter(tag)
	return str(p.Sprintf("%d", n)), nil
}

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// builtinMarkdown renders GitHub-flavoured markdown to HTML.
func builtinMarkdown(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	src, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &buf); err != nil {
		return nil, c.failErr("VALUE-0007", err, nil)
	}
	return str(buf.String()), nil
}
