package stdlib

import (
	"strings"
	"testing"
)

func TestStringFunctions(t *testing.T) {
	runOutputCases(t, []outputCase{
		{"parse_int", `print(add(parse_int("41"), 1))`, "42"},
		{"parse_int negative", `print(parse_int("-7"))`, "-7"},
		{"str int", `print(concat(str(12), "!"))`, "12!"},
		{"str void", `print(str(print()))`, "<null>"},
		{"concat mixed", `print(concat("a", 1, "b", 2))`, "a1b2"},
		{"concat empty", `print(concat())`, ""},
		{"lf cr", `print(concat(lf(), cr()))`, "\n\r"},
		{"literal backslashes kept", `print("a\nb", "\"q\"")`, `a\nb\"q\"`},
		{"upper", `print(upper("straße"))`, "STRASSE"},
		{"lower", `print(lower("ÀB"))`, "àb"},
		{"upper turkish", `print(upper("i", "tr"))`, "İ"},
		{"format_int", `print(format_int(1234567))`, "1,234,567"},
		{"format_int negative", `print(format_int(-1000))`, "-1,000"},
		{"format_int german", `print(format_int(1234567, "de"))`, "1.234.567"},
	})
}

func TestStringFailures(t *testing.T) {
	runFailureCases(t, []failureCase{
		{"parse_int garbage", `parse_int("12a")`, 1, "cannot parse '12a' as integer"},
		{"parse_int overflow", `parse_int("99999999999999999999")`, 1, "cannot parse '99999999999999999999' as integer"},
		{"parse_int type", `parse_int(12)`, 1, "parse_int: argument 1 must be str, got int"},
		{"bad locale", `format_int(1, "not a locale!")`, 1, "unknown locale 'not a locale!'"},
	})
}

func TestMarkdown(t *testing.T) {
	got := eval(t, `print(markdown(concat("# Title", lf(), lf(), "Some **bold** text.", lf(), lf(), "- [x] done")))`)

	for _, want := range []string{"<h1>Title</h1>", "<strong>bold</strong>", `type="checkbox"`} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown output missing %q:\n%s", want, got)
		}
	}
}
