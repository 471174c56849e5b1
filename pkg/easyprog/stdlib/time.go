package stdlib

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// clock is replaced in tests.
var clock = time.Now

func timeBuiltins() []builtin {
	return []builtin{
		{"now", builtinNow},
		{"parse_time", builtinParseTime},
		{"format_time", builtinFormatTime},
	}
}

// builtinNow returns the current Unix time in seconds.
func builtinNow(c *call) (evaluator.Value, error) {
	if err := c.arity(0); err != nil {
		return nil, err
	}
	return integer(clock().Unix()), nil
}

// builtinParseTime accepts most common date layouts and returns Unix
// seconds. Text without a zone is read as UTC.
func builtinParseTime(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	text, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	t, perr := dateparse.ParseIn(strings.TrimSpace(text), time.UTC)
	if perr != nil {
		return nil, c.failErr("VALUE-0004", perr, map[string]any{"Text": text})
	}
	return integer(t.Unix()), nil
}

// builtinFormatTime formats Unix seconds in UTC: format_time(unix, layout[,
// locale]). layout is a Go time layout or one of short, medium, long, full.
func builtinFormatTime(c *call) (evaluator.Value, error) {
	if err := c.arityRange(2, 3); err != nil {
		return nil, err
	}
	unix, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	layout, err := c.strArg(1)
	if err != nil {
		return nil, err
	}
	var locale monday.Locale = monday.LocaleEnUS
	if len(c.args) == 3 {
		name, err := c.strArg(2)
		if err != nil {
			return nil, err
		}
		var ok bool
		if locale, ok = mondayLocale(name); !ok {
			return nil, c.fail("VALUE-0005", map[string]any{"Locale": name})
		}
	}
	if named, ok := styleLayout(layout, locale); ok {
		layout = named
	}
	return str(monday.Format(time.Unix(unix, 0).UTC(), layout, locale)), nil
}

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"sv":    monday.LocaleSvSE,
	"fi":    monday.LocaleFiFI,
	"da":    monday.LocaleDaDK,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"tr":    monday.LocaleTrTR,
	"uk":    monday.LocaleUkUA,
}

// mondayLocale maps "de", "de-AT" or "pt_BR" style names to a locale,
// falling back to the language alone.
func mondayLocale(name string) (monday.Locale, bool) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if loc, ok := mondayLocales[key]; ok {
		return loc, true
	}
	if lang, _, found := strings.Cut(key, "_"); found {
		if loc, ok := mondayLocales[lang]; ok {
			return loc, true
		}
	}
	return "", false
}

func styleLayout(style string, locale monday.Locale) (string, bool) {
	us := locale == monday.LocaleEnUS
	switch style {
	case "short":
		if us {
			return "1/2/06", true
		}
		return "02/01/06", true
	case "medium":
		if us {
			return "Jan 2, 2006", true
		}
		return "2 Jan 2006", true
	case "long":
		if us {
			return "January 2, 2006", true
		}
		return "2 January 2006", true
	case "full":
		if us {
			return "Monday, January 2, 2006", true
		}
		return "Monday, 2 January 2006", true
	}
	return "", false
}
