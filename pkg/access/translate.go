package access

import (
	"sort"
	"strings"
)

// Translator formats user-visible messages.
type Translator interface {
	// Translate returns format with its placeholders substituted. A
	// placeholder is an args key prefixed with '%', '!' or '@'.
	Translate(format string, args map[string]string) string
}

// TranslatorFunc is an adapter to allow the use of ordinary functions as
// translators.
type TranslatorFunc func(format string, args map[string]string) string

// Translate calls f(format, args).
func (f TranslatorFunc) Translate(format string, args map[string]string) string {
	return f(format, args)
}

// DefaultTranslator substitutes placeholders and leaves the text as is.
var DefaultTranslator Translator = TranslatorFunc(translate)

func translate(format string, args map[string]string) string {
	if len(args) == 0 {
		return format
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	// Longer keys first so "names" isn't matched as "name" + "s".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*6)
	for _, k := range keys {
		for _, p := range []string{"%", "!", "@"} {
			pairs = append(pairs, p+k, args[k])
		}
	}

	return strings.NewReplacer(pairs...).Replace(format)
}
