package signup

import (
	"fmt"
	"strings"
)

// PassthroughTranslator is the default Translator: it performs no lookup
// and only interpolates {name} placeholders from vars.
type PassthroughTranslator struct{}

// Translate implements Translator.
func (PassthroughTranslator) Translate(text, _ string, vars map[string]any) string {
	return Interpolate(text, vars)
}

// Interpolate replaces every {name} placeholder in text with the matching
// value from vars. Unknown placeholders are left untouched so missing
// variables are visible instead of silently dropped.
func Interpolate(text string, vars map[string]any) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", fmt.Sprintf("%v", value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
