package synth

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is the report language when none is configured.
const DefaultLanguage = "en"

// LanguageName converts a BCP 47 tag such as "ja" or "zh-CN" to an English
// language name for use in prompts. Values that are not valid tags, such as
// "Japanese", are returned unchanged.
func LanguageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	name := display.English.Tags().Name(t)
	if name == "" {
		return tag
	}
	return name
}
