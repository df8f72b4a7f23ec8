package fanout

import (
	"regexp"
	"strings"
)

// Любой {{...}} без вложенных скобок считается плейсхолдером.
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Render replaces every {{ key }} with vars[key]. Unknown or malformed keys
// render empty, so no placeholder survives into the message.
func Render(content string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return vars[strings.ToLower(strings.TrimSpace(key))]
	})
}
