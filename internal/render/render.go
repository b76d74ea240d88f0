// Package render implements the {{placeholder}} micro-language used in
// template subjects and bodies.
package render

import "regexp"

// Token syntax: {{ key }}, whitespace-tolerant inside the braces,
// case-sensitive key match.
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Resolve substitutes every token whose key exists in vars. Keys absent
// from the bag are left as the literal token: missing data stays visible
// in the output instead of being silently blanked.
func Resolve(text string, vars *Vars) string {
	if vars == nil || vars.Len() == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := vars.Get(key); ok {
			return val.String()
		}
		return match
	})
}

// ExtractPlaceholders returns the deduplicated token keys of text in
// first-seen order, trimmed of surrounding whitespace.
func ExtractPlaceholders(text string) []string {
	seen := make(map[string]bool)
	keys := []string{}
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}
