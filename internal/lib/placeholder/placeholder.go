// Package placeholder implements the literal {{key}} substitution used for
// reminder emails. The engine is deliberately dumb: no conditionals, no
// escaping, just find/replace, so a rendered mail is a pure function of the
// template text and the value map and stays auditable after the fact.
package placeholder

import (
	"regexp"
)

var tokenRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render replaces every {{key}} token in text with values[key]. Tokens with
// no matching key are replaced with the empty string, never left in place.
func Render(text string, values map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(token string) string {
		key := tokenRe.FindStringSubmatch(token)[1]
		return values[key]
	})
}

// Keys lists the distinct placeholder keys referenced by text, in order of
// first appearance.
func Keys(text string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
