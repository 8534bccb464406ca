// Package destmatch tokenizes STOMP destinations and tests a
// subscription pattern's tokens against a publish destination's tokens
// using the `*` / `**` wildcard rules (§4.2).
package destmatch

import (
	"strings"

	"github.com/samber/lo"
)

const (
	singleWildcard = "*"
	greedyWildcard = "**"
)

// Tokenize splits a destination on '.' and '/', dropping empty tokens,
// so a leading separator leaves no token behind (e.g. "/foo.bar"
// tokenizes to ["foo", "bar"]). Both separators are treated as
// equivalent per §9's resolution of the source's ambiguous
// single-character split.
func Tokenize(destination string) []string {
	return strings.FieldsFunc(destination, func(r rune) bool {
		return r == '.' || r == '/'
	})
}

// Matches reports whether a subscription's tokens match a publish
// destination's tokens per the positional rules in §4.2:
//   - equal segments match
//   - "*" matches exactly one segment
//   - "**" matches the rest of the destination, however many segments
//     remain (including zero)
//   - a subscription longer than the destination (and not ending in
//     "**") never matches
func Matches(subTokens, pubTokens []string) bool {
	for i, sub := range subTokens {
		if sub == greedyWildcard {
			return true
		}
		if i >= len(pubTokens) {
			return false
		}
		if sub == singleWildcard {
			continue
		}
		if sub != pubTokens[i] {
			return false
		}
	}
	return len(subTokens) == len(pubTokens)
}

// MatchesDestination is a convenience wrapper that tokenizes both
// strings before matching.
func MatchesDestination(subPattern, pubDestination string) bool {
	return Matches(Tokenize(subPattern), Tokenize(pubDestination))
}

// EndsGreedy reports whether tokens ends in the "**" wildcard.
func EndsGreedy(tokens []string) bool {
	return lo.LastOrEmpty(tokens) == greedyWildcard
}
