package textutil

import (
	"regexp"
	"strings"
)

var compositeSplitRe = regexp.MustCompile(`\s*\+\s*|\s+&\s+|\s+with\s+`)

// suggestionParts splits "React.js + Node.js" into its canonical parts.
func suggestionParts(s string) []string {
	var parts []string
	for _, p := range compositeSplitRe.Split(s, -1) {
		if c := Canonicalize(p); c != "" {
			parts = append(parts, c)
		}
	}
	return parts
}

func containsAllTokens(set map[string]struct{}, canonical string) bool {
	toks := strings.Fields(canonical)
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// MatchSuggestions returns the fixed options of a question that msg names,
// in option order. Composite options match when every part is present. When
// one match is contained in another ("React.js" inside "React.js + Node.js")
// only the more specific one is kept.
func MatchSuggestions(msg string, suggestions []string) []string {
	if len(suggestions) == 0 {
		return nil
	}
	whole := Canonicalize(msg)
	if whole == "" {
		return nil
	}
	set := TokenSet(msg)
	type hit struct {
		option string
		tokens map[string]struct{}
	}
	var hits []hit
	for _, opt := range suggestions {
		canon := Canonicalize(opt)
		if canon == "" {
			continue
		}
		matched := canon == whole
		if !matched {
			parts := suggestionParts(opt)
			matched = len(parts) > 0
			for _, p := range parts {
				if !containsAllTokens(set, p) {
					matched = false
					break
				}
			}
		}
		if matched {
			hits = append(hits, hit{option: opt, tokens: TokenSet(opt)})
		}
	}
	var out []string
	for i, h := range hits {
		shadowed := false
		for j, other := range hits {
			if i == j || len(other.tokens) <= len(h.tokens) {
				continue
			}
			if isSubset(h.tokens, other.tokens) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, h.option)
		}
	}
	return out
}

func isSubset(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// IsOtherOption reports whether an option is a catch-all ("Other", "Something else").
func IsOtherOption(opt string) bool {
	c := Canonicalize(opt)
	return c == "other" || strings.HasPrefix(c, "other ") || c == "something else"
}
