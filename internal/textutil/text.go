// Package textutil holds the text heuristics used by the intake engine:
// canonicalization, markdown stripping, alias-aware suggestion matching and
// entity extraction from free-form chat messages. Nothing here guesses; every
// extractor returns an empty result when it is not confident.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// aliasPairs rewrite canonical phrases to one spelling. Order matters:
// longer phrases first so "react js" wins over "react".
var aliasPairs = [][2]string{
	{"e commerce", "ecommerce"},
	{"e com", "ecommerce"},
	{"ecom", "ecommerce"},
	{"online store", "ecommerce store"},
	{"react js", "react"},
	{"reactjs", "react"},
	{"next js", "nextjs"},
	{"node js", "node"},
	{"nodejs", "node"},
	{"vue js", "vue"},
	{"vuejs", "vue"},
	{"angular js", "angular"},
	{"angularjs", "angular"},
	{"word press", "wordpress"},
	{"wp", "wordpress"},
	{"mern stack", "mern"},
	{"ui ux", "uiux"},
	{"three js", "threejs"},
	{"3 d", "3d"},
	{"admin panel", "admin"},
	{"admin dashboard", "admin"},
	{"payment gateway", "payments"},
	{"payment", "payments"},
	{"i os", "ios"},
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdMarkRe   = regexp.MustCompile("(\\*\\*|__|\\*|`+|~~)")
	mdHeadRe   = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdBulletRe = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
)

// FoldAccents removes combining marks so "Crème" and "Creme" compare equal.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Canonicalize case-folds, strips accents and punctuation, collapses
// whitespace and applies the alias table.
func Canonicalize(s string) string {
	out := " " + fold(s) + " "
	for _, p := range aliasPairs {
		from, to := " "+p[0]+" ", " "+p[1]+" "
		for strings.Contains(out, from) {
			out = strings.ReplaceAll(out, from, to)
		}
	}
	return strings.TrimSpace(out)
}

// fold lower-cases, strips accents and turns punctuation into spaces.
func fold(s string) string {
	s = strings.ToLower(FoldAccents(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the canonical token list of s.
func Tokens(s string) []string {
	c := Canonicalize(s)
	if c == "" {
		return nil
	}
	return strings.Fields(c)
}

// TokenSet returns the canonical tokens of s as a set.
func TokenSet(s string) map[string]struct{} {
	toks := Tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// CollapseSpaces trims s and squeezes internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// StripMarkdown removes emphasis, code ticks, headings, list markers and link
// targets, leaving readable plain text.
func StripMarkdown(s string) string {
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdHeadRe.ReplaceAllString(s, "")
	s = mdBulletRe.ReplaceAllString(s, "")
	s = mdMarkRe.ReplaceAllString(s, "")
	return CollapseSpaces(s)
}

// ContainsAny reports whether s contains any of the needles.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether any keyword occurs in s on word boundaries.
// Matching is done on canonical forms, so multi-word keywords work too.
func ContainsWord(s string, keywords []string) bool {
	c := " " + Canonicalize(s) + " "
	for _, k := range keywords {
		ck := Canonicalize(k)
		if ck == "" {
			continue
		}
		if strings.Contains(c, " "+ck+" ") {
			return true
		}
	}
	return false
}

var greetingTokens = map[string]struct{}{
	"hi": {}, "hii": {}, "hiii": {}, "hello": {}, "hey": {}, "heya": {}, "hiya": {}, "yo": {},
	"hola": {}, "namaste": {}, "greetings": {}, "good": {}, "morning": {}, "afternoon": {},
	"evening": {}, "there": {}, "team": {}, "sir": {}, "maam": {}, "all": {}, "folks": {},
}

// IsGreeting reports whether s is only a greeting ("hi", "hello there").
func IsGreeting(s string) bool {
	toks := Tokens(s)
	if len(toks) == 0 {
		return false
	}
	hasGreeting := false
	for _, t := range toks {
		if _, ok := greetingTokens[t]; !ok {
			return false
		}
		switch t {
		case "hi", "hii", "hiii", "hello", "hey", "heya", "hiya", "yo", "hola", "namaste", "greetings", "morning", "afternoon", "evening":
			hasGreeting = true
		}
	}
	return hasGreeting
}

var (
	whWords     = map[string]struct{}{"what": {}, "why": {}, "how": {}, "when": {}, "where": {}, "who": {}, "which": {}, "whats": {}}
	auxWords    = map[string]struct{}{"can": {}, "could": {}, "would": {}, "will": {}, "do": {}, "does": {}, "is": {}, "are": {}, "should": {}, "shall": {}}
	auxSubjects = map[string]struct{}{"you": {}, "i": {}, "we": {}, "it": {}, "there": {}, "this": {}, "that": {}, "u": {}}
)

// LooksLikeQuestion reports whether s reads as a question put to the
// assistant rather than an answer.
func LooksLikeQuestion(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	toks := Tokens(t)
	if len(toks) < 2 {
		return false
	}
	if _, ok := whWords[toks[0]]; ok {
		return true
	}
	if _, ok := auxWords[toks[0]]; ok {
		if _, ok := auxSubjects[toks[1]]; ok {
			return true
		}
	}
	return false
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)

// SentenceCount counts non-empty sentences in s.
func SentenceCount(s string) int {
	n := 0
	for _, part := range sentenceSplitRe.Split(s, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Slug turns a label into a snake_case key.
func Slug(s string) string {
	return strings.ReplaceAll(fold(s), " ", "_")
}
