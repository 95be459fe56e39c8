package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	namePatternRe   = regexp.MustCompile(`(?i)\b(?:my name is|my name's|name is|name:|i am|i'm|im|this is|call me|myself)\s+([\p{L}][\p{L}'\-]*(?:\s+[\p{L}][\p{L}'\-]*){0,2})`)
	strongNameRe    = regexp.MustCompile(`(?i)\b(?:my name is|my name's|name is|name:|call me)\s+`)
	orgPatternRe    = regexp.MustCompile(`(?i)\b(?:company(?:'s)?(?: name)? is|company:|organi[sz]ation(?: name)? is|business(?: name)? is|brand(?: name)? is|startup is called|company called|business called|i work (?:at|for)|working (?:at|for)|we are|we're|representing)\s+([\p{L}&][\p{L}&.'\-]*(?:\s+[\p{L}&][\p{L}&.'\-]*){0,3})`)
	introFromRe     = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|im|this is|myself)\s+[\p{L}][\p{L}'\-]*(?:\s+[\p{L}][\p{L}'\-]*)?\s+from\s+([\p{L}&][\p{L}&.'\-]*(?:\s+[\p{L}&][\p{L}&.'\-]*){0,3})`)
	urlOrEmailRe    = regexp.MustCompile(`(?i)(https?://|www\.|\S+@\S+\.\S+)`)
	digitRe         = regexp.MustCompile(`\d`)
	bareNameRe      = regexp.MustCompile(`^[\p{L}][\p{L}'\-.]*(?:\s+[\p{L}][\p{L}'\-.]*){0,2}$`)
	leadingFillerRe = regexp.MustCompile(`(?i)^(?:(?:hi|hello|hey)[,!.]?\s+|(?:it'?s|its)\s+)`)
)

// nameStopWords end a captured name ("Priya and I need..." -> "Priya").
var nameStopWords = map[string]struct{}{
	"and": {}, "from": {}, "with": {}, "here": {}, "i": {}, "my": {}, "we": {}, "our": {}, "budget": {},
	"need": {}, "want": {}, "looking": {}, "the": {}, "a": {}, "an": {}, "of": {}, "at": {}, "for": {},
	"but": {}, "so": {}, "and,": {}, "timeline": {}, "company": {}, "in": {}, "on": {}, "to": {},
}

// nameRejectWords make a capture not a name ("I am looking for...").
var nameRejectWords = map[string]struct{}{
	"looking": {}, "interested": {}, "planning": {}, "trying": {}, "building": {}, "working": {},
	"a": {}, "an": {}, "the": {}, "not": {}, "here": {}, "new": {}, "going": {}, "thinking": {},
	"ready": {}, "fine": {}, "good": {}, "okay": {}, "ok": {}, "sure": {}, "just": {}, "from": {},
	"glad": {}, "happy": {}, "excited": {}, "also": {}, "very": {}, "so": {}, "currently": {},
	"yes": {}, "no": {}, "skip": {}, "none": {}, "na": {}, "done": {}, "thanks": {}, "thank": {},
	"urgent": {}, "important": {}, "great": {}, "awesome": {}, "perfect": {}, "correct": {}, "right": {},
	"what": {}, "it": {}, "about": {}, "based": {}, "located": {}, "my": {}, "our": {}, "for": {},
}

// domainKeywords are service/product words that never form a person's name.
var domainKeywords = []string{
	"app", "apps", "website", "site", "web", "ecommerce", "shop", "store", "logo", "design", "seo",
	"marketing", "platform", "portal", "dashboard", "landing", "page", "pages", "application",
	"mobile", "android", "ios", "software", "blog", "project", "startup", "brand", "branding",
	"content", "video", "react", "nextjs", "wordpress", "shopify", "budget", "timeline",
}

var orgStopWords = map[string]struct{}{
	"and": {}, "we": {}, "i": {}, "my": {}, "our": {}, "with": {}, "need": {}, "want": {},
	"looking": {}, "budget": {}, "timeline": {}, "who": {}, "which": {}, "that": {}, "is": {},
}

func cutAtStopWord(cand string, stops map[string]struct{}) string {
	words := strings.Fields(cand)
	for i, w := range words {
		if _, ok := stops[strings.ToLower(strings.Trim(w, ",.;:!"))]; ok {
			return strings.Join(words[:i], " ")
		}
	}
	return strings.Trim(strings.Join(words, " "), ",.;:! ")
}

func hasDomainKeyword(s string) bool {
	return ContainsWord(s, domainKeywords)
}

func acceptableName(cand string) bool {
	if cand == "" || len([]rune(cand)) < 2 {
		return false
	}
	if digitRe.MatchString(cand) || urlOrEmailRe.MatchString(cand) {
		return false
	}
	first := strings.ToLower(strings.Fields(cand)[0])
	if _, bad := nameRejectWords[first]; bad {
		return false
	}
	if IsGreeting(cand) || hasDomainKeyword(cand) {
		return false
	}
	return true
}

// ExtractName pulls a person's name out of msg. Explicit phrasing such as
// "my name is" is always tried; a bare one-to-three word reply is accepted
// only when allowBare is set (the name question is active). Greetings,
// questions, URLs, emails, digits and service words are rejected.
func ExtractName(msg string, allowBare bool) string {
	text := StripMarkdown(msg)
	if text == "" || urlOrEmailRe.MatchString(text) && !namePatternRe.MatchString(text) {
		return ""
	}
	for _, m := range namePatternRe.FindAllStringSubmatch(text, -1) {
		cand := cutAtStopWord(m[1], nameStopWords)
		if acceptableName(cand) {
			return TitleCase(cand)
		}
	}
	if !allowBare || LooksLikeQuestion(text) {
		return ""
	}
	bare := strings.Trim(leadingFillerRe.ReplaceAllString(text, ""), " .,!")
	if !bareNameRe.MatchString(bare) {
		return ""
	}
	if !acceptableName(bare) {
		return ""
	}
	return TitleCase(bare)
}

// HasExplicitName reports whether msg introduces a name with "my name is"
// style phrasing (not just "I am").
func HasExplicitName(msg string) bool {
	return strongNameRe.MatchString(msg)
}

// ExtractOrganizationName pulls a company or brand name out of msg.
func ExtractOrganizationName(msg string, allowBare bool) string {
	text := StripMarkdown(msg)
	if text == "" {
		return ""
	}
	for _, m := range orgPatternRe.FindAllStringSubmatch(text, -1) {
		cand := cutAtStopWord(m[1], orgStopWords)
		if acceptableOrg(cand) {
			return cand
		}
	}
	// "I'm Priya from Bloom Bakery": only a capitalized name counts.
	if m := introFromRe.FindStringSubmatch(text); m != nil {
		cand := cutAtStopWord(m[1], orgStopWords)
		if acceptableOrg(cand) && unicode.IsUpper([]rune(cand)[0]) {
			return cand
		}
	}
	if !allowBare || LooksLikeQuestion(text) || IsGreeting(text) {
		return ""
	}
	bare := strings.Trim(text, " .,!")
	if WordCount(bare) > 5 || urlOrEmailRe.MatchString(bare) {
		return ""
	}
	if !acceptableOrg(bare) {
		return ""
	}
	return bare
}

func acceptableOrg(cand string) bool {
	if cand == "" || len([]rune(cand)) < 2 {
		return false
	}
	if digitRe.MatchString(cand) || IsGreeting(cand) {
		return false
	}
	first := strings.ToLower(strings.Fields(cand)[0])
	if _, bad := nameRejectWords[first]; bad {
		return false
	}
	return true
}

// HasOrganizationKeyword reports whether msg names its company explicitly.
func HasOrganizationKeyword(msg string) bool {
	return orgPatternRe.MatchString(msg)
}

var clauseCutRe = regexp.MustCompile(`(?i),\s*(?:and\s+)?(?:my\s+|the\s+|our\s+)?(?:budget|timeline|deadline|name|company|tech|stack)\b`)

// ExtractKeywordClause returns the text that follows one of keywords
// ("target audience is students" -> "students"), up to the end of the
// sentence or the next topic.
func ExtractKeywordClause(msg string, keywords []string) string {
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(k) + `\b\s*(?:(?:is|are|would be|will be|includes?|=|:|-)\s+|:\s*)?([^.;!?\n]+)`)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		clause := m[1]
		if loc := clauseCutRe.FindStringIndex(clause); loc != nil {
			clause = clause[:loc[0]]
		}
		clause = strings.Trim(CollapseSpaces(clause), " ,:-")
		if len([]rune(clause)) >= 2 && len([]rune(clause)) <= 200 {
			return clause
		}
	}
	return ""
}
