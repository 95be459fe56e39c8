package textutil

import "strings"

// techKeywords are canonical tokens that name a technology.
var techKeywords = []string{
	"react", "nextjs", "node", "vue", "angular", "wordpress", "shopify", "webflow", "wix",
	"squarespace", "laravel", "django", "flask", "php", "python", "mern", "mean", "flutter",
	"kotlin", "swift", "firebase", "mongodb", "mysql", "postgres", "tailwind", "typescript",
	"javascript", "html", "css", "threejs", "aws", "supabase", "strapi", "figma",
}

var actionVerbs = []string{
	"build", "create", "develop", "design", "make", "launch", "redesign", "revamp", "rebuild",
	"want", "looking for", "need a", "need an", "set up", "setup", "migrate",
}

var projectNouns = []string{
	"website", "site", "app", "application", "platform", "store", "shop", "portal", "dashboard",
	"landing page", "ecommerce", "marketplace", "logo", "brand", "blog", "saas", "crm", "portfolio",
}

// HasTechKeyword reports whether msg mentions a known technology.
func HasTechKeyword(msg string) bool {
	return ContainsWord(msg, techKeywords)
}

// IsTechTerm reports whether a whole option is a technology name.
func IsTechTerm(opt string) bool {
	for _, p := range suggestionParts(opt) {
		for _, tok := range strings.Fields(p) {
			for _, k := range techKeywords {
				if tok == k {
					return true
				}
			}
		}
	}
	return false
}

// BriefScore counts the project-description signals in msg: a budget, a
// timeline, a technology, an action verb and a project noun each add one.
func BriefScore(msg string) int {
	score := 0
	if ExtractBudget(msg, false) != "" {
		score++
	}
	if ExtractTimeline(msg, false) != "" {
		score++
	}
	if HasTechKeyword(msg) {
		score++
	}
	if ContainsWord(msg, actionVerbs) {
		score++
	}
	if ContainsWord(msg, projectNouns) {
		score++
	}
	return score
}

// LooksLikeProjectBrief reports whether msg describes a whole project in one
// go. Short text needs three signals, long or multi-sentence text two, and
// at least one of them must be an action verb or a project noun.
func LooksLikeProjectBrief(msg string) bool {
	text := StripMarkdown(msg)
	words := WordCount(text)
	if words < 6 || LooksLikeQuestion(text) && words < 12 {
		return false
	}
	if !ContainsWord(text, actionVerbs) && !ContainsWord(text, projectNouns) {
		return false
	}
	threshold := 3
	if words >= 25 || SentenceCount(text) >= 2 {
		threshold = 2
	}
	return BriefScore(text) >= threshold
}
