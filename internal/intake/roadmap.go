package intake

import (
	"fmt"
	"math"
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

var (
	standardPlan = []string{
		"Discovery, sitemap & wireframes",
		"Visual design & content",
		"Development & integrations",
		"Testing, launch & handover",
	}
	storePlan = []string{
		"Discovery & catalogue planning",
		"Storefront & checkout design",
		"Storefront development",
		"Cart, payments & shipping",
		"Order notifications & inventory setup",
		"Testing, launch & handover",
	}
	adminStep = "Admin panel & order management"

	storeKeywords = []string{"ecommerce", "store", "shop", "cart", "checkout", "products", "catalogue", "catalog"}
	adminKeywords = []string{"admin", "cms", "inventory", "back office"}
)

// costSplit is the share of the base amount per work stream.
var costSplit = []struct {
	stream string
	pct    float64
}{
	{"Design & UX", 25},
	{"Development", 45},
	{"Integrations & QA", 20},
	{"Launch & handover", 10},
}

// featureByPage maps page or integration choices to the feature they imply.
var featureByPage = map[string]string{
	"products":     "Product catalogue with categories and search",
	"shop":         "Product catalogue with categories and search",
	"blog":         "Blog with categories and SEO-friendly posts",
	"contact":      "Contact form with email notifications",
	"admin":        "Admin panel to manage content and orders",
	"payments":     "Secure online payments",
	"user":         "Customer accounts and order history",
	"accounts":     "Customer accounts and order history",
	"search":       "Site-wide search",
	"chat":         "Live chat widget",
	"analytics":    "Analytics and conversion tracking",
	"booking":      "Online booking and scheduling",
	"3d":           "Interactive 3D product viewer",
	"ar":           "AR try-on experience",
	"services":     "Service listings with enquiry forms",
	"portfolio":    "Portfolio gallery",
	"testimonials": "Testimonials and reviews",
}

func (s *State) websiteProposal() string {
	req, _ := s.BudgetRequirement()
	corpus := s.answerCorpus()

	summary := section{title: "Project Summary"}
	for _, bt := range briefTags {
		for _, v := range s.valuesByTag(bt.tag) {
			summary.add("- %s: %s", bt.label, v)
		}
	}
	if v := s.valueOf("project_type"); v != nil {
		summary.add("- Website type: %s", v.Display())
	}
	if req.Stack != "" {
		summary.add("- Stack: %s", req.Stack)
	}
	if v := s.valueOf("pages"); v != nil {
		summary.add("- Pages: %s", v.Display())
	}
	if t := s.answerText(TagTimeline); t != "" {
		summary.add("- Timeline: %s", t)
	}
	if m := s.budgetMoney(); m != nil {
		summary.add("- Budget: %s", normalize.FormatMoney(*m))
	}

	features := section{title: "Feature Highlights"}
	for _, f := range s.featureHighlights() {
		features.add("- %s", f)
	}

	milestones := section{title: "Milestones"}
	for i, m := range planMilestones(s.planSteps(corpus), s.timelineWeeks()) {
		milestones.add("%d. %s", i+1, m)
	}

	sections := []section{summary, features, s.assumptions(), milestones, s.costSection(req), nextSteps()}
	return renderDoc("Website Proposal: "+s.serviceTitle(), s.preparedFor(), sections)
}

// answerCorpus joins every answered value for keyword detection.
func (s *State) answerCorpus() string {
	var parts []string
	for _, q := range s.Questions {
		if q.HasTag(TagName) || q.HasTag(TagBudget) {
			continue
		}
		if v := s.valueOf(q.Key); v != nil {
			parts = append(parts, v.Display())
		}
	}
	return strings.Join(parts, " . ")
}

func (s *State) planSteps(corpus string) []string {
	if !textutil.ContainsWord(corpus, storeKeywords) {
		return standardPlan
	}
	steps := append([]string(nil), storePlan...)
	if textutil.ContainsWord(corpus, adminKeywords) {
		steps[4] = adminStep
	}
	return steps
}

// featureHighlights derives features from page and feature selections,
// deduplicated on canonical text.
func (s *State) featureHighlights() []string {
	var out []string
	seen := make(map[string]bool)
	addFeature := func(f string) {
		c := textutil.Canonicalize(f)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, f)
	}
	for _, key := range []string{"pages", "features", "integrations"} {
		v := s.valueOf(key)
		if v == nil {
			continue
		}
		choices := v.Choices
		if len(choices) == 0 && v.Text != "" {
			choices = []string{v.Text}
		}
		for _, c := range choices {
			mapped := ""
			for _, tok := range textutil.Tokens(c) {
				if f, ok := featureByPage[tok]; ok {
					mapped = f
					break
				}
			}
			if mapped != "" {
				addFeature(mapped)
			} else if key != "pages" && !textutil.IsOtherOption(c) {
				addFeature(c)
			}
		}
	}
	return out
}

// timelineWeeks is the planning horizon. Unknown or open-ended timelines
// get one week per step; ASAP is compressed to two weeks.
func (s *State) timelineWeeks() int {
	q, ok := s.QuestionByTag(TagTimeline)
	if !ok {
		return 0
	}
	v := s.valueOf(q.Key)
	if v == nil || v.Duration == nil {
		return 0
	}
	if v.Duration.Kind == normalize.KindASAP {
		return 2
	}
	if w, known := v.Duration.Weeks(); known {
		return int(math.Max(1, math.Ceil(w)))
	}
	return 0
}

// planMilestones sizes steps to weeks. Short timelines merge steps so the
// plan still fits; longer ones give the extra weeks to the build steps.
// weeks <= 0 means one week per step.
func planMilestones(steps []string, weeks int) []string {
	n := len(steps)
	if weeks <= 0 {
		weeks = n
	}
	var out []string
	if weeks < n {
		for w := 0; w < weeks; w++ {
			lo, hi := w*n/weeks, (w+1)*n/weeks
			out = append(out, fmt.Sprintf("Week %d: %s", w+1, strings.Join(steps[lo:hi], " + ")))
		}
		return out
	}
	spans := make([]int, n)
	for i := range spans {
		spans[i] = weeks / n
	}
	for k := 0; k < weeks%n; k++ {
		idx := 0
		if n > 2 {
			idx = 1 + k%(n-2)
		}
		spans[idx]++
	}
	start := 1
	for i, span := range spans {
		end := start + span - 1
		if span == 1 {
			out = append(out, fmt.Sprintf("Week %d: %s", start, steps[i]))
		} else {
			out = append(out, fmt.Sprintf("Weeks %d-%d: %s", start, end, steps[i]))
		}
		start = end + 1
	}
	return out
}

// costSection splits the stated budget, or the estimated minimum when the
// budget is below it or missing, and says which base was used.
func (s *State) costSection(req BudgetRequirement) section {
	base, currency := req.Min, "INR"
	heading := "Indicative Cost Split (based on the estimated minimum of %s)"
	if m := s.budgetMoney(); m != nil && !m.Flexible {
		cur := m.Currency
		if cur == "" {
			cur = normalize.DefaultCurrency
		}
		if cur != "INR" || m.Max >= req.Min {
			base, currency = m.Max, cur
			heading = "Indicative Cost Split (based on your budget of %s)"
		}
	}
	if base <= 0 {
		base = defaultStackMinimum
	}
	sec := section{title: fmt.Sprintf(heading, normalize.FormatAmount(base, currency))}
	for _, c := range costSplit {
		sec.add("- %s: %g%% (%s)", c.stream, c.pct, normalize.FormatAmount(math.Round(base*c.pct/100), currency))
	}
	return sec
}
