package intake

import (
	"fmt"
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

// GenerateProposal renders the proposal for s wrapped in the proposal
// markers. It can be called on any state; sections without data are left
// out.
func GenerateProposal(s *State) string {
	return wrapProposal(s.proposalBody())
}

func (s *State) proposalBody() string {
	if s.IsWebsiteFlow() {
		return s.websiteProposal()
	}
	return s.genericProposal()
}

type section struct {
	title string
	lines []string
}

func (sec *section) add(format string, args ...any) {
	sec.lines = append(sec.lines, fmt.Sprintf(format, args...))
}

func renderDoc(title, preparedFor string, sections []section) string {
	var b strings.Builder
	b.WriteString("# " + title + "\n")
	if preparedFor != "" {
		b.WriteString("Prepared for: " + preparedFor + "\n")
	}
	for _, sec := range sections {
		if len(sec.lines) == 0 {
			continue
		}
		b.WriteString("\n## " + sec.title + "\n")
		for _, l := range sec.lines {
			b.WriteString(l + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *State) preparedFor() string {
	name := s.answerText(TagName)
	company := s.answerText(TagCompany)
	switch {
	case name != "" && company != "":
		return name + " (" + company + ")"
	case name != "":
		return name
	}
	return company
}

func (s *State) serviceTitle() string {
	if s.Service == "" {
		return "Project"
	}
	return textutil.TitleCase(strings.NewReplacer("-", " ", "_", " ").Replace(s.Service))
}

func label(key string) string {
	return textutil.TitleCase(strings.ReplaceAll(key, "_", " "))
}

// briefTags are rendered under Confirmed Brief in this order.
var briefTags = []struct {
	tag, label string
}{
	{TagGoal, "Goal"},
	{TagAudience, "Audience"},
	{TagDescription, "Summary"},
}

var scopeTags = []string{TagDeliverables, TagPlatforms, TagStyle, TagServiceType}

// skipTags never show up as free-form requirements.
var skipTags = []string{TagName, TagCompany, TagBudget, TagTimeline, TagGoal, TagAudience, TagDescription, TagDeliverables, TagPlatforms, TagStyle, TagServiceType}

func (s *State) genericProposal() string {
	brief := section{title: "Confirmed Brief"}
	for _, bt := range briefTags {
		for _, v := range s.valuesByTag(bt.tag) {
			brief.add("- %s: %s", bt.label, v)
		}
	}
	for _, q := range s.Questions {
		if hasAnyTag(q, skipTags) {
			continue
		}
		if v := s.valueOf(q.Key); v != nil {
			brief.add("- %s: %s", label(q.Key), v.Display())
		}
	}

	scope := section{title: "Scope & Deliverables"}
	for _, tag := range scopeTags {
		for _, q := range s.Questions {
			if !q.HasTag(tag) {
				continue
			}
			v := s.valueOf(q.Key)
			if v == nil {
				continue
			}
			if len(v.Choices) > 1 {
				for _, c := range v.Choices {
					scope.add("- %s", c)
				}
				continue
			}
			scope.add("- %s: %s", label(q.Key), v.Display())
		}
	}

	timeline := section{title: "Timeline"}
	if t := s.answerText(TagTimeline); t != "" {
		timeline.add("- Target: %s", t)
	}

	budget := section{title: "Budget"}
	if m := s.budgetMoney(); m != nil {
		budget.add("- %s", normalize.FormatMoney(*m))
	}

	sections := []section{brief, s.assumptions(), scope, timeline, budget, nextSteps()}
	return renderDoc("Project Proposal: "+s.serviceTitle(), s.preparedFor(), sections)
}

// assumptions lists what the team will assume for open-ended or skipped
// budget and timeline answers.
func (s *State) assumptions() section {
	sec := section{title: "Assumptions"}
	if q, ok := s.QuestionByTag(TagBudget); ok {
		slot := s.Slots[q.Key]
		switch {
		case slot.Status == SlotDeclined:
			sec.add("- No budget was shared; the team will suggest packages at a few price points.")
		case slot.Status == SlotAnswered && slot.Normalized.Money != nil && slot.Normalized.Money.Flexible:
			sec.add("- The budget is flexible; the team will suggest packages at a few price points.")
		}
	}
	if q, ok := s.QuestionByTag(TagTimeline); ok {
		slot := s.Slots[q.Key]
		switch {
		case slot.Status == SlotDeclined:
			sec.add("- No deadline was shared; the schedule will be agreed at kickoff.")
		case slot.Status == SlotAnswered && slot.Normalized.Duration != nil && slot.Normalized.Duration.Flexible:
			sec.add("- The timeline is flexible; the schedule will be agreed at kickoff.")
		}
	}
	return sec
}

func nextSteps() section {
	sec := section{title: "Next Steps"}
	sec.add("1. Review this summary and reply with any corrections.")
	sec.add("2. Our team will reach out within one business day to schedule a short call.")
	sec.add("3. You'll receive a detailed quote and schedule once the scope is confirmed.")
	return sec
}

func (s *State) valuesByTag(tag string) []string {
	var out []string
	for _, q := range s.Questions {
		if !q.HasTag(tag) {
			continue
		}
		if v := s.valueOf(q.Key); v != nil {
			out = append(out, v.Display())
		}
	}
	return out
}

// budgetMoney is the typed budget value, rendered from the normalized
// value rather than the raw text.
func (s *State) budgetMoney() *normalize.Money {
	q, ok := s.QuestionByTag(TagBudget)
	if !ok {
		return nil
	}
	if v := s.valueOf(q.Key); v != nil && v.Money != nil {
		return v.Money
	}
	return nil
}

func hasAnyTag(q Question, tags []string) bool {
	for _, t := range tags {
		if q.HasTag(t) {
			return true
		}
	}
	return false
}
