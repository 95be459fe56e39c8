package intake

import (
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Observe folds one transcript turn into the state. Assistant turns only
// move the pending question; user turns are applied as answers.
func (s *State) Observe(m Message) {
	switch m.Role {
	case RoleAssistant:
		s.observeAssistant(m.Content)
	case RoleUser:
		s.ApplyMessage(m.Content)
		s.PendingQuestionKey = ""
	}
}

func (s *State) observeAssistant(text string) {
	tags := ParseTags(text)
	slot := s.Slots[tags.QuestionKey]
	if slot == nil {
		s.PendingQuestionKey = ""
		return
	}
	s.PendingQuestionKey = tags.QuestionKey
	slot.AskedCount++
	if slot.HasIssue() {
		slot.ClarifiedOnce = true
	}
}

// ApplyMessage applies one user message. Precedence: a pending low-budget
// decision, then a skip of the active question, then a forced parse for the
// active question, then opportunistic capture for every other question,
// then the derived fields.
func (s *State) ApplyMessage(msg string) {
	text := strings.TrimSpace(msg)
	s.Meta.WasQuestion = false
	touched := make(map[string]bool)
	defer s.afterTurn(touched)
	if text == "" {
		return
	}
	if s.Meta.LowBudgetPending && s.resolveLowBudget(text, touched) {
		return
	}
	active, hasActive := s.activeQuestion()
	if hasActive {
		switch {
		case isSkip(text):
			s.skip(active, text)
			touched[active.Key] = true
			return
		case s.shouldForceParse(active, text):
			if s.forceParse(active, text) {
				touched[active.Key] = true
			}
		default:
			s.Meta.WasQuestion = true
		}
	}
	for _, q := range s.Questions {
		if hasActive && q.Key == active.Key {
			continue
		}
		if s.captureOutOfOrder(q, text) {
			touched[q.Key] = true
		}
	}
}

func (s *State) afterTurn(touched map[string]bool) {
	if s.IsWebsiteFlow() {
		budget, hasBudget := s.QuestionByTag(TagBudget)
		if hasBudget && len(touched) > 0 && (touched[budget.Key] || touched["tech"] || touched["features"] || touched["pages"]) {
			s.checkLowBudget(budget.Key)
		}
	}
	s.recompute()
}

// activeQuestion is the question the last assistant turn asked, or the
// first unresolved one.
func (s *State) activeQuestion() (Question, bool) {
	if s.PendingQuestionKey != "" {
		if q, ok := s.Question(s.PendingQuestionKey); ok {
			return q, true
		}
	}
	return s.firstUnresolved()
}

var skipPhrases = map[string]bool{"skip": true, "done": true, "na": true, "n a": true}

func isSkip(text string) bool {
	c := textutil.Canonicalize(text)
	return skipPhrases[c] || strings.Contains(c, "skip")
}

// skip declines an optional question. Required questions cannot be
// declined and become invalid instead. An existing answer is kept.
func (s *State) skip(q Question, text string) {
	slot := s.Slots[q.Key]
	if slot.Status == SlotAnswered {
		return
	}
	if q.IsRequired() {
		slot.reject(text, normalize.ErrRequired)
		return
	}
	slot.decline(text)
}

// shouldForceParse reports whether text is meant as the answer to q. Plain
// statements always are; questions only when they carry a value of q's type
// anyway ("50000?").
func (s *State) shouldForceParse(q Question, text string) bool {
	if !textutil.LooksLikeQuestion(text) {
		return true
	}
	if s.Slots[q.Key].matchOption(text) != "" {
		return true
	}
	short := textutil.WordCount(text) <= 4
	switch {
	case q.HasTag(TagName):
		return textutil.HasExplicitName(text)
	case q.ExpectedType == normalize.TypeMoney:
		return short && textutil.ExtractBudget(text, true) != ""
	case q.ExpectedType == normalize.TypeDuration:
		return short && textutil.ExtractTimeline(text, true) != ""
	case q.ExpectedType == normalize.TypeEnum || q.ExpectedType == normalize.TypeList:
		return short && len(textutil.MatchSuggestions(text, q.Suggestions)) > 0
	}
	return false
}

// forceParse runs q's normalizer over text and records the verdict. A
// failed parse never replaces an existing answer.
func (s *State) forceParse(q Question, text string) bool {
	slot := s.Slots[q.Key]
	if slot.Status == SlotAmbiguous {
		if opt := slot.matchOption(text); opt != "" {
			text = opt
		}
	}
	res := s.parseActive(q, text)
	if res.Status != normalize.StatusOK && slot.Status == SlotAnswered {
		return false
	}
	slot.apply(text, res)
	return true
}

func (s *State) parseActive(q Question, text string) normalize.Result {
	ctx := q.normalizeContext(s.settings.DefaultCurrency)
	switch {
	case q.HasTag(TagName) && q.ExpectedType == normalize.TypeText:
		if name := textutil.ExtractName(text, true); name != "" {
			return textResult(name, 0.9)
		}
		if textutil.IsGreeting(text) {
			return normalize.Result{Status: normalize.StatusInvalid, Error: normalize.ErrGreetingOnly}
		}
		return normalize.Result{Status: normalize.StatusInvalid, Error: normalize.ErrNameFormat}
	case q.HasTag(TagCompany) && q.ExpectedType == normalize.TypeText:
		if org := textutil.ExtractOrganizationName(text, true); org != "" {
			return textResult(org, 0.85)
		}
	case q.ExpectedType == normalize.TypeMoney:
		if frag := textutil.ExtractBudget(text, true); frag != "" {
			text = frag
		}
	case q.ExpectedType == normalize.TypeDuration:
		if frag := textutil.ExtractTimeline(text, true); frag != "" {
			text = frag
		}
	}
	return normalize.Normalize(q.ExpectedType, text, ctx)
}

func textResult(text string, confidence float64) normalize.Result {
	return normalize.Result{
		Status:     normalize.StatusOK,
		Value:      &normalize.Value{Type: normalize.TypeText, Text: text},
		Confidence: confidence,
	}
}

// captureOutOfOrder accepts text as q's answer when q is not the active
// question, but only on strong signals for q's type. Resolved slots are
// only overwritten when text names q's topic explicitly. Failed parses
// are never recorded.
func (s *State) captureOutOfOrder(q Question, text string) bool {
	slot := s.Slots[q.Key]
	if slot.Resolved() && !explicitSignal(q, text) {
		return false
	}
	raw, res, found := s.captureCandidate(q, text)
	if !found || res.Status != normalize.StatusOK {
		return false
	}
	slot.apply(raw, res)
	return true
}

func (s *State) captureCandidate(q Question, text string) (string, normalize.Result, bool) {
	ctx := q.normalizeContext(s.settings.DefaultCurrency)
	switch {
	case q.HasTag(TagName) && q.ExpectedType == normalize.TypeText:
		if name := textutil.ExtractName(text, false); name != "" {
			return name, textResult(name, 0.8), true
		}
	case q.HasTag(TagCompany) && q.ExpectedType == normalize.TypeText:
		if org := textutil.ExtractOrganizationName(text, false); org != "" {
			return org, textResult(org, 0.8), true
		}
	case q.ExpectedType == normalize.TypeMoney:
		if frag := textutil.ExtractBudget(text, false); frag != "" {
			return frag, normalize.MoneyValue(frag, ctx), true
		}
	case q.ExpectedType == normalize.TypeDuration:
		if frag := textutil.ExtractTimeline(text, false); frag != "" {
			return frag, normalize.DurationValue(frag, ctx), true
		}
	case q.ExpectedType == normalize.TypeEnum || q.ExpectedType == normalize.TypeList:
		matches := textutil.MatchSuggestions(text, q.Suggestions)
		if len(matches) == 0 {
			break
		}
		if !textutil.ContainsWord(text, q.Patterns) && !allTech(matches) {
			break
		}
		res := normalize.Normalize(q.ExpectedType, text, ctx)
		if res.Confidence < 0.9 {
			break
		}
		return text, res, true
	case q.HasTag(TagDescription):
		if textutil.LooksLikeProjectBrief(text) {
			return text, normalize.Text(text, ctx), true
		}
	case q.ExpectedType == normalize.TypeNumberRange:
		if clause := textutil.ExtractKeywordClause(text, q.Patterns); clause != "" {
			return clause, normalize.Range(clause, ctx), true
		}
	default:
		if clause := textutil.ExtractKeywordClause(text, q.Patterns); clause != "" {
			return clause, normalize.Text(clause, ctx), true
		}
	}
	return "", normalize.Result{}, false
}

func allTech(options []string) bool {
	for _, o := range options {
		if !textutil.IsTechTerm(o) {
			return false
		}
	}
	return true
}

// explicitSignal reports whether text names q's topic outright, which is
// the only way an out-of-order message may replace an existing answer.
func explicitSignal(q Question, text string) bool {
	switch {
	case q.HasTag(TagName):
		return textutil.HasExplicitName(text)
	case q.HasTag(TagCompany):
		return textutil.HasOrganizationKeyword(text)
	case q.HasTag(TagBudget):
		return textutil.HasBudgetKeyword(text)
	case q.HasTag(TagTimeline):
		return textutil.HasTimelineKeyword(text)
	}
	return len(q.Patterns) > 0 && textutil.ContainsWord(text, q.Patterns)
}
