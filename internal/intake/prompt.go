package intake

import (
	"regexp"
	"strings"
	"unicode"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

const (
	quickCheckPrefix = "Quick check: "
	specificHint     = "Could you be a little more specific?"
	questionAck      = "Good question! I'll make sure the team covers that when they review your brief."
)

var hintByError = map[normalize.ErrorCode]string{
	normalize.ErrMoneyFormat:    "An amount or a range works best, for example ₹50,000 - ₹1,00,000.",
	normalize.ErrDurationFormat: "A rough duration works best, for example 3 weeks or 2-3 months.",
	normalize.ErrNumberFormat:   "A number or range works best, for example 5-10.",
	normalize.ErrEnumMismatch:   "Please pick one of the options below.",
	normalize.ErrGreetingOnly:   "Hello to you too!",
	normalize.ErrNameFormat:     "Just your first name is fine.",
}

var fallbackMoneyChoices = map[string][]string{
	"INR": {"Under ₹50,000", "₹50,000 - ₹1,00,000", "₹1,00,000 - ₹3,00,000", "Above ₹3,00,000", "Not sure yet"},
	"USD": {"Under $1,000", "$1,000 - $5,000", "$5,000 - $10,000", "Above $10,000", "Not sure yet"},
	"EUR": {"Under €1,000", "€1,000 - €5,000", "€5,000 - €10,000", "Above €10,000", "Not sure yet"},
	"GBP": {"Under £1,000", "£1,000 - £5,000", "£5,000 - £10,000", "Above £10,000", "Not sure yet"},
}

var fallbackDurationChoices = []string{"2 weeks", "1 month", "2-3 months", "Flexible"}

// NextReply decides the next assistant turn: the low-budget warning while
// that decision is pending, the proposal once complete, else the next
// question.
func (s *State) NextReply() Reply {
	if s.Meta.LowBudgetPending {
		return s.lowBudgetReply()
	}
	if s.Complete {
		return s.proposalReply()
	}
	q, ok := s.nextQuestion()
	if !ok {
		return s.proposalReply()
	}
	r := s.questionReply(q)
	if s.Meta.WasQuestion {
		r.Text = questionAck + " " + r.Text
	}
	return r
}

// nextQuestion picks a required question needing clarification first,
// then the first unanswered question in order, then an optional question
// needing clarification.
func (s *State) nextQuestion() (Question, bool) {
	for _, q := range s.Questions {
		if slot := s.Slots[q.Key]; q.IsRequired() && slot.HasIssue() {
			return q, true
		}
	}
	for _, q := range s.Questions {
		if s.Slots[q.Key].Status == SlotEmpty {
			return q, true
		}
	}
	for _, q := range s.Questions {
		if s.Slots[q.Key].HasIssue() {
			return q, true
		}
	}
	return Question{}, false
}

func (s *State) questionReply(q Question) Reply {
	slot := s.Slots[q.Key]
	prompt := s.substitute(q.Prompt(s.settings.Locale, slot.AskedCount))
	r := Reply{
		QuestionKey: q.Key,
		Suggestions: q.Suggestions,
		MultiSelect: q.MultiSelect,
		MaxSelect:   q.MaxSelect,
	}
	switch {
	case slot.Status == SlotAmbiguous:
		r.Text = "Just to confirm, did you mean " + strings.Join(slot.Options, " or ") + "?"
		r.Suggestions = slot.Options
		r.MultiSelect, r.MaxSelect = false, 0
	case slot.Status == SlotInvalid && hasError(slot, normalize.ErrRequired) && !slot.ClarifiedOnce:
		r.Text = "This one is needed to put your proposal together, so I can't skip it. " + prompt
	case slot.Status == SlotInvalid && !slot.ClarifiedOnce:
		r.Text = prompt + " " + hintFor(slot)
	case slot.Status == SlotInvalid:
		choices := forcedChoices(q, s.settings.DefaultCurrency)
		if len(choices) == 0 {
			r.Text = prompt + " " + specificHint
			if len(q.Examples) > 0 {
				r.Text += " For example: " + q.Examples[0]
			}
			break
		}
		r.Text = "Let's keep it simple. Which of these is closest? " + prompt
		r.Suggestions = choices
	case slot.AskedCount > 0:
		r.Text = quickCheckPrefix + prompt
	default:
		r.Text = prompt
	}
	return r
}

func hasError(slot *Slot, code normalize.ErrorCode) bool {
	for _, e := range slot.ValidationErrors {
		if e == code {
			return true
		}
	}
	return false
}

func hintFor(slot *Slot) string {
	for _, e := range slot.ValidationErrors {
		if h, ok := hintByError[e]; ok {
			return specificHint + " " + h
		}
	}
	return specificHint
}

// forcedChoices is the closed option list offered on a second failed
// attempt: the question's own suggestions, or stock ranges for money and
// duration questions.
func forcedChoices(q Question, currency string) []string {
	if len(q.Suggestions) > 0 {
		return q.Suggestions
	}
	switch q.ExpectedType {
	case normalize.TypeMoney:
		if c, ok := fallbackMoneyChoices[currency]; ok {
			return c
		}
		return fallbackMoneyChoices[normalize.DefaultCurrency]
	case normalize.TypeDuration:
		return fallbackDurationChoices
	}
	return nil
}

func (s *State) lowBudgetReply() Reply {
	budget, _ := s.QuestionByTag(TagBudget)
	stated := s.CollectedData[budget.Key]
	req, _ := s.BudgetRequirement()
	stack := req.Stack
	if stack == "" {
		stack = "this"
	}
	text := "Heads up: a " + stack + " build with this scope usually starts around " +
		normalize.FormatAmount(req.Min, "INR") + ", and your budget of " + stated +
		" is below that. Would you like to increase the budget, or continue with the current one and we'll suggest a trimmed scope?"
	return Reply{
		Text:        text,
		QuestionKey: budget.Key,
		Suggestions: []string{ChoiceIncreaseBudget, ChoiceContinueBudget},
		LowBudget:   true,
	}
}

func (s *State) proposalReply() Reply {
	text := "Thanks! Here's a summary of everything you've shared. Our team will review it and get back to you shortly."
	if name := s.firstName(); name != "" {
		text = "Thanks, " + name + "! Here's a summary of everything you've shared. Our team will review it and get back to you shortly."
	}
	return Reply{Text: text, Proposal: s.proposalBody(), Done: true}
}

var (
	leadingNameRe = regexp.MustCompile(`^\s*\{name\}[\s,.!:;]*`)
	namePlaceRe   = regexp.MustCompile(`[ \t]*,?[ \t]*\{name\}`)
	techPlaceRe   = regexp.MustCompile(`\{tech\}`)
	minPlaceRe    = regexp.MustCompile(`\{min_budget\}`)
)

// substitute fills {name}, {tech} and {min_budget}. An unknown name is
// dropped together with the comma and spaces around it.
func (s *State) substitute(tpl string) string {
	if name := s.firstName(); name != "" {
		tpl = strings.ReplaceAll(tpl, "{name}", name)
	} else {
		if leadingNameRe.MatchString(tpl) {
			tpl = upperFirst(leadingNameRe.ReplaceAllString(tpl, ""))
		}
		tpl = namePlaceRe.ReplaceAllString(tpl, "")
	}
	tech := "project"
	if v := s.valueOf("tech"); v != nil && textutil.Canonicalize(v.Display()) != "not sure" {
		tech = v.Display()
	}
	tpl = techPlaceRe.ReplaceAllString(tpl, tech)
	if strings.Contains(tpl, "{min_budget}") {
		floor := s.Meta.MinBudget
		if req, ok := s.BudgetRequirement(); ok {
			floor = req.Min
		}
		tpl = minPlaceRe.ReplaceAllString(tpl, normalize.FormatAmount(floor, "INR"))
	}
	return textutil.CollapseSpaces(tpl)
}

func (s *State) firstName() string {
	name := s.answerText(TagName)
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return ""
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
