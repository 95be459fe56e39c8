package intake

import (
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

// Low-budget decision chips.
const (
	ChoiceIncreaseBudget = "Increase budget"
	ChoiceContinueBudget = "Continue with current budget"
)

// BudgetTooLow is the ValidateWebsiteBudget verdict for an underfunded scope.
const BudgetTooLow = "too_low"

const (
	defaultStackMinimum = 80000
	immersiveSurcharge  = 150000
)

// stackMinimums are INR starting points per stack. Composite stacks come
// first so "React.js + Node.js" is not priced as plain React.
var stackMinimums = []struct {
	stack string
	min   float64
}{
	{"react node", 150000},
	{"mern", 150000},
	{"nextjs", 175000},
	{"react", 120000},
	{"django", 120000},
	{"laravel", 90000},
	{"webflow", 60000},
	{"shopify", 50000},
	{"wordpress", 40000},
}

var immersiveKeywords = []string{"3d", "ar", "augmented reality", "vr", "virtual reality", "webgl", "threejs", "3d product viewer", "ar try on"}

// BudgetRequirement is the minimum a website scope needs. It is derived on
// demand and never stored.
type BudgetRequirement struct {
	Stack     string
	Min       float64
	Immersive bool
}

// StackMinimum returns the INR starting price for a stack label.
func StackMinimum(stack string) float64 {
	set := textutil.TokenSet(stack)
	for _, m := range stackMinimums {
		all := true
		for _, tok := range strings.Fields(m.stack) {
			if _, ok := set[tok]; !ok {
				all = false
				break
			}
		}
		if all {
			return m.min
		}
	}
	return defaultStackMinimum
}

// BudgetRequirement derives the minimum for the selected stack, adding the
// 3D/AR surcharge when any answer asks for immersive features.
func (s *State) BudgetRequirement() (BudgetRequirement, bool) {
	tech := s.Slots["tech"]
	if tech == nil || !tech.Resolved() {
		return BudgetRequirement{}, false
	}
	req := BudgetRequirement{Min: defaultStackMinimum}
	if tech.Status == SlotAnswered {
		req.Stack = tech.Normalized.Display()
		req.Min = StackMinimum(req.Stack)
	}
	for _, q := range s.Questions {
		if q.HasTag(TagBudget) || q.HasTag(TagName) || q.HasTag(TagCompany) {
			continue
		}
		if v := s.valueOf(q.Key); v != nil && textutil.ContainsWord(v.Display(), immersiveKeywords) {
			req.Immersive = true
			break
		}
	}
	if req.Immersive {
		req.Min += immersiveSurcharge
	}
	return req, true
}

// ValidateWebsiteBudget compares a budget's upper bound with the
// requirement. Flexible budgets and budgets in other currencies pass.
func ValidateWebsiteBudget(m normalize.Money, req BudgetRequirement) (string, bool) {
	if m.Flexible || m.Currency != "" && m.Currency != "INR" {
		return "", true
	}
	if m.Max < req.Min {
		return BudgetTooLow, false
	}
	return "", true
}

func (s *State) checkLowBudget(budgetKey string) {
	s.Meta.LowBudgetPending = false
	v := s.valueOf(budgetKey)
	if v == nil || v.Money == nil {
		return
	}
	req, known := s.BudgetRequirement()
	if !known {
		return
	}
	s.Meta.MinBudget = req.Min
	if s.Meta.AllowLowBudget {
		return
	}
	if _, fits := ValidateWebsiteBudget(*v.Money, req); !fits {
		s.Meta.LowBudgetPending = true
	}
}

var (
	increaseWords = []string{"increase", "raise", "higher", "more budget", "bump", "extend"}
	continueWords = []string{"continue", "proceed", "current budget", "keep", "go ahead", "stick with", "fine as is"}
)

// resolveLowBudget handles the reply to a low-budget warning. It reports
// false when the reply is about something else, leaving the gate pending.
func (s *State) resolveLowBudget(text string, touched map[string]bool) bool {
	budget, ok := s.QuestionByTag(TagBudget)
	if !ok {
		s.Meta.LowBudgetPending = false
		return false
	}
	slot := s.Slots[budget.Key]
	ctx := budget.normalizeContext(s.settings.DefaultCurrency)
	switch {
	case textutil.ContainsWord(text, increaseWords):
		s.Meta.LowBudgetPending = false
		s.Meta.AllowLowBudget = false
		slot.clear()
		if frag := textutil.ExtractBudget(text, false); frag != "" {
			if res := normalize.MoneyValue(frag, ctx); res.Status == normalize.StatusOK {
				slot.apply(frag, res)
			}
		}
		touched[budget.Key] = true
		return true
	case textutil.ContainsWord(text, continueWords):
		s.Meta.LowBudgetPending = false
		s.Meta.AllowLowBudget = true
		return true
	}
	if frag := textutil.ExtractBudget(text, true); frag != "" {
		if res := normalize.MoneyValue(frag, ctx); res.Status == normalize.StatusOK {
			slot.apply(frag, res)
			touched[budget.Key] = true
			return true
		}
	}
	return false
}
