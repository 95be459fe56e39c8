package normalize

import (
	"strings"

	"intake-backend/internal/textutil"
)

// DefaultCurrency is used when neither the answer nor the context names one.
const DefaultCurrency = "INR"

// MoneyValue parses a budget. "under 5k" yields a 0-5000 range, "around
// 50k" and "at least 50k" a single amount, and a wording such as "not sure"
// or "flexible" a flexible budget with no bounds.
func MoneyValue(raw string, ctx Context) Result {
	text := strings.TrimSpace(raw)
	if text == "" {
		return invalid(ErrEmpty)
	}
	spans := textutil.ScanMoney(text)
	if len(spans) == 0 {
		if textutil.IsFlexibleMoney(text) {
			return ok(&Value{Type: TypeMoney, Money: &Money{Flexible: true}}, 0.6)
		}
		return invalid(ErrMoneyFormat)
	}
	sp := spans[0]
	for _, s := range spans {
		if s.Signal {
			sp = s
			break
		}
	}
	if sp.High <= 0 {
		return invalid(ErrMoneyFormat)
	}
	m := &Money{Min: sp.Low, Max: sp.High, Currency: sp.Currency, Period: sp.Period}
	if m.Currency == "" {
		m.Currency = currencyWord(text)
	}
	if m.Currency == "" {
		m.Currency = ctx.DefaultCurrency
	}
	if m.Currency == "" {
		m.Currency = DefaultCurrency
	}
	if sp.Qualifier == textutil.QualifierUnder && !sp.IsRange {
		m.Min = 0
	}
	confidence := 0.7
	if sp.Signal {
		confidence = 0.9
	}
	return ok(&Value{Type: TypeMoney, Money: m}, confidence)
}

func currencyWord(text string) string {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if c := textutil.CurrencyCode(strings.Trim(f, ".,;:!?")); c != "" {
			return c
		}
	}
	return ""
}
