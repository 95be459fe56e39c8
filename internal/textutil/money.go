package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// MoneySpan is one money expression found in a message: a single amount or a
// range, with any qualifier ("under"), period ("per month") and currency that
// were written next to it.
type MoneySpan struct {
	Start, End int
	Low, High  float64
	IsRange    bool
	Currency   string
	Qualifier  string
	Period     string
	// Signal is set when the text itself marks the number as money (symbol,
	// code, k/lakh suffix or a nearby budget keyword).
	Signal bool
}

// Money qualifiers.
const (
	QualifierUnder   = "under"
	QualifierAtLeast = "at_least"
	QualifierAround  = "around"
)

var (
	amountRe = regexp.MustCompile(`(?i)(₹|\$|€|£|\b(?:rs|inr|usd|eur|gbp)\b\.?)?\s?\b(\d(?:[\d,]*\d)?(?:\.\d+)?)(?:\s*(k|thousand|lakhs?|lacs?|l|crores?|cr|million|mn|m)\b)?`)

	trailCurrencyRe = regexp.MustCompile(`(?i)^\s*(inr|rupees?|rs|usd|dollars?|bucks|eur|euros?|gbp|pounds?)\b`)
	trailExcludeRe  = regexp.MustCompile(`(?i)^\s*(?:(?:-|–|to)\s*\d+\s*)?(?:days?|weeks?|wks?|months?|mos?|years?|yrs?|hours?|hrs?|pages?|screens?|products?|items?|users?|people|members|employees|sections?|languages?|st|nd|rd|th)\b|^\s*(?:%|percent\b)`)
	periodRe        = regexp.MustCompile(`(?i)^\s*(?:(?:/|per|a|an|every)\s*(month|mo|week|wk|hour|hr|year|yr|annum|day)\b|(monthly|weekly|hourly|yearly|annually|daily)\b)`)
	rangeJoinRe     = regexp.MustCompile(`(?i)^\s*(?:-|–|—|to|and)\s*$`)
	flexibleMoneyRe = regexp.MustCompile(`(?i)\b(flexible|not sure|no idea|negotiable|open|tbd|depends|no fixed budget|no budget)\b`)
)

var budgetKeywords = []string{"budget", "cost", "spend", "price", "pay", "afford", "invest", "quote", "fee", "charge", "rate"}

var currencyByToken = map[string]string{
	"₹": "INR", "rs": "INR", "rs.": "INR", "inr": "INR", "rupee": "INR", "rupees": "INR",
	"$": "USD", "usd": "USD", "dollar": "USD", "dollars": "USD", "bucks": "USD",
	"€": "EUR", "eur": "EUR", "euro": "EUR", "euros": "EUR",
	"£": "GBP", "gbp": "GBP", "pound": "GBP", "pounds": "GBP",
}

var multiplierBySuffix = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"l": 1e5, "lakh": 1e5, "lakhs": 1e5, "lac": 1e5, "lacs": 1e5,
	"cr": 1e7, "crore": 1e7, "crores": 1e7,
	"m": 1e6, "mn": 1e6, "million": 1e6,
}

var qualifierSuffixes = []struct {
	text, kind string
}{
	{"not more than", QualifierUnder}, {"no more than", QualifierUnder}, {"less than", QualifierUnder},
	{"up to", QualifierUnder}, {"upto", QualifierUnder}, {"under", QualifierUnder}, {"below", QualifierUnder},
	{"within", QualifierUnder}, {"maximum", QualifierUnder}, {"max", QualifierUnder}, {"at most", QualifierUnder},
	{"at least", QualifierAtLeast}, {"minimum", QualifierAtLeast}, {"min", QualifierAtLeast},
	{"more than", QualifierAtLeast}, {"above", QualifierAtLeast}, {"over", QualifierAtLeast},
	{"starting from", QualifierAtLeast}, {"starting at", QualifierAtLeast},
	{"approximately", QualifierAround}, {"approx", QualifierAround}, {"around", QualifierAround},
	{"about", QualifierAround}, {"roughly", QualifierAround}, {"~", QualifierAround},
}

type amount struct {
	start, end int
	raw        float64
	mult       float64
	currency   string
}

func (a amount) value() float64 { return a.raw * a.mult }

// CurrencyCode maps a symbol or word to its ISO code, or "".
func CurrencyCode(tok string) string {
	return currencyByToken[strings.ToLower(strings.TrimSpace(tok))]
}

func scanAmounts(s string) []amount {
	var out []amount
	for _, m := range amountRe.FindAllStringSubmatchIndex(s, -1) {
		a := amount{start: m[0], end: m[1], mult: 1}
		if m[2] >= 0 {
			a.currency = CurrencyCode(s[m[2]:m[3]])
		}
		num := strings.ReplaceAll(s[m[4]:m[5]], ",", "")
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		a.raw = v
		if m[6] >= 0 {
			a.mult = multiplierBySuffix[strings.ToLower(s[m[6]:m[7]])]
			if strings.EqualFold(s[m[6]:m[7]], "l") || strings.Contains(strings.ToLower(s[m[6]:m[7]]), "la") || strings.HasPrefix(strings.ToLower(s[m[6]:m[7]]), "cr") {
				if a.currency == "" {
					a.currency = "INR"
				}
			}
		}
		rest := s[a.end:]
		if a.mult == 1 && trailExcludeRe.MatchString(rest) {
			continue
		}
		if tm := trailCurrencyRe.FindStringSubmatchIndex(rest); tm != nil {
			if a.currency == "" {
				a.currency = CurrencyCode(rest[tm[2]:tm[3]])
			}
			a.end += tm[1]
		}
		out = append(out, a)
	}
	return out
}

// ScanMoney finds every money expression in s, joining "X - Y" and
// "between X and Y" pairs into ranges.
func ScanMoney(s string) []MoneySpan {
	amts := scanAmounts(s)
	var spans []MoneySpan
	for i := 0; i < len(amts); i++ {
		lo := amts[i]
		hi := lo
		isRange := false
		if i+1 < len(amts) {
			gap := s[lo.end:amts[i+1].start]
			if rangeJoinRe.MatchString(gap) {
				joinedByAnd := strings.Contains(strings.ToLower(gap), "and")
				if !joinedByAnd || strings.HasSuffix(strings.ToLower(strings.TrimSpace(s[:lo.start])), "between") {
					hi = amts[i+1]
					isRange = true
					i++
				}
			}
		}
		if isRange && lo.mult == 1 && hi.mult > 1 && lo.raw < hi.raw {
			lo.mult = hi.mult
		}
		span := MoneySpan{
			Start:    lo.start,
			End:      hi.end,
			Low:      lo.value(),
			High:     hi.value(),
			IsRange:  isRange,
			Currency: lo.currency,
		}
		if span.Currency == "" {
			span.Currency = hi.currency
		}
		if span.Low > span.High {
			span.Low, span.High = span.High, span.Low
		}
		t := strings.TrimRight(s[:span.Start], " ")
		for _, q := range qualifierSuffixes {
			if len(t) >= len(q.text) && strings.EqualFold(t[len(t)-len(q.text):], q.text) {
				cut := len(t) - len(q.text)
				if cut == 0 || !isWordByte(t[cut-1]) {
					span.Qualifier = q.kind
					span.Start = cut
					break
				}
			}
		}
		if pm := periodRe.FindStringSubmatchIndex(s[span.End:]); pm != nil {
			unit := ""
			if pm[2] >= 0 {
				unit = s[span.End+pm[2] : span.End+pm[3]]
			} else {
				unit = s[span.End+pm[4] : span.End+pm[5]]
			}
			span.Period = normalizePeriod(unit)
			span.End += pm[1]
		}
		window := strings.ToLower(t)
		if len(window) > 40 {
			window = window[len(window)-40:]
		}
		span.Signal = span.Currency != "" || lo.mult > 1 || hi.mult > 1 || ContainsAny(window, budgetKeywords)
		spans = append(spans, span)
	}
	return spans
}

func normalizePeriod(unit string) string {
	switch strings.ToLower(unit) {
	case "month", "mo", "monthly":
		return "month"
	case "week", "wk", "weekly":
		return "week"
	case "hour", "hr", "hourly":
		return "hour"
	case "year", "yr", "annum", "yearly", "annually":
		return "year"
	case "day", "daily":
		return "day"
	}
	return ""
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// IsFlexibleMoney reports whether s says the budget is open or unknown.
func IsFlexibleMoney(s string) bool {
	return flexibleMoneyRe.MatchString(s)
}

// HasBudgetKeyword reports whether s talks about budget or cost.
func HasBudgetKeyword(s string) bool {
	return ContainsAny(strings.ToLower(s), budgetKeywords)
}

// ExtractBudget returns the budget expression in msg, or "". A bare number
// is only accepted when the budget question is the active one.
func ExtractBudget(msg string, active bool) string {
	spans := ScanMoney(msg)
	for _, sp := range spans {
		if sp.Signal {
			return strings.TrimSpace(msg[sp.Start:sp.End])
		}
	}
	if active && len(spans) > 0 {
		return strings.TrimSpace(msg[spans[0].Start:spans[0].End])
	}
	if loc := flexibleMoneyRe.FindStringIndex(msg); loc != nil && (active || HasBudgetKeyword(msg)) {
		return msg[loc[0]:loc[1]]
	}
	return ""
}
