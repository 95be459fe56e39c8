package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Display renders v for summaries and proposals.
func (v *Value) Display() string {
	if v == nil {
		return ""
	}
	switch {
	case v.Money != nil:
		return FormatMoney(*v.Money)
	case v.Duration != nil:
		return FormatDuration(*v.Duration)
	case v.Range != nil:
		if v.Range.Min == v.Range.Max {
			return formatNumber(v.Range.Min)
		}
		return formatNumber(v.Range.Min) + "-" + formatNumber(v.Range.Max)
	case len(v.Choices) > 0:
		return strings.Join(v.Choices, ", ")
	}
	return v.Text
}

// FormatMoney renders m as "INR 50,000 - INR 1,00,000", "Up to USD 5,000"
// or "Flexible". A period is appended as "per month".
func FormatMoney(m Money) string {
	if m.Flexible {
		return "Flexible"
	}
	var out string
	switch {
	case m.Min == 0 && m.Max > 0:
		out = "Up to " + FormatAmount(m.Max, m.Currency)
	case m.Min == m.Max:
		out = FormatAmount(m.Max, m.Currency)
	default:
		out = FormatAmount(m.Min, m.Currency) + " - " + FormatAmount(m.Max, m.Currency)
	}
	if m.Period != "" {
		out += " per " + m.Period
	}
	return out
}

// FormatAmount renders a single amount with its currency code. INR uses
// lakh grouping (1,00,000); other currencies group by thousands.
func FormatAmount(v float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	whole := math.Floor(v)
	frac := ""
	if v != whole {
		frac = strconv.FormatFloat(v-whole, 'f', 2, 64)[1:]
	}
	digits := strconv.FormatFloat(whole, 'f', 0, 64)
	if currency == "INR" {
		digits = groupIndian(digits)
	} else {
		digits = groupWestern(digits)
	}
	return currency + " " + digits + frac
}

func groupWestern(d string) string {
	if len(d) <= 3 {
		return d
	}
	var b strings.Builder
	lead := len(d) % 3
	if lead > 0 {
		b.WriteString(d[:lead])
	}
	for i := lead; i < len(d); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d[i : i+3])
	}
	return b.String()
}

func groupIndian(d string) string {
	if len(d) <= 3 {
		return d
	}
	head, tail := d[:len(d)-3], d[len(d)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// FormatDuration renders d as "2 weeks", "2-3 months" or its label.
func FormatDuration(d Duration) string {
	switch {
	case d.Flexible:
		if d.Label != "" {
			return d.Label
		}
		return "Flexible"
	case d.Label != "":
		return d.Label
	case d.Max > 0:
		return formatNumber(d.Min) + "-" + formatNumber(d.Max) + " " + pluralUnit(d.Unit, d.Max)
	case d.Value > 0:
		return formatNumber(d.Value) + " " + pluralUnit(d.Unit, d.Value)
	}
	return ""
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
