package normalize

import (
	"strings"

	"intake-backend/internal/textutil"
)

var defaultUnits = []string{"week", "month"}

// DurationValue parses a timeline. A bare number is ambiguous: the options
// offer it in each allowed unit ("3 weeks", "3 months").
func DurationValue(raw string, ctx Context) Result {
	text := strings.TrimSpace(raw)
	if text == "" {
		return invalid(ErrEmpty)
	}
	if spans := textutil.ScanDurations(text); len(spans) > 0 {
		sp := spans[0]
		d := &Duration{Unit: sp.Unit}
		if sp.IsRange {
			d.Min, d.Max = sp.Low, sp.High
		} else {
			d.Value = sp.Low
		}
		return ok(&Value{Type: TypeDuration, Duration: d}, 0.9)
	}
	if date := textutil.FindDate(text); date != "" {
		return ok(&Value{Type: TypeDuration, Duration: &Duration{Label: date, Kind: KindDate}}, 0.8)
	}
	if textutil.FindASAP(text) != "" {
		return ok(&Value{Type: TypeDuration, Duration: &Duration{Label: "ASAP", Kind: KindASAP}}, 0.7)
	}
	if f := textutil.FindFlexibleTimeline(text); f != "" {
		label := "Flexible"
		if lf := strings.ToLower(f); lf == "ongoing" || strings.HasPrefix(lf, "open") {
			label = "Ongoing"
		}
		return ok(&Value{Type: TypeDuration, Duration: &Duration{Flexible: true, Label: label}}, 0.7)
	}
	if num, isNum := textutil.IsBareNumber(text); isNum {
		if n, parsed := textutil.ParseNumber(num); parsed && n > 0 {
			return ambiguous(UnitOptions(n, ctx.AllowedUnits), 0.4)
		}
	}
	return invalid(ErrDurationFormat)
}

// UnitOptions renders n in every allowed unit, defaulting to weeks and months.
func UnitOptions(n float64, allowed []string) []string {
	units := allowed
	if len(units) == 0 {
		units = defaultUnits
	}
	var out []string
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		cu := textutil.CanonicalUnit(u)
		if cu == "" || seen[cu] {
			continue
		}
		seen[cu] = true
		out = append(out, formatNumber(n)+" "+pluralUnit(cu, n))
	}
	return out
}

func pluralUnit(unit string, n float64) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Weeks converts d to a week count for planning. Ranges use the upper bound.
// Label-only and flexible durations report false.
func (d Duration) Weeks() (float64, bool) {
	n := d.Value
	if d.Max > 0 {
		n = d.Max
	}
	if n <= 0 {
		return 0, false
	}
	switch d.Unit {
	case "day":
		return n / 7, true
	case "week":
		return n, true
	case "month":
		return n * 4, true
	case "year":
		return n * 52, true
	}
	return 0, false
}
