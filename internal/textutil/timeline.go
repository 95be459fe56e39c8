package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// DurationSpan is a "N unit" or "N-M unit" expression.
type DurationSpan struct {
	Start, End int
	Low, High  float64
	IsRange    bool
	Unit       string // day, week, month, year
}

const numberWords = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|couple(?: of)?|few|an?`

var (
	durationRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?|` + numberWords + `)\s*(?:(?:-|–|to)\s*(\d+(?:\.\d+)?|` + numberWords + `)\s*)?(days?|weeks?|wks?|months?|mos?|years?|yrs?)\b`)

	monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	dateRe     = regexp.MustCompile(`(?i)\b(?:by|before|until|till|end of|in)\s+(?:the\s+)?(?:end\s+of\s+)?(?:` + monthNames + `)\b(?:\s+\d{1,2}(?:st|nd|rd|th)?\b)?(?:,?\s+\d{4}\b)?`)
	dayDateRe  = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:` + monthNames + `)\b(?:,?\s+\d{4}\b)?`)
	asapRe     = regexp.MustCompile(`(?i)\b(asap|as soon as possible|urgent(?:ly)?|immediately|right away)\b`)
	flexTimeRe = regexp.MustCompile(`(?i)\b(flexible|no rush|no hurry|no deadline|no fixed deadline|ongoing|open[- ]ended|whenever|not sure)\b`)
	bareNumRe  = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?|` + numberWords + `)\s*[.!?]?\s*$`)

	// phrases that put a duration in the past or make it about age/experience
	durationNoiseRe = regexp.MustCompile(`(?i)^\s*(?:of experience|experience|old|ago|in business)\b`)
	durationLeadRe  = regexp.MustCompile(`(?i)\b(?:in|within|over|next|about|around|approx(?:imately)?|takes?|take|done in|deliver(?:ed)? in|complete(?:d)? in|finish(?:ed)? in)\s*$`)
)

var timelineKeywords = []string{"timeline", "deadline", "time frame", "timeframe", "deliver", "launch", "go live", "go-live", "done", "complete", "finish", "ready", "need it"}

var wordNumbers = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"couple": 2, "couple of": 2, "few": 3,
}

// ParseNumber converts a digit string or number word to a float.
func ParseNumber(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := wordNumbers[s]; ok {
		return v, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CanonicalUnit maps "wks", "months", "yr" to day, week, month or year.
func CanonicalUnit(u string) string {
	u = strings.ToLower(u)
	switch {
	case strings.HasPrefix(u, "d"):
		return "day"
	case strings.HasPrefix(u, "w"):
		return "week"
	case strings.HasPrefix(u, "mo"):
		return "month"
	case strings.HasPrefix(u, "y"):
		return "year"
	}
	return ""
}

// ScanDurations finds "N unit" expressions in s.
func ScanDurations(s string) []DurationSpan {
	var out []DurationSpan
	for _, m := range durationRe.FindAllStringSubmatchIndex(s, -1) {
		lo, ok := ParseNumber(s[m[2]:m[3]])
		if !ok {
			continue
		}
		sp := DurationSpan{Start: m[0], End: m[1], Low: lo, High: lo, Unit: CanonicalUnit(s[m[6]:m[7]])}
		if m[4] >= 0 {
			if hi, ok := ParseNumber(s[m[4]:m[5]]); ok {
				sp.High = hi
				sp.IsRange = hi != lo
			}
		}
		if sp.Low > sp.High {
			sp.Low, sp.High = sp.High, sp.Low
		}
		out = append(out, sp)
	}
	return out
}

// FindDate returns the calendar-style deadline in s ("by March", "15th June").
func FindDate(s string) string {
	if loc := dateRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[0]:loc[1]])
	}
	if loc := dayDateRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[0]:loc[1]])
	}
	return ""
}

// FindASAP returns the urgency phrase in s, if any.
func FindASAP(s string) string {
	return asapRe.FindString(s)
}

// FindFlexibleTimeline returns the open-ended phrase in s, if any.
func FindFlexibleTimeline(s string) string {
	return flexTimeRe.FindString(s)
}

// IsBareNumber reports whether s is only a number, with no unit.
func IsBareNumber(s string) (string, bool) {
	m := bareNumRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasTimelineKeyword reports whether s talks about schedule or deadline.
func HasTimelineKeyword(s string) bool {
	return ContainsAny(strings.ToLower(s), timelineKeywords)
}

// ExtractTimeline returns the timeline expression in msg, or "". Durations
// count only when they are not about age or experience; bare numbers and
// open-ended phrases are only accepted when the timeline question is active
// or the message names a deadline.
func ExtractTimeline(msg string, active bool) string {
	keyword := HasTimelineKeyword(msg)
	for _, sp := range ScanDurations(msg) {
		if durationNoiseRe.MatchString(msg[sp.End:]) {
			continue
		}
		if active || keyword || durationLeadRe.MatchString(msg[:sp.Start]) {
			return strings.TrimSpace(msg[sp.Start:sp.End])
		}
	}
	if d := FindDate(msg); d != "" {
		return d
	}
	if a := FindASAP(msg); a != "" && (active || keyword) {
		return a
	}
	if f := FindFlexibleTimeline(msg); f != "" && (active || keyword) {
		return f
	}
	if active {
		if n, ok := IsBareNumber(msg); ok {
			return n
		}
	}
	return ""
}
