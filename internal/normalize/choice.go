package normalize

import (
	"regexp"
	"strings"

	"intake-backend/internal/textutil"
)

// Enum keeps the first option named in raw.
func Enum(raw string, ctx Context) Result {
	res := choose(raw, ctx)
	if res.Status == StatusOK && len(res.Value.Choices) > 1 {
		res.Value.Choices = res.Value.Choices[:1]
	}
	if res.Value != nil {
		res.Value.Type = TypeEnum
	}
	return res
}

// List keeps every option named in raw, up to MaxSelect when set.
func List(raw string, ctx Context) Result {
	res := choose(raw, ctx)
	if res.Status == StatusOK && ctx.MaxSelect > 0 && len(res.Value.Choices) > ctx.MaxSelect {
		res.Value.Choices = res.Value.Choices[:ctx.MaxSelect]
	}
	if res.Value != nil {
		res.Value.Type = TypeList
	}
	return res
}

func choose(raw string, ctx Context) Result {
	text := textutil.CollapseSpaces(raw)
	if text == "" {
		return invalid(ErrEmpty)
	}
	if len(ctx.Suggestions) == 0 {
		return Text(raw, ctx)
	}
	if matches := textutil.MatchSuggestions(text, ctx.Suggestions); len(matches) > 0 {
		return ok(&Value{Choices: matches}, 0.9)
	}
	if textutil.IsGreeting(text) {
		return invalid(ErrGreetingOnly)
	}
	for _, s := range ctx.Suggestions {
		if textutil.IsOtherOption(s) {
			return ok(&Value{Choices: []string{text}}, 0.5)
		}
	}
	return invalid(ErrEnumMismatch)
}

// Text accepts any non-empty answer that is more than a greeting.
// Confidence grows with length.
func Text(raw string, _ Context) Result {
	text := textutil.StripMarkdown(raw)
	if text == "" {
		return invalid(ErrEmpty)
	}
	if textutil.IsGreeting(text) {
		return invalid(ErrGreetingOnly)
	}
	words := textutil.WordCount(text)
	if words > 20 {
		words = 20
	}
	return ok(&Value{Type: TypeText, Text: text}, 0.5+float64(words)/40)
}

var (
	numRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)`)
	numPlusRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+`)
	numOneRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Range parses "5-10", "10+" or a single number into a NumberRange.
func Range(raw string, _ Context) Result {
	text := strings.TrimSpace(raw)
	if text == "" {
		return invalid(ErrEmpty)
	}
	if m := numRangeRe.FindStringSubmatch(text); m != nil {
		lo, _ := textutil.ParseNumber(m[1])
		hi, _ := textutil.ParseNumber(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return ok(&Value{Type: TypeNumberRange, Range: &NumberRange{Min: lo, Max: hi}}, 0.9)
	}
	if m := numPlusRe.FindStringSubmatch(text); m != nil {
		n, _ := textutil.ParseNumber(m[1])
		return ok(&Value{Type: TypeNumberRange, Range: &NumberRange{Min: n, Max: n}}, 0.8)
	}
	if m := numOneRe.FindString(text); m != "" {
		n, _ := textutil.ParseNumber(m)
		return ok(&Value{Type: TypeNumberRange, Range: &NumberRange{Min: n, Max: n}}, 0.8)
	}
	if num, isNum := textutil.IsBareNumber(text); isNum {
		if n, parsed := textutil.ParseNumber(num); parsed {
			return ok(&Value{Type: TypeNumberRange, Range: &NumberRange{Min: n, Max: n}}, 0.7)
		}
	}
	return invalid(ErrNumberFormat)
}
