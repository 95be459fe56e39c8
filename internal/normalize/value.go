// Package normalize turns raw answer text into typed values. Every
// normalizer returns exactly one verdict: ok with a value, ambiguous with
// options to choose from, or invalid with an error code.
package normalize

import (
	"fmt"
	"strings"
)

// ExpectedType is the kind of answer a question expects.
type ExpectedType string

const (
	TypeText        ExpectedType = "text"
	TypeMoney       ExpectedType = "money"
	TypeDuration    ExpectedType = "duration"
	TypeEnum        ExpectedType = "enum"
	TypeList        ExpectedType = "list"
	TypeNumberRange ExpectedType = "number_range"
)

// ParseExpectedType validates a configured type name. Empty means text.
func ParseExpectedType(s string) (ExpectedType, error) {
	switch t := ExpectedType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeText, nil
	case TypeText, TypeMoney, TypeDuration, TypeEnum, TypeList, TypeNumberRange:
		return t, nil
	}
	return "", fmt.Errorf("unknown expected type %q", s)
}

// Status is the verdict of a normalizer.
type Status string

const (
	StatusOK        Status = "ok"
	StatusAmbiguous Status = "ambiguous"
	StatusInvalid   Status = "invalid"
)

// ErrorCode names why an answer was not accepted.
type ErrorCode string

const (
	ErrEmpty          ErrorCode = "empty"
	ErrMoneyFormat    ErrorCode = "money_format"
	ErrDurationFormat ErrorCode = "duration_format"
	ErrNumberFormat   ErrorCode = "number_format"
	ErrEnumMismatch   ErrorCode = "enum_mismatch"
	ErrRequired       ErrorCode = "required"
	ErrGreetingOnly   ErrorCode = "greeting_only"
	ErrNameFormat     ErrorCode = "name_format"
)

// Money is a budget: a range in one currency, or open-ended.
type Money struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency,omitempty"`
	Period   string  `json:"period,omitempty"`
	Flexible bool    `json:"flexible,omitempty"`
}

// Duration is a timeline. Exactly one shape is filled: Min/Max range,
// Value single, Flexible with a Label, or a Label with Kind "date"/"asap".
type Duration struct {
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Flexible bool    `json:"flexible,omitempty"`
	Label    string  `json:"label,omitempty"`
	Kind     string  `json:"kind,omitempty"`
}

// Duration kinds for label-only timelines.
const (
	KindDate = "date"
	KindASAP = "asap"
)

// NumberRange is a numeric answer such as "5-10".
type NumberRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Value is a normalized answer. Type selects which field is set.
type Value struct {
	Type     ExpectedType `json:"type"`
	Text     string       `json:"text,omitempty"`
	Money    *Money       `json:"money,omitempty"`
	Duration *Duration    `json:"duration,omitempty"`
	Choices  []string     `json:"choices,omitempty"`
	Range    *NumberRange `json:"range,omitempty"`
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	out := *v
	if v.Money != nil {
		m := *v.Money
		out.Money = &m
	}
	if v.Duration != nil {
		d := *v.Duration
		out.Duration = &d
	}
	if v.Range != nil {
		r := *v.Range
		out.Range = &r
	}
	out.Choices = append([]string(nil), v.Choices...)
	return &out
}

// Result is the verdict of one normalization attempt.
type Result struct {
	Status     Status
	Value      *Value
	Options    []string
	Confidence float64
	Error      ErrorCode
}

func ok(v *Value, confidence float64) Result {
	return Result{Status: StatusOK, Value: v, Confidence: confidence}
}

func invalid(code ErrorCode) Result {
	return Result{Status: StatusInvalid, Error: code}
}

func ambiguous(options []string, confidence float64) Result {
	return Result{Status: StatusAmbiguous, Options: options, Confidence: confidence}
}

// Context carries the question details a normalizer may need.
type Context struct {
	Suggestions     []string
	AllowedUnits    []string
	MaxSelect       int
	DefaultCurrency string
}

// Normalizer parses raw text for one expected type.
type Normalizer func(raw string, ctx Context) Result

var strategies = map[ExpectedType]Normalizer{
	TypeText:        Text,
	TypeMoney:       MoneyValue,
	TypeDuration:    DurationValue,
	TypeEnum:        Enum,
	TypeList:        List,
	TypeNumberRange: Range,
}

// Normalize dispatches raw to the normalizer for t. Unknown types are
// treated as text.
func Normalize(t ExpectedType, raw string, ctx Context) Result {
	fn, found := strategies[t]
	if !found {
		fn = Text
	}
	return fn(raw, ctx)
}
