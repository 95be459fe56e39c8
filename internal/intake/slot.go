package intake

import (
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

// SlotStatus is where a question's answer stands.
type SlotStatus string

const (
	SlotEmpty     SlotStatus = "empty"
	SlotAnswered  SlotStatus = "answered"
	SlotDeclined  SlotStatus = "declined"
	SlotAmbiguous SlotStatus = "ambiguous"
	SlotInvalid   SlotStatus = "invalid"
)

// Slot holds the answer state of one question.
type Slot struct {
	Key              string                `json:"key"`
	Status           SlotStatus            `json:"status"`
	Raw              string                `json:"raw,omitempty"`
	Normalized       *normalize.Value      `json:"normalized,omitempty"`
	Confidence       float64               `json:"confidence"`
	AskedCount       int                   `json:"askedCount"`
	ClarifiedOnce    bool                  `json:"clarifiedOnce"`
	ValidationErrors []normalize.ErrorCode `json:"validationErrors,omitempty"`
	Options          []string              `json:"options,omitempty"`
}

func newSlot(key string) *Slot {
	return &Slot{Key: key, Status: SlotEmpty}
}

// Resolved reports whether the slot needs no further asking.
func (s *Slot) Resolved() bool {
	return s.Status == SlotAnswered || s.Status == SlotDeclined
}

// HasIssue reports whether the last answer needs clarification.
func (s *Slot) HasIssue() bool {
	return s.Status == SlotAmbiguous || s.Status == SlotInvalid
}

// apply records a normalizer verdict. The slot is answered exactly when the
// verdict carried a value.
func (s *Slot) apply(raw string, res normalize.Result) {
	s.Raw = raw
	s.Options = nil
	s.ValidationErrors = nil
	switch res.Status {
	case normalize.StatusOK:
		s.Status = SlotAnswered
		s.Normalized = res.Value
		s.Confidence = res.Confidence
	case normalize.StatusAmbiguous:
		s.Status = SlotAmbiguous
		s.Normalized = nil
		s.Confidence = res.Confidence
		s.Options = append([]string(nil), res.Options...)
	default:
		s.reject(raw, res.Error)
	}
}

func (s *Slot) reject(raw string, code normalize.ErrorCode) {
	s.Raw = raw
	s.Status = SlotInvalid
	s.Normalized = nil
	s.Confidence = 0
	s.Options = nil
	s.ValidationErrors = []normalize.ErrorCode{code}
}

func (s *Slot) decline(raw string) {
	s.Raw = raw
	s.Status = SlotDeclined
	s.Normalized = nil
	s.Confidence = 1
	s.Options = nil
	s.ValidationErrors = nil
}

// clear returns the slot to empty, keeping its ask history.
func (s *Slot) clear() {
	asked, clarified := s.AskedCount, s.ClarifiedOnce
	*s = Slot{Key: s.Key, Status: SlotEmpty, AskedCount: asked, ClarifiedOnce: clarified}
}

func (s *Slot) clone() *Slot {
	out := *s
	out.Normalized = s.Normalized.Clone()
	out.ValidationErrors = append([]normalize.ErrorCode(nil), s.ValidationErrors...)
	out.Options = append([]string(nil), s.Options...)
	return &out
}

// matchOption picks the disambiguation option msg refers to: a full match
// ("3 weeks") or just the distinguishing last word ("weeks").
func (s *Slot) matchOption(msg string) string {
	if len(s.Options) == 0 {
		return ""
	}
	if m := textutil.MatchSuggestions(msg, s.Options); len(m) == 1 {
		return m[0]
	}
	var found string
	for _, opt := range s.Options {
		f := strings.Fields(opt)
		if len(f) == 0 {
			continue
		}
		last := f[len(f)-1]
		if textutil.ContainsWord(msg, []string{last, strings.TrimSuffix(last, "s")}) {
			if found != "" {
				return ""
			}
			found = opt
		}
	}
	return found
}
