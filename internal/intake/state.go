package intake

import "intake-backend/internal/normalize"

// SkippedValue is what collectedData shows for a declined question.
const SkippedValue = "[skipped]"

// Meta carries cross-turn flags that do not belong to any one slot.
type Meta struct {
	WasQuestion      bool    `json:"wasQuestion"`
	LowBudgetPending bool    `json:"lowBudgetPending"`
	AllowLowBudget   bool    `json:"allowLowBudget"`
	MinBudget        float64 `json:"minBudget,omitempty"`
}

// State is the conversation folded so far. It is rebuilt from the
// transcript on every request; nothing about it is persisted.
type State struct {
	Service            string            `json:"service"`
	Questions          []Question        `json:"questions"`
	Slots              map[string]*Slot  `json:"slots"`
	CollectedData      map[string]string `json:"collectedData"`
	MissingRequired    []string          `json:"missingRequired"`
	MissingOptional    []string          `json:"missingOptional"`
	CurrentStep        int               `json:"currentStep"`
	PendingQuestionKey string            `json:"pendingQuestionKey,omitempty"`
	Complete           bool              `json:"complete"`
	Meta               Meta              `json:"meta"`

	settings Settings
}

// Settings are the per-engine knobs a state needs while folding.
type Settings struct {
	Locale          string
	DefaultCurrency string
}

// NewState returns the empty state for a resolved service definition.
func NewState(def ServiceDef, settings Settings) *State {
	if settings.DefaultCurrency == "" {
		settings.DefaultCurrency = normalize.DefaultCurrency
	}
	qs := resolveQuestions(def)
	s := &State{
		Service:   def.ID,
		Questions: qs,
		Slots:     make(map[string]*Slot, len(qs)),
		settings:  settings,
	}
	for _, q := range qs {
		s.Slots[q.Key] = newSlot(q.Key)
	}
	s.recompute()
	return s
}

// Question returns the question with key.
func (s *State) Question(key string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionByTag returns the first question tagged tag.
func (s *State) QuestionByTag(tag string) (Question, bool) {
	for _, q := range s.Questions {
		if q.HasTag(tag) {
			return q, true
		}
	}
	return Question{}, false
}

// Slot returns the slot for key, or nil.
func (s *State) Slot(key string) *Slot {
	return s.Slots[key]
}

// IsWebsiteFlow reports whether the service asks for both pages and tech.
func (s *State) IsWebsiteFlow() bool {
	_, hasPages := s.Question("pages")
	_, hasTech := s.Question("tech")
	return hasPages && hasTech
}

// recompute derives collectedData, the missing lists, the current step and
// completion from the slots.
func (s *State) recompute() {
	s.CollectedData = make(map[string]string, len(s.Questions))
	s.MissingRequired = make([]string, 0)
	s.MissingOptional = make([]string, 0)
	s.CurrentStep = len(s.Questions)
	for i, q := range s.Questions {
		slot := s.Slots[q.Key]
		switch slot.Status {
		case SlotAnswered:
			s.CollectedData[q.Key] = slot.Normalized.Display()
		case SlotDeclined:
			s.CollectedData[q.Key] = SkippedValue
		}
		if slot.Resolved() {
			continue
		}
		if s.CurrentStep == len(s.Questions) {
			s.CurrentStep = i
		}
		if q.IsRequired() {
			s.MissingRequired = append(s.MissingRequired, q.Key)
		} else {
			s.MissingOptional = append(s.MissingOptional, q.Key)
		}
	}
	s.Complete = len(s.MissingRequired) == 0 && len(s.MissingOptional) == 0 && !s.Meta.LowBudgetPending
}

// Clone returns a deep copy. Questions are shared configuration and are
// copied by slice only.
func (s *State) Clone() *State {
	out := *s
	out.Questions = append([]Question(nil), s.Questions...)
	out.Slots = make(map[string]*Slot, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v.clone()
	}
	out.CollectedData = make(map[string]string, len(s.CollectedData))
	for k, v := range s.CollectedData {
		out.CollectedData[k] = v
	}
	out.MissingRequired = append(make([]string, 0, len(s.MissingRequired)), s.MissingRequired...)
	out.MissingOptional = append(make([]string, 0, len(s.MissingOptional)), s.MissingOptional...)
	return &out
}

// firstUnresolved returns the earliest question in step order whose slot is
// not resolved.
func (s *State) firstUnresolved() (Question, bool) {
	if s.CurrentStep < len(s.Questions) {
		return s.Questions[s.CurrentStep], true
	}
	return Question{}, false
}

// answerText returns the display value of the first answered question with
// tag, or "".
func (s *State) answerText(tag string) string {
	for _, q := range s.Questions {
		if !q.HasTag(tag) {
			continue
		}
		if slot := s.Slots[q.Key]; slot.Status == SlotAnswered {
			return slot.Normalized.Display()
		}
	}
	return ""
}

// valueOf returns the normalized value of key when answered.
func (s *State) valueOf(key string) *normalize.Value {
	if slot := s.Slots[key]; slot != nil && slot.Status == SlotAnswered {
		return slot.Normalized
	}
	return nil
}
