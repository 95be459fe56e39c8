// Package intake is the conversation-state engine: it folds a chat
// transcript into per-question slots, decides what to ask next and renders
// the proposal once every question is resolved.
package intake

import (
	"fmt"
	"strings"

	"intake-backend/internal/normalize"
	"intake-backend/internal/textutil"
)

// Semantic tags a question can carry.
const (
	TagName         = "name"
	TagCompany      = "company"
	TagBudget       = "budget"
	TagTimeline     = "timeline"
	TagGoal         = "goal"
	TagAudience     = "audience"
	TagDescription  = "description"
	TagDeliverables = "deliverables"
	TagPlatforms    = "platforms"
	TagStyle        = "style"
	TagNotes        = "notes"
	TagServiceType  = "service_type"
)

// Question is one entry of a service's question list. It is configuration
// and is never mutated once a registry is built.
type Question struct {
	Key          string                 `yaml:"key" json:"key"`
	Patterns     []string               `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Templates    []string               `yaml:"templates" json:"templates"`
	Localized    map[string][]string    `yaml:"localized,omitempty" json:"localized,omitempty"`
	Suggestions  []string               `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
	MultiSelect  bool                   `yaml:"multiSelect,omitempty" json:"multiSelect,omitempty"`
	MaxSelect    int                    `yaml:"maxSelect,omitempty" json:"maxSelect,omitempty"`
	ExpectedType normalize.ExpectedType `yaml:"expectedType,omitempty" json:"expectedType"`
	Required     *bool                  `yaml:"required,omitempty" json:"required"`
	Tags         []string               `yaml:"tags,omitempty" json:"tags,omitempty"`
	NextID       string                 `yaml:"nextId,omitempty" json:"nextId,omitempty"`
	Examples     []string               `yaml:"examples,omitempty" json:"examples,omitempty"`
	AllowedUnits []string               `yaml:"allowedUnits,omitempty" json:"allowedUnits,omitempty"`
}

// HasTag reports whether q carries tag.
func (q Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsRequired reports whether q must be answered. Prepared questions always
// have Required set; unprepared ones fall back to inference.
func (q Question) IsRequired() bool {
	if q.Required != nil {
		return *q.Required
	}
	return inferRequired(q)
}

func inferRequired(q Question) bool {
	for _, t := range []string{TagName, TagBudget, TagTimeline, TagDescription, TagServiceType} {
		if q.HasTag(t) {
			return true
		}
	}
	return false
}

// Prompt returns the template for locale. variant rotates through the
// available templates so a re-ask does not read identically.
func (q Question) Prompt(locale string, variant int) string {
	templates := q.Templates
	if loc, ok := q.Localized[locale]; ok && len(loc) > 0 {
		templates = loc
	}
	if len(templates) == 0 {
		return fmt.Sprintf("Could you share your %s?", strings.ReplaceAll(q.Key, "_", " "))
	}
	if variant < 0 {
		variant = 0
	}
	return templates[variant%len(templates)]
}

func (q Question) normalizeContext(currency string) normalize.Context {
	return normalize.Context{
		Suggestions:     q.Suggestions,
		AllowedUnits:    q.AllowedUnits,
		MaxSelect:       q.MaxSelect,
		DefaultCurrency: currency,
	}
}

// keyTagRules map key fragments to tags for questions configured without any.
var keyTagRules = []struct {
	fragments []string
	tag       string
}{
	{[]string{"company", "business", "organization", "organisation", "brand_name", "org"}, TagCompany},
	{[]string{"name"}, TagName},
	{[]string{"budget", "cost", "price"}, TagBudget},
	{[]string{"timeline", "deadline", "duration", "launch_date"}, TagTimeline},
	{[]string{"goal", "objective", "purpose"}, TagGoal},
	{[]string{"audience", "users", "customers"}, TagAudience},
	{[]string{"brief", "description", "about", "summary", "overview", "idea"}, TagDescription},
	{[]string{"deliverable", "scope", "feature", "pages", "requirement"}, TagDeliverables},
	{[]string{"platform"}, TagPlatforms},
	{[]string{"style", "design", "look", "color", "colour"}, TagStyle},
	{[]string{"note", "extra", "other", "anything_else"}, TagNotes},
	{[]string{"service_type", "type_of_service", "project_type"}, TagServiceType},
}

func inferTags(key string) []string {
	k := textutil.Slug(key)
	for _, rule := range keyTagRules {
		for _, f := range rule.fragments {
			if k == f || strings.Contains(k, f) {
				return []string{rule.tag}
			}
		}
	}
	return nil
}

// Prepare fills the inferred fields of a configured question: tags from the
// key, expected type from tags and suggestions, and the required flag.
func Prepare(q Question) (Question, error) {
	q.Key = strings.TrimSpace(q.Key)
	if q.Key == "" {
		return q, fmt.Errorf("question without key")
	}
	t, err := normalize.ParseExpectedType(string(q.ExpectedType))
	if err != nil {
		return q, fmt.Errorf("question %s: %w", q.Key, err)
	}
	q.ExpectedType = t
	if len(q.Tags) == 0 {
		q.Tags = inferTags(q.Key)
	}
	if q.ExpectedType == normalize.TypeText {
		switch {
		case q.HasTag(TagBudget):
			q.ExpectedType = normalize.TypeMoney
		case q.HasTag(TagTimeline):
			q.ExpectedType = normalize.TypeDuration
		case len(q.Suggestions) > 0 && q.MultiSelect:
			q.ExpectedType = normalize.TypeList
		case len(q.Suggestions) > 0 && !textSuggestions(q):
			q.ExpectedType = normalize.TypeEnum
		}
	}
	if q.ExpectedType == normalize.TypeList {
		q.MultiSelect = true
	}
	if q.Required == nil {
		req := inferRequired(q)
		q.Required = &req
	}
	return q, nil
}

// textSuggestions reports whether suggestions on a name or free-text question
// are quick replies rather than a closed option set.
func textSuggestions(q Question) bool {
	for _, t := range []string{TagName, TagCompany, TagDescription, TagGoal, TagAudience, TagNotes} {
		if q.HasTag(t) {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }
