package intake

import "intake-backend/internal/normalize"

// BriefKey is the key of the project-brief question added to flows that
// have no explicit ordering and no catalog definition.
const BriefKey = "brief"

// ServiceDef is a service's question source, from a yaml bank or the
// service catalog.
type ServiceDef struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Aliases     []string   `json:"aliases,omitempty"`
	Questions   []Question `json:"questions"`
	FromCatalog bool       `json:"fromCatalog"`
}

func briefQuestion() Question {
	return Question{
		Key: BriefKey,
		Templates: []string{
			"Thanks, {name}! In a couple of lines, what are you looking to build and who is it for?",
			"Could you describe the project briefly, {name}? A few lines on what it is and what it should do is perfect.",
		},
		ExpectedType: normalize.TypeText,
		Required:     boolPtr(true),
		Tags:         []string{TagDescription},
		Examples:     []string{"An online store for handmade candles with payments and delivery tracking"},
	}
}

// resolveQuestions orders and deduplicates a definition's questions. With
// nextId edges the chain from the first question decides the order and
// anything unreachable follows in source order. Without edges, and when
// the definition is not from the catalog, a mandatory brief question is
// placed right after the name question.
func resolveQuestions(def ServiceDef) []Question {
	seen := make(map[string]bool, len(def.Questions))
	var qs []Question
	hasEdges := false
	for _, q := range def.Questions {
		if seen[q.Key] {
			continue
		}
		seen[q.Key] = true
		qs = append(qs, q)
		if q.NextID != "" {
			hasEdges = true
		}
	}
	if hasEdges {
		return followEdges(qs)
	}
	if def.FromCatalog {
		return qs
	}
	for _, q := range qs {
		if q.HasTag(TagDescription) {
			return qs
		}
	}
	at := 0
	for i, q := range qs {
		if q.HasTag(TagName) {
			at = i + 1
			break
		}
	}
	out := make([]Question, 0, len(qs)+1)
	out = append(out, qs[:at]...)
	out = append(out, briefQuestion())
	return append(out, qs[at:]...)
}

func followEdges(qs []Question) []Question {
	if len(qs) == 0 {
		return qs
	}
	byKey := make(map[string]Question, len(qs))
	for _, q := range qs {
		byKey[q.Key] = q
	}
	visited := make(map[string]bool, len(qs))
	out := make([]Question, 0, len(qs))
	for cur, ok := qs[0], true; ok && !visited[cur.Key]; cur, ok = byKey[cur.NextID] {
		visited[cur.Key] = true
		out = append(out, cur)
	}
	for _, q := range qs {
		if !visited[q.Key] {
			out = append(out, q)
		}
	}
	return out
}
