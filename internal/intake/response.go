package intake

import (
	"regexp"
	"strconv"
	"strings"
)

// Proposal block markers.
const (
	ProposalOpen  = "[PROPOSAL_DATA]"
	ProposalClose = "[/PROPOSAL_DATA]"
)

// Reply is the structured assistant turn. Render serializes it into the
// tagged text the chat UI understands.
type Reply struct {
	Text        string   `json:"text"`
	QuestionKey string   `json:"questionKey,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
	MaxSelect   int      `json:"maxSelect,omitempty"`
	Proposal    string   `json:"proposal,omitempty"`
	LowBudget   bool     `json:"lowBudget,omitempty"`
	Done        bool     `json:"done"`
}

// Render returns the reply with its machine-readable tags embedded.
func (r Reply) Render() string {
	var b strings.Builder
	b.WriteString(r.Text)
	if r.Proposal != "" {
		b.WriteString("\n\n")
		b.WriteString(wrapProposal(r.Proposal))
	}
	if r.QuestionKey != "" {
		b.WriteString("\n\n[QUESTION_KEY: ")
		b.WriteString(r.QuestionKey)
		b.WriteString("]")
	}
	if len(r.Suggestions) > 0 {
		tag := "SUGGESTIONS"
		if r.MultiSelect {
			tag = "MULTI_SELECT"
		}
		b.WriteString("\n[" + tag + ": " + strings.Join(r.Suggestions, " | ") + "]")
		if r.MultiSelect && r.MaxSelect > 0 {
			b.WriteString("\n[MAX_SELECT: " + strconv.Itoa(r.MaxSelect) + "]")
		}
	}
	return b.String()
}

func wrapProposal(body string) string {
	return ProposalOpen + "\n" + strings.TrimSpace(body) + "\n" + ProposalClose
}

// Tags are the values recovered from a rendered assistant turn.
type Tags struct {
	QuestionKey string
	Suggestions []string
	MultiSelect bool
	MaxSelect   int
	Proposal    string
	HasProposal bool
}

var (
	questionKeyRe = regexp.MustCompile(`\[QUESTION_KEY:\s*([^\]]+?)\s*\]`)
	choiceTagRe   = regexp.MustCompile(`\[(SUGGESTIONS|MULTI_SELECT):\s*([^\]]*)\]`)
	maxSelectRe   = regexp.MustCompile(`\[MAX_SELECT:\s*(\d+)\s*\]`)
	proposalRe    = regexp.MustCompile(`(?s)\[PROPOSAL_DATA\](.*?)\[/PROPOSAL_DATA\]`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// ParseTags extracts the embedded tags from text. The last QUESTION_KEY
// wins when several are present.
func ParseTags(text string) Tags {
	var t Tags
	if all := questionKeyRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		t.QuestionKey = all[len(all)-1][1]
	}
	if m := choiceTagRe.FindStringSubmatch(text); m != nil {
		t.MultiSelect = m[1] == "MULTI_SELECT"
		for _, opt := range strings.Split(m[2], "|") {
			if opt = strings.TrimSpace(opt); opt != "" {
				t.Suggestions = append(t.Suggestions, opt)
			}
		}
	}
	if m := maxSelectRe.FindStringSubmatch(text); m != nil {
		t.MaxSelect, _ = strconv.Atoi(m[1])
	}
	if m := proposalRe.FindStringSubmatch(text); m != nil {
		t.HasProposal = true
		t.Proposal = strings.TrimSpace(m[1])
	}
	return t
}

// StripTags removes every embedded tag, and the proposal block, leaving
// the text meant for display.
func StripTags(text string) string {
	text = proposalRe.ReplaceAllString(text, "")
	text = questionKeyRe.ReplaceAllString(text, "")
	text = choiceTagRe.ReplaceAllString(text, "")
	text = maxSelectRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
