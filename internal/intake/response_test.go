package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderAndParseTags(t *testing.T) {
	r := Reply{
		Text:        "Which pages do you need?",
		QuestionKey: "pages",
		Suggestions: []string{"Home", "About", "Contact"},
		MultiSelect: true,
		MaxSelect:   2,
	}
	out := r.Render()
	assert.Equal(t, "Which pages do you need?\n\n[QUESTION_KEY: pages]\n[MULTI_SELECT: Home | About | Contact]\n[MAX_SELECT: 2]", out)

	tags := ParseTags(out)
	assert.Equal(t, "pages", tags.QuestionKey)
	assert.Equal(t, []string{"Home", "About", "Contact"}, tags.Suggestions)
	assert.True(t, tags.MultiSelect)
	assert.Equal(t, 2, tags.MaxSelect)
	assert.False(t, tags.HasProposal)
	assert.Equal(t, "Which pages do you need?", StripTags(out))
}

func TestSingleSelectRender(t *testing.T) {
	out := Reply{Text: "Pick one", QuestionKey: "tech", Suggestions: []string{"WordPress", "Shopify"}, MaxSelect: 3}.Render()
	assert.Contains(t, out, "[SUGGESTIONS: WordPress | Shopify]")
	assert.NotContains(t, out, "MAX_SELECT")
}

func TestProposalBlock(t *testing.T) {
	out := Reply{Text: "Thanks!", Proposal: "# Brief\n\nDetails\n", Done: true}.Render()
	assert.Equal(t, "Thanks!\n\n[PROPOSAL_DATA]\n# Brief\n\nDetails\n[/PROPOSAL_DATA]", out)

	tags := ParseTags(out)
	assert.True(t, tags.HasProposal)
	assert.Equal(t, "# Brief\n\nDetails", tags.Proposal)
	assert.Empty(t, tags.QuestionKey)
	assert.Equal(t, "Thanks!", StripTags(out))
}

func TestLastQuestionKeyWins(t *testing.T) {
	text := "First [QUESTION_KEY: name]\nthen [QUESTION_KEY:  budget ]"
	assert.Equal(t, "budget", ParseTags(text).QuestionKey)
	assert.Empty(t, ParseTags("no tags here").Suggestions)
}
