package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"React.js", "react"},
		{"Next.js", "nextjs"},
		{"E-Commerce Store", "ecommerce store"},
		{"  Crème   Brûlée ", "creme brulee"},
		{"UI/UX Design", "uiux design"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonicalize(tt.in), tt.in)
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "## Title\n- **Bold** item with [a link](https://x.io) and `code`"
	assert.Equal(t, "Title Bold item with a link and code", StripMarkdown(in))
}

func TestIsGreeting(t *testing.T) {
	assert.True(t, IsGreeting("Hello there!"))
	assert.True(t, IsGreeting("hi"))
	assert.True(t, IsGreeting("Good morning team"))
	assert.False(t, IsGreeting("hello priya"))
	assert.False(t, IsGreeting("good"))
	assert.False(t, IsGreeting(""))
}

func TestLooksLikeQuestion(t *testing.T) {
	assert.True(t, LooksLikeQuestion("what's the usual cost?"))
	assert.True(t, LooksLikeQuestion("50000?"))
	assert.True(t, LooksLikeQuestion("can you do it in react"))
	assert.False(t, LooksLikeQuestion("React please"))
	assert.False(t, LooksLikeQuestion("is"))
}

func TestMatchSuggestions(t *testing.T) {
	stack := []string{"React.js", "Next.js", "React.js + Node.js", "WordPress"}

	t.Run("composite wins over its part", func(t *testing.T) {
		got := MatchSuggestions("I'd like React.js with Node.js backend", stack)
		assert.Equal(t, []string{"React.js + Node.js"}, got)
	})

	t.Run("alias expansion", func(t *testing.T) {
		assert.Equal(t, []string{"E-commerce"}, MatchSuggestions("ecom", []string{"E-commerce", "Blog"}))
		assert.Equal(t, []string{"WordPress"}, MatchSuggestions("wp is fine", stack))
	})

	t.Run("no false friend on partial tokens", func(t *testing.T) {
		assert.Empty(t, MatchSuggestions("next week works", stack))
	})

	t.Run("multiple independent options keep order", func(t *testing.T) {
		pages := []string{"Home", "About Us", "Services", "Contact"}
		assert.Equal(t, []string{"Home", "Services", "Contact"}, MatchSuggestions("contact, home and services", pages))
	})
}

func TestScanMoney(t *testing.T) {
	spans := ScanMoney("₹50,000 - ₹1,00,000")
	require.Len(t, spans, 1)
	assert.True(t, spans[0].IsRange)
	assert.Equal(t, 50000.0, spans[0].Low)
	assert.Equal(t, 100000.0, spans[0].High)
	assert.Equal(t, "INR", spans[0].Currency)

	spans = ScanMoney("somewhere between 50k and 80k")
	require.Len(t, spans, 1)
	assert.Equal(t, 50000.0, spans[0].Low)
	assert.Equal(t, 80000.0, spans[0].High)

	spans = ScanMoney("50-80k")
	require.Len(t, spans, 1)
	assert.Equal(t, 50000.0, spans[0].Low)

	spans = ScanMoney("under $5k")
	require.Len(t, spans, 1)
	assert.Equal(t, QualifierUnder, spans[0].Qualifier)
	assert.Equal(t, "USD", spans[0].Currency)
	assert.Equal(t, 5000.0, spans[0].High)

	spans = ScanMoney("1.5 lakh")
	require.Len(t, spans, 1)
	assert.Equal(t, 150000.0, spans[0].Low)
	assert.Equal(t, "INR", spans[0].Currency)
}

func TestExtractBudget(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		active bool
		want   string
	}{
		{"keyword near number", "My name is Priya, budget is 60000, need it done in 2 weeks", false, "60000"},
		{"qualifier and period", "around 50k per month", false, "around 50k per month"},
		{"page counts are not money", "I need 5 pages", true, ""},
		{"bare number only when active", "60000", true, "60000"},
		{"bare number ignored when inactive", "60000", false, ""},
		{"flexible when active", "not sure yet", true, "not sure"},
		{"flexible needs keyword when inactive", "not sure yet", false, ""},
		{"qualifier after wide capitals", "ȺȺȺȺȺȺȺȺȺȺ budget under 5k", true, "under 5k"},
		{"qualifier after dotted capitals", "We are in İZMİR and İSTANBUL, budget under 50k", true, "under 50k"},
		{"upper-case qualifier", "Budget UNDER 5k", false, "UNDER 5k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBudget(tt.msg, tt.active))
		})
	}
}

func TestExtractTimeline(t *testing.T) {
	assert.Equal(t, "2 weeks", ExtractTimeline("need it done in 2 weeks", false))
	assert.Equal(t, "2-3 months", ExtractTimeline("roughly 2-3 months", true))
	assert.Equal(t, "", ExtractTimeline("I have 5 years of experience", false))
	assert.Equal(t, "3", ExtractTimeline("3", true))
	assert.Equal(t, "", ExtractTimeline("3", false))
	assert.Equal(t, "by March 2025", ExtractTimeline("we want to go live by March 2025", false))
	assert.Equal(t, "flexible", ExtractTimeline("timeline is flexible", false))
}

func TestScanDurationsWords(t *testing.T) {
	spans := ScanDurations("a couple of weeks")
	require.Len(t, spans, 1)
	assert.Equal(t, 2.0, spans[0].Low)
	assert.Equal(t, "week", spans[0].Unit)
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		msg   string
		bare  bool
		want  string
	}{
		{"My name is Priya, budget is 60000", false, "Priya"},
		{"priya sharma", true, "Priya Sharma"},
		{"hi, I'm rahul and I need a site", false, "Rahul"},
		{"ecommerce app", true, ""},
		{"hello", true, ""},
		{"what is this?", true, ""},
		{"I'm looking for a website", true, ""},
		{"john@example.com", true, ""},
		{"Agent 47", true, ""},
		{"priya", false, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractName(tt.msg, tt.bare), tt.msg)
	}
}

func TestExtractOrganizationName(t *testing.T) {
	assert.Equal(t, "Acme Labs", ExtractOrganizationName("our company name is Acme Labs and we sell tools", false))
	assert.Equal(t, "Bloom Bakery", ExtractOrganizationName("Bloom Bakery", true))
	assert.Equal(t, "", ExtractOrganizationName("we are looking for help", false))
	assert.Equal(t, "", ExtractOrganizationName("hello", true))
	assert.Equal(t, "Bloom Bakery", ExtractOrganizationName("I'm Priya from Bloom Bakery", false))
	assert.Equal(t, "Bloom Bakery", ExtractOrganizationName("Hi, I'm Priya Sharma from Bloom Bakery and we need a site", false))
	assert.Equal(t, "", ExtractOrganizationName("i'm priya from mumbai", false))
}

func TestExtractKeywordClause(t *testing.T) {
	got := ExtractKeywordClause("Our target audience is college students, budget 50k", []string{"target audience"})
	assert.Equal(t, "college students", got)
	assert.Equal(t, "", ExtractKeywordClause("nothing relevant here", []string{"audience"}))
}

func TestLooksLikeProjectBrief(t *testing.T) {
	assert.True(t, LooksLikeProjectBrief("I want to build an ecommerce website with Next.js, budget around 2 lakh and launch in 6 weeks"))
	assert.True(t, LooksLikeProjectBrief("We run a bakery. We want a website where people can order cakes online."))
	assert.False(t, LooksLikeProjectBrief("My name is Priya, budget is 60000, need it done in 2 weeks"))
	assert.False(t, LooksLikeProjectBrief("website please"))
}
