package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-backend/internal/normalize"
)

func TestParseCatalog(t *testing.T) {
	doc := `
# Catalog

## Mobile App Development
aliases: mobile app, android app
- **Full name** (required): What's your name?
- **Platforms** (required, multi, max=2): Which platforms? Options: iOS | Android | Both
- **Budget** (required, money): What budget do you have in mind?
- **Notes** (optional): Anything else? Examples: Offline mode; Dark theme

## Copywriting
- **Name**: Who am I speaking with?
`
	defs, err := ParseCatalog(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	app := defs[0]
	assert.Equal(t, "mobile-app-development", app.ID)
	assert.Equal(t, []string{"mobile app", "android app"}, app.Aliases)
	assert.True(t, app.FromCatalog)
	require.Len(t, app.Questions, 4)

	platforms, err := Prepare(app.Questions[1])
	require.NoError(t, err)
	assert.Equal(t, "platforms", platforms.Key)
	assert.Equal(t, normalize.TypeList, platforms.ExpectedType)
	assert.Equal(t, 2, platforms.MaxSelect)
	assert.Equal(t, []string{"iOS", "Android", "Both"}, platforms.Suggestions)
	assert.Equal(t, []string{"Which platforms?"}, platforms.Templates)
	assert.True(t, platforms.IsRequired())

	notes, err := Prepare(app.Questions[3])
	require.NoError(t, err)
	assert.False(t, notes.IsRequired())
	assert.Equal(t, []string{"Offline mode", "Dark theme"}, notes.Examples)
	assert.True(t, notes.HasTag(TagNotes))

	name, err := Prepare(defs[1].Questions[0])
	require.NoError(t, err)
	assert.True(t, name.HasTag(TagName))
	assert.True(t, name.IsRequired())
}

func TestParseCatalogErrors(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("## Empty\n\n## Other\n- **Name**: hi"))
	assert.Error(t, err)

	_, err = ParseCatalog(strings.NewReader("## Bad\n- **Budget** (colour): what?"))
	assert.Error(t, err)
}

func TestCatalogSkipsBriefInjection(t *testing.T) {
	defs, err := ParseCatalog(strings.NewReader(quoteCatalog))
	require.NoError(t, err)
	reg, err := NewRegistry(defs, "")
	require.NoError(t, err)
	def, err := reg.Lookup("Quick Quote")
	require.NoError(t, err)

	s := NewState(def, Settings{})
	_, hasBrief := s.Question(BriefKey)
	assert.False(t, hasBrief)
	assert.Equal(t, []string{"name", "budget", "timeline"}, s.MissingRequired)
}
