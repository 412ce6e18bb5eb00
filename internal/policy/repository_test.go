package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ushlint/internal/diag"
)

func TestDescriptorsComplete(t *testing.T) {
	repo := FromDescriptors()
	require.Equal(t, 45, repo.Len())
	ids := make(map[string]bool)
	for _, def := range repo.AllRules() {
		require.NotEmpty(t, def.Title, def.ID)
		require.NotEmpty(t, def.MessageTemplate, def.ID)
		require.NotEmpty(t, def.Category, def.ID)
		require.False(t, ids[def.ID], "duplicate %s", def.ID)
		ids[def.ID] = true
	}
	for _, id := range []string{"USH0001", "USH0045", "USH0043"} {
		assert.True(t, ids[id])
	}
}

func TestSeverityResolutionOrder(t *testing.T) {
	repo := FromDescriptors()

	// Rule default.
	assert.Equal(t, diag.SevInfo, repo.Severity(USH0043, ProfileLatest, nil))
	// Profile entry beats default.
	assert.Equal(t, diag.SevWarning, repo.Severity(USH0043, ProfileStrict, nil))
	// Override beats both.
	overrides := map[string]diag.Severity{USH0043: diag.SevHidden}
	assert.Equal(t, diag.SevHidden, repo.Severity(USH0043, ProfileStrict, overrides))
	// Case-insensitive lookup.
	assert.Equal(t, diag.SevInfo, repo.Severity("ush0043", ProfileLatest, nil))
	// Unknown rule resolves Hidden.
	assert.Equal(t, diag.SevHidden, repo.Severity("USH9999", ProfileLatest, nil))
	// Unknown profile falls back to default.
	assert.Equal(t, diag.SevInfo, repo.Severity(USH0043, "nonsense", nil))
}

func TestStrictNeverDecreasesSeverity(t *testing.T) {
	repo := FromDescriptors()
	for _, def := range repo.AllRules() {
		latest := repo.Severity(def.ID, ProfileLatest, nil)
		strict := repo.Severity(def.ID, ProfileStrict, nil)
		assert.GreaterOrEqual(t, uint8(strict), uint8(latest), def.ID)
	}
}

func TestDocumentationLocaleFallback(t *testing.T) {
	defs := map[string]Definition{
		"USH0001": {
			ID: "USH0001",
			Documentation: map[string]DocEntry{
				"en-US": {Markdown: "english"},
				"de-DE": {Markdown: "deutsch"},
			},
		},
		"USH0002": {ID: "USH0002"},
	}
	repo := NewRepository(defs)

	exact := repo.Documentation("USH0001", "de-DE")
	require.NotNil(t, exact)
	assert.Equal(t, "deutsch", exact.Markdown)

	// Regional variant matches the base language.
	variant := repo.Documentation("USH0001", "de-AT")
	require.NotNil(t, variant)
	assert.Equal(t, "deutsch", variant.Markdown)

	fallback := repo.Documentation("USH0001", "ja-JP")
	require.NotNil(t, fallback)
	assert.Equal(t, "english", fallback.Markdown)

	assert.Nil(t, repo.Documentation("USH0002", "en-US"))
	assert.Nil(t, repo.Documentation("USH9999", "en-US"))
}

func TestFormatMessage(t *testing.T) {
	def := Definition{MessageTemplate: "Argument {0} of '{1}' cannot be converted to '{2}'"}
	msg := def.Format(1, "Shoot", "int")
	assert.Equal(t, "Argument 1 of 'Shoot' cannot be converted to 'int'", msg)
}

func TestExportPackRoundTrip(t *testing.T) {
	repo := FromDescriptors()
	data, err := repo.ExportPack()
	require.NoError(t, err)

	dir := t.TempDir()
	writePack(t, dir, "bundle.json", string(data))
	merged := NewLoader(nil).Load(dir, nil)
	require.Len(t, merged, repo.Len())
	reloaded := NewRepository(merged)
	for _, def := range repo.AllRules() {
		got, ok := reloaded.Rule(def.ID)
		require.True(t, ok, def.ID)
		assert.Equal(t, def.DefaultSeverity, got.DefaultSeverity, def.ID)
		assert.Equal(t, def.Title, got.Title, def.ID)
	}
}
