package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ushlint/internal/diag"
)

func writePack(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderMergesLastWins(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "a.json", `{"rules":[{"id":"ush0001","title":"first","message":"m","category":"Network","defaultSeverity":"error"}]}`)
	writePack(t, dir, "b.json", `{"rules":[{"id":"USH0001","title":"second","message":"m","category":"Network","defaultSeverity":"warning"}]}`)

	merged := NewLoader(nil).Load(dir, nil)
	require.Len(t, merged, 1)
	def := merged["USH0001"]
	assert.Equal(t, "second", def.Title)
	assert.Equal(t, diag.SevWarning, def.DefaultSeverity)
}

func TestLoaderSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "bad.json", `{not json`)
	writePack(t, dir, "norules.json", `{"something":[]}`)
	writePack(t, dir, "partial.json", `{"rules":[
		{"id":"USH0002","title":"ok","message":"m","category":"Network","defaultSeverity":"error"},
		{"id":"USH0003","title":"missing severity","message":"m","category":"Network","defaultSeverity":""},
		{"title":"missing id","message":"m","category":"Network","defaultSeverity":"error"}
	]}`)

	merged := NewLoader(nil).Load(dir, nil)
	require.Len(t, merged, 1)
	_, ok := merged["USH0002"]
	assert.True(t, ok)
}

func TestLoaderExtraPathsOverrideBundled(t *testing.T) {
	bundled := t.TempDir()
	writePack(t, bundled, "base.json", `{"rules":[{"id":"USH0043","title":"base","message":"m","category":"BestPractice","defaultSeverity":"info"}]}`)
	extraDir := t.TempDir()
	extra := writePack(t, extraDir, "override.json", `{"rules":[{"id":"USH0043","title":"user","message":"m","category":"BestPractice","defaultSeverity":"off"}]}`)

	merged := NewLoader(nil).Load(bundled, []string{extra, filepath.Join(extraDir, "missing.json")})
	require.Len(t, merged, 1)
	def := merged["USH0043"]
	assert.Equal(t, "user", def.Title)
	assert.Equal(t, diag.SevHidden, def.DefaultSeverity)
}

func TestLoaderDocumentationAndProfiles(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "doc.json", `{"rules":[{
		"id":"USH0001","title":"t","message":"m","category":"Network","defaultSeverity":"error",
		"profiles":{"strict_experimental":"error","legacy_0.x":"warn","broken":"nope"},
		"documentation":{"en-US":{"markdown":"body","title":"doc"},"de-DE":{"markdown":"körper"},"empty":{}}
	}]}`)

	merged := NewLoader(nil).Load(dir, nil)
	def := merged["USH0001"]
	require.NotNil(t, def.Profiles)
	assert.Equal(t, diag.SevWarning, def.Profiles["legacy_0.x"])
	_, hasBroken := def.Profiles["broken"]
	assert.False(t, hasBroken)
	require.Len(t, def.Documentation, 2)
	assert.Equal(t, "body", def.Documentation["en-US"].Markdown)
}
