package stubs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ushlint/internal/settings"
)

func TestCodecRoundTrip(t *testing.T) {
	cat := &Catalog{
		Assembly: "Test.Assembly",
		Types: []TypeDef{
			class("Test", "Widget", "System.Object",
				method("Frob", p("count", "System.Int32"))),
		},
	}
	data, err := Encode(cat)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, cat.Assembly, decoded.Assembly)
	require.Len(t, decoded.Types, 1)
	assert.Equal(t, "Test.Widget", decoded.Types[0].FullName())
}

func TestDecodeRejectsForeignData(t *testing.T) {
	_, err := Decode([]byte("MZ\x90\x00 this is not a stub"))
	require.Error(t, err)
}

func TestBaseContainsMarkerTypes(t *testing.T) {
	names := map[string]bool{}
	for _, cat := range Base() {
		for _, typ := range cat.Types {
			names[typ.FullName()] = true
		}
	}
	for _, want := range []string{
		"UdonSharp.UdonSharpBehaviour",
		"VRC.SDKBase.VRCPlayerApi",
		"UdonSharp.BehaviourSyncMode",
		"VRC.SDK3.UdonNetworkCalling.NetworkCallableAttribute",
		"UnityEngine.GameObject",
		"System.Int32",
	} {
		assert.True(t, names[want], want)
	}
}

func TestResolveBundledAndCustom(t *testing.T) {
	base := t.TempDir()
	gen := filepath.Join(base, "Stubs", "Generated")
	require.NoError(t, os.MkdirAll(gen, 0o755))
	cat := &Catalog{Assembly: "Bundled", Types: []TypeDef{strct("X", "Y")}}
	require.NoError(t, WriteFile(filepath.Join(gen, "bundled.dll"), cat))
	// A broken catalog is skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(gen, "broken.dll"), []byte("garbage"), 0o644))

	r := NewResolver(nil, base)
	s := settings.Default()
	got := r.Resolve(s)
	require.Len(t, got, len(Base())+1)
	assert.Equal(t, "Bundled", got[len(got)-1].Assembly)

	s.UnityAPISurface = settings.SurfaceNone
	assert.Len(t, r.Resolve(s), len(Base()))

	custom := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(custom, "user.dll"), &Catalog{Assembly: "User"}))
	s.UnityAPISurface = settings.SurfaceCustom
	s.CustomStubPath = custom
	got = r.Resolve(s)
	require.Len(t, got, len(Base())+1)
	assert.Equal(t, "User", got[len(got)-1].Assembly)
}

func TestResolveMissingDirWarnsNotFails(t *testing.T) {
	r := NewResolver(nil, t.TempDir())
	s := settings.Default()
	assert.Len(t, r.Resolve(s), len(Base()))
}

func TestCompileJSON(t *testing.T) {
	data := []byte(`{"assembly":"A","types":[{"name":"T","namespace":"N","kind":0}]}`)
	cat, err := CompileJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "A", cat.Assembly)

	_, err = CompileJSON([]byte(`{"types":[]}`))
	require.Error(t, err)
}
