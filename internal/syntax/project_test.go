package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
using UdonSharp;
using UnityEngine;

namespace Game.World
{
    [UdonBehaviourSyncMode(BehaviourSyncMode.Manual)]
    public class Door : UdonSharpBehaviour
    {
        [UdonSynced] private bool open;
        [UdonSynced(UdonSyncMode.Smooth)] private float angle, speed;

        public GameObject prefab;

        public void Toggle()
        {
            SendCustomEvent(nameof(Close));
        }

        public void Close() { }

        private void Helper(ref int counter) { }

        public T Generic<T>(T value) { return value; }
    }

    public class Plain { }
}
`

func parseSample(t *testing.T) *File {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(sample))
	require.NoError(t, err)
	return BuildFile("Door.cs", tree)
}

func TestProjectTypes(t *testing.T) {
	file := parseSample(t)
	require.Len(t, file.Types, 2)

	door := file.Types[0]
	assert.Equal(t, "Door", door.Name)
	assert.Equal(t, "Game.World", door.Namespace)
	assert.Equal(t, "Game.World.Door", door.FullName())
	assert.Equal(t, "class", door.Kind)
	require.Len(t, door.BaseNames, 1)
	assert.Equal(t, "UdonSharpBehaviour", door.BaseNames[0])
	assert.True(t, door.HasModifier("public"))

	require.Len(t, door.Attrs, 1)
	assert.Equal(t, "UdonBehaviourSyncMode", door.Attrs[0].Name)
	require.Len(t, door.Attrs[0].Args, 1)
	assert.Equal(t, "BehaviourSyncMode.Manual", door.Attrs[0].Args[0].Text)
}

func TestProjectFields(t *testing.T) {
	file := parseSample(t)
	door := file.Types[0]
	require.Len(t, door.Fields, 4)

	names := make(map[string]string)
	for _, f := range door.Fields {
		names[f.Name] = f.Type
	}
	assert.Equal(t, "bool", names["open"])
	assert.Equal(t, "float", names["angle"])
	assert.Equal(t, "float", names["speed"])
	assert.Equal(t, "GameObject", names["prefab"])

	var synced *FieldDecl
	for _, f := range door.Fields {
		if f.Name == "angle" {
			synced = f
		}
	}
	require.NotNil(t, synced)
	require.Len(t, synced.Attrs, 1)
	assert.Equal(t, "UdonSynced", synced.Attrs[0].Name)
	require.Len(t, synced.Attrs[0].Args, 1)
	assert.Equal(t, "UdonSyncMode.Smooth", synced.Attrs[0].Args[0].Text)
}

func TestProjectMethods(t *testing.T) {
	file := parseSample(t)
	door := file.Types[0]
	require.Len(t, door.Methods, 4)

	byName := make(map[string]*MethodDecl)
	for _, m := range door.Methods {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "Toggle")
	assert.True(t, byName["Toggle"].IsPublic())
	assert.False(t, byName["Helper"].IsPublic())
	require.Len(t, byName["Helper"].Params, 1)
	assert.True(t, byName["Helper"].Params[0].ByRef)
	assert.Equal(t, "int", byName["Helper"].Params[0].Type)
	assert.True(t, byName["Generic"].Generic)
}

func TestFileScopedNamespace(t *testing.T) {
	src := "namespace Scoped;\nclass Inner : UdonSharpBehaviour { }\n"
	tree, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	file := BuildFile("Inner.cs", tree)
	require.Len(t, file.Types, 1)
	assert.Equal(t, "Scoped", file.Types[0].Namespace)
}

func TestNoNamespace(t *testing.T) {
	src := "class Bare { }\n"
	tree, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	file := BuildFile("Bare.cs", tree)
	require.Len(t, file.Types, 1)
	assert.Empty(t, file.Types[0].Namespace)
}

func TestCacheReusesUnchangedTree(t *testing.T) {
	cache := NewCache(4)
	ctx := context.Background()
	first, err := cache.Parse(ctx, "file:///a.cs", []byte(sample))
	require.NoError(t, err)
	second, err := cache.Parse(ctx, "file:///a.cs", []byte(sample))
	require.NoError(t, err)
	assert.Same(t, first, second)

	third, err := cache.Parse(ctx, "file:///a.cs", []byte(sample+"\n// changed"))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "Foo", StripQuotes(`"Foo"`))
	assert.Equal(t, "Foo", StripQuotes(`@"Foo"`))
}
