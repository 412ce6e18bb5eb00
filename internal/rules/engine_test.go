package rules

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
	"ushlint/internal/settings"
	"ushlint/internal/workspace"
)

// analyzeFile runs the full engine over a single in-memory document.
func analyzeFile(t *testing.T, fileName, src string, mutate func(*settings.Settings)) []diag.Diagnostic {
	t.Helper()
	s := settings.Default()
	if mutate != nil {
		mutate(&s)
	}
	m := workspace.NewManager(nil, t.TempDir())
	require.NoError(t, m.Initialise(s))
	path := filepath.Join(t.TempDir(), fileName)
	uri := workspace.PathToURI(path)
	m.OpenOrUpdate(uri, src, 1)
	snap, err := m.Snapshot(context.Background())
	require.NoError(t, err)

	engine := NewEngine(nil, policy.FromDescriptors())
	diags, err := engine.Analyze(context.Background(), snap, uri, s)
	require.NoError(t, err)
	return diags
}

func ids(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.ID)
	}
	return out
}

func TestMissingCustomEventTarget(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public void Foo() { }
        void Bar() { SendCustomEvent("DoesNotExist"); }
    }
}
`, nil)
	assert.ElementsMatch(t, []string{"USH0001", "USH0043"}, ids(diags))
	for _, d := range diags {
		assert.Equal(t, 6, d.StartLine, d.ID)
	}
}

func TestPrivateTargetViaNameof(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        private void Secret() { }
        void Bar() { SendCustomEvent(nameof(Secret)); }
    }
}
`, nil)
	assert.ElementsMatch(t, []string{"USH0002"}, ids(diags))
}

func TestNetworkPayloadTypeMismatch(t *testing.T) {
	diags := analyzeFile(t, "Gun.cs", `
namespace World {
    class Gun : UdonSharpBehaviour
    {
        [NetworkCallable] public void Shoot(int n) { }
        void Fire() { SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Shoot), "hello"); }
    }
}
`, nil)
	require.ElementsMatch(t, []string{"USH0005"}, ids(diags))
	assert.Contains(t, diags[0].Message, "Argument 1")
	assert.Contains(t, diags[0].Message, "int")
}

func TestNetworkEventToSyncNoneTarget(t *testing.T) {
	diags := analyzeFile(t, "Caller.cs", `
namespace World {
    [UdonBehaviourSyncMode(BehaviourSyncMode.None)]
    class Receiver : UdonSharpBehaviour
    {
        public void Ping() { }
    }
    class Caller : UdonSharpBehaviour
    {
        public Receiver receiver;
        void Go() { receiver.SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Receiver.Ping)); }
    }
}
`, nil)
	require.Contains(t, ids(diags), "USH0006")
	// Receiver itself matches its declaration, Caller matches the file.
	assert.NotContains(t, ids(diags), "USH0001")
}

func TestUnsupportedSyncedType(t *testing.T) {
	diags := analyzeFile(t, "Map.cs", `
namespace World {
    class Map : UdonSharpBehaviour
    {
        [UdonSynced] Dictionary<string, int> map;
    }
}
`, nil)
	assert.ElementsMatch(t, []string{"USH0008"}, ids(diags))
}

func TestInstantiateAsTryCatch(t *testing.T) {
	diags := analyzeFile(t, "Spawner.cs", `
namespace World {
    class Spawner : UdonSharpBehaviour
    {
        public Transform prefab;
        void Go()
        {
            var obj = Instantiate(prefab) as SomeComponent;
            try { } catch { }
        }
    }
}
`, nil)
	assert.ElementsMatch(t, []string{"USH0017", "USH0019", "USH0020"}, ids(diags))
}

func TestInstantiateGameObjectAllowed(t *testing.T) {
	diags := analyzeFile(t, "Spawner.cs", `
namespace World {
    class Spawner : UdonSharpBehaviour
    {
        public GameObject prefab;
        void Go() { var obj = Instantiate(prefab); }
    }
}
`, nil)
	assert.NotContains(t, ids(diags), "USH0017")
}

func TestStructureRules(t *testing.T) {
	diags := analyzeFile(t, "Wrong.cs", `class MyBehaviour : UdonSharpBehaviour { }`, nil)
	assert.ElementsMatch(t, []string{"USH0044", "USH0045"}, ids(diags))
	for _, d := range diags {
		if d.ID == "USH0045" {
			assert.Contains(t, d.Message, "MyBehaviour")
			assert.Contains(t, d.Message, "Wrong")
		}
	}
}

func TestAbstractClassSkipsFileNameCheck(t *testing.T) {
	diags := analyzeFile(t, "Wrong.cs", `
namespace World { abstract class BaseThing : UdonSharpBehaviour { } }
`, nil)
	assert.NotContains(t, ids(diags), "USH0045")
}

func TestNumericAliasesDoNotMismatch(t *testing.T) {
	diags := analyzeFile(t, "Gun.cs", `
namespace World {
    class Gun : UdonSharpBehaviour
    {
        [NetworkCallable] public void Shoot(System.Int32 n) { }
        [NetworkCallable] public void Burst(long count) { }
        void Fire()
        {
            SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Shoot), 3);
            SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Burst), 3);
        }
    }
}
`, nil)
	assert.NotContains(t, ids(diags), "USH0005")
}

func TestNoArityMatchReportsIndexZero(t *testing.T) {
	diags := analyzeFile(t, "Gun.cs", `
namespace World {
    class Gun : UdonSharpBehaviour
    {
        [NetworkCallable] public void Shoot(int n) { }
        void Fire() { SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Shoot), 1, 2); }
    }
}
`, nil)
	require.Contains(t, ids(diags), "USH0005")
	for _, d := range diags {
		if d.ID == "USH0005" {
			assert.Contains(t, d.Message, "Argument 0")
		}
	}
}

func TestUnderscoreNetworkTarget(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public void _internalEvent() { }
        void Go() { SendCustomNetworkEvent(NetworkEventTarget.All, nameof(_internalEvent)); }
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0003")
}

func TestPayloadWithoutNetworkCallable(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public void Hit(int damage) { }
        void Go() { SendCustomNetworkEvent(NetworkEventTarget.All, nameof(Hit), 4); }
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0004")
}

func TestRuleOverrideOffEliminatesDiagnostics(t *testing.T) {
	src := `
namespace World {
    class A : UdonSharpBehaviour
    {
        public void Foo() { }
        void Bar() { SendCustomEvent("Foo"); }
    }
}
`
	diags := analyzeFile(t, "A.cs", src, nil)
	assert.Contains(t, ids(diags), "USH0043")

	diags = analyzeFile(t, "A.cs", src, func(s *settings.Settings) {
		s.RuleOverrides = map[string]diag.Severity{"USH0043": diag.SevHidden}
	})
	assert.NotContains(t, ids(diags), "USH0043")
}

func TestSeverityMatchesRepository(t *testing.T) {
	src := `
namespace World {
    class A : UdonSharpBehaviour
    {
        void Bar() { SendCustomEvent("Missing"); }
    }
}
`
	s := settings.Default()
	repo := policy.FromDescriptors()
	diags := analyzeFile(t, "A.cs", src, nil)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		_, known := repo.Rule(d.ID)
		assert.True(t, known, d.ID)
		assert.Equal(t, repo.Severity(d.ID, s.Profile, s.RuleOverrides), d.Severity, d.ID)
	}
}

func TestNonScriptClassEmitsNothing(t *testing.T) {
	diags := analyzeFile(t, "Plain.cs", `
namespace World {
    class Plain
    {
        void Bar() { try { } catch { } throw new Exception(); }
    }
}
`, nil)
	assert.Empty(t, diags)
}

func TestUnknownTargetTypeSuppressesMissingMethod(t *testing.T) {
	// The receiver's type is declared nowhere; absence of the type must
	// not be reported as absence of the method.
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public SomewhereElse other;
        void Go() { other.SendCustomEvent("Phantom"); }
    }
}
`, nil)
	assert.NotContains(t, ids(diags), "USH0001")
	assert.Contains(t, ids(diags), "USH0043")
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := `
namespace World {
    class A : UdonSharpBehaviour
    {
        [UdonSynced] Dictionary<string, int> map;
        void Bar() { SendCustomEvent("Missing"); try { } catch { } }
    }
}
`
	first := analyzeFile(t, "A.cs", src, nil)
	for range 5 {
		next := analyzeFile(t, "A.cs", src, nil)
		require.Equal(t, len(first), len(next))
		for i := range first {
			assert.Equal(t, first[i].ID, next[i].ID)
			assert.Equal(t, first[i].Message, next[i].Message)
			assert.Equal(t, first[i].StartLine, next[i].StartLine)
			assert.Equal(t, first[i].StartCol, next[i].StartCol)
		}
	}
}

func TestCancelledAnalysisReturnsEmpty(t *testing.T) {
	s := settings.Default()
	m := workspace.NewManager(nil, t.TempDir())
	require.NoError(t, m.Initialise(s))
	uri := workspace.PathToURI(filepath.Join(t.TempDir(), "A.cs"))
	m.OpenOrUpdate(uri, "namespace W { class A : UdonSharpBehaviour { } }", 1)
	snap, err := m.Snapshot(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	diags, err := NewEngine(nil, policy.FromDescriptors()).Analyze(ctx, snap, uri, s)
	assert.Empty(t, diags)
	assert.ErrorIs(t, err, context.Canceled)
}
