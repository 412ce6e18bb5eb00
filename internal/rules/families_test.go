package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncedFieldOnNoVariableSync(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    [UdonBehaviourSyncMode(BehaviourSyncMode.NoVariableSync)]
    class A : UdonSharpBehaviour
    {
        [UdonSynced] int health;
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0007")
}

func TestSyncedArrayRequiresManual(t *testing.T) {
	withManual := analyzeFile(t, "A.cs", `
namespace World {
    [UdonBehaviourSyncMode(BehaviourSyncMode.Manual)]
    class A : UdonSharpBehaviour
    {
        [UdonSynced] int[] scores;
    }
}
`, nil)
	assert.NotContains(t, ids(withManual), "USH0009")

	withoutManual := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        [UdonSynced] int[] scores;
    }
}
`, nil)
	assert.Contains(t, ids(withoutManual), "USH0009")
}

func TestTweeningRules(t *testing.T) {
	// Tweening inside manual sync is rejected.
	manual := analyzeFile(t, "A.cs", `
namespace World {
    [UdonBehaviourSyncMode(BehaviourSyncMode.Manual)]
    class A : UdonSharpBehaviour
    {
        [UdonSynced(UdonSyncMode.Linear)] float angle;
    }
}
`, nil)
	assert.Contains(t, ids(manual), "USH0010")

	// Linear tween of a non-interpolable type.
	linear := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        [UdonSynced(UdonSyncMode.Linear)] string label;
    }
}
`, nil)
	assert.Contains(t, ids(linear), "USH0011")

	// Smooth supports int, Linear does not complain about float.
	ok := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        [UdonSynced(UdonSyncMode.Smooth)] int count;
        [UdonSynced(UdonSyncMode.Linear)] Vector3 position;
    }
}
`, nil)
	assert.NotContains(t, ids(ok), "USH0011")
	assert.NotContains(t, ids(ok), "USH0012")
}

func TestDeniedNamespaceInvocation(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
using System.IO;

namespace World {
    class A : UdonSharpBehaviour
    {
        void Go()
        {
            System.IO.File.Delete("a");
            File.ReadAllText("b");
        }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0013" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestDeniedMemberAccess(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        void Go() { var n = System.Environment.ProcessorCount; }
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0014")
}

func TestDeniedDeclaredType(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
using System.IO;

namespace World {
    class A : UdonSharpBehaviour
    {
        FileStream stream;
        void Go(System.Threading.Thread worker) { }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0015" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestGetComponentDenied(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public GameObject go;
        void Run()
        {
            GetComponent(typeof(Transform));
            go.GetComponents(typeof(Transform));
        }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0013" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestPlayerEventSignature(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        public override void OnPlayerJoined(VRCPlayerApi player) { }
        void OnPlayerLeft(VRCPlayerApi player) { }
        public override void OnStationEntered(int seat) { }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0016" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestLanguageConstraintNodes(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        int? maybe;
        int[,] grid;
        static int counter;

        void Go()
        {
            var x = maybe?.ToString();
            int Local() { return 1; }
            goto done;
        done:
            return;
        }

        public A() { }
        public void Generic<T>() { }
    }
}
`, nil)
	got := ids(diags)
	for _, want := range []string{
		"USH0022", // int?
		"USH0023", // ?.
		"USH0024", // int[,]
		"USH0026", // local function
		"USH0028", // constructor
		"USH0029", // generic method
		"USH0034", // static field
		"USH0036", // goto
		"USH0037", // label
	} {
		assert.Contains(t, got, want, want)
	}
}

func TestNestedTypeAndInterface(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour, IComparable
    {
        class Inner { }
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0027")
	assert.Contains(t, ids(diags), "USH0030")
}

func TestObjectInitializerFlaggedArrayInitializerNot(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class Config { public int X; }
    class A : UdonSharpBehaviour
    {
        int[] nums = { 1, 2, 3 };
        void Go() { var c = new Config { X = 1 }; }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0032" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestTypeofOnBehaviour(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        void Go() { var t = typeof(A); var u = typeof(Transform); }
    }
}
`, nil)
	count := 0
	for _, id := range ids(diags) {
		if id == "USH0033" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMethodHiding(t *testing.T) {
	diags := analyzeFile(t, "Sub.cs", `
namespace World {
    class Root : UdonSharpBehaviour
    {
        public void Act(int n) { }
    }
    class Sub : Root
    {
        public void Act(int n) { }
        public void Act(string s) { }
    }
}
`, nil)
	count := 0
	for _, d := range diags {
		if d.ID == "USH0031" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFieldChangeCallbacks(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        [FieldChangeCallback(nameof(Health))] private int health;
        [FieldChangeCallback("Health")] private int backupHealth;
        [FieldChangeCallback("Missing")] private int other;
        [FieldChangeCallback(nameof(Label))] private int wrongType;

        public int Health { get; set; }
        public string Label { get; set; }
    }
}
`, nil)
	got := ids(diags)
	assert.Contains(t, got, "USH0040")
	assert.Contains(t, got, "USH0041")
	assert.Contains(t, got, "USH0042")
}

func TestThrowStatement(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        void Go() { throw new Exception(); }
    }
}
`, nil)
	assert.Contains(t, ids(diags), "USH0021")
}

func TestConstStringEventName(t *testing.T) {
	diags := analyzeFile(t, "A.cs", `
namespace World {
    class A : UdonSharpBehaviour
    {
        const string EventName = "Missing";
        void Go() { SendCustomEvent(EventName); }
    }
}
`, nil)
	require.Contains(t, ids(diags), "USH0001")
	// A const reference is not a bare literal.
	assert.NotContains(t, ids(diags), "USH0043")
}
