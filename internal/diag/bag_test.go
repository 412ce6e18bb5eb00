package diag

import "testing"

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"error", SevError, true},
		{"ERROR", SevError, true},
		{"warn", SevWarning, true},
		{"warning", SevWarning, true},
		{"info", SevInfo, true},
		{"information", SevInfo, true},
		{"hidden", SevHidden, true},
		{"off", SevHidden, true},
		{" Off ", SevHidden, true},
		{"fatal", SevHidden, false},
		{"", SevHidden, false},
	}
	for _, tc := range cases {
		got, ok := ParseSeverity(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSeverityLSP(t *testing.T) {
	if SevError.LSP() != 1 || SevWarning.LSP() != 2 || SevInfo.LSP() != 3 || SevHidden.LSP() != 4 {
		t.Fatalf("LSP severity mapping broken")
	}
}

func TestBagSortDeterministic(t *testing.T) {
	bag := NewBag(10)
	bag.Add(Diagnostic{ID: "USH0043", FilePath: "b.cs", StartLine: 2, Severity: SevInfo})
	bag.Add(Diagnostic{ID: "USH0001", FilePath: "b.cs", StartLine: 2, Severity: SevError})
	bag.Add(Diagnostic{ID: "USH0002", FilePath: "a.cs", StartLine: 9, Severity: SevError})
	bag.Sort()
	items := bag.Items()
	if items[0].FilePath != "a.cs" {
		t.Fatalf("expected a.cs first, got %s", items[0].FilePath)
	}
	if items[1].ID != "USH0001" {
		t.Fatalf("expected severity-desc then ID order, got %s", items[1].ID)
	}
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(10)
	d := Diagnostic{ID: "USH0020", FilePath: "a.cs", StartLine: 3, StartCol: 1, Message: "try/catch is not supported"}
	bag.Add(d)
	bag.Add(d)
	bag.Dedup()
	if bag.Len() != 1 {
		t.Fatalf("expected 1 after dedup, got %d", bag.Len())
	}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(Diagnostic{ID: "USH0001"}) {
		t.Fatal("first add should succeed")
	}
	if bag.Add(Diagnostic{ID: "USH0002"}) {
		t.Fatal("second add should hit the limit")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	d := Diagnostic{ID: "USH0018", FilePath: "a.cs", StartLine: 1}
	rep.Report(d)
	rep.Report(d)
	if bag.Len() != 1 {
		t.Fatalf("expected dedup reporter to drop the duplicate, got %d", bag.Len())
	}
}
