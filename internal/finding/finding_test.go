package finding

import "testing"

func TestSeverityGateIsInverted(t *testing.T) {
	// A "retain at or above medium" gate must keep High and Medium, drop Low
	// and Informational, because Severity is ordered High < ... < Informational.
	findings := []Finding{
		{Title: "a", Severity: SeverityHigh},
		{Title: "b", Severity: SeverityMedium},
		{Title: "c", Severity: SeverityLow},
		{Title: "d", Severity: SeverityInformational},
	}
	got := FilterBySeverity(findings, SeverityMedium)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings at or above medium, got %d", len(got))
	}
	for _, f := range got {
		if f.Severity > SeverityMedium {
			t.Errorf("finding %q should have been filtered out: severity=%v", f.Title, f.Severity)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"high", SeverityHigh, true},
		{"medium", SeverityMedium, true},
		{"low", SeverityLow, true},
		{"informational", SeverityInformational, true},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseSeverity(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonicalSortOrder(t *testing.T) {
	findings := []Finding{
		{Detector: "z-detector", Title: "z", Span: Span{File: "b.rs", Start: Position{Line: 1, Column: 1}}},
		{Detector: "a-detector", Title: "a", Span: Span{File: "a.rs", Start: Position{Line: 5, Column: 1}}},
		{Detector: "a-detector", Title: "a", Span: Span{File: "a.rs", Start: Position{Line: 2, Column: 9}}},
		{Detector: "a-detector", Title: "a", Span: Span{File: "a.rs", Start: Position{Line: 2, Column: 1}}},
	}
	Sort(findings)

	want := []string{"a.rs", "a.rs", "a.rs", "b.rs"}
	for i, f := range findings {
		if f.Span.File != want[i] {
			t.Fatalf("position %d: file = %q, want %q", i, f.Span.File, want[i])
		}
	}
	if findings[0].Span.Start.Column != 1 || findings[1].Span.Start.Column != 9 {
		t.Errorf("within same line, column should break ties: got %v then %v",
			findings[0].Span.Start, findings[1].Span.Start)
	}
}

func TestAggregatorDeduplicates(t *testing.T) {
	agg := NewAggregator()
	f := Finding{Detector: "missing-addr-validate", Title: "t", Span: Span{File: "x.rs", Start: Position{Line: 3, Column: 1}}}
	agg.Add(f)
	agg.Add(f) // identical second call: same detector re-running should not double count
	agg.Add(Finding{Detector: "missing-addr-validate", Title: "t", Span: Span{File: "x.rs", Start: Position{Line: 4, Column: 1}}})

	got := agg.Findings()
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated findings, got %d", len(got))
	}
}

func TestAggregatorOutputIsSorted(t *testing.T) {
	agg := NewAggregator()
	agg.AddAll([]Finding{
		{Detector: "d", Title: "t", Span: Span{File: "z.rs", Start: Position{Line: 1, Column: 1}}},
		{Detector: "d", Title: "t", Span: Span{File: "a.rs", Start: Position{Line: 1, Column: 1}}},
	})
	got := agg.Findings()
	if got[0].Span.File != "a.rs" {
		t.Errorf("expected sorted output, first file = %q, want a.rs", got[0].Span.File)
	}
}
