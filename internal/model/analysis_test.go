package model

import "testing"

func TestSummarize(t *testing.T) {
	t.Parallel()

	failed := NewAnalysis("nope")
	failed.Error = ErrInvalidURL.Error()

	analyses := []*Analysis{
		{Result: AnalysisResult{Status: StatusSafe}},
		{Result: AnalysisResult{Status: StatusWarning}},
		{Result: AnalysisResult{Status: StatusDangerous}},
		{Result: AnalysisResult{Status: StatusDangerous}},
		failed,
		nil,
	}

	got := Summarize(analyses)
	expected := Summary{Total: 5, Safe: 1, Warning: 1, Dangerous: 2, Failed: 1}
	if got != expected {
		t.Errorf("got %+v, expected %+v", got, expected)
	}
}

func TestAnalysisSteps(t *testing.T) {
	t.Parallel()

	a := NewAnalysis("https://example.com")
	if a.AnalyzedAt.IsZero() {
		t.Error("AnalyzedAt should be set")
	}
	if a.Failed() {
		t.Error("new analysis should not be failed")
	}
	a.AddStep("validate")
	a.AddStep("analyze")
	if len(a.PerformedSteps) != 2 || a.PerformedSteps[1] != "analyze" {
		t.Errorf("unexpected steps: %v", a.PerformedSteps)
	}
}

func TestUserStatsDerived(t *testing.T) {
	t.Parallel()

	stats := UserStats{Safe: 3, Warning: 1, Dangerous: 2, Total: 6, TotalScans: 6, BackgroundScans: 4}
	if got := stats.ThreatsBlocked(); got != 2 {
		t.Errorf("ThreatsBlocked: got %d, expected %d", got, 2)
	}
	if got := stats.ScansTotal(); got != 10 {
		t.Errorf("ScansTotal: got %d, expected %d", got, 10)
	}

	counter := UserStats{Total: 2, TotalScans: 7}
	if got := counter.ScansTotal(); got != 7 {
		t.Errorf("ScansTotal should prefer the larger counter, got %d", got)
	}
}

func TestNewUserProfile(t *testing.T) {
	t.Parallel()

	p := NewUserProfile("u1")
	if p.ID != "u1" || !p.ProtectionActive || p.Email != "" || p.TotalScans != 0 {
		t.Errorf("unexpected default profile: %+v", p)
	}
}
