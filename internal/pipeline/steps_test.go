package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/threat"
)

// fakeSaver records InsertScan calls.
type fakeSaver struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSaver) InsertScan(_ context.Context, userID, url string, result model.AnalysisResult) (*model.ScanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, userID+" "+url)
	return &model.ScanRecord{
		ID:        "scan-1",
		UserID:    userID,
		URL:       url,
		Status:    result.Status,
		RiskScore: result.Score,
		Threats:   result.Threats,
	}, nil
}

func TestValidateStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantURL string
		wantErr error
	}{
		{name: "bare domain is scheme-qualified", input: "example.com", wantURL: "https://example.com"},
		{name: "http is kept", input: "http://example.com/login", wantURL: "http://example.com/login"},
		{name: "empty input", input: "   ", wantErr: model.ErrEmptyURL},
		{name: "garbage", input: "not a url", wantErr: model.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := model.NewAnalysis(tt.input)
			err := NewValidateStep().Do(t.Context(), a)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, expected %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.URL != tt.wantURL {
				t.Errorf("got %q, expected %q", a.URL, tt.wantURL)
			}
		})
	}
}

func TestAnalyzeStep(t *testing.T) {
	t.Parallel()

	t.Run("scores the validated url", func(t *testing.T) {
		t.Parallel()

		a := model.NewAnalysis("203.0.113.5/login")
		a.URL = "http://203.0.113.5/login"
		if err := NewAnalyzeStep(nil).Do(t.Context(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Result.Score != 70 {
			t.Errorf("got score %d, expected 70", a.Result.Score)
		}
		if a.Result.Status != model.StatusDangerous {
			t.Errorf("got %s, expected %s", a.Result.Status, model.StatusDangerous)
		}
		if len(a.Findings) != 3 {
			t.Errorf("got %d findings, expected 3", len(a.Findings))
		}
	})

	t.Run("falls back to the raw input", func(t *testing.T) {
		t.Parallel()

		a := model.NewAnalysis("https://google.com")
		if err := NewAnalyzeStep(threat.NewEngine()).Do(t.Context(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Result.Score != 0 || a.Result.Status != model.StatusSafe {
			t.Errorf("got %+v, expected a safe zero score", a.Result)
		}
		if a.Result.Threats == nil {
			t.Error("expected non-nil threats")
		}
	})
}

func TestSaveStep(t *testing.T) {
	t.Parallel()

	t.Run("saves owned analyses", func(t *testing.T) {
		t.Parallel()

		saver := &fakeSaver{}
		a := model.NewAnalysis("example.com")
		a.URL = "https://example.com"
		a.UserID = "alice"

		if err := NewSaveStep(saver, WithSaveLogger(discardLogger())).Do(t.Context(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.ScanID != "scan-1" {
			t.Errorf("got %q, expected %q", a.ScanID, "scan-1")
		}
		if !slices.Equal(saver.calls, []string{"alice https://example.com"}) {
			t.Errorf("got calls %v", saver.calls)
		}
	})

	t.Run("skips anonymous analyses", func(t *testing.T) {
		t.Parallel()

		saver := &fakeSaver{}
		a := model.NewAnalysis("example.com")
		if err := NewSaveStep(saver).Do(t.Context(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saver.calls) != 0 {
			t.Errorf("expected no calls, got %v", saver.calls)
		}
	})

	t.Run("storage errors do not fail the analysis", func(t *testing.T) {
		t.Parallel()

		saver := &fakeSaver{err: errors.New("disk full")}
		a := model.NewAnalysis("example.com")
		a.UserID = "alice"
		if err := NewSaveStep(saver, WithSaveLogger(discardLogger())).Do(t.Context(), a); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if a.ScanID != "" {
			t.Errorf("expected empty scan id, got %q", a.ScanID)
		}
	})
}

func TestNewAnalysisPipeline(t *testing.T) {
	t.Parallel()

	t.Run("without saver", func(t *testing.T) {
		t.Parallel()

		p := NewAnalysisPipeline(nil, nil, discardLogger())()
		expected := []string{StepValidate, StepAnalyze}
		if !slices.Equal(p.StepNames(), expected) {
			t.Errorf("got %v, expected %v", p.StepNames(), expected)
		}
	})

	t.Run("with saver", func(t *testing.T) {
		t.Parallel()

		p := NewAnalysisPipeline(nil, &fakeSaver{}, discardLogger())()
		expected := []string{StepValidate, StepAnalyze, StepSave}
		if !slices.Equal(p.StepNames(), expected) {
			t.Errorf("got %v, expected %v", p.StepNames(), expected)
		}
	})

	t.Run("invalid input stops before analysis", func(t *testing.T) {
		t.Parallel()

		p := NewAnalysisPipeline(nil, nil, discardLogger())()
		a := model.NewAnalysis("not a url")
		if err := p.Execute(t.Context(), a); !errors.Is(err, model.ErrInvalidURL) {
			t.Errorf("got %v, expected %v", err, model.ErrInvalidURL)
		}
		if a.Result.Score != 0 || len(a.Findings) != 0 {
			t.Errorf("expected no analysis, got %+v", a.Result)
		}
	})
}
