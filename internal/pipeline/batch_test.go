package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/phishguard/internal/model"
)

func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"https://google.com",
			"not a url",
			"http://203.0.113.5/login",
			"http://verify-account.tk",
		}
		bp := NewBatchProcessor(NewAnalysisPipeline(nil, nil, discardLogger()),
			WithConcurrency(2),
			WithBatchLogger(discardLogger()),
		)

		results, err := bp.ProcessBatch(t.Context(), "", inputs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(inputs) {
			t.Fatalf("got %d results, expected %d", len(results), len(inputs))
		}
		for i, a := range results {
			if a.Input != inputs[i] {
				t.Errorf("result %d: got %q, expected %q", i, a.Input, inputs[i])
			}
		}
		if !results[1].Failed() {
			t.Error("expected invalid input to fail")
		}
		if results[2].Result.Score != 70 {
			t.Errorf("got %d, expected 70", results[2].Result.Score)
		}
		if results[3].Result.Score != 98 {
			t.Errorf("got %d, expected 98", results[3].Result.Score)
		}

		ok := Successful(results)
		if len(ok) != 3 {
			t.Errorf("got %d successful, expected 3", len(ok))
		}
	})

	t.Run("saves for the given user", func(t *testing.T) {
		t.Parallel()

		saver := &fakeSaver{}
		bp := NewBatchProcessor(NewAnalysisPipeline(nil, saver, discardLogger()),
			WithBatchLogger(discardLogger()),
		)

		results, err := bp.ProcessBatch(t.Context(), "bob", []string{"example.com", "example.org"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saver.calls) != 2 {
			t.Errorf("got %d saves, expected 2", len(saver.calls))
		}
		for _, a := range results {
			if a.UserID != "bob" {
				t.Errorf("got user %q, expected %q", a.UserID, "bob")
			}
		}
	})

	t.Run("invokes callback per url", func(t *testing.T) {
		t.Parallel()

		var count atomic.Int32
		bp := NewBatchProcessor(NewAnalysisPipeline(nil, nil, discardLogger()),
			WithBatchLogger(discardLogger()),
		)
		_, err := bp.ProcessBatchWithCallback(t.Context(), "", []string{"a.com", "b.com", "c.com"}, func(*model.Analysis) {
			count.Add(1)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count.Load() != 3 {
			t.Errorf("got %d callbacks, expected 3", count.Load())
		}
	})

	t.Run("returns cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		bp := NewBatchProcessor(NewAnalysisPipeline(nil, nil, discardLogger()),
			WithBatchLogger(discardLogger()),
		)
		if _, err := bp.ProcessBatch(ctx, "", []string{"example.com"}); !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, expected context.Canceled", err)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nil, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("got %d, expected %d", bp.concurrency, DefaultConcurrency)
		}
	})
}

func TestSplitURLList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		list    string
		limit   int
		want    []string
		wantErr bool
	}{
		{name: "trims and drops empties", list: " a.com , ,b.com,", limit: 10, want: []string{"a.com", "b.com"}},
		{name: "single url", list: "a.com", limit: 10, want: []string{"a.com"}},
		{name: "empty list", list: " , ,", limit: 10, wantErr: true},
		{name: "too many", list: strings.Repeat("a.com,", 11), limit: 10, wantErr: true},
		{name: "exactly the limit", list: strings.Repeat("a.com,", 10), limit: 10, want: []string{
			"a.com", "a.com", "a.com", "a.com", "a.com", "a.com", "a.com", "a.com", "a.com", "a.com",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := SplitURLList(tt.list, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, ErrBulkSize) {
					t.Errorf("got %v, expected %v", err, ErrBulkSize)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestReadURLList(t *testing.T) {
	t.Parallel()

	input := "# suspicious links\nexample.com\n\n  http://verify-account.tk  \n#skip\n"
	got, err := ReadURLList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "example.com|http://verify-account.tk"
	if strings.Join(got, "|") != expected {
		t.Errorf("got %q, expected %q", strings.Join(got, "|"), expected)
	}
}
