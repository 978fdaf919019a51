package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/nao1215/phishguard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 4, 15, 7, 0, 0, time.UTC)

func newTestServer(t *testing.T, withStore bool, opts ...Option) (*Server, *database.ScanDB) {
	t.Helper()

	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	var db *database.ScanDB
	if withStore {
		var err error
		db, err = database.Open(t.TempDir(), database.DefaultOptions())
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		base = append(base, WithStore(db))
	}

	s := New(append(base, opts...)...)
	s.now = func() time.Time { return fixedNow }
	return s, db
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIndexAndHealth(t *testing.T) {
	t.Parallel()

	t.Run("index lists endpoints", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false, WithVersion("v9"))
		rec := do(t, s.Router(), http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "PhishGuard API", body["message"])
		assert.Equal(t, "v9", body["version"])
		assert.Contains(t, body["endpoints"], "analyze")
	})

	t.Run("health without database", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		rec := do(t, s.Router(), http.MethodGet, "/api/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, false, body["database_connected"])
		assert.Equal(t, fixedNow.Format(time.RFC3339), body["timestamp"])
	})

	t.Run("health with database", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, true)
		rec := do(t, s.Router(), http.MethodGet, "/api/health", "")
		body := decode[map[string]any](t, rec)
		assert.Equal(t, true, body["database_connected"])
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("scores a dangerous url", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"http://203.0.113.5/login"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		body := decode[analyzeResponse](t, rec)
		assert.Equal(t, "http://203.0.113.5/login", body.URL)
		assert.Equal(t, model.StatusDangerous, body.Status)
		assert.Equal(t, 70, body.RiskScore)
		assert.Equal(t, []string{
			"No HTTPS encryption",
			"Using IP address instead of domain",
			"Credential harvesting pattern",
		}, body.Threats)
		assert.Equal(t, "03:07 PM", body.Timestamp)
	})

	t.Run("qualifies bare domains and returns empty threats", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"  google.com "}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"threats":[]`)

		body := decode[analyzeResponse](t, rec)
		assert.Equal(t, "https://google.com", body.URL)
		assert.Equal(t, model.StatusSafe, body.Status)
		assert.Equal(t, 0, body.RiskScore)
	})

	t.Run("uppercase scheme is scored like lowercase", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"HTTP://Example.com/"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[analyzeResponse](t, rec)
		assert.Equal(t, 15, body.RiskScore)
		assert.Equal(t, []string{"No HTTPS encryption"}, body.Threats)
	})

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "empty url", body: `{"url":"   "}`, detail: detailURLRequired},
		{name: "missing url", body: `{}`, detail: detailURLRequired},
		{name: "invalid url", body: `{"url":"not a url"}`, detail: detailInvalidURL},
		{name: "malformed body", body: `{"url":`, detail: detailInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, false)
			rec := do(t, s.Router(), http.MethodPost, "/api/analyze", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.detail, decode[errorResponse](t, rec).Detail)
		})
	}

	t.Run("persists when user_id is given", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"http://verify-account.tk","user_id":"alice"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		records, err := db.ListScans(t.Context(), "alice", 10, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "http://verify-account.tk", records[0].URL)
		assert.Equal(t, 98, records[0].RiskScore)

		stats, err := db.UserStats(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ThreatsBlocked())
	})

	t.Run("anonymous requests are not stored", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		records, err := db.ListScans(t.Context(), "", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("storage failures do not fail the request", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		require.NoError(t, db.Close())

		rec := do(t, s.Router(), http.MethodPost, "/api/analyze", `{"url":"example.com","user_id":"alice"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBulkAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("keeps order and skips invalid entries", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		rec := do(t, s.Router(), http.MethodGet,
			"/api/bulk-analyze?urls=google.com,not%20a%20url,http://verify-account.tk,,", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[struct {
			Results []analyzeResponse `json:"results"`
		}](t, rec)
		require.Len(t, body.Results, 2)
		assert.Equal(t, "google.com", body.Results[0].URL)
		assert.Equal(t, model.StatusSafe, body.Results[0].Status)
		assert.Equal(t, "http://verify-account.tk", body.Results[1].URL)
		assert.Equal(t, 98, body.Results[1].RiskScore)
		assert.Empty(t, body.Results[1].Timestamp)
	})

	t.Run("rejects empty and oversized lists", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		for _, q := range []string{"", "urls=", "urls=" + strings.Repeat("a.com,", 11)} {
			rec := do(t, s.Router(), http.MethodGet, "/api/bulk-analyze?"+q, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
			assert.Equal(t, "Provide 1-10 URLs separated by commas", decode[errorResponse](t, rec).Detail)
		}
	})

	t.Run("persists for user_id", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		rec := do(t, s.Router(), http.MethodGet, "/api/bulk-analyze?urls=a.com,b.com&user_id=bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		records, err := db.ListScans(t.Context(), "bob", 10, 0)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestUserEndpointsWithoutStore(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, false)
	h := s.Router()

	t.Run("stats are zero", func(t *testing.T) {
		t.Parallel()

		rec := do(t, h, http.MethodGet, "/api/user/alice/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, statsResponse{ProtectionActive: true}, decode[statsResponse](t, rec))
	})

	t.Run("scans are empty", func(t *testing.T) {
		t.Parallel()

		rec := do(t, h, http.MethodGet, "/api/user/alice/scans", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/user/alice/protection", ""},
		{http.MethodPost, "/api/user/alice/protection", `{"enabled":false}`},
		{http.MethodPost, "/api/user/alice/background-scan", `{"count":2}`},
		{http.MethodDelete, "/api/user/alice/scans/x", ""},
		{http.MethodGet, "/api/user/alice/profile", ""},
		{http.MethodPost, "/api/user/alice/profile?name=Alice", ""},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, detailDBUnavailable, decode[errorResponse](t, rec).Detail)
		})
	}
}

func TestUserEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("stats count stored and background scans", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		h := s.Router()
		_, err := db.InsertScan(t.Context(), "alice", "https://google.com", model.AnalysisResult{Status: model.StatusSafe, Threats: []string{}})
		require.NoError(t, err)
		_, err = db.InsertScan(t.Context(), "alice", "http://verify-account.tk", model.AnalysisResult{Score: 80, Status: model.StatusDangerous, Threats: []string{}})
		require.NoError(t, err)

		rec := do(t, h, http.MethodPost, "/api/user/alice/background-scan", `{"count":3}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, messageResponse{Message: "Background scan recorded", Count: 3}, decode[messageResponse](t, rec))

		rec = do(t, h, http.MethodGet, "/api/user/alice/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, statsResponse{
			ThreatsBlocked:   1,
			SafeSites:        1,
			ScansTotal:       5,
			ProtectionActive: true,
		}, decode[statsResponse](t, rec))
	})

	t.Run("background scan defaults to one", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, true)
		for _, body := range []string{"", `{"count":0}`, `{"count":-4}`} {
			rec := do(t, s.Router(), http.MethodPost, "/api/user/bob/background-scan", body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 1, decode[messageResponse](t, rec).Count)
		}
	})

	t.Run("protection round trip", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, true)
		h := s.Router()

		rec := do(t, h, http.MethodGet, "/api/user/carol/protection", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[protectionResponse](t, rec).ProtectionActive)

		rec = do(t, h, http.MethodPost, "/api/user/carol/protection", `{"enabled":false}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[protectionResponse](t, rec).ProtectionActive)

		rec = do(t, h, http.MethodGet, "/api/user/carol/protection", "")
		assert.False(t, decode[protectionResponse](t, rec).ProtectionActive)

		rec = do(t, h, http.MethodPost, "/api/user/carol/protection", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history and delete", func(t *testing.T) {
		t.Parallel()

		s, db := newTestServer(t, true)
		h := s.Router()
		first, err := db.InsertScan(t.Context(), "dave", "https://a.com", model.AnalysisResult{Status: model.StatusSafe, Threats: []string{}})
		require.NoError(t, err)
		_, err = db.InsertScan(t.Context(), "dave", "https://b.com", model.AnalysisResult{Status: model.StatusSafe, Threats: []string{}})
		require.NoError(t, err)

		rec := do(t, h, http.MethodGet, "/api/user/dave/scans?limit=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode[[]scanHistoryItem](t, rec)
		require.Len(t, items, 1)
		assert.Equal(t, "https://b.com", items[0].URL)

		rec = do(t, h, http.MethodGet, "/api/user/dave/scans?limit=x", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodDelete, "/api/user/eve/scans/"+first.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, detailScanNotFound, decode[errorResponse](t, rec).Detail)

		rec = do(t, h, http.MethodDelete, "/api/user/dave/scans/"+first.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Scan deleted", decode[messageResponse](t, rec).Message)

		rec = do(t, h, http.MethodDelete, "/api/user/dave/scans/"+first.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("profile update from query and body", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, true)
		h := s.Router()

		rec := do(t, h, http.MethodPost, "/api/user/frank/profile?name=Frank", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Profile updated", decode[messageResponse](t, rec).Message)

		rec = do(t, h, http.MethodPost, "/api/user/frank/profile", `{"email":"frank@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodGet, "/api/user/frank/profile", "")
		require.Equal(t, http.StatusOK, rec.Code)
		profile := decode[model.UserProfile](t, rec)
		assert.Equal(t, "frank", profile.ID)
		assert.Equal(t, "Frank", profile.Name)
		assert.Equal(t, "frank@example.com", profile.Email)
		assert.True(t, profile.ProtectionActive)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("allows any origin by default", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "chrome-extension://abc")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("answers preflight", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t, false)
		req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("restricts to configured origins", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.CORSOrigins = []string{"https://allowed.example"}
		s, _ := newTestServer(t, false, WithConfig(cfg))

		for origin, want := range map[string]string{
			"https://allowed.example": "https://allowed.example",
			"https://other.example":   "",
		} {
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.Header.Set("Origin", origin)
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests over the limit", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.RateLimitPerMinute = 2
		s, _ := newTestServer(t, false, WithConfig(cfg))
		h := s.Router()

		for range 2 {
			rec := do(t, h, http.MethodGet, "/api/health", "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := do(t, h, http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("limits clients independently", func(t *testing.T) {
		t.Parallel()

		l := newIPRateLimiter(1)
		assert.True(t, l.allow("192.0.2.1"))
		assert.False(t, l.allow("192.0.2.1"))
		assert.True(t, l.allow("192.0.2.2"))
	})

	t.Run("forgets idle clients", func(t *testing.T) {
		t.Parallel()

		now := fixedNow
		l := newIPRateLimiter(1)
		l.now = func() time.Time { return now }
		assert.True(t, l.allow("192.0.2.1"))

		now = now.Add(2 * limiterIdleTTL)
		assert.True(t, l.allow("192.0.2.9"))
		assert.Len(t, l.clients, 1)
	})

	t.Run("zero disables the limiter", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.RateLimitPerMinute = 0
		s, _ := newTestServer(t, false, WithConfig(cfg))
		h := s.Router()
		for range 5 {
			assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
		}
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/analyze"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"url":"example.com"}`)) //nolint:noctx // test request
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
