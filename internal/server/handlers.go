package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nao1215/phishguard/internal/database"
	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/pipeline"
)

// timestampLayout is the clock-time form returned by /api/analyze.
const timestampLayout = "03:04 PM"

const (
	detailURLRequired   = "URL is required"
	detailInvalidURL    = "Invalid URL format"
	detailDBUnavailable = "Database not available"
	detailScanNotFound  = "Scan not found or unauthorized"
	detailInternal      = "Internal server error"
	detailInvalidBody   = "Invalid request body"
	detailInvalidPaging = "limit and offset must be non-negative integers"
)

type analyzeRequest struct {
	URL    string `json:"url"`
	UserID string `json:"user_id"`
}

type analyzeResponse struct {
	URL       string       `json:"url"`
	Status    model.Status `json:"status"`
	RiskScore int          `json:"riskScore"`
	Threats   []string     `json:"threats"`
	Timestamp string       `json:"timestamp,omitempty"`
}

type statsResponse struct {
	ThreatsBlocked   int  `json:"threats_blocked"`
	SafeSites        int  `json:"safe_sites"`
	ScansTotal       int  `json:"scans_total"`
	ProtectionActive bool `json:"protection_active"`
}

type scanHistoryItem struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	Status    model.Status `json:"status"`
	CreatedAt string       `json:"created_at"`
	RiskScore int          `json:"risk_score"`
	Threats   []string     `json:"threats"`
}

type protectionRequest struct {
	Enabled *bool `json:"enabled"`
}

type protectionResponse struct {
	ProtectionActive bool `json:"protection_active"`
}

type backgroundScanRequest struct {
	Count int `json:"count"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "PhishGuard API",
		"version": s.version,
		"endpoints": map[string]string{
			"health":          "GET /api/health",
			"analyze":         "POST /api/analyze",
			"bulk_analyze":    "GET /api/bulk-analyze",
			"stats":           "GET /api/user/{user_id}/stats",
			"protection":      "GET|POST /api/user/{user_id}/protection",
			"background_scan": "POST /api/user/{user_id}/background-scan",
			"scans":           "GET /api/user/{user_id}/scans",
			"delete_scan":     "DELETE /api/user/{user_id}/scans/{scan_id}",
			"profile":         "GET /api/user/{user_id}/profile",
			"update_profile":  "POST /api/user/{user_id}/profile",
		},
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	connected := false
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("database ping failed", "error", err)
		} else {
			connected = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"timestamp":          s.now().Format(time.RFC3339),
		"database_connected": connected,
	})
}

// analyze scores one URL. Results are saved when user_id is given and a
// store is configured; a failed save does not affect the response.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, detailURLRequired)
		return
	}

	a := model.NewAnalysis(req.URL)
	a.UserID = strings.TrimSpace(req.UserID)
	if err := s.analysisPipeline()().Execute(r.Context(), a); err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		URL:       a.URL,
		Status:    a.Result.Status,
		RiskScore: a.Result.Score,
		Threats:   a.Result.Threats,
		Timestamp: s.now().Format(timestampLayout),
	})
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyURL):
		writeError(w, http.StatusBadRequest, detailURLRequired)
	case errors.Is(err, model.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, detailInvalidURL)
	default:
		s.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
	}
}

// bulkAnalyze scores a comma-separated list. Entries that fail validation
// are left out of the results.
func (s *Server) bulkAnalyze(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	urls, err := pipeline.SplitURLList(query.Get("urls"), s.maxBulkURLs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Provide 1-"+strconv.Itoa(s.maxBulkURLs)+" URLs separated by commas")
		return
	}

	bp := pipeline.NewBatchProcessor(s.analysisPipeline(),
		pipeline.WithConcurrency(s.concurrency),
		pipeline.WithBatchLogger(s.logger),
	)
	analyses, err := bp.ProcessBatch(r.Context(), strings.TrimSpace(query.Get("user_id")), urls)
	if err != nil {
		s.logger.Error("bulk analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	results := make([]analyzeResponse, 0, len(analyses))
	for _, a := range pipeline.Successful(analyses) {
		results = append(results, analyzeResponse{
			URL:       a.Input,
			Status:    a.Result.Status,
			RiskScore: a.Result.Score,
			Threats:   a.Result.Threats,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// userStats reports zeros when no store is configured.
func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, statsResponse{ProtectionActive: true})
		return
	}

	stats, err := s.store.UserStats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		ThreatsBlocked:   stats.ThreatsBlocked(),
		SafeSites:        stats.Safe,
		ScansTotal:       stats.ScansTotal(),
		ProtectionActive: stats.ProtectionActive,
	})
}

func (s *Server) getProtection(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	active, err := s.store.ProtectionStatus(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protectionResponse{ProtectionActive: active})
}

func (s *Server) setProtection(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req protectionRequest
	if err := decodeJSON(w, r, &req, false); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}
	if err := s.store.SetProtectionStatus(r.Context(), chi.URLParam(r, "userID"), *req.Enabled); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protectionResponse{ProtectionActive: *req.Enabled})
}

func (s *Server) backgroundScan(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	req := backgroundScanRequest{Count: 1}
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}
	count, err := s.store.IncrementBackgroundScans(r.Context(), chi.URLParam(r, "userID"), req.Count)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Background scan recorded", Count: count})
}

// listScans returns an empty list when no store is configured.
func (s *Server) listScans(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		writeError(w, http.StatusBadRequest, detailInvalidPaging)
		return
	}
	items := make([]scanHistoryItem, 0)
	if s.store == nil {
		writeJSON(w, http.StatusOK, items)
		return
	}

	records, err := s.store.ListScans(r.Context(), chi.URLParam(r, "userID"), limit, offset)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	for _, rec := range records {
		items = append(items, scanHistoryItem{
			ID:        rec.ID,
			URL:       rec.URL,
			Status:    rec.Status,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
			RiskScore: rec.RiskScore,
			Threats:   rec.Threats,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func pagination(r *http.Request) (limit, offset int, ok bool) {
	limit, offset = database.DefaultListLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func (s *Server) deleteScan(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	err := s.store.DeleteScan(r.Context(), chi.URLParam(r, "scanID"), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Scan deleted"})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// updateProfile takes the name from the query string or a JSON body.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	req := profileRequest{Name: r.URL.Query().Get("name")}
	if req.Name == "" {
		if err := decodeJSON(w, r, &req, true); err != nil {
			writeError(w, http.StatusBadRequest, detailInvalidBody)
			return
		}
	}
	err := s.store.UpdateProfile(r.Context(), chi.URLParam(r, "userID"),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Email))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Profile updated"})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, detailDBUnavailable)
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, detailScanNotFound)
	case errors.Is(err, database.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, detailDBUnavailable)
	case errors.Is(err, database.ErrEmptyUserID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("database error", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
	}
}
