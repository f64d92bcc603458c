package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"observatorio/internal/agent"
	"observatorio/internal/config"
	"observatorio/internal/models"
	"observatorio/internal/retrieval"
	"observatorio/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	maxChatBody    = 64 << 10
	maxProfileBody = 1 << 20

	auditWindow = 24 * time.Hour
)

// OutcomeCounter summarizes recent asks. storage.AskAuditRepo implements it.
type OutcomeCounter interface {
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error)
}

type Deps struct {
	Store   *store.Store
	Catalog *retrieval.Holder
	Agent   *agent.Agent
	// Audit is optional; when nil the catalog endpoint omits ask counts.
	Audit  OutcomeCounter
	Logger *zap.Logger
}

type Server struct {
	cfg     config.Config
	store   *store.Store
	catalog *retrieval.Holder
	agent   *agent.Agent
	audit   OutcomeCounter
	logger  *zap.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		store:   d.Store,
		catalog: d.Catalog,
		agent:   d.Agent,
		audit:   d.Audit,
		logger:  d.Logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, nil)
	})

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealthz)
	r.Handle("/public/*", http.StripPrefix("/public", http.FileServer(http.Dir(s.cfg.PublicDir))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/commissions", s.handleCommissions)
		r.Get("/commissions/{group}/{commission}/sessions", s.handleSessions)
		r.Get("/commissions/{group}/{commission}/sessions/{sid}/transcript", s.handleTranscript)
		r.Get("/politicians", s.handlePoliticians)
		r.Get("/activity", s.handleActivity)
		r.Get("/news", s.handleNews)
		r.Get("/kom/{chamber}/{pid}", s.handleGetProfile)
		r.Post("/kom/{chamber}/{pid}", s.handleSaveProfile)
		r.Post("/chat", s.handleChat)

		r.Get("/admin/catalog", s.handleCatalogInfo)
		r.Post("/admin/catalog/rebuild", s.handleCatalogRebuild)
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(s.cfg.PublicDir, "index.html")
	if st, err := os.Stat(index); err == nil && st.Mode().IsRegular() {
		http.ServeFile(w, r, index)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Observatorio Político API", "version": "0.2"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"data_repo_dir":     s.store.DataRepoDir,
		"kom_dir":           s.store.KomDir,
		"gemini_configured": s.agent.Configured(),
		"catalog_documents": s.catalog.Current().Len(),
	})
}

func (s *Server) handleCommissions(w http.ResponseWriter, r *http.Request) {
	group := queryOr(r, "group", "Permanentes")
	items := s.store.ListCommissions(group, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"total":   len(items),
		"group":   group,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.CommissionSessions(pathParam(r, "group"), pathParam(r, "commission"))
	if errors.Is(err, store.ErrHistoryNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "No se encontró historial.csv"})
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "commission": sessions})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	text, err := s.store.ReadTranscript(pathParam(r, "group"), pathParam(r, "commission"), pathParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Transcript no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "text": text})
}

func (s *Server) handlePoliticians(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := s.store.ListPoliticians(q.Get("q"), q.Get("chamber"))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"politicians": items,
		"total":       len(items),
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := store.DefaultActivityDays
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid days: %q", raw))
			return
		}
		days = n
	}
	items := s.store.ActivityFeed(store.ActivityQuery{
		Group:    q.Get("group"),
		Status:   q.Get("status"),
		Q:        q.Get("q"),
		DaysBack: days,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"items":     items,
		"total":     len(items),
		"days_back": days,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	source := queryOr(r, "source", store.NewsSourceDiarioOficial)
	items := s.store.NewsFeed(source, r.URL.Query().Get("q"), store.DefaultNewsLimit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"total":   len(items),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, exists, err := s.store.GetProfile(pathParam(r, "chamber"), pathParam(r, "pid"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "exists": exists, "profile": p})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var in models.KomProfile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody)).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	saved, err := s.store.SaveProfile(pathParam(r, "chamber"), pathParam(r, "pid"), in)
	if errors.Is(err, store.ErrInvalidProfileKey) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.logger.Error("save profile failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "saved": true, "profile": saved})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "No message provided"})
		return
	}
	ans := s.agent.Ask(r.Context(), msg)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"response":   ans.String(),
		"kind":       ans.Kind,
		"request_id": ans.RequestID,
	})
}

func (s *Server) handleCatalogRebuild(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	cat := s.catalog.Rebuild(r.Context())
	s.logger.Info("catalog rebuilt via api",
		zap.Int("documents", cat.Len()),
		zap.Int("entities", len(cat.Entities())),
		zap.Duration("took", time.Since(started)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"documents": cat.Len(),
		"entities":  len(cat.Entities()),
		"built_at":  cat.BuiltAt(),
	})
}

func (s *Server) handleCatalogInfo(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Current()
	out := map[string]any{
		"success":   true,
		"documents": cat.Len(),
		"by_kind":   cat.CountByKind(),
		"entities":  cat.Entities(),
		"built_at":  cat.BuiltAt(),
		"roots":     s.catalog.Roots(),
	}
	if s.audit != nil {
		counts, err := s.audit.CountByOutcome(r.Context(), time.Now().Add(-auditWindow))
		if err != nil {
			s.logger.Warn("ask audit counts unavailable", zap.Error(err))
		} else {
			out["asks_last_24h"] = counts
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(started)))
	})
}

func queryOr(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return def
}

// pathParam returns the decoded route parameter; chi hands back escaped
// segments when the request path carries a RawPath.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "OBS-API-4000"

	switch {
	case status >= 500:
		return apiError{
			Code:    "OBS-API-5000",
			Message: "Internal server error. Please retry or check service logs.",
		}
	case status == http.StatusBadRequest:
		code = "OBS-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "OBS-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "OBS-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "invalid days"):
			msg = "days must be a positive integer."
		case errors.Is(err, store.ErrInvalidProfileKey):
			msg = "Invalid chamber or politician id."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
