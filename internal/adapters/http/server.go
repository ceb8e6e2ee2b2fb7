package http

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/viralsafe/content-safety/internal/application"
	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

// Server exposes the analysis service over HTTP
type Server struct {
	service *application.AnalysisService
	health  ports.HealthReader
	router  chi.Router
}

func NewServer(service *application.AnalysisService, health ports.HealthReader) *Server {
	s := &Server{
		service: service,
		health:  health,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analysis/{id}", s.handleGetAnalysis)
	r.Get("/health", s.handleHealth)
	r.Get("/analytics", s.handleAnalytics)

	s.router = r
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

type analyzeRequest struct {
	Content     string `json:"content"`
	ContentKind string `json:"content_kind"`
	URL         string `json:"url,omitempty"`
	Platform    string `json:"platform,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := domain.AnalysisRequest{
		ContentKind:  domain.ContentKind(body.ContentKind),
		RawContent:   body.Content,
		DeclaredURL:  body.URL,
		PlatformHint: strings.ToLower(body.Platform),
	}

	result, err := s.service.Analyze(r.Context(), clientKey(r), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		case errors.Is(err, domain.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("analysis failed: %v", err)
			writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	result, err := s.service.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHealth reports the scan aggregator health derived from real
// traffic. It never performs a network call.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.health.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"scan_provider": snapshot,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Analytics(r.Context())
	if err != nil {
		log.Printf("analytics query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "analytics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// clientKey identifies the caller for rate limiting. RealIP middleware
// has already resolved forwarded addresses into RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
