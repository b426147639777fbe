package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"translation-queue/internal/logger"
	"translation-queue/internal/models"
	"translation-queue/internal/queue"
	"translation-queue/internal/ratelimit"
	"translation-queue/internal/telemetry"
)

// Server wires HTTP handlers for the translation queue.
type Server struct {
	queue   *queue.Queue
	limiter ratelimit.Limiter
	auth    *Authenticator
	log     *logger.Logger
}

// New constructs the API server. limiter and auth may be nil.
func New(q *queue.Queue, limiter ratelimit.Limiter, auth *Authenticator, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		queue:   q,
		limiter: limiter,
		auth:    auth,
		log:     log,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/translations", s.handleEnqueue)
		r.Get("/queue", s.handleSnapshot)
		r.Delete("/queue", s.handleClear)
		r.Post("/queue/tick", s.handleTick)
		r.Get("/queue/{id}/history", s.handleHistory)
	})
	return r
}

type enqueueRequest struct {
	DocumentIDs  []string `json:"document_ids"`
	Languages    []string `json:"languages"`
	DocumentType string   `json:"document_type"`
}

type enqueueResponse struct {
	Queued int                  `json:"queued"`
	Queue  []queue.SnapshotItem `json:"queue"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(r.Context(), principalFrom(r.Context()))
		if err != nil {
			s.log.Error("rate limiter failed", "error", err.Error())
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
	}

	queued, err := s.queue.EnqueueSelection(r.Context(), queue.Selection{
		DocumentIDs:  req.DocumentIDs,
		Languages:    req.Languages,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, err := s.queue.Snapshot(r.Context(), false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("translations requested", "principal", principalFrom(r.Context()), "queued", queued)
	writeJSON(w, http.StatusAccepted, enqueueResponse{Queued: queued, Queue: items})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	history := r.URL.Query().Get("history")
	items, err := s.queue.Snapshot(r.Context(), history == "1" || history == "true")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Clear(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("queue cleared via API", "principal", principalFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	job, err := s.queue.ProcessNext(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"idle": true})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log, err := s.queue.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// writeError is the single place domain errors become status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidSelection):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, models.ErrJobNotFound):
		http.Error(w, "job not found", http.StatusNotFound)
	default:
		s.log.Error("request failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
