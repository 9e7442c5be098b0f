package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/wizard"
)

const (
	// maxPatchBytes bounds a draft patch body.
	maxPatchBytes = 1 << 20
	// DefaultMaxUploadBody bounds a whole multipart upload request.
	DefaultMaxUploadBody = 5*domain.MaxUploadBytes + 1<<20
	// multipartMemory is kept in memory before parts spill to disk.
	multipartMemory = 8 << 20
)

// Engine is the slice of dealreg.Engine the HTTP adapter needs.
type Engine interface {
	Start(ctx context.Context, sessionID string) (*wizard.Controller, error)
	Resume(ctx context.Context, sessionID string) (*wizard.Controller, error)
	Discard(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server serves the wizard over REST with an SSE stream of view diffs.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	gatherer      prometheus.Gatherer
	maxUploadBody int64
	logger        *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager; pass its Publish to dealreg.WithViewListener
// so wizard changes reach SSE clients.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer selects the registry exposed on /metrics. Defaults to the global one.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxUploadBody bounds the size of a file upload request. Non-positive values are ignored.
func WithMaxUploadBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBody = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:        engine,
		gatherer:      prometheus.DefaultGatherer,
		maxUploadBody: DefaultMaxUploadBody,
		logger:        slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Patch("/draft", s.UpdateDraft)
			r.Post("/advance", s.Advance)
			r.Post("/retreat", s.Retreat)
			r.Post("/submit", s.Submit)
			r.Post("/save", s.Save)
			r.Post("/files", s.AttachFiles)
			r.Delete("/files/{fileID}", s.RemoveFile)
			r.Get("/review", s.Review)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "dealreg-http",
		"version": strings.TrimSpace(dealreg.Version),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

type createRequest struct {
	SessionID string `json:"sessionId"`
}

// CreateSession handles POST /sessions. The body is optional.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPatchBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err))
		return
	}
	c, err := s.Engine.Start(r.Context(), body.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.View())
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	c, err := s.Engine.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return c, true
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.Discard(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDraft handles PATCH /sessions/{id}/draft.
func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPatchBytes)).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err))
		return
	}
	clean, err := sanitize.Patch(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := c.UpdateDraft(r.Context(), domain.Patch(clean))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Advance handles POST /sessions/{id}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, (*wizard.Controller).Advance)
}

// Retreat handles POST /sessions/{id}/retreat.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, (*wizard.Controller).Retreat)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, move func(*wizard.Controller, context.Context) error) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := move(c, r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// Submit handles POST /sessions/{id}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	id, err := c.Submit(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"confirmationId": id})
}

// Save handles POST /sessions/{id}/save.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.AutoSave(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachFiles handles POST /sessions/{id}/files?category=... with a multipart body.
// Every part named "file" is one upload.
func (s *Server) AttachFiles(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("upload body exceeds %d bytes: %w", tooLarge.Limit, err))
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid multipart body: %v", err)})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	uploads := make([]domain.FileUpload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeError(w, r, fmt.Errorf("failed to open part %q: %w", h.Filename, err))
			return
		}
		defer f.Close()
		uploads = append(uploads, domain.FileUpload{
			Name:      h.Filename,
			MimeType:  h.Header.Get("Content-Type"),
			SizeBytes: h.Size,
			Body:      f,
		})
	}

	res, err := c.AttachFiles(r.Context(), r.URL.Query().Get("category"), uploads...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RemoveFile handles DELETE /sessions/{id}/files/{fileID}.
func (s *Server) RemoveFile(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.RemoveFile(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Review handles GET /sessions/{id}/review.
func (s *Server) Review(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Review())
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The first data event carries the full view; later ones carry diffs.
// ?watch=step,fields,errors,valid,duplicates,submitted keeps only diffs touching those parts.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	sessionID := c.SessionID()

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	v := c.View()
	if initial, err := json.Marshal(domain.Diff(nil, &v)); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, watchList []string) bool {
	var diff domain.ViewDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "step":
			if diff.CurrentStepID != nil {
				return true
			}
		case "fields":
			if len(diff.Fields) > 0 {
				return true
			}
		case "errors":
			if diff.Errors != nil {
				return true
			}
		case "valid":
			if diff.Valid != nil {
				return true
			}
		case "duplicates":
			if diff.Duplicates != nil {
				return true
			}
		case "submitted":
			if diff.Submitted != nil {
				return true
			}
		}
	}
	return false
}
