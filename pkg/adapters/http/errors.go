package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/wizard"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func statusFor(err error) int {
	var (
		vErr *domain.ValidationError
		bErr *domain.BoundaryError
		sErr *domain.SubmissionError
		mErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &bErr),
		errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, dealreg.ErrSessionLive),
		errors.Is(err, dealreg.ErrSessionExists):
		return http.StatusConflict
	case errors.As(err, &sErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, wizard.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPatch),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrNoStore), errors.Is(err, wizard.ErrNoFileStorage):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = vErr.Errors
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
