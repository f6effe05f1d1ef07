package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/report"
)

type errorResponse struct {
	Error string `json:"error"`

	// AnalysisID identifies the failed analysis, when one was recorded.
	AnalysisID string `json:"analysis_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value) //nolint:errcheck // client gone
}

// statusFor maps an error to the HTTP status reported to the client.
// Configuration errors and unexpected failures are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrAnalysisNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeAnalysisError(w, r, err, "")
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error, analysisID string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSONStatus(w, errorResponse{Error: err.Error(), AnalysisID: analysisID}, status)
}

// decodeJSON decodes the request body into v. Malformed bodies are
// reported as validation errors.
func (s *Server) decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		reason := err.Error()
		if errors.Is(err, io.EOF) {
			reason = "request body is empty"
		}
		return &model.ValidationError{Field: "body", Reason: reason}
	}
	return nil
}
