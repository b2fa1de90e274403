package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fieldmesh/fieldmesh-core/internal/integrity"
)

// Error is the failure body written for every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// Error codes not covered by integrity kinds.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// errEmptyBody is returned by decodeJSON for a request without a body.
var errEmptyBody = errors.New("request body is empty")

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

// decodeJSON decodes a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeDecodeError answers a malformed body with 400 bad_request.
func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	msg := "invalid JSON body: " + err.Error()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		msg = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	}

	s.logger.Warn("request rejected",
		"entity", entity,
		"code", ErrCodeBadRequest,
		"error", err,
		"request_id", requestIDFrom(r.Context()),
	)
	s.metrics.rejections.WithLabelValues(entity, ErrCodeBadRequest).Inc()
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
}

// writeServiceError logs err and translates it to the failure body using
// the integrity kind carried in its chain. Errors without a kind are 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	status := integrity.StatusOf(err)
	body := Error{
		Status:  status,
		Code:    ErrCodeInternal,
		Message: "internal server error",
	}

	var ie *integrity.Error
	if errors.As(err, &ie) && ie.Kind.Status() != http.StatusInternalServerError {
		body.Code = string(ie.Kind)
		body.Message = ie.Message
	}
	if s.cfg.ExposeErrorTrace {
		body.Trace = err.Error()
	}

	attrs := []any{
		"entity", entity,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", body.Code,
		"error", err,
		"request_id", requestIDFrom(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
	s.metrics.rejections.WithLabelValues(entity, body.Code).Inc()

	writeJSON(w, status, body)
}
