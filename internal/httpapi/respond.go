// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/pkg/errutil"
)

// errorBody is the uniform error payload.
type errorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError maps the error taxonomy to HTTP statuses. Unclassified
// errors become 500 with a generic message so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case fault.IsValidation(err):
		status = http.StatusBadRequest
	case fault.IsUnauthenticated(err):
		status = http.StatusUnauthorized
	case fault.IsForbidden(err):
		status = http.StatusForbidden
	case fault.IsNotFound(err):
		status = http.StatusNotFound
	case fault.IsConflict(err):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
		errutil.LogError(s.logger, "request failed", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			"status", status, "error", err.Error())
	}

	s.writeJSON(w, status, errorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	})
}

// observeInvariant counts a write rejected by a domain invariant.
func (s *Server) observeInvariant(err error, invariant string) {
	if s.metrics == nil || err == nil {
		return
	}
	if fault.IsConflict(err) || fault.IsForbidden(err) {
		s.metrics.InvariantRejects.WithLabelValues(invariant).Inc()
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(fault.ErrValidation, err)
	}
	return nil
}
