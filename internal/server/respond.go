package server

import (
	"encoding/json"
	"net/http"

	"github.com/grovetools/teamboard/errors"
)

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	TeamID  string `json:"teamId,omitempty"`
}

// statusFor maps an error code to its HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCapacity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status its code maps to.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	status := statusFor(err)
	body := errorBody{Error: summary, Message: err.Error()}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error(summary)
	}
	writeJSON(w, status, body)
}
