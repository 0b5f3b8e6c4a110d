package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"movie-maker/internal/apperr"
	"movie-maker/internal/logging"
)

const (
	// maxJSONBody bounds edit request bodies.
	maxJSONBody = 1 << 20

	// retryAfterSeconds is advertised when the job backlog is full.
	retryAfterSeconds = "5"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v as JSON with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, ErrorResponse{Error: message})
}

// writeMessage writes a {"message": ...} success body.
func writeMessage(w http.ResponseWriter, message string) {
	writeJSONStatus(w, http.StatusOK, MessageResponse{Message: message})
}

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is the body of simple successful API requests.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeError maps err onto a status code and body. failure is the message
// used for engine and internal errors, which are not shown to clients
// verbatim.
func writeError(w http.ResponseWriter, err error, failure string) {
	var e *apperr.Error
	message := ""
	if errors.As(err, &e) {
		message = capitalize(e.Message)
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		logging.Debug("%v", err)
		writeJSONError(w, message, http.StatusNotFound)
	case apperr.KindInvalidName:
		logging.Debug("%v", err)
		writeJSONError(w, "Invalid filename", http.StatusBadRequest)
	case apperr.KindValidation:
		logging.Debug("%v", err)
		writeJSONError(w, message, http.StatusBadRequest)
	case apperr.KindResourceExhausted:
		logging.Warn("%v", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSONError(w, "Server is busy, try again later", http.StatusServiceUnavailable)
	case apperr.KindCancelled:
		logging.Info("%v", err)
		writeJSONError(w, message, http.StatusConflict)
	case apperr.KindEngine:
		logging.Error("%s: %v", failure, err)
		writeJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:   failure,
			Details: apperr.DetailOf(err),
		})
	default:
		logging.Error("%s: %v", failure, err)
		writeJSONError(w, failure, http.StatusInternalServerError)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// decodeJSON reads a bounded JSON body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		logging.Debug("Invalid request body for %s: %v", r.URL.Path, err)
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// number accepts a JSON number or a string holding one, since form-driven
// clients often send "12.5".
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = number(v)
	return nil
}

// float returns the value as *float64, nil when absent.
func (n *number) float() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}
