package http

import (
	"encoding/json"
	"net/http"
)

// Error codes shared by every transport.
const (
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err //nolint:wrapcheck
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_, err = w.Write(body)

	return err //nolint:wrapcheck
}

// WriteError writes an ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, msg, code string, details any) error {
	return WriteJSON(w, status, ErrorResponse{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteInternalError writes the generic 500 reply.
func WriteInternalError(w http.ResponseWriter) error {
	return WriteError(w, http.StatusInternalServerError, "Internal server error", CodeInternalError, nil)
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	_ = WriteError(w, http.StatusNotFound, "Not found", CodeNotFound, nil)
}

// MethodNotAllowedHandler answers known routes hit with the wrong method with a JSON 405.
func MethodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	_ = WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", CodeMethodNotAllowed, nil)
}
