package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/escriba/minuta/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteAppError maps a service error onto its HTTP status, code, and
// user-facing message. Unclassified errors surface as 503.
func WriteAppError(w http.ResponseWriter, err error) error {
	appErr := models.AsAppError(err)
	return WriteJSON(w, appErr.Status, map[string]string{
		"status": "error",
		"code":   appErr.Code,
		"error":  appErr.UserMessage,
	})
}
