package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"movienote/internal/types"
)

// GetPathParamInt extracts a path parameter and converts it to int
func GetPathParamInt(r *http.Request, param string) (int, error) {
	value := r.PathValue(param)
	return strconv.Atoi(value)
}

// GetQueryParam gets a query parameter with optional default value
func GetQueryParam(r *http.Request, param, defaultValue string) string {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetQueryParamInt gets a query parameter as int with optional default value
func GetQueryParamInt(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, data interface{}, statusCode int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// RespondError sends an error response with a JSON body of the form
// {"error": "..."}.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondDomainError maps a domain error to its HTTP status. Unknown errors
// become a 500 with a generic message so internals never leak.
func RespondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		RespondError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, types.ErrAlreadyExists):
		RespondError(w, "already exists", http.StatusConflict)
	case errors.Is(err, types.ErrNotFound):
		RespondError(w, "not found", http.StatusNotFound)
	case errors.Is(err, types.ErrRemoteUnavailable):
		RespondError(w, "upstream service unavailable", http.StatusServiceUnavailable)
	default:
		RespondError(w, "internal server error", http.StatusInternalServerError)
	}
}
