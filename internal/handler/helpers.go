package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation reports field-level validation failures as a details array.
func writeValidation(w http.ResponseWriter, details []string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}
