package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// WriteJSONErrorDetails writes {"error": msg, "details": [...]}.
func WriteJSONErrorDetails(w http.ResponseWriter, message string, details []string, code int) {
	if len(details) == 0 {
		WriteJSONError(w, message, code)
		return
	}
	WriteJSON(w, code, map[string]any{"error": message, "details": details})
}

// ParseID parses a positive int64 path parameter.
func ParseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
