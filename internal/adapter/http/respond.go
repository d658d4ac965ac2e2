package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: requestIDFrom(r.Context())})
}

// paramError names the query parameter that failed to parse.
type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string { return fmt.Sprintf("invalid %s: %s", e.name, e.msg) }

func queryFloat(r *http.Request, name string, def *float64, lo, hi float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if def == nil {
			return 0, &paramError{name, "required"}
		}
		return *def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &paramError{name, fmt.Sprintf("%q is not a number", raw)}
	}
	if v < lo || v > hi {
		return 0, &paramError{name, fmt.Sprintf("must be between %g and %g", lo, hi)}
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name, fmt.Sprintf("%q is not an integer", raw)}
	}
	if v < lo || v > hi {
		return 0, &paramError{name, fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return v, nil
}
