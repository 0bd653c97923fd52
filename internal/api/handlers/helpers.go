package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"routemax-service/internal/ports"
	"routemax-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, msg string, details map[string]any) {
	writeJSON(w, r, status, errorBody{Error: msg, Code: code, Details: details})
}

// writeServiceError maps pipeline errors onto HTTP responses. Expected
// business outcomes get a stable code; everything else is a 500 with the
// detail kept in the server log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		writeErrorCode(w, r, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Reason, map[string]any{
			"field": vErr.Field,
		})
		return
	}

	var infErr *services.InfeasibleError
	if errors.As(err, &infErr) {
		writeErrorCode(w, r, http.StatusUnprocessableEntity, "TIME_CONSTRAINT_IMPOSSIBLE",
			"the return deadline cannot be met even with only the mandatory stop", map[string]any{
				"overtime_minutes": infErr.OvertimeMinutes,
			})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotOwned):
		writeErrorCode(w, r, http.StatusForbidden, "NOT_OWNED", "client does not belong to the caller", nil)
	case errors.Is(err, ports.ErrRouteNotFound):
		writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	case errors.Is(err, ports.ErrRateLimited):
		writeErrorCode(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "routing provider quota exceeded, try again later", nil)
	case errors.Is(err, ports.ErrNoRoute):
		writeErrorCode(w, r, http.StatusUnprocessableEntity, "NO_ROUTE", "no drivable route connects the requested stops", nil)
	case errors.Is(err, services.ErrOptimizationFailed):
		writeErrorCode(w, r, http.StatusBadGateway, "OPTIMIZATION_FAILED", "route optimization did not converge", nil)
	default:
		log.Printf("unhandled service error: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeErrorCode(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
