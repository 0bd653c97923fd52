package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"routemax-service/internal/api/dto"
	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
	"routemax-service/internal/services"
)

// CorridorHandler exposes corridor suggestions as a standalone preview
// endpoint, so a frontend can show candidate clients before the user commits
// to building a route.
type CorridorHandler struct {
	Repo ports.ClientRepository
}

func (h *CorridorHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := authUser(r)
	if !ok {
		writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return
	}

	var req dto.CorridorSuggestionsRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	anchors := make([]domain.Coordinates, 0, len(req.Anchors))
	for _, a := range req.Anchors {
		anchors = append(anchors, domain.Coordinates{Lat: a.Lat, Lng: a.Lng})
	}

	candidates, err := services.FilterCorridor(r.Context(), services.CorridorRequest{
		Anchors:        anchors,
		RadiusKm:       req.RadiusKm,
		MaxSuggestions: req.MaxSuggestions,
	}, userID, h.Repo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.CorridorSuggestionsResponse{
		Suggestions: make([]dto.CorridorSuggestionResponse, 0, len(candidates)),
	}
	for _, c := range candidates {
		res.Suggestions = append(res.Suggestions, dto.CorridorSuggestionResponse{
			Client:         toClientResponse(c.Client),
			DistanceMeters: c.DistanceMeters,
			Score:          c.Score,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
