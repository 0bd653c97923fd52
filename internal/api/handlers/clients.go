package handlers

import (
	"log"
	"net/http"

	"routemax-service/internal/api/dto"
	"routemax-service/internal/domain"
	"routemax-service/internal/platform/obs"
	"routemax-service/internal/ports"
)

// ClientHandler exposes read-only client retrieval endpoints.
type ClientHandler struct {
	Repo ports.ClientRepository
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := authUser(r)
	if !ok {
		writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return
	}

	clients, err := h.Repo.ListActiveClients(r.Context(), userID)
	if err != nil {
		log.Printf("list clients failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListClientsResponse{
		Clients: make([]dto.ClientResponse, 0, len(clients)),
	}
	for _, c := range clients {
		res.Clients = append(res.Clients, toClientResponse(c))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toClientResponse(c *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ClientID:    c.ClientID,
		Name:        c.Name,
		Address:     c.Address,
		Lat:         c.Position.Lat,
		Lng:         c.Position.Lng,
		OpeningTime: c.OpeningTime,
		ClosingTime: c.ClosingTime,
	}
}

// authUser pulls the authenticated user id the auth middleware stored in the
// request context.
func authUser(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(obs.UserIDKey).(string)
	return userID, ok && userID != ""
}
