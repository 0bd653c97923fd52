package api

import (
	"net/http"

	"routemax-service/internal/api/handlers"
	"routemax-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	clients ports.ClientRepository,
	routes ports.RouteRepository,
	optimizer ports.RouteOptimizer,
	geocoder ports.Geocoder,
	jwtSecret []byte,
) http.Handler {
	mux := http.NewServeMux()

	clientHandler := &handlers.ClientHandler{Repo: clients}
	corridorHandler := &handlers.CorridorHandler{Repo: clients}
	routeHandler := &handlers.RouteHandler{
		Clients:   clients,
		Routes:    routes,
		Optimizer: optimizer,
		Geocoder:  geocoder,
	}

	protected := http.NewServeMux()
	protected.HandleFunc("/clients", clientHandler.List)
	protected.HandleFunc("/corridor/suggestions", corridorHandler.Suggestions)
	protected.HandleFunc("/routes", routeHandler.Collection)
	protected.HandleFunc("/routes/", routeHandler.Detail)

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/", authMiddleware(jwtSecret, protected))

	return requestIDMiddleware(loggingMiddleware(mux))
}
