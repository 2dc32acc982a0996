// internal/matching/routes.go

package matching

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers the discovery and matching endpoints.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/users/nearby", handler.NearbyUsers).Methods("GET")
	api.HandleFunc("/users/matches", handler.Matches).Methods("GET")
	api.HandleFunc("/matches/ai", handler.AIMatches).Methods("GET")
}
