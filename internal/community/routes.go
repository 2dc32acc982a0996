// internal/community/routes.go

package community

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers the community endpoints.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api/communities").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/nearby", handler.Nearby).Methods("GET")
	api.HandleFunc("", handler.Create).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}/join", handler.Join).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}/leave", handler.Leave).Methods("POST")
}
