// internal/waves/routes.go

package waves

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers the wave endpoints.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api/waves").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/nearby", handler.Nearby).Methods("GET")
	api.HandleFunc("", handler.Create).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", handler.Delete).Methods("DELETE")
}
