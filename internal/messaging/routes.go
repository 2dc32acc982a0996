// internal/messaging/routes.go

package messaging

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes wires the messaging REST surface and the websocket
// endpoint. Everything sits behind the auth middleware; the websocket
// handshake authenticates via the token query parameter.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	router.Handle("/ws", authMiddleware(http.HandlerFunc(handler.WebSocket))).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/conversations", handler.GetConversations).Methods("GET")
	api.HandleFunc("/conversations/direct/{userId:[0-9]+}", handler.DirectConversation).Methods("POST")
	api.HandleFunc("/conversations/{id:[0-9]+}/messages", handler.GetMessages).Methods("GET")
	api.HandleFunc("/conversations/{id:[0-9]+}/read", handler.MarkRead).Methods("POST")
	api.HandleFunc("/messages", handler.SendMessage).Methods("POST")
	api.HandleFunc("/users/online-status", handler.ContactsOnlineStatus).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}/online", handler.OnlineStatus).Methods("GET")
}
