// internal/messaging/handlers.go

package messaging

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/skillswap/skillswap-backend/internal/common/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens on the JWT, not the Origin header.
		return true
	},
}

type Handler struct {
	service Service
	hub     *Hub
}

func NewHandler(service Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// WebSocket handles GET /ws and upgrades the connection. The JWT
// middleware has already authenticated the request.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading websocket for user %d: %v", userID, err)
		return
	}

	NewClient(h.hub, conn, userID).Start()
}

// GetConversations handles GET /api/conversations?limit=&offset=
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)
	conversations, err := h.service.GetUserConversations(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": conversations,
	})
}

// DirectConversation handles POST /api/conversations/direct/{userId}. It
// finds or creates the pairwise conversation with the given user and is
// idempotent: repeat calls return the same conversation.
func (h *Handler) DirectConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || peerID <= 0 {
		utils.ErrorResponse(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	conversation, err := h.service.FindOrCreateConversation(r.Context(), userID, peerID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"conversation": conversation,
	})
}

// GetMessages handles GET /api/conversations/{id}/messages?limit=&offset=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || conversationID <= 0 {
		utils.ErrorResponse(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	limit, offset := pagination(r)
	messages, err := h.service.GetMessages(r.Context(), userID, conversationID, limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
	})
}

// SendMessage handles POST /api/messages. Unlike the socket path, the
// REST path surfaces persistence errors to the caller.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), userID, req.ConversationID, req.Content)
	if err != nil {
		h.respondError(w, err)
		return
	}
	recordMessageRelayed("rest")

	h.hub.BroadcastMessage(r.Context(), msg)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

// MarkRead handles POST /api/conversations/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || conversationID <= 0 {
		utils.ErrorResponse(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	changed, err := h.service.MarkConversationRead(r.Context(), userID, conversationID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if changed > 0 {
		h.hub.rooms.Broadcast(roomForConversation(conversationID), messagesReadEvent(conversationID, userID))
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"messagesRead": changed,
	})
}

// ContactsOnlineStatus handles GET /api/users/online-status. It returns
// the online flag for every contact of the caller.
func (h *Handler) ContactsOnlineStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.service.ContactIDs(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := make(map[string]bool, len(contacts))
	for _, id := range contacts {
		status[strconv.FormatInt(id, 10)] = h.hub.IsUserOnline(id)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"online":  status,
	})
}

// OnlineStatus handles GET /api/users/{id}/online
func (h *Handler) OnlineStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("userID").(int64); !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || targetID <= 0 {
		utils.ErrorResponse(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"online":  h.hub.IsUserOnline(targetID),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		utils.ErrorResponse(w, "Conversation not found", http.StatusNotFound)
	case errors.Is(err, ErrNotParticipant):
		utils.ErrorResponse(w, "Not a participant in this conversation", http.StatusForbidden)
	case errors.Is(err, ErrBlocked):
		utils.ErrorResponse(w, "Messaging is not available with this user", http.StatusForbidden)
	case errors.Is(err, ErrEmptyMessage):
		utils.ErrorResponse(w, "Message content cannot be empty", http.StatusBadRequest)
	case errors.Is(err, ErrSelfConversation):
		utils.ErrorResponse(w, "Cannot start a conversation with yourself", http.StatusBadRequest)
	default:
		utils.ErrorResponse(w, "Messaging request failed", http.StatusInternalServerError)
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
