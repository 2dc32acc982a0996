// internal/messaging/hub.go

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

// Notifier delivers out-of-band notifications to users with no open
// connection. Implementations must be safe for concurrent use.
type Notifier interface {
	NotifyOfflineMessage(ctx context.Context, recipientEmail string, msg *Message) error
}

// Hub owns the live connections and the room registry. All relay fan-out
// goes through it; persistence always happens through the Service before
// any broadcast, so a client never sees a message the database does not
// have.
type Hub struct {
	rooms   RoomRegistry
	service Service

	clients    map[string]*Client
	clientsMux sync.RWMutex

	// userConns tracks every connection a user has open. A user is online
	// while this set is non-empty, so a second device connecting or one of
	// two tabs closing does not flap their presence.
	userConns map[int64]map[string]bool

	register   chan *Client
	unregister chan *Client

	notifier Notifier
	redis    *redis.Client // optional presence mirror, may be nil
	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const presenceKey = "presence:online"

func NewHub(service Service, rooms RoomRegistry, notifier Notifier, redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		rooms:      rooms,
		service:    service,
		clients:    make(map[string]*Client),
		userConns:  make(map[int64]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notifier:   notifier,
		redis:      redisClient,
		validate:   validator.New(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			h.cleanup()
			return
		}
	}
}

func (h *Hub) Shutdown() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMux.Lock()
	h.clients[client.connID] = client
	if h.userConns[client.userID] == nil {
		h.userConns[client.userID] = make(map[string]bool)
	}
	h.userConns[client.userID][client.connID] = true
	firstConn := len(h.userConns[client.userID]) == 1
	total := len(h.clients)
	h.clientsMux.Unlock()

	h.rooms.Attach(client.connID, client.send)
	// Every connection sits in its user's personal room so direct
	// notifications reach all of their devices.
	h.rooms.Join(client.connID, roomForUser(client.userID))

	activeConnections.Inc()
	if firstConn {
		onlineUsers.Inc()
		h.mirrorPresence(client.userID, true)
		h.broadcastPresence(client.userID)
	}

	log.Printf("User %d connected (%s). Total connections: %d", client.userID, client.connID, total)
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMux.Lock()
	if _, exists := h.clients[client.connID]; !exists {
		h.clientsMux.Unlock()
		return
	}
	delete(h.clients, client.connID)
	delete(h.userConns[client.userID], client.connID)
	lastConn := len(h.userConns[client.userID]) == 0
	if lastConn {
		delete(h.userConns, client.userID)
	}
	total := len(h.clients)
	h.clientsMux.Unlock()

	h.rooms.Detach(client.connID)
	client.close()

	activeConnections.Dec()
	if lastConn {
		onlineUsers.Dec()
		h.mirrorPresence(client.userID, false)
		h.broadcastPresence(client.userID)
	}

	log.Printf("User %d disconnected (%s). Total connections: %d", client.userID, client.connID, total)
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for _, client := range h.clients {
		h.rooms.Detach(client.connID)
		client.close()
	}
	h.clients = make(map[string]*Client)
	h.userConns = make(map[int64]map[string]bool)
}

// IsUserOnline reports whether the user has at least one open connection
// on this process.
func (h *Hub) IsUserOnline(userID int64) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.userConns[userID]) > 0
}

// OnlineUserIDs returns the sorted set of users with open connections.
func (h *Hub) OnlineUserIDs() []int64 {
	h.clientsMux.RLock()
	ids := make([]int64, 0, len(h.userConns))
	for id := range h.userConns {
		ids = append(ids, id)
	}
	h.clientsMux.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ActiveConnections reports how many sockets are open, for the health
// endpoint.
func (h *Hub) ActiveConnections() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// broadcastPresence sends the full online set to the contacts of the user
// whose presence changed, plus the user's own devices.
func (h *Hub) broadcastPresence(userID int64) {
	event := usersOnlineEvent(h.OnlineUserIDs())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancelFn := context.WithTimeout(h.ctx, 5*time.Second)
		defer cancelFn()

		contacts, err := h.service.ContactIDs(ctx, userID)
		if err != nil {
			log.Printf("Error getting contacts for presence update: %v", err)
			return
		}
		for _, contactID := range contacts {
			h.rooms.Broadcast(roomForUser(contactID), event)
		}
		h.rooms.Broadcast(roomForUser(userID), event)
	}()
}

func (h *Hub) mirrorPresence(userID int64, online bool) {
	if h.redis == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancelFn := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelFn()

		var err error
		if online {
			err = h.redis.SAdd(ctx, presenceKey, userID).Err()
		} else {
			err = h.redis.SRem(ctx, presenceKey, userID).Err()
		}
		if err != nil {
			log.Printf("Error mirroring presence to redis: %v", err)
		}
	}()
}

// dispatch routes one inbound frame from a client. Each event is isolated:
// a malformed or failing event is logged and dropped without tearing down
// the connection or affecting other events.
func (h *Hub) dispatch(client *Client, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic handling %s: %v", event.Event, r)
		}
	}()

	switch event.Event {
	case EventConversationJoin:
		h.handleJoin(client, event)
	case EventConversationLeave:
		h.handleLeave(client, event)
	case EventSendMessage:
		h.handleSendMessage(client, event)
	case EventTyping:
		h.handleTyping(client, event)
	case EventMarkRead:
		h.handleMarkRead(client, event)
	default:
		log.Printf("Unknown event from user %d: %s", client.userID, event.Event)
	}
}

func (h *Hub) handleJoin(client *Client, event Event) {
	conversationID, err := conversationRef(event.Data)
	if err != nil {
		log.Printf("Invalid %s payload from user %d: %v", event.Event, client.userID, err)
		return
	}

	ctx, cancelFn := h.eventContext()
	defer cancelFn()

	// Membership gate: only participants may join a conversation room.
	participant, err := h.service.IsParticipant(ctx, conversationID, client.userID)
	if err != nil {
		log.Printf("Error checking participant for join: %v", err)
		return
	}
	if !participant {
		log.Printf("User %d denied join to conversation %d", client.userID, conversationID)
		return
	}

	h.rooms.Join(client.connID, roomForConversation(conversationID))
}

func (h *Hub) handleLeave(client *Client, event Event) {
	conversationID, err := conversationRef(event.Data)
	if err != nil {
		log.Printf("Invalid %s payload from user %d: %v", event.Event, client.userID, err)
		return
	}
	h.rooms.Leave(client.connID, roomForConversation(conversationID))
}

func (h *Hub) handleSendMessage(client *Client, event Event) {
	var payload SendMessagePayload
	if err := unmarshalPayload(event.Data, &payload, h.validate); err != nil {
		log.Printf("Invalid send:message payload from user %d: %v", client.userID, err)
		return
	}

	ctx, cancelFn := h.eventContext()
	defer cancelFn()

	// The sender field on the wire is advisory; the authenticated
	// connection owns the message.
	msg, err := h.service.SendMessage(ctx, client.userID, payload.ConversationID, payload.Content)
	if err != nil {
		// Socket-path failures are logged and swallowed; the sender gets
		// no error frame. REST send is the reliable path.
		recordPersistFailure()
		log.Printf("Error persisting message from user %d: %v", client.userID, err)
		return
	}
	recordMessageRelayed("socket")

	h.BroadcastMessage(ctx, msg)
}

// BroadcastMessage fans a persisted message out to the conversation room
// and the recipient's personal room, and notifies the recipient by email
// if they have no open connection. Shared by the socket path and the REST
// send path; callers must only pass messages that persistence accepted.
func (h *Hub) BroadcastMessage(ctx context.Context, msg *Message) {
	event := receiveMessagePayload(msg)
	h.rooms.Broadcast(roomForConversation(msg.ConversationID), event)

	conversation, err := h.service.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		log.Printf("Error loading conversation %d for fan-out: %v", msg.ConversationID, err)
		return
	}
	recipientID := conversation.OtherParticipant(msg.SenderID)
	if recipientID == 0 {
		return
	}

	// Personal room covers recipients who have not joined the conversation
	// room (e.g. they are on the conversation list screen).
	h.rooms.Broadcast(roomForUser(recipientID), event)

	if !h.IsUserOnline(recipientID) {
		h.notifyOffline(recipientID, msg)
	}
}

func (h *Hub) notifyOffline(recipientID int64, msg *Message) {
	if h.notifier == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelFn()

		email, err := h.service.UserEmail(ctx, recipientID)
		if err != nil {
			log.Printf("Error looking up email for user %d: %v", recipientID, err)
			return
		}
		if err := h.notifier.NotifyOfflineMessage(ctx, email, msg); err != nil {
			log.Printf("Error sending offline notification to user %d: %v", recipientID, err)
		}
	}()
}

func (h *Hub) handleTyping(client *Client, event Event) {
	var payload TypingPayload
	if err := unmarshalPayload(event.Data, &payload, h.validate); err != nil {
		log.Printf("Invalid typing payload from user %d: %v", client.userID, err)
		return
	}
	payload.SenderID = client.userID

	ctx, cancelFn := h.eventContext()
	defer cancelFn()

	participant, err := h.service.IsParticipant(ctx, payload.ConversationID, client.userID)
	if err != nil || !participant {
		return
	}

	// Typing is ephemeral: never persisted, relayed as-is.
	h.rooms.Broadcast(roomForConversation(payload.ConversationID), userTypingEvent(payload))
}

func (h *Hub) handleMarkRead(client *Client, event Event) {
	conversationID, err := conversationRef(event.Data)
	if err != nil {
		log.Printf("Invalid mark:read payload from user %d: %v", client.userID, err)
		return
	}

	ctx, cancelFn := h.eventContext()
	defer cancelFn()

	if _, err := h.service.MarkConversationRead(ctx, client.userID, conversationID); err != nil {
		log.Printf("Error marking conversation %d read for user %d: %v", conversationID, client.userID, err)
		return
	}

	h.rooms.Broadcast(roomForConversation(conversationID), messagesReadEvent(conversationID, client.userID))
}

func (h *Hub) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, 10*time.Second)
}

func unmarshalPayload(data json.RawMessage, v interface{}, validate *validator.Validate) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validating payload: %w", err)
	}
	return nil
}
