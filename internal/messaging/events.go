// internal/messaging/events.go
// Wire contract for the real-time channel. Event names are consumed by
// shipped clients and must stay bit-exact.

package messaging

import (
	"encoding/json"
	"fmt"
)

// Client -> server events.
const (
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventSendMessage       = "send:message"
	EventTyping            = "typing"
	EventMarkRead          = "mark:read"
)

// Server -> client events.
const (
	EventReceiveMessage = "receive:message"
	EventUserTyping     = "user:typing"
	EventMessagesRead   = "messages:read"
	EventUsersOnline    = "users:online"
)

// Event is the envelope every frame carries in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope, panicking is not an option on the relay
// path so marshal failures degrade to an empty payload.
func NewEvent(name string, payload interface{}) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = json.RawMessage(`{}`)
	}
	return Event{Event: name, Data: data}
}

// SendMessagePayload is the client payload for send:message.
type SendMessagePayload struct {
	ConversationID int64  `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required,max=4000"`
	SenderID       int64  `json:"senderId" validate:"required"`
}

// TypingPayload is shared by the client typing event and the user:typing
// broadcast.
type TypingPayload struct {
	ConversationID int64 `json:"conversationId" validate:"required"`
	SenderID       int64 `json:"senderId" validate:"required"`
	IsTyping       bool  `json:"isTyping"`
}

// MessagesReadPayload is broadcast after a bulk read.
type MessagesReadPayload struct {
	ConversationID int64 `json:"conversationId"`
	ReaderID       int64 `json:"readerId"`
}

// UsersOnlinePayload carries the full online set after presence changes.
type UsersOnlinePayload struct {
	UserIDs []int64 `json:"userIds"`
}

// conversationRef accepts both `{"conversationId": 7}` and the bare `7`
// shipped clients send for mark:read and the join/leave events.
func conversationRef(data json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil && id > 0 {
		return id, nil
	}

	var wrapped struct {
		ConversationID int64 `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.ConversationID > 0 {
		return wrapped.ConversationID, nil
	}
	return 0, fmt.Errorf("missing conversation id")
}

// receiveMessagePayload is what joined sockets see. It is the canonical
// persisted message; the timestamp is server-assigned.
func receiveMessagePayload(msg *Message) Event {
	return NewEvent(EventReceiveMessage, msg)
}

func messagesReadEvent(conversationID, readerID int64) Event {
	return NewEvent(EventMessagesRead, MessagesReadPayload{
		ConversationID: conversationID,
		ReaderID:       readerID,
	})
}

func userTypingEvent(p TypingPayload) Event {
	return NewEvent(EventUserTyping, p)
}

func usersOnlineEvent(userIDs []int64) Event {
	return NewEvent(EventUsersOnline, UsersOnlinePayload{UserIDs: userIDs})
}

// roomForConversation and roomForUser name the two room scopes.
func roomForConversation(conversationID int64) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}

func roomForUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
