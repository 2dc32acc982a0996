// internal/messaging/models.go

package messaging

import (
	"time"
)

// Message is a chat message. Immutable once created except for the read
// flag, which only ever transitions false -> true. JSON field names are
// part of the client wire contract and must not change.
type Message struct {
	ID             int64     `json:"_id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	SenderID       int64     `json:"senderId" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	Read           bool      `json:"read" db:"read"`
	Timestamp      time.Time `json:"timestamp" db:"created_at"`
}

// LastMessage is the denormalized conversation preview. Best effort: its
// update is a separate write from the message insert and may lag.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  int64     `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a pairwise chat. The participant pair is unordered for
// lookups but stored normalized (lower id first) so find-or-create is
// idempotent regardless of argument order.
type Conversation struct {
	ID             int64        `json:"id" db:"id"`
	ParticipantIDs []int64      `json:"participantIds"`
	LastMessage    *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount    int          `json:"unreadCount"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// OtherParticipant returns the peer of userID in a pairwise conversation.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return 0
}

// SendMessageRequest is the REST fallback payload for sending a message.
type SendMessageRequest struct {
	ConversationID int64  `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required,max=4000"`
}
