// internal/messaging/repository.go

package messaging

import "context"

// Repository is the persistence collaborator of the relay. Implementations
// must keep FindOrCreateConversation idempotent for either argument order.
type Repository interface {
	FindOrCreateConversation(ctx context.Context, userA, userB int64) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (*Conversation, error)
	GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	CreateMessage(ctx context.Context, msg *Message) error
	GetConversationMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error)

	// UpdateConversationPreview is a separate, best-effort write; it is
	// not atomic with CreateMessage and a crash between the two leaves a
	// stale preview.
	UpdateConversationPreview(ctx context.Context, conversationID int64, last *LastMessage) error
	IncrementUnreadCount(ctx context.Context, conversationID, userID int64) error
	ResetUnreadCount(ctx context.Context, conversationID, userID int64) error

	// MarkMessagesRead bulk-marks every unread message in the conversation
	// not authored by readerID. Returns the number of rows changed so
	// callers can observe idempotence.
	MarkMessagesRead(ctx context.Context, conversationID, readerID int64) (int64, error)

	IsBlocked(ctx context.Context, userID, targetID int64) (bool, error)
	GetContactIDs(ctx context.Context, userID int64) ([]int64, error)
	GetUserEmail(ctx context.Context, userID int64) (string, error)
}
