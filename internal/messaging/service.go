// internal/messaging/service.go

package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotParticipant       = errors.New("user is not a participant in this conversation")
	ErrBlocked              = errors.New("messaging is blocked between these users")
	ErrEmptyMessage         = errors.New("message content cannot be empty")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	maxContentLen   = 4000
)

// Service owns conversation and message persistence. It never touches the
// transport; broadcasting is the hub's job and always happens after the
// relevant Service call has succeeded.
type Service interface {
	FindOrCreateConversation(ctx context.Context, actorID, peerID int64) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (*Conversation, error)
	GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error)
	GetMessages(ctx context.Context, actorID, conversationID int64, limit, offset int) ([]*Message, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	// SendMessage validates and persists the message, then makes
	// best-effort preview and unread-counter writes whose failures are
	// logged, not returned. The returned message carries the
	// server-assigned id and timestamp.
	SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*Message, error)

	// MarkConversationRead bulk-marks the actor's unread messages and
	// resets their counter. Idempotent; returns how many messages changed.
	MarkConversationRead(ctx context.Context, actorID, conversationID int64) (int64, error)

	ContactIDs(ctx context.Context, userID int64) ([]int64, error)
	UserEmail(ctx context.Context, userID int64) (string, error)
}

type messageService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &messageService{repo: repo}
}

func (s *messageService) FindOrCreateConversation(ctx context.Context, actorID, peerID int64) (*Conversation, error) {
	if actorID == peerID {
		return nil, ErrSelfConversation
	}

	// Block check is one-directional: the actor cannot open a conversation
	// with someone they blocked, but being blocked by the peer does not
	// surface here.
	blocked, err := s.repo.IsBlocked(ctx, actorID, peerID)
	if err != nil {
		return nil, fmt.Errorf("checking block status: %w", err)
	}
	if blocked {
		return nil, ErrBlocked
	}

	return s.repo.FindOrCreateConversation(ctx, actorID, peerID)
}

func (s *messageService) GetConversation(ctx context.Context, conversationID int64) (*Conversation, error) {
	return s.repo.GetConversation(ctx, conversationID)
}

func (s *messageService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	return s.repo.IsParticipant(ctx, conversationID, userID)
}

func (s *messageService) GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error) {
	limit = clampPageSize(limit)
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetUserConversations(ctx, userID, limit, offset)
}

func (s *messageService) GetMessages(ctx context.Context, actorID, conversationID int64, limit, offset int) ([]*Message, error) {
	if err := s.requireParticipant(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	limit = clampPageSize(limit)
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetConversationMessages(ctx, conversationID, limit, offset)
}

func (s *messageService) SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		content = string([]rune(content)[:maxContentLen])
	}

	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !containsID(conversation.ParticipantIDs, senderID) {
		return nil, ErrNotParticipant
	}

	recipientID := conversation.OtherParticipant(senderID)
	blocked, err := s.repo.IsBlocked(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("checking block status: %w", err)
	}
	if blocked {
		return nil, ErrBlocked
	}

	msg := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Read:           false,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	// Preview and unread are separate best-effort writes. The message is
	// already persisted, so a failure here leaves the counters slightly
	// stale but must never block delivery or fail the send.
	last := &LastMessage{Content: msg.Content, SenderID: msg.SenderID, Timestamp: msg.Timestamp}
	if err := s.repo.UpdateConversationPreview(ctx, conversationID, last); err != nil {
		log.Printf("Error updating preview for conversation %d: %v", conversationID, err)
	}
	if err := s.repo.IncrementUnreadCount(ctx, conversationID, recipientID); err != nil {
		log.Printf("Error incrementing unread count for conversation %d: %v", conversationID, err)
	}

	return msg, nil
}

func (s *messageService) MarkConversationRead(ctx context.Context, actorID, conversationID int64) (int64, error) {
	if err := s.requireParticipant(ctx, conversationID, actorID); err != nil {
		return 0, err
	}

	changed, err := s.repo.MarkMessagesRead(ctx, conversationID, actorID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	if err := s.repo.ResetUnreadCount(ctx, conversationID, actorID); err != nil {
		return changed, fmt.Errorf("resetting unread count: %w", err)
	}
	return changed, nil
}

func (s *messageService) ContactIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.GetContactIDs(ctx, userID)
}

func (s *messageService) UserEmail(ctx context.Context, userID int64) (string, error) {
	return s.repo.GetUserEmail(ctx, userID)
}

func (s *messageService) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	ok, err := s.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
