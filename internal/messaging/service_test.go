package messaging

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// fakeRepository is an in-memory Repository for service and hub tests.
type fakeRepository struct {
	conversations map[int64]*Conversation
	messages      map[int64][]*Message
	unread        map[string]int // "convID:userID"
	blocked       map[[2]int64]bool
	emails        map[int64]string
	nextConvID    int64
	nextMsgID     int64

	createMessageErr error
	previewErr       error
	unreadErr        error
	previewCalls     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		conversations: make(map[int64]*Conversation),
		messages:      make(map[int64][]*Message),
		unread:        make(map[string]int),
		blocked:       make(map[[2]int64]bool),
		emails:        make(map[int64]string),
	}
}

func (f *fakeRepository) addConversation(a, b int64) *Conversation {
	if a > b {
		a, b = b, a
	}
	f.nextConvID++
	c := &Conversation{
		ID:             f.nextConvID,
		ParticipantIDs: []int64{a, b},
		CreatedAt:      time.Now(),
	}
	f.conversations[c.ID] = c
	return c
}

func (f *fakeRepository) FindOrCreateConversation(ctx context.Context, userA, userB int64) (*Conversation, error) {
	a, b := userA, userB
	if a > b {
		a, b = b, a
	}
	for _, c := range f.conversations {
		if c.ParticipantIDs[0] == a && c.ParticipantIDs[1] == b {
			return c, nil
		}
	}
	return f.addConversation(a, b), nil
}

func (f *fakeRepository) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return c, nil
}

func (f *fakeRepository) GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error) {
	var out []*Conversation
	for _, c := range f.conversations {
		if containsID(c.ParticipantIDs, userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	c, ok := f.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return containsID(c.ParticipantIDs, userID), nil
}

func (f *fakeRepository) CreateMessage(ctx context.Context, msg *Message) error {
	if f.createMessageErr != nil {
		return f.createMessageErr
	}
	f.nextMsgID++
	msg.ID = f.nextMsgID
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], msg)
	return nil
}

func (f *fakeRepository) GetConversationMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeRepository) UpdateConversationPreview(ctx context.Context, conversationID int64, last *LastMessage) error {
	f.previewCalls++
	if f.previewErr != nil {
		return f.previewErr
	}
	if c, ok := f.conversations[conversationID]; ok {
		c.LastMessage = last
	}
	return nil
}

func (f *fakeRepository) IncrementUnreadCount(ctx context.Context, conversationID, userID int64) error {
	if f.unreadErr != nil {
		return f.unreadErr
	}
	f.unread[unreadKey(conversationID, userID)]++
	return nil
}

func (f *fakeRepository) ResetUnreadCount(ctx context.Context, conversationID, userID int64) error {
	f.unread[unreadKey(conversationID, userID)] = 0
	return nil
}

func (f *fakeRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	var changed int64
	for _, m := range f.messages[conversationID] {
		if m.SenderID != readerID && !m.Read {
			m.Read = true
			changed++
		}
	}
	return changed, nil
}

func (f *fakeRepository) IsBlocked(ctx context.Context, userID, targetID int64) (bool, error) {
	return f.blocked[[2]int64{userID, targetID}], nil
}

func (f *fakeRepository) GetContactIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for _, c := range f.conversations {
		if containsID(c.ParticipantIDs, userID) {
			ids = append(ids, c.OtherParticipant(userID))
		}
	}
	return ids, nil
}

func (f *fakeRepository) GetUserEmail(ctx context.Context, userID int64) (string, error) {
	email, ok := f.emails[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return email, nil
}

func unreadKey(conversationID, userID int64) string {
	return strconv.FormatInt(conversationID, 10) + ":" + strconv.FormatInt(userID, 10)
}

func TestFindOrCreateConversationIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.FindOrCreateConversation(ctx, 7, 3)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.FindOrCreateConversation(ctx, 3, 7)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("conversation ids differ: %d vs %d", first.ID, second.ID)
	}
	if len(repo.conversations) != 1 {
		t.Errorf("created %d conversations, want 1", len(repo.conversations))
	}
}

func TestFindOrCreateConversationRejectsSelf(t *testing.T) {
	svc := NewService(newFakeRepository())

	if _, err := svc.FindOrCreateConversation(context.Background(), 5, 5); !errors.Is(err, ErrSelfConversation) {
		t.Errorf("err = %v, want ErrSelfConversation", err)
	}
}

func TestFindOrCreateConversationBlocked(t *testing.T) {
	repo := newFakeRepository()
	repo.blocked[[2]int64{1, 2}] = true
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.FindOrCreateConversation(ctx, 1, 2); !errors.Is(err, ErrBlocked) {
		t.Errorf("actor who blocked peer: err = %v, want ErrBlocked", err)
	}

	// The block is one-directional: the blocked side can still initiate.
	if _, err := svc.FindOrCreateConversation(ctx, 2, 1); err != nil {
		t.Errorf("blocked side initiating: err = %v, want nil", err)
	}
}

func TestSendMessagePersistsAndUpdatesPreview(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)

	msg, err := svc.SendMessage(context.Background(), 1, conv.ID, "  hello there  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if msg.ID == 0 {
		t.Error("message id was not assigned")
	}
	if msg.Content != "hello there" {
		t.Errorf("content = %q, want trimmed %q", msg.Content, "hello there")
	}
	if msg.Read {
		t.Error("new message marked read")
	}
	if conv.LastMessage == nil || conv.LastMessage.Content != "hello there" {
		t.Errorf("preview not updated: %+v", conv.LastMessage)
	}
	if got := repo.unread[unreadKey(conv.ID, 2)]; got != 1 {
		t.Errorf("recipient unread = %d, want 1", got)
	}
	if got := repo.unread[unreadKey(conv.ID, 1)]; got != 0 {
		t.Errorf("sender unread = %d, want 0", got)
	}
}

func TestSendMessageCounterFailuresDoNotFailSend(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	repo.previewErr = errors.New("preview write failed")
	repo.unreadErr = errors.New("unread write failed")
	svc := NewService(repo)

	msg, err := svc.SendMessage(context.Background(), 1, conv.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage returned %v after the message was persisted", err)
	}
	if msg == nil || msg.ID == 0 {
		t.Fatal("no persisted message returned")
	}
	if got := len(repo.messages[conv.ID]); got != 1 {
		t.Errorf("persisted %d messages, want 1", got)
	}
	if repo.previewCalls != 1 {
		t.Errorf("preview attempted %d times, want 1", repo.previewCalls)
	}
}

func TestSendMessageTruncatesOnRuneBoundary(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)

	// Multi-byte content longer than the limit: truncation must not split
	// a rune.
	content := strings.Repeat("é", maxContentLen+5)
	msg, err := svc.SendMessage(context.Background(), 1, conv.ID, content)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !utf8.ValidString(msg.Content) {
		t.Error("truncated content is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(msg.Content); got != maxContentLen {
		t.Errorf("truncated to %d runes, want %d", got, maxContentLen)
	}
}

func TestUserEmailUnknownUser(t *testing.T) {
	svc := NewService(newFakeRepository())

	if _, err := svc.UserEmail(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSendMessageValidation(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, 1, conv.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank content: err = %v, want ErrEmptyMessage", err)
	}
	if _, err := svc.SendMessage(ctx, 9, conv.ID, "hi"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider: err = %v, want ErrNotParticipant", err)
	}
	if _, err := svc.SendMessage(ctx, 1, 999, "hi"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("missing conversation: err = %v, want ErrConversationNotFound", err)
	}
}

func TestSendMessageBlockedRecipient(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	repo.blocked[[2]int64{1, 2}] = true
	svc := NewService(repo)

	if _, err := svc.SendMessage(context.Background(), 1, conv.ID, "hi"); !errors.Is(err, ErrBlocked) {
		t.Errorf("err = %v, want ErrBlocked", err)
	}
}

func TestMarkConversationReadIdempotent(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.SendMessage(ctx, 1, conv.ID, "msg"); err != nil {
			t.Fatalf("seeding message: %v", err)
		}
	}

	changed, err := svc.MarkConversationRead(ctx, 2, conv.ID)
	if err != nil {
		t.Fatalf("first mark read: %v", err)
	}
	if changed != 3 {
		t.Errorf("first mark read changed %d messages, want 3", changed)
	}
	if got := repo.unread[unreadKey(conv.ID, 2)]; got != 0 {
		t.Errorf("unread = %d after mark read, want 0", got)
	}

	changed, err = svc.MarkConversationRead(ctx, 2, conv.ID)
	if err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if changed != 0 {
		t.Errorf("second mark read changed %d messages, want 0", changed)
	}
}

func TestMarkConversationReadRequiresParticipant(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)

	if _, err := svc.MarkConversationRead(context.Background(), 9, conv.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("err = %v, want ErrNotParticipant", err)
	}
}

func TestGetMessagesRequiresParticipant(t *testing.T) {
	repo := newFakeRepository()
	conv := repo.addConversation(1, 2)
	svc := NewService(repo)

	if _, err := svc.GetMessages(context.Background(), 9, conv.ID, 0, 0); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("err = %v, want ErrNotParticipant", err)
	}
}
