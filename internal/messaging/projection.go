// internal/messaging/projection.go
// Client-style projection of the conversation list: unread counters and
// last-message previews derived from the event stream. Useful to any
// consumer that mirrors the list locally (bots, the web client's state
// model, tests) without refetching after every event.

package messaging

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// optimisticPrefix marks placeholder ids minted locally before the server
// has assigned a real one.
const optimisticPrefix = "temp-"

// ProjectedMessage is a message as the projection tracks it. IDs are
// strings so optimistic placeholders ("temp-…") and server ids share one
// field.
type ProjectedMessage struct {
	ID             string
	ConversationID int64
	SenderID       int64
	Content        string
	Read           bool
	Pending        bool
	Timestamp      time.Time
}

// ConversationState is the projected view of one conversation.
type ConversationState struct {
	ConversationID int64
	UnreadCount    int
	LastMessage    *ProjectedMessage
	Messages       []ProjectedMessage
}

// Projection folds relay events into per-conversation unread counts and
// previews. Exactly one conversation may be active (open on screen);
// messages arriving there are considered seen and never counted unread.
type Projection struct {
	mu            sync.Mutex
	selfID        int64
	activeConvID  int64
	conversations map[int64]*ConversationState
	seq           int64
}

func NewProjection(selfID int64) *Projection {
	return &Projection{
		selfID:        selfID,
		conversations: make(map[int64]*ConversationState),
	}
}

// SetActive marks a conversation as the one on screen and clears its
// unread counter. Passing 0 deactivates all conversations.
func (p *Projection) SetActive(conversationID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.activeConvID = conversationID
	if state, ok := p.conversations[conversationID]; ok {
		state.UnreadCount = 0
	}
}

// AppendOptimistic records a locally-sent message before the server has
// acknowledged it, returning the placeholder id. The preview updates
// immediately so the list reflects the send without waiting for the echo.
func (p *Projection) AppendOptimistic(conversationID int64, content string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	msg := ProjectedMessage{
		ID:             optimisticID(p.seq),
		ConversationID: conversationID,
		SenderID:       p.selfID,
		Content:        content,
		Pending:        true,
		Timestamp:      time.Now(),
	}

	state := p.state(conversationID)
	state.Messages = append(state.Messages, msg)
	state.LastMessage = &state.Messages[len(state.Messages)-1]
	return msg.ID
}

// ApplyReceived folds a receive:message event in. Duplicate deliveries
// (same id) are ignored. An echo of the projection owner's own message
// replaces its optimistic placeholder in place: first by matching content
// against a pending message, else appended normally. Unread only grows
// for messages from others in non-active conversations.
func (p *Projection) ApplyReceived(msg *Message, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.state(msg.ConversationID)

	for i := range state.Messages {
		if state.Messages[i].ID == id {
			return
		}
	}

	incoming := ProjectedMessage{
		ID:             id,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Read:           msg.Read,
		Timestamp:      msg.Timestamp,
	}

	if msg.SenderID == p.selfID {
		// Server echo of our own send: swap out the placeholder with the
		// same content, if one is still pending.
		for i := range state.Messages {
			candidate := &state.Messages[i]
			if candidate.Pending && strings.TrimSpace(candidate.Content) == strings.TrimSpace(msg.Content) {
				*candidate = incoming
				p.refreshPreview(state)
				return
			}
		}
	}

	state.Messages = append(state.Messages, incoming)
	state.LastMessage = &state.Messages[len(state.Messages)-1]

	if msg.SenderID != p.selfID && msg.ConversationID != p.activeConvID {
		state.UnreadCount++
	}
}

// ApplyMessagesRead folds a messages:read event in. When the reader is
// the peer, our sent messages flip to read; when it is us (another
// device), the unread counter resets.
func (p *Projection) ApplyMessagesRead(conversationID, readerID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.state(conversationID)
	if readerID == p.selfID {
		state.UnreadCount = 0
		return
	}
	for i := range state.Messages {
		if state.Messages[i].SenderID == p.selfID {
			state.Messages[i].Read = true
		}
	}
}

// Conversation returns a copy of the projected state, or nil if the
// conversation is unknown.
func (p *Projection) Conversation(conversationID int64) *ConversationState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.conversations[conversationID]
	if !ok {
		return nil
	}

	snapshot := &ConversationState{
		ConversationID: state.ConversationID,
		UnreadCount:    state.UnreadCount,
		Messages:       append([]ProjectedMessage(nil), state.Messages...),
	}
	if len(snapshot.Messages) > 0 {
		snapshot.LastMessage = &snapshot.Messages[len(snapshot.Messages)-1]
	}
	return snapshot
}

// TotalUnread sums unread counters across all conversations.
func (p *Projection) TotalUnread() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, state := range p.conversations {
		total += state.UnreadCount
	}
	return total
}

func (p *Projection) state(conversationID int64) *ConversationState {
	state, ok := p.conversations[conversationID]
	if !ok {
		state = &ConversationState{ConversationID: conversationID}
		p.conversations[conversationID] = state
	}
	return state
}

func (p *Projection) refreshPreview(state *ConversationState) {
	if len(state.Messages) == 0 {
		state.LastMessage = nil
		return
	}
	state.LastMessage = &state.Messages[len(state.Messages)-1]
}

func optimisticID(seq int64) string {
	return optimisticPrefix + strconv.FormatInt(seq, 10)
}
