// internal/messaging/postgres.go

package messaging

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type conversationRow struct {
	ID            int64          `db:"id"`
	UserA         int64          `db:"user_a"`
	UserB         int64          `db:"user_b"`
	LastContent   sql.NullString `db:"last_message_content"`
	LastSenderID  sql.NullInt64  `db:"last_message_sender_id"`
	LastMessageAt sql.NullTime   `db:"last_message_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UnreadCount   int            `db:"unread_count"`
}

// normalizePair stores the lower id first so the unique index makes
// find-or-create idempotent for either argument order.
func normalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *postgresRepository) FindOrCreateConversation(ctx context.Context, userA, userB int64) (*Conversation, error) {
	a, b := normalizePair(userA, userB)

	query := `
        INSERT INTO conversations (user_a, user_b, created_at)
        VALUES ($1, $2, CURRENT_TIMESTAMP)
        ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
        RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&id); err != nil {
		return nil, err
	}

	// Participant rows hold per-user unread counters.
	seed := `
        INSERT INTO conversation_participants (conversation_id, user_id, unread_count)
        VALUES ($1, $2, 0), ($1, $3, 0)
        ON CONFLICT (conversation_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, seed, id, a, b); err != nil {
		return nil, err
	}

	return r.GetConversation(ctx, id)
}

func (r *postgresRepository) GetConversation(ctx context.Context, conversationID int64) (*Conversation, error) {
	query := `
        SELECT c.id, c.user_a, c.user_b, c.last_message_content,
               c.last_message_sender_id, c.last_message_at, c.created_at,
               0 AS unread_count
        FROM conversations c
        WHERE c.id = $1`

	var row conversationRow
	if err := r.db.GetContext(ctx, &row, query, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return row.toConversation(), nil
}

func (r *postgresRepository) GetUserConversations(ctx context.Context, userID int64, limit, offset int) ([]*Conversation, error) {
	query := `
        SELECT c.id, c.user_a, c.user_b, c.last_message_content,
               c.last_message_sender_id, c.last_message_at, c.created_at,
               p.unread_count
        FROM conversations c
        JOIN conversation_participants p
          ON p.conversation_id = c.id AND p.user_id = $1
        WHERE c.user_a = $1 OR c.user_b = $1
        ORDER BY c.last_message_at DESC NULLS LAST
        LIMIT $2 OFFSET $3`

	rows := []conversationRow{}
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, err
	}

	conversations := make([]*Conversation, 0, len(rows))
	for i := range rows {
		conversations = append(conversations, rows[i].toConversation())
	}
	return conversations, nil
}

func (r *postgresRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	query := `
        SELECT EXISTS(
            SELECT 1 FROM conversations
            WHERE id = $1 AND (user_a = $2 OR user_b = $2)
        )`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists)
	return exists, err
}

func (r *postgresRepository) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
        INSERT INTO messages (conversation_id, sender_id, content, read, created_at)
        VALUES ($1, $2, $3, false, $4)
        RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		msg.ConversationID, msg.SenderID, msg.Content, msg.Timestamp,
	).Scan(&msg.ID)
}

func (r *postgresRepository) GetConversationMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error) {
	query := `
        SELECT id, conversation_id, sender_id, content, read, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	messages := []*Message{}
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *postgresRepository) UpdateConversationPreview(ctx context.Context, conversationID int64, last *LastMessage) error {
	query := `
        UPDATE conversations
        SET last_message_content = $1,
            last_message_sender_id = $2,
            last_message_at = $3
        WHERE id = $4`

	_, err := r.db.ExecContext(ctx, query, last.Content, last.SenderID, last.Timestamp, conversationID)
	return err
}

func (r *postgresRepository) IncrementUnreadCount(ctx context.Context, conversationID, userID int64) error {
	query := `
        UPDATE conversation_participants
        SET unread_count = unread_count + 1
        WHERE conversation_id = $1 AND user_id = $2`

	_, err := r.db.ExecContext(ctx, query, conversationID, userID)
	return err
}

func (r *postgresRepository) ResetUnreadCount(ctx context.Context, conversationID, userID int64) error {
	query := `
        UPDATE conversation_participants
        SET unread_count = 0
        WHERE conversation_id = $1 AND user_id = $2`

	_, err := r.db.ExecContext(ctx, query, conversationID, userID)
	return err
}

func (r *postgresRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	query := `
        UPDATE messages
        SET read = true
        WHERE conversation_id = $1 AND sender_id != $2 AND read = false`

	result, err := r.db.ExecContext(ctx, query, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresRepository) IsBlocked(ctx context.Context, userID, targetID int64) (bool, error) {
	query := `
        SELECT EXISTS(
            SELECT 1 FROM blocked_users
            WHERE user_id = $1 AND blocked_user_id = $2
        )`

	var blocked bool
	err := r.db.QueryRowContext(ctx, query, userID, targetID).Scan(&blocked)
	return blocked, err
}

func (r *postgresRepository) GetContactIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
        SELECT DISTINCT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
        FROM conversations
        WHERE user_a = $1 OR user_b = $1`

	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}

func (r *postgresRepository) GetUserEmail(ctx context.Context, userID int64) (string, error) {
	query := `SELECT email FROM users WHERE id = $1`

	var email string
	if err := r.db.GetContext(ctx, &email, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return email, nil
}

func (row *conversationRow) toConversation() *Conversation {
	c := &Conversation{
		ID:             row.ID,
		ParticipantIDs: []int64{row.UserA, row.UserB},
		UnreadCount:    row.UnreadCount,
		CreatedAt:      row.CreatedAt,
	}
	if row.LastMessageAt.Valid {
		c.LastMessage = &LastMessage{
			Content:   row.LastContent.String,
			SenderID:  row.LastSenderID.Int64,
			Timestamp: row.LastMessageAt.Time,
		}
	}
	return c
}
