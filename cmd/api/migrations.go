// cmd/api/migrations.go
// Schema bootstrap, run at startup. Statements are idempotent.

package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id BIGSERIAL PRIMARY KEY,
        username VARCHAR(50) UNIQUE NOT NULL,
        display_name VARCHAR(100) NOT NULL DEFAULT '',
        email VARCHAR(255) UNIQUE NOT NULL,
        lat DOUBLE PRECISION,
        lng DOUBLE PRECISION,
        availability VARCHAR(50),
        is_active BOOLEAN NOT NULL DEFAULT true,
        last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS user_skills (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        kind VARCHAR(10) NOT NULL CHECK (kind IN ('teach', 'learn')),
        tag VARCHAR(64) NOT NULL,
        level VARCHAR(20),
        UNIQUE (user_id, kind, tag)
    )`,

	`CREATE TABLE IF NOT EXISTS user_ratings (
        user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
        average DOUBLE PRECISION NOT NULL DEFAULT 0,
        count INTEGER NOT NULL DEFAULT 0
    )`,

	`CREATE TABLE IF NOT EXISTS blocked_users (
        user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        blocked_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (user_id, blocked_user_id)
    )`,

	`CREATE TABLE IF NOT EXISTS communities (
        id BIGSERIAL PRIMARY KEY,
        name VARCHAR(100) NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        lat DOUBLE PRECISION,
        lng DOUBLE PRECISION,
        is_public BOOLEAN NOT NULL DEFAULT true,
        created_by BIGINT NOT NULL REFERENCES users(id),
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS community_members (
        community_id BIGINT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
        user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        joined_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (community_id, user_id)
    )`,

	`CREATE TABLE IF NOT EXISTS conversations (
        id BIGSERIAL PRIMARY KEY,
        user_a BIGINT NOT NULL REFERENCES users(id),
        user_b BIGINT NOT NULL REFERENCES users(id),
        last_message_content TEXT,
        last_message_sender_id BIGINT,
        last_message_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (user_a, user_b),
        CHECK (user_a < user_b)
    )`,

	`CREATE TABLE IF NOT EXISTS conversation_participants (
        conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
        user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        unread_count INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (conversation_id, user_id)
    )`,

	`CREATE TABLE IF NOT EXISTS messages (
        id BIGSERIAL PRIMARY KEY,
        conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
        sender_id BIGINT NOT NULL REFERENCES users(id),
        content TEXT NOT NULL,
        read BOOLEAN NOT NULL DEFAULT false,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
        ON messages (conversation_id, created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_unread
        ON messages (conversation_id) WHERE read = false`,

	`CREATE TABLE IF NOT EXISTS waves (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        content VARCHAR(280) NOT NULL,
        skill_tag VARCHAR(64) NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        expires_at TIMESTAMPTZ NOT NULL
    )`,

	`CREATE INDEX IF NOT EXISTS idx_waves_expires ON waves (expires_at)`,
}

func runMigrations(db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
