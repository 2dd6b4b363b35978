// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is a read-through cache of fetched chats and messages
// so previously viewed conversations still render when the backend is
// unreachable. The backend stays authoritative: every successful fetch
// overwrites the cached copy, and whichever fetch lands last wins.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotCached indicates the requested chat has never been fetched.
	ErrNotCached = errors.New("chat not cached")
)

// =============================================================================
// CACHE
// =============================================================================

// Cache is the SQLite-backed chat cache. Safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(SchemaVersion),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	return &Cache{db: db}, nil
}

// OpenDefault opens the cache under ~/.docuflow/.
func OpenDefault() (*Cache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return Open(filepath.Join(home, ".docuflow", "cache.db"))
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// PutChats stores a fetched chat list. Message bodies are untouched;
// only the chat rows are upserted, and chats absent from the list are
// removed so deletions propagate.
func (c *Cache) PutChats(ctx context.Context, chats []*model.Chat) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	seen := make([]any, 0, len(chats))
	for _, chat := range chats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chats (id, name, owner_id, created_at, updated_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				owner_id = excluded.owner_id,
				updated_at = excluded.updated_at,
				cached_at = excluded.cached_at`,
			chat.ID, chat.Name, chat.OwnerID,
			chat.CreatedAt.Unix(), chat.UpdatedAt.Unix(), now,
		); err != nil {
			return fmt.Errorf("failed to cache chat %s: %w", chat.ID, err)
		}
		seen = append(seen, chat.ID)
	}

	// Drop cached chats the backend no longer returns.
	query := `DELETE FROM chats`
	if len(seen) > 0 {
		query += ` WHERE id NOT IN (?` + repeatPlaceholder(len(seen)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, query, seen...); err != nil {
		return fmt.Errorf("failed to prune cached chats: %w", err)
	}

	return tx.Commit()
}

// PutChat stores a single fetched chat with its full message list,
// replacing any previously cached messages. Client-side temporaries
// (streaming placeholders, unconfirmed sends) are skipped.
func (c *Cache) PutChat(ctx context.Context, chat *model.Chat) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, name, owner_id, created_at, updated_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at,
			cached_at = excluded.cached_at`,
		chat.ID, chat.Name, chat.OwnerID,
		chat.CreatedAt.Unix(), chat.UpdatedAt.Unix(), now,
	); err != nil {
		return fmt.Errorf("failed to cache chat %s: %w", chat.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chat.ID); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}

	position := 0
	for _, msg := range chat.Messages {
		if msg.IsStreaming || model.IsTempID(msg.ID) {
			continue
		}

		var sources sql.NullString
		if len(msg.Sources) > 0 {
			raw, err := json.Marshal(msg.Sources)
			if err != nil {
				return fmt.Errorf("failed to encode sources: %w", err)
			}
			sources = sql.NullString{String: string(raw), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, position, role, content, sources, has_image, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, chat.ID, position, string(msg.Role), msg.Content,
			sources, boolToInt(msg.HasImage), msg.CreatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to cache message %s: %w", msg.ID, err)
		}
		position++
	}

	return tx.Commit()
}

// DeleteChat removes a chat and its messages from the cache.
func (c *Cache) DeleteChat(ctx context.Context, chatID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete cached chat: %w", err)
	}
	return nil
}

// Purge empties the cache entirely.
func (c *Cache) Purge(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM chats`); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// =============================================================================
// READ SIDE
// =============================================================================

// Chats returns all cached chats, most recently updated first, without
// message bodies.
func (c *Cache) Chats(ctx context.Context) ([]*model.Chat, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached chats: %w", err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var (
			chat               model.Chat
			owner              sql.NullString
			createdAt, updated int64
		)
		if err := rows.Scan(&chat.ID, &chat.Name, &owner, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan cached chat: %w", err)
		}
		chat.OwnerID = owner.String
		chat.CreatedAt = time.Unix(createdAt, 0)
		chat.UpdatedAt = time.Unix(updated, 0)
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// Chat returns one cached chat with its messages in original order.
func (c *Cache) Chat(ctx context.Context, chatID string) (*model.Chat, error) {
	var (
		chat               model.Chat
		owner              sql.NullString
		createdAt, updated int64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM chats WHERE id = ?`, chatID).
		Scan(&chat.ID, &chat.Name, &owner, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached chat: %w", err)
	}
	chat.OwnerID = owner.String
	chat.CreatedAt = time.Unix(createdAt, 0)
	chat.UpdatedAt = time.Unix(updated, 0)

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, role, content, sources, has_image, created_at
		FROM messages WHERE chat_id = ? ORDER BY position`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg      model.Message
			sources  sql.NullString
			hasImage int
			created  int64
		)
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &sources, &hasImage, &created); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		msg.ChatID = chatID
		msg.HasImage = hasImage != 0
		msg.CreatedAt = time.Unix(created, 0)
		if sources.Valid {
			if err := json.Unmarshal([]byte(sources.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to decode sources: %w", err)
			}
		}
		chat.Messages = append(chat.Messages, &msg)
	}
	return &chat, rows.Err()
}

// Stats reports cache row counts for the status command.
func (c *Cache) Stats(ctx context.Context) (chats, messages int, err error) {
	if err = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&chats); err != nil {
		return 0, 0, fmt.Errorf("failed to count cached chats: %w", err)
	}
	if err = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&messages); err != nil {
		return 0, 0, fmt.Errorf("failed to count cached messages: %w", err)
	}
	return chats, messages, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// repeatPlaceholder returns n additional ",?" fragments.
func repeatPlaceholder(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, ',', '?')
	}
	return string(out)
}
