package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogStore persists conversations and messages to PostgreSQL for long-term
// history, independent of the rolling Redis transcript. A nil store is a
// no-op so the chat surface works without a database configured.
type LogStore struct {
	db *sql.DB
}

// NewLogStore creates a conversation log store.
func NewLogStore(db *sql.DB) *LogStore {
	if db == nil {
		return nil
	}
	return &LogStore{db: db}
}

// EnsureConversation creates or touches the conversation row for a session
// and returns its UUID.
func (s *LogStore) EnsureConversation(ctx context.Context, sessionID string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}
	if sessionID == "" {
		return uuid.Nil, errors.New("chat: sessionID required")
	}

	var existingID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM chat_conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&existingID)
	if err == nil {
		_, _ = s.db.ExecContext(ctx,
			`UPDATE chat_conversations SET updated_at = $1 WHERE id = $2`,
			time.Now().UTC(), existingID,
		)
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("chat: check existing conversation: %w", err)
	}

	newID := uuid.New()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_conversations (
			id, session_id, status,
			message_count, user_message_count, bot_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, newID, sessionID, "active", 0, 0, 0, now, now, now)
	if err != nil {
		// Another request may have created the row in between.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.EnsureConversation(ctx, sessionID)
		}
		return uuid.Nil, fmt.Errorf("chat: create conversation: %w", err)
	}
	return newID, nil
}

// AppendMessage persists one message and bumps the conversation counters.
func (s *LogStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	if s == nil || s.db == nil {
		return nil
	}

	if _, err := s.EnsureConversation(ctx, sessionID); err != nil {
		return err
	}

	msgID := uuid.New()
	if msg.ID != "" {
		if parsed, err := uuid.Parse(msg.ID); err == nil {
			msgID = parsed
		}
	}
	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (
			id, session_id, role, content, state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, msgID, sessionID, msg.Role, msg.Text, msg.State, timestamp)
	if err != nil {
		return fmt.Errorf("chat: insert message: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat: read insert result: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	counterColumn := "bot_message_count"
	if msg.Role == "user" {
		counterColumn = "user_message_count"
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE chat_conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE session_id = $2
	`, counterColumn, counterColumn), timestamp, sessionID)
	if err != nil {
		return fmt.Errorf("chat: update counters: %w", err)
	}
	return nil
}
