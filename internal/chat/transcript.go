package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "chat_transcript:"

// Message is one transcript entry, user or assistant.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	State     string    `json:"state,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore keeps rolling per-session transcripts in Redis. A nil
// store is a no-op so the chat surface works without Redis configured.
type TranscriptStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
	ttl         time.Duration
}

// NewTranscriptStore wraps a Redis client. Returns nil when the client is
// nil so callers can pass the store through unconditionally.
func NewTranscriptStore(redisClient *redis.Client, maxMessages int64, ttl time.Duration) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	if maxMessages <= 0 {
		maxMessages = 250
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TranscriptStore{
		redis:       redisClient,
		tracer:      otel.Tracer("docchat.internal.chat.transcript"),
		maxMessages: maxMessages,
		ttl:         ttl,
	}
}

// Append pushes one message onto the session transcript, refreshing the
// TTL and trimming to the rolling window.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("chat: transcript sessionID required")
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "chat.transcript.append")
	defer span.End()

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: append transcript message: %w", err)
	}
	return nil
}

// List returns the newest limit messages in chronological order.
func (s *TranscriptStore) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if sessionID == "" {
		return nil, errors.New("chat: transcript sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "chat.transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("chat: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}
