package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestTranscript(t *testing.T, maxMessages int64) *TranscriptStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTranscriptStore(client, maxMessages, time.Hour)
}

func TestTranscriptAppendAndList(t *testing.T) {
	store := newTestTranscript(t, 10)
	ctx := context.Background()

	if err := store.Append(ctx, "s1", Message{Role: "user", Text: "book a call"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "s1", Message{Role: "assistant", Text: "What's your full name?", State: "collecting_name"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := store.List(ctx, "s1", 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("order wrong: %+v", msgs)
	}
	if msgs[0].ID == "" || msgs[0].Timestamp.IsZero() {
		t.Error("append should assign id and timestamp")
	}
	if msgs[1].State != "collecting_name" {
		t.Errorf("state = %q", msgs[1].State)
	}
}

func TestTranscriptTrimsToWindow(t *testing.T) {
	store := newTestTranscript(t, 3)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		if err := store.Append(ctx, "s1", Message{Role: "user", Text: text}); err != nil {
			t.Fatalf("append %q: %v", text, err)
		}
	}

	msgs, err := store.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Text != "three" || msgs[2].Text != "five" {
		t.Errorf("window wrong: %+v", msgs)
	}
}

func TestTranscriptListLimit(t *testing.T) {
	store := newTestTranscript(t, 10)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if err := store.Append(ctx, "s1", Message{Role: "user", Text: text}); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := store.List(ctx, "s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Text != "two" {
		t.Errorf("limited list wrong: %+v", msgs)
	}
}

func TestTranscriptSessionsAreIsolated(t *testing.T) {
	store := newTestTranscript(t, 10)
	ctx := context.Background()

	if err := store.Append(ctx, "a", Message{Role: "user", Text: "hello from a"}); err != nil {
		t.Fatal(err)
	}
	msgs, err := store.List(ctx, "b", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("session b should be empty, got %+v", msgs)
	}
}

func TestTranscriptNilStoreIsNoop(t *testing.T) {
	var store *TranscriptStore
	if err := store.Append(context.Background(), "s1", Message{Text: "x"}); err != nil {
		t.Errorf("nil append: %v", err)
	}
	msgs, err := store.List(context.Background(), "s1", 10)
	if err != nil || msgs != nil {
		t.Errorf("nil list = %v, %v", msgs, err)
	}
}
