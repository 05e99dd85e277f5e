package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/net/websocket"

	"github.com/docchat/bookingbot/internal/booking"
	"github.com/docchat/bookingbot/pkg/logging"
)

type stubSaver struct {
	saved int
}

func (s *stubSaver) Save(context.Context, booking.Record) (string, error) {
	s.saved++
	return "apt-1", nil
}

func newTestHandler(t *testing.T) (*Handler, *stubSaver) {
	t.Helper()
	saver := &stubSaver{}
	logger := logging.NewWithWriter("error", io.Discard)
	engine := booking.NewEngine(booking.NewSessionStore(0, 0), nil, saver, logger, nil, 0)
	transcript := newTestTranscript(t, 50)
	return NewHandler(engine, nil, nil, transcript, nil, logger), saver
}

func postMessage(t *testing.T, h *Handler, sessionID, text string) (reply, state, session string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"session_id": sessionID, "text": text})
	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(string(body)))
	rr := httptest.NewRecorder()
	h.HandleMessage(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp["reply"], resp["state"], resp["session_id"]
}

func TestHandleMessageRoutesIntent(t *testing.T) {
	h, _ := newTestHandler(t)

	// Non-booking chit-chat goes to the answerer.
	reply, state, _ := postMessage(t, h, "s1", "what are your opening hours?")
	if state != "chat" {
		t.Fatalf("state = %s, want chat", state)
	}
	if reply == "" {
		t.Fatal("expected a canned reply")
	}

	// Booking intent starts the form flow.
	_, state, _ = postMessage(t, h, "s1", "I'd like to book an appointment")
	if state != "collecting_name" {
		t.Fatalf("state = %s, want collecting_name", state)
	}

	// While the flow is active, non-keyword replies stay with the engine.
	_, state, _ = postMessage(t, h, "s1", "John Smith")
	if state != "collecting_phone" {
		t.Fatalf("state = %s, want collecting_phone", state)
	}
}

func TestHandleMessageFullBookingOverHTTP(t *testing.T) {
	h, saver := newTestHandler(t)

	inputs := []string{
		"book an appointment",
		"John Smith",
		"+12345678901",
		"john@example.com",
		"tomorrow at 10am",
		"discuss AI services",
		"yes",
	}
	var state string
	for _, text := range inputs {
		_, state, _ = postMessage(t, h, "s1", text)
	}
	if state != "confirmed" {
		t.Fatalf("final state = %s, want confirmed", state)
	}
	if saver.saved != 1 {
		t.Errorf("saved %d appointments, want 1", saver.saved)
	}
}

func TestHandleMessageGeneratesSessionID(t *testing.T) {
	h, _ := newTestHandler(t)

	_, _, session := postMessage(t, h, "", "hello there")
	if session == "" {
		t.Fatal("expected a generated session id")
	}
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleMessage(rr, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader("{not json")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.HandleMessage(rr, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"session_id":"s1","text":"  "}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("blank text: status = %d", rr.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	h, _ := newTestHandler(t)

	postMessage(t, h, "s1", "hello there")

	req := httptest.NewRequest(http.MethodGet, "/chat/history?session=s1", nil)
	rr := httptest.NewRecorder()
	h.HandleHistory(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		SessionID string           `json:"session_id"`
		Messages  []HistoryMessage `json:"messages"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("got %d messages, want user+assistant", len(body.Messages))
	}
	if body.Messages[0].Role != "user" || body.Messages[1].Role != "assistant" {
		t.Errorf("unexpected roles: %+v", body.Messages)
	}

	rr = httptest.NewRecorder()
	h.HandleHistory(rr, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing session: status = %d", rr.Code)
	}
}

func TestWebSocketConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session=ws1"
	conn, err := websocket.Dial(url, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var out OutboundMessage
	if err := websocket.JSON.Receive(conn, &out); err != nil {
		t.Fatalf("receive session frame: %v", err)
	}
	if out.Type != "session" || out.SessionID != "ws1" {
		t.Fatalf("first frame = %+v, want session", out)
	}

	if err := websocket.JSON.Send(conn, InboundMessage{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	if err := websocket.JSON.Receive(conn, &out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "pong" {
		t.Fatalf("frame = %+v, want pong", out)
	}

	if err := websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "book an appointment"}); err != nil {
		t.Fatal(err)
	}
	if err := websocket.JSON.Receive(conn, &out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "message" || out.Role != "assistant" || out.State != "collecting_name" {
		t.Fatalf("frame = %+v, want collecting_name reply", out)
	}
}
