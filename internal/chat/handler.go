package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/docchat/bookingbot/internal/booking"
	"github.com/docchat/bookingbot/pkg/logging"
)

// Answerer handles messages that are not part of a booking flow.
type Answerer interface {
	Answer(ctx context.Context, text string) string
}

// StaticAnswerer is the default non-booking reply.
type StaticAnswerer struct{}

func (StaticAnswerer) Answer(context.Context, string) string {
	return "I can answer questions about appointments, or book one for you. Just say 'book an appointment' to get started."
}

// Handler is the chat surface: HTTP message/history endpoints plus the
// WebSocket widget endpoint. Every inbound message is routed either to
// the booking engine (active flow or booking intent) or to the answerer.
type Handler struct {
	engine     *booking.Engine
	intents    booking.IntentClassifier
	answerer   Answerer
	transcript *TranscriptStore
	logs       *LogStore
	logger     *logging.Logger
}

// NewHandler creates a chat handler. Engine is required; intents defaults
// to the keyword classifier, answerer to the static reply, and nil stores
// disable their persistence concern.
func NewHandler(engine *booking.Engine, intents booking.IntentClassifier, answerer Answerer, transcript *TranscriptStore, logs *LogStore, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("chat: booking engine required")
	}
	if intents == nil {
		intents = booking.NewKeywordClassifier()
	}
	if answerer == nil {
		answerer = StaticAnswerer{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:     engine,
		intents:    intents,
		answerer:   answerer,
		transcript: transcript,
		logs:       logs,
		logger:     logger.Component("chat"),
	}
}

// InboundMessage is what the widget sends over the WebSocket.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "session", "history", "pong", "error"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	State     string           `json:"state,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// HandleMessage is the HTTP endpoint: POST /chat/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply, state := h.respond(r.Context(), req.SessionID, req.Text, time.Now().UTC())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"session_id": req.SessionID,
		"reply":      reply,
		"state":      state,
	}); err != nil {
		h.logger.Error("encode chat reply failed", "error", err)
	}
}

// HandleHistory is the HTTP endpoint: GET /chat/history?session=ID.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, `{"error":"session is required"}`, http.StatusBadRequest)
		return
	}

	msgs, err := h.transcript.List(r.Context(), sessionID, 50)
	if err != nil {
		h.logger.Error("list transcript failed", "error", err, "session_id", sessionID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      m.Role,
			Text:      m.Text,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"session_id": sessionID, "messages": history}); err != nil {
		h.logger.Error("encode history failed", "error", err)
	}
}

// HandleWebSocket upgrades to WebSocket and serves the widget in real time.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if msgs, err := h.transcript.List(r.Context(), sessionID, 50); err == nil && len(msgs) > 0 {
		history := make([]HistoryMessage, 0, len(msgs))
		for _, m := range msgs {
			history = append(history, HistoryMessage{
				Role:      m.Role,
				Text:      m.Text,
				Timestamp: m.Timestamp.Format(time.RFC3339),
			})
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
	}

	h.logger.Info("chat connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		now := time.Now().UTC()
		reply, state := h.respond(r.Context(), sessionID, msg.Text, now)
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      reply,
			State:     state,
			SessionID: sessionID,
			Timestamp: now.Format(time.RFC3339),
		})
	}
}

// respond routes one user message and returns the assistant reply and a
// state label. The clock is read once here so the whole turn sees one now.
func (h *Handler) respond(ctx context.Context, sessionID, text string, now time.Time) (reply, state string) {
	h.record(ctx, sessionID, Message{Role: "user", Text: text, Timestamp: now})

	if h.engine.Active(sessionID) || h.intents.IsBookingIntent(text) {
		resp, err := h.engine.ProcessTurn(ctx, sessionID, text, now)
		if err != nil {
			// Exhaustion and storage failures still carry a user-facing
			// reply; they are surfaced here for operators only.
			h.logger.Warn("booking turn ended with error", "session_id", sessionID, "error", err)
		}
		reply, state = resp.Text, resp.State
	} else {
		reply, state = h.answerer.Answer(ctx, text), "chat"
	}

	h.record(ctx, sessionID, Message{Role: "assistant", Text: reply, State: state, Timestamp: time.Now().UTC()})
	return reply, state
}

// record persists a message to both stores, best effort.
func (h *Handler) record(ctx context.Context, sessionID string, msg Message) {
	if err := h.transcript.Append(ctx, sessionID, msg); err != nil {
		h.logger.Error("append transcript failed", "error", err, "session_id", sessionID)
	}
	if err := h.logs.AppendMessage(ctx, sessionID, msg); err != nil {
		h.logger.Error("append message log failed", "error", err, "session_id", sessionID)
	}
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
