package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docchat/bookingbot/internal/appointments"
	"github.com/docchat/bookingbot/internal/booking"
	"github.com/docchat/bookingbot/internal/chat"
	"github.com/docchat/bookingbot/pkg/logging"
)

type memorySaver struct{}

func (memorySaver) Save(context.Context, booking.Record) (string, error) { return "apt-1", nil }

type memoryLister struct{}

func (memoryLister) ListRecent(context.Context, int) ([]appointments.Appointment, error) {
	return []appointments.Appointment{{ID: "apt-1", Name: "John Smith", Status: "confirmed"}}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.NewWithWriter("error", io.Discard)
	engine := booking.NewEngine(booking.NewSessionStore(0, 0), nil, memorySaver{}, logger, nil, 0)
	return New(&Config{
		Logger:            logger,
		ChatHandler:       chat.NewHandler(engine, nil, nil, nil, nil, logger),
		AdminAppointments: appointments.NewAdminHandler(memoryLister{}, logger),
		AdminAuthSecret:   "secret",
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestRouterChatMessage(t *testing.T) {
	r := newTestRouter(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"session_id":"s1","text":"book an appointment"}`))
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["state"] != "collecting_name" {
		t.Errorf("state = %s, want collecting_name", resp["state"])
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	r := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/appointments", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rr.Code)
	}

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "apt-1") {
		t.Errorf("body = %s", rr.Body.String())
	}
}
