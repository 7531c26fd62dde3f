package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kapu/unichat-go/internal/config"
	"github.com/kapu/unichat-go/internal/session"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Channels: config.Channels{Twitch: "somechannel"},
		Twitch: config.TwitchConfig{
			IRCURL:   "wss://irc-ws.chat.twitch.tv:443",
			ClientID: "test",
		},
	}
	sess := session.New(cfg, nil, zap.NewNop())
	return New(":0", sess, nil, zap.NewNop())
}

func TestHandleHealthWithoutCache(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status session.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(status.Connections) != 1 {
		t.Fatalf("connections = %d, want 1", len(status.Connections))
	}
	if status.Connections[0].Channel != "somechannel" {
		t.Errorf("channel = %q", status.Connections[0].Channel)
	}
	if status.Connections[0].State != "IDLE" {
		t.Errorf("state = %q, want IDLE before start", status.Connections[0].State)
	}
}

func TestHandleHypeEmptySlot(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleHype(rec, httptest.NewRequest(http.MethodGet, "/overlay/hype?since=0", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestHandleSettingsWithoutTool(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleSettings(rec, httptest.NewRequest(http.MethodGet, "/settings/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSettingsWithoutCache(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/settings/chatbox", strings.NewReader(`{"font":"12px"}`))
	srv.handleSettings(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
