package kick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stderrors "errors"

	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/pkg/errors"
	"go.uber.org/zap"
)

func newTestResolver(baseURL string) *Resolver {
	return &Resolver{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     zap.NewNop(),
	}
}

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/somestreamer" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected browser headers on the request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123,
			"slug": "somestreamer",
			"chatroom": {
				"id": 456,
				"emotes": [
					{"id": 34001, "name": "customEmote"},
					{"id": "34002", "name": "otherEmote"}
				]
			}
		}`))
	}))
	defer srv.Close()

	resolution, err := newTestResolver(srv.URL).Resolve(context.Background(), "somestreamer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolution.Identity.ChannelID != 123 {
		t.Errorf("channel id = %d", resolution.Identity.ChannelID)
	}
	if resolution.Identity.ChatroomID != 456 {
		t.Errorf("chatroom id = %d", resolution.Identity.ChatroomID)
	}
	if resolution.Identity.Platform != domain.PlatformKick {
		t.Errorf("platform = %q", resolution.Identity.Platform)
	}
	if len(resolution.Emotes) != 2 {
		t.Fatalf("emotes = %d, want 2", len(resolution.Emotes))
	}
	if resolution.Emotes[0].Scope != domain.ScopeChannel {
		t.Errorf("scope = %q, want channel", resolution.Emotes[0].Scope)
	}
	if resolution.Emotes[0].URL != "https://files.kick.com/emotes/34001/fullsize" {
		t.Errorf("url = %q", resolution.Emotes[0].URL)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestResolver(srv.URL).Resolve(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for missing channel")
	}

	var resErr *errors.ResolutionError
	if !stderrors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
	if resErr.Channel != "nope" {
		t.Errorf("channel = %q", resErr.Channel)
	}
}

func TestResolveMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>blocked</html>`))
	}))
	defer srv.Close()

	_, err := newTestResolver(srv.URL).Resolve(context.Background(), "blocked")
	if err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}
