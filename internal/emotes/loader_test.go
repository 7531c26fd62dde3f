package emotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kapu/unichat-go/internal/domain"
	"go.uber.org/zap"
)

// providerServer fakes every provider behind one mux so a single test
// server can stand in for all four upstreams.
func providerServer(t *testing.T, failing map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	serve := func(pattern, provider, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			if failing[provider] {
				http.Error(w, "upstream down", http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}

	serve("/users", "twitch", `{"data":[{"id":"777","login":"somechannel"}]}`)
	serve("/chat/emotes", "twitch", `{"data":[{"id":"t1","name":"twitchChannelEmote"}]}`)
	serve("/chat/emotes/global", "twitch", `{"data":[{"id":"t2","name":"twitchGlobalEmote"}]}`)
	serve("/users/twitch/somechannel", "seventv", `{"user":{"id":"u1"},"emote_set":{"emotes":[{"id":"s1","name":"sevenChannelEmote"}]}}`)
	serve("/emote-sets/global", "seventv", `{"emotes":[{"id":"s2","name":"sevenGlobalEmote"}]}`)
	serve("/cached/users/twitch/somechannel", "bttv", `{"channelEmotes":[{"id":"b1","code":"bttvChannelEmote"}],"sharedEmotes":[{"id":"b2","code":"bttvSharedEmote"}]}`)
	serve("/cached/emotes/global", "bttv", `[{"id":"b3","code":"bttvGlobalEmote"}]`)
	serve("/room/somechannel", "ffz", `{"sets":{"1":{"emoticons":[{"name":"ffzEmote","urls":{"2":"//cdn.ffz/e/2","1":"//cdn.ffz/e/1"}}]}}}`)

	return httptest.NewServer(mux)
}

func newTestLoader(baseURL string) *Loader {
	return &Loader{
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		logger:         zap.NewNop(),
		twitchClientID: "test-client-id",
		helixBaseURL:   baseURL,
		sevenTVBaseURL: baseURL,
		bttvBaseURL:    baseURL,
		ffzBaseURL:     baseURL,
	}
}

func TestLoadAllProviders(t *testing.T) {
	srv := providerServer(t, nil)
	defer srv.Close()

	catalog := NewCatalog()
	summary := newTestLoader(srv.URL).Load(context.Background(), "somechannel", catalog)

	if summary[domain.ProviderTwitch] != 2 {
		t.Errorf("twitch size = %d, want 2", summary[domain.ProviderTwitch])
	}
	if summary[domain.ProviderSevenTV] != 2 {
		t.Errorf("7tv size = %d, want 2", summary[domain.ProviderSevenTV])
	}
	if summary[domain.ProviderBTTV] != 3 {
		t.Errorf("bttv size = %d, want 3", summary[domain.ProviderBTTV])
	}
	if summary[domain.ProviderFFZ] != 1 {
		t.Errorf("ffz size = %d, want 1", summary[domain.ProviderFFZ])
	}

	entry, ok := catalog.Lookup("ffzEmote")
	if !ok {
		t.Fatal("expected ffz emote")
	}
	if entry.URL != "https://cdn.ffz/e/2" {
		t.Errorf("ffz url = %q, want https-prefixed 2x url", entry.URL)
	}
}

func TestLoadIsolatesProviderFailure(t *testing.T) {
	srv := providerServer(t, map[string]bool{"seventv": true})
	defer srv.Close()

	catalog := NewCatalog()
	summary := newTestLoader(srv.URL).Load(context.Background(), "somechannel", catalog)

	if summary[domain.ProviderSevenTV] != 0 {
		t.Errorf("7tv size = %d, want 0", summary[domain.ProviderSevenTV])
	}
	// The other providers still land.
	if summary[domain.ProviderTwitch] == 0 || summary[domain.ProviderBTTV] == 0 || summary[domain.ProviderFFZ] == 0 {
		t.Errorf("healthy providers missing from summary: %v", summary)
	}
}

func TestLoadAllProvidersFailing(t *testing.T) {
	srv := providerServer(t, map[string]bool{
		"twitch": true, "seventv": true, "bttv": true, "ffz": true,
	})
	defer srv.Close()

	catalog := NewCatalog()
	newTestLoader(srv.URL).Load(context.Background(), "somechannel", catalog)

	// A fully failed load leaves an empty but queryable catalog.
	if catalog.Size() != 0 {
		t.Errorf("size = %d, want 0", catalog.Size())
	}
	if _, ok := catalog.Lookup("anything"); ok {
		t.Error("expected miss")
	}
}

func TestLoadTwitchSendsClientID(t *testing.T) {
	var gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("Client-Id")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	loader := newTestLoader(srv.URL)
	if _, err := loader.loadTwitch(context.Background(), "somechannel"); err == nil {
		t.Fatal("expected error for unknown user")
	}
	if gotClientID != "test-client-id" {
		t.Errorf("Client-Id = %q", gotClientID)
	}
}
