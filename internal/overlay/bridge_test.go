package overlay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/render"
	"go.uber.org/zap"
)

type fakeHypeStore struct {
	mu     sync.Mutex
	events map[string]*domain.HypeEvent
	getErr error
}

func (f *fakeHypeStore) SetLatestHype(_ context.Context, channel string, event *domain.HypeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = make(map[string]*domain.HypeEvent)
	}
	f.events[channel] = event
	return nil
}

func (f *fakeHypeStore) GetLatestHype(_ context.Context, channel string) (*domain.HypeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.events[channel], nil
}

func newTestBridge() *Bridge {
	return NewBridge(nil, zap.NewNop())
}

func dialBridge(t *testing.T, b *Bridge, history []render.RenderedMessage) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.HandleWS(w, r, history)
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForClients(t *testing.T, b *Bridge, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", b.ClientCount(), want)
}

func TestBridgeBroadcast(t *testing.T) {
	b := newTestBridge()
	conn, cleanup := dialBridge(t, b, nil)
	defer cleanup()

	waitForClients(t, b, 1)

	sent := render.RenderedMessage{
		Event: domain.ChatEvent{
			Platform: domain.PlatformTwitch,
			Username: "viewer",
			Message:  "hello",
		},
		Tokens: []domain.Token{domain.TextToken("hello")},
	}
	b.Broadcast(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got render.RenderedMessage
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Event.Username != "viewer" || got.Event.Message != "hello" {
		t.Errorf("got %#v", got.Event)
	}
	if len(got.Tokens) != 1 || got.Tokens[0].Value != "hello" {
		t.Errorf("tokens = %#v", got.Tokens)
	}
}

func TestBridgeReplaysHistory(t *testing.T) {
	b := newTestBridge()
	history := []render.RenderedMessage{
		{Event: domain.ChatEvent{Message: "first"}},
		{Event: domain.ChatEvent{Message: "second"}},
	}
	conn, cleanup := dialBridge(t, b, history)
	defer cleanup()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"first", "second"} {
		var got render.RenderedMessage
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if got.Event.Message != want {
			t.Errorf("message = %q, want %q", got.Event.Message, want)
		}
	}
}

func TestBridgeDropsSlowClient(t *testing.T) {
	b := newTestBridge()
	_, cleanup := dialBridge(t, b, nil)
	defer cleanup()

	waitForClients(t, b, 1)

	// Never reading from the client side, so the send buffer fills and the
	// client is dropped rather than stalling Broadcast.
	msg := render.RenderedMessage{Event: domain.ChatEvent{Message: "spam"}}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Broadcast(msg)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	waitForClients(t, b, 0)
}

func TestBridgeReplayDuringBroadcastFlood(t *testing.T) {
	// History replay races against broadcasts dropping the same client;
	// neither side may panic on the other's shutdown.
	b := newTestBridge()

	history := make([]render.RenderedMessage, 100)
	for i := range history {
		history[i] = render.RenderedMessage{Event: domain.ChatEvent{Message: fmt.Sprintf("old-%d", i)}}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		msg := render.RenderedMessage{Event: domain.ChatEvent{Message: "live"}}
		for {
			select {
			case <-stop:
				return
			default:
				b.Broadcast(msg)
			}
		}
	}()

	for i := 0; i < 5; i++ {
		_, cleanup := dialBridge(t, b, history)
		defer cleanup()
	}

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()
	b.Close()
}

func TestBridgeCloseDisconnectsClients(t *testing.T) {
	b := newTestBridge()
	conn, cleanup := dialBridge(t, b, nil)
	defer cleanup()

	waitForClients(t, b, 1)
	b.Close()

	if b.ClientCount() != 0 {
		t.Errorf("client count = %d after close", b.ClientCount())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after close")
	}
}

func TestPollHypeDedupesByTimestamp(t *testing.T) {
	store := &fakeHypeStore{}
	b := NewBridge(store, zap.NewNop())
	ctx := context.Background()

	b.PublishHype(ctx, "chan", domain.HypeEvent{Kind: domain.HypeGift, Timestamp: 100})

	event, err := b.PollHype(ctx, "chan", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil || event.Timestamp != 100 {
		t.Fatalf("expected fresh event, got %#v", event)
	}

	// Same slot content polled again with the seen timestamp stays quiet.
	event, err = b.PollHype(ctx, "chan", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected dedupe of seen timestamp, got %#v", event)
	}

	if event, _ = b.PollHype(ctx, "chan", 150); event != nil {
		t.Errorf("expected nothing newer than 150, got %#v", event)
	}

	// A newer event lands and surfaces again.
	b.PublishHype(ctx, "chan", domain.HypeEvent{Kind: domain.HypeGift, Timestamp: 200})
	event, _ = b.PollHype(ctx, "chan", 100)
	if event == nil || event.Timestamp != 200 {
		t.Errorf("expected newer event, got %#v", event)
	}
}

func TestPollHypeEmptySlot(t *testing.T) {
	b := NewBridge(&fakeHypeStore{}, zap.NewNop())

	event, err := b.PollHype(context.Background(), "chan", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event, got %#v", event)
	}
}

func TestPollHypeWithoutStore(t *testing.T) {
	b := newTestBridge()

	// No store wired means the hype slot is silently disabled.
	b.PublishHype(context.Background(), "chan", domain.HypeEvent{Kind: domain.HypeGift})

	event, err := b.PollHype(context.Background(), "chan", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event, got %#v", event)
	}
}
