package overlay

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/render"
	"go.uber.org/zap"
)

// HypeStore is the latest-event slot hype events are published through.
// Implemented by the Redis cache service.
type HypeStore interface {
	SetLatestHype(ctx context.Context, channel string, event *domain.HypeEvent) error
	GetLatestHype(ctx context.Context, channel string) (*domain.HypeEvent, error)
}

// Bridge fans rendered chat out to connected overlay clients and publishes
// hype events to the polled per-channel slot. Chat delivery is
// fire-and-forget: a client that cannot keep up is dropped rather than
// allowed to stall the rest.
type Bridge struct {
	store  HypeStore
	logger *zap.Logger

	upgrader websocket.Upgrader

	clients  map[*client]struct{}
	clientMu sync.Mutex
}

// client shutdown is signalled through done; the send channel is never
// closed, so queueing a message can never panic against a dropped client.
type client struct {
	conn *websocket.Conn
	send chan render.RenderedMessage
	done chan struct{}
	once sync.Once
}

func NewBridge(store HypeStore, logger *zap.Logger) *Bridge {
	return &Bridge{
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Overlays are local browser sources; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleWS upgrades an overlay client and replays history before streaming
// live messages.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request, history []render.RenderedMessage) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("Overlay upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan render.RenderedMessage, constants.OverlayConfig.ClientBufferSize),
		done: make(chan struct{}),
	}

	b.clientMu.Lock()
	b.clients[cl] = struct{}{}
	count := len(b.clients)
	b.clientMu.Unlock()

	b.logger.Info("Overlay client connected",
		zap.String("remote", r.RemoteAddr),
		zap.Int("clients", count),
	)

	go b.writeLoop(cl)
	go b.readLoop(cl)

	for _, msg := range history {
		select {
		case cl.send <- msg:
		case <-cl.done:
			return
		default:
			// History larger than the buffer; live messages matter more.
		}
	}
}

// Broadcast queues a rendered message for every connected client. Clients
// whose buffers are full are dropped.
func (b *Bridge) Broadcast(msg render.RenderedMessage) {
	b.clientMu.Lock()
	defer b.clientMu.Unlock()

	for cl := range b.clients {
		select {
		case cl.send <- msg:
		default:
			b.logger.Warn("Dropping slow overlay client")
			delete(b.clients, cl)
			cl.close()
		}
	}
}

// PublishHype overwrites the channel's hype slot. Errors are logged only;
// hype delivery never blocks the chat path.
func (b *Bridge) PublishHype(ctx context.Context, channel string, event domain.HypeEvent) {
	if b.store == nil {
		return
	}
	if err := b.store.SetLatestHype(ctx, channel, &event); err != nil {
		b.logger.Warn("Failed to publish hype event",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

// PollHype reads the channel's hype slot and suppresses events the caller
// has already seen: an event is returned only when its timestamp is
// strictly newer than since. Returns nil when there is nothing new.
func (b *Bridge) PollHype(ctx context.Context, channel string, since int64) (*domain.HypeEvent, error) {
	if b.store == nil {
		return nil, nil
	}
	event, err := b.store.GetLatestHype(ctx, channel)
	if err != nil {
		return nil, err
	}
	if event == nil || event.Timestamp <= since {
		return nil, nil
	}
	return event, nil
}

// ClientCount reports the number of connected overlay clients.
func (b *Bridge) ClientCount() int {
	b.clientMu.Lock()
	defer b.clientMu.Unlock()
	return len(b.clients)
}

// Close drops every connected client.
func (b *Bridge) Close() {
	b.clientMu.Lock()
	defer b.clientMu.Unlock()

	for cl := range b.clients {
		delete(b.clients, cl)
		cl.close()
	}
}

func (b *Bridge) writeLoop(cl *client) {
	ticker := time.NewTicker(constants.OverlayConfig.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(constants.OverlayConfig.WriteTimeout))
			if err := cl.conn.WriteJSON(msg); err != nil {
				b.drop(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(constants.OverlayConfig.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.drop(cl)
				return
			}
		}
	}
}

// readLoop drains the client so pong frames are processed and notices
// disconnects promptly.
func (b *Bridge) readLoop(cl *client) {
	_ = cl.conn.SetReadDeadline(time.Now().Add(constants.OverlayConfig.PongTimeout))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(constants.OverlayConfig.PongTimeout))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			b.drop(cl)
			return
		}
	}
}

// drop removes a client from the registry and signals its shutdown.
func (b *Bridge) drop(cl *client) {
	b.clientMu.Lock()
	delete(b.clients, cl)
	b.clientMu.Unlock()
	cl.close()
}

func (cl *client) close() {
	cl.once.Do(func() {
		close(cl.done)
		_ = cl.conn.Close()
	})
}
