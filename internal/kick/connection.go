package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/util"
	"github.com/kapu/unichat-go/pkg/errors"
	"go.uber.org/zap"
)

type ChatCallback func(event domain.ChatEvent)

type HypeCallback func(event domain.HypeEvent)

type StateCallback func(state domain.ConnectionState)

type EmotesCallback func(entries []domain.EmoteEntry)

// Connection owns one Pusher WebSocket to a Kick chatroom. Lifecycle:
// idle -> resolving -> connecting -> subscribed, with bounded
// exponential-backoff reconnection on transport failure. Resolution failure
// is terminal for the attempt and is never retried.
type Connection struct {
	slug     string
	wsURL    string
	resolver *Resolver
	logger   *zap.Logger

	conn    *websocket.Conn
	connMu  sync.Mutex
	state   domain.ConnectionState
	stateMu sync.RWMutex

	identity          domain.ChannelIdentity
	reconnectAttempts int
	maxReconnects     int

	onChat   ChatCallback
	onHype   HypeCallback
	onState  StateCallback
	onEmotes EmotesCallback
	onError  func(error)

	stopCh     chan struct{}
	stopOnce   sync.Once
	listenerWg sync.WaitGroup
}

func NewConnection(slug string, resolver *Resolver, pusherKey, pusherCluster string, logger *zap.Logger) *Connection {
	return &Connection{
		slug:          slug,
		wsURL:         pusherURL(pusherKey, pusherCluster),
		resolver:      resolver,
		logger:        logger,
		state:         domain.StateIdle,
		maxReconnects: constants.WebSocketConfig.MaxReconnectAttempts,
		stopCh:        make(chan struct{}),
	}
}

func pusherURL(key, cluster string) string {
	return fmt.Sprintf("wss://ws-%s.pusher.com/app/%s?protocol=7&client=js&version=7.4.0&flash=false", cluster, key)
}

func (c *Connection) OnChat(cb ChatCallback)          { c.onChat = cb }
func (c *Connection) OnHype(cb HypeCallback)          { c.onHype = cb }
func (c *Connection) OnStateChange(cb StateCallback)  { c.onState = cb }
func (c *Connection) OnChannelEmotes(cb EmotesCallback) { c.onEmotes = cb }
func (c *Connection) OnError(cb func(error))          { c.onError = cb }

// Connect resolves the channel and opens the socket. Register callbacks
// before calling; they are invoked from the listener goroutine.
func (c *Connection) Connect(ctx context.Context) error {
	if state := c.State(); state == domain.StateSubscribed || state == domain.StateConnecting {
		c.logger.Warn("Kick connection already active", zap.String("state", state.String()))
		return nil
	}

	c.setState(domain.StateResolving)

	resolution, err := c.resolver.Resolve(ctx, c.slug)
	if err != nil {
		c.setState(domain.StateError)
		return err
	}

	c.stateMu.Lock()
	c.identity = resolution.Identity
	c.stateMu.Unlock()
	if c.onEmotes != nil {
		c.onEmotes(resolution.Emotes)
	}

	return c.dial(ctx)
}

func (c *Connection) dial(ctx context.Context) error {
	c.setState(domain.StateConnecting)

	dialer := websocket.Dialer{
		HandshakeTimeout: constants.WebSocketConfig.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		c.logger.Error("Failed to connect Kick WebSocket", zap.Error(err))
		c.scheduleReconnect(ctx)
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.stateMu.Lock()
	c.reconnectAttempts = 0
	identity := c.identity
	c.stateMu.Unlock()

	// The upstream publishes duplicate and alternate event names across the
	// chatroom channel, the channel-events channel, and the legacy model
	// channel; all three are needed to catch every event.
	subscriptions := []string{
		fmt.Sprintf("chatrooms.%d.v2", identity.ChatroomID),
		fmt.Sprintf("channel.%d", identity.ChannelID),
		fmt.Sprintf("App.Models.Channel.%d", identity.ChannelID),
	}
	for _, channel := range subscriptions {
		if err := c.subscribe(conn, channel); err != nil {
			c.logger.Error("Kick subscribe failed", zap.String("pusher_channel", channel), zap.Error(err))
			_ = conn.Close()
			c.scheduleReconnect(ctx)
			return err
		}
	}

	c.logger.Info("Kick WebSocket connected",
		zap.String("channel", c.slug),
		zap.Int("chatroom_id", identity.ChatroomID),
	)

	c.listenerWg.Add(1)
	go c.listen(ctx, conn)

	return nil
}

func (c *Connection) subscribe(conn *websocket.Conn, channel string) error {
	frame := map[string]any{
		"event": eventSubscribe,
		"data": map[string]string{
			"auth":    "",
			"channel": channel,
		},
	}
	return conn.WriteJSON(frame)
}

func (c *Connection) listen(ctx context.Context, conn *websocket.Conn) {
	defer c.listenerWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				// Intentional teardown; Disconnect owns the state.
				return
			case <-ctx.Done():
				return
			default:
			}
			c.logger.Error("Kick WebSocket read error", zap.Error(err))
			c.scheduleReconnect(ctx)
			return
		}

		c.dispatch(conn, data)
	}
}

func (c *Connection) dispatch(conn *websocket.Conn, data []byte) {
	inbound, err := ParseFrame(data)
	if err != nil {
		c.logger.Debug("Dropping malformed Kick frame", zap.Error(err))
		return
	}

	switch frame := inbound.(type) {
	case ControlFrame:
		if frame.Established {
			c.logger.Debug("Pusher connection established")
		}
		if frame.Subscribed {
			c.setState(domain.StateSubscribed)
		}
	case PingFrame:
		pong, _ := json.Marshal(map[string]any{"event": eventPong, "data": map[string]any{}})
		if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
			c.logger.Warn("Failed to answer Pusher ping", zap.Error(err))
		}
	case ChatFrame:
		if c.onChat != nil {
			c.onChat(frame.Chat)
		}
		if frame.Gift != nil && c.onHype != nil {
			c.onHype(*frame.Gift)
		}
	case HypeFrame:
		if c.onHype != nil {
			c.onHype(frame.Hype)
		}
	case UnknownFrame:
		c.logger.Debug("Dropping unrecognized Kick event", zap.String("event", frame.Event))
	}
}

func (c *Connection) scheduleReconnect(ctx context.Context) {
	c.stateMu.Lock()
	c.reconnectAttempts++
	attempt := c.reconnectAttempts
	c.stateMu.Unlock()

	if attempt > c.maxReconnects {
		c.setState(domain.StateError)
		err := errors.NewConnectionError("kick reconnect budget exhausted", "kick", attempt-1, nil)
		c.logger.Error("Max Kick reconnect attempts reached", zap.Int("attempts", attempt-1))
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	delay := reconnectDelay(attempt)
	c.setState(domain.StateReconnecting)
	c.logger.Info("Scheduling Kick reconnect",
		zap.Int("attempt", attempt),
		zap.Int("max", c.maxReconnects),
		zap.Duration("delay", delay),
	)

	go func() {
		select {
		case <-time.After(delay):
			if err := c.dial(ctx); err != nil {
				c.logger.Error("Kick reconnect failed", zap.Error(err))
			}
		case <-c.stopCh:
		case <-ctx.Done():
		}
	}()
}

// reconnectDelay is min(30s, 1s * 2^attempt): 2s, 4s, 8s, 16s, 30s for
// attempts 1 through 5.
func reconnectDelay(attempt int) time.Duration {
	delay := constants.WebSocketConfig.ReconnectBaseDelay * time.Duration(1<<attempt)
	return util.MinDuration(delay, constants.WebSocketConfig.ReconnectMaxDelay)
}

// Disconnect tears the connection down. Idempotent: closing an already
// closed or never-opened connection is a no-op, and any pending reconnect
// timer is suppressed.
func (c *Connection) Disconnect() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.setState(domain.StateClosed)

	done := make(chan struct{})
	go func() {
		c.listenerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Timeout waiting for Kick listener to stop")
	}
}

func (c *Connection) setState(newState domain.ConnectionState) {
	c.stateMu.Lock()
	oldState := c.state
	c.state = newState
	c.stateMu.Unlock()

	if oldState != newState {
		c.logger.Info("Kick connection state changed",
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
		)
		if c.onState != nil {
			c.onState(newState)
		}
	}
}

func (c *Connection) State() domain.ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Status reports a snapshot for the status endpoint.
func (c *Connection) Status() domain.ConnectionStatus {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return domain.ConnectionStatus{
		Platform:  domain.PlatformKick,
		Channel:   c.slug,
		State:     c.state,
		ChannelID: c.identity.ChannelID,
		Attempts:  c.reconnectAttempts,
	}
}
