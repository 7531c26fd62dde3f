package twitch

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
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

type StateCallback func(state domain.ConnectionState)

// Connection owns one anonymous IRC-over-WebSocket session to a Twitch
// channel. Reconnection uses the same bounded exponential backoff as the
// Kick connection so both platforms degrade identically.
type Connection struct {
	channel string
	ircURL  string
	logger  *zap.Logger

	conn    *websocket.Conn
	connMu  sync.Mutex
	state   domain.ConnectionState
	stateMu sync.RWMutex

	reconnectAttempts int
	maxReconnects     int

	onChat  ChatCallback
	onState StateCallback
	onError func(error)

	stopCh     chan struct{}
	stopOnce   sync.Once
	listenerWg sync.WaitGroup
}

func NewConnection(channel, ircURL string, logger *zap.Logger) *Connection {
	return &Connection{
		channel:       strings.ToLower(channel),
		ircURL:        ircURL,
		logger:        logger,
		state:         domain.StateIdle,
		maxReconnects: constants.WebSocketConfig.MaxReconnectAttempts,
		stopCh:        make(chan struct{}),
	}
}

func (c *Connection) OnChat(cb ChatCallback)         { c.onChat = cb }
func (c *Connection) OnStateChange(cb StateCallback) { c.onState = cb }
func (c *Connection) OnError(cb func(error))         { c.onError = cb }

// Connect opens the socket and performs the anonymous login handshake.
func (c *Connection) Connect(ctx context.Context) error {
	if state := c.State(); state == domain.StateSubscribed || state == domain.StateConnecting {
		c.logger.Warn("Twitch connection already active", zap.String("state", state.String()))
		return nil
	}
	return c.dial(ctx)
}

func (c *Connection) dial(ctx context.Context) error {
	c.setState(domain.StateConnecting)

	dialer := websocket.Dialer{
		HandshakeTimeout: constants.WebSocketConfig.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.ircURL, nil)
	if err != nil {
		c.logger.Error("Failed to connect Twitch WebSocket", zap.Error(err))
		c.scheduleReconnect(ctx)
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.stateMu.Lock()
	c.reconnectAttempts = 0
	c.stateMu.Unlock()

	// Anonymous read-only login. The justinfan nick family needs no
	// credentials; the PASS value is the conventional placeholder.
	handshake := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS SCHMOOPIIE",
		fmt.Sprintf("NICK justinfan%d", 10000+rand.Intn(90000)),
		fmt.Sprintf("JOIN #%s", c.channel),
	}
	for _, line := range handshake {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			c.logger.Error("Twitch handshake write failed", zap.Error(err))
			_ = conn.Close()
			c.scheduleReconnect(ctx)
			return err
		}
	}

	c.setState(domain.StateSubscribed)
	c.logger.Info("Twitch WebSocket connected", zap.String("channel", c.channel))

	c.listenerWg.Add(1)
	go c.listen(ctx, conn)

	return nil
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
				return
			case <-ctx.Done():
				return
			default:
			}
			c.logger.Error("Twitch WebSocket read error", zap.Error(err))
			c.scheduleReconnect(ctx)
			return
		}

		// The server batches multiple IRC lines into one WebSocket frame.
		for _, line := range strings.Split(string(data), "\n") {
			c.dispatch(conn, line)
		}
	}
}

func (c *Connection) dispatch(conn *websocket.Conn, line string) {
	switch frame := ParseLine(line).(type) {
	case PingFrame:
		if err := conn.WriteMessage(websocket.TextMessage, []byte("PONG :tmi.twitch.tv")); err != nil {
			c.logger.Warn("Failed to answer Twitch ping", zap.Error(err))
		}
	case ChatFrame:
		if c.onChat != nil {
			c.onChat(frame.Chat)
		}
	case IgnoredFrame:
	}
}

func (c *Connection) scheduleReconnect(ctx context.Context) {
	c.stateMu.Lock()
	c.reconnectAttempts++
	attempt := c.reconnectAttempts
	c.stateMu.Unlock()

	if attempt > c.maxReconnects {
		c.setState(domain.StateError)
		err := errors.NewConnectionError("twitch reconnect budget exhausted", "twitch", attempt-1, nil)
		c.logger.Error("Max Twitch reconnect attempts reached", zap.Int("attempts", attempt-1))
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	delay := reconnectDelay(attempt)
	c.setState(domain.StateReconnecting)
	c.logger.Info("Scheduling Twitch reconnect",
		zap.Int("attempt", attempt),
		zap.Int("max", c.maxReconnects),
		zap.Duration("delay", delay),
	)

	go func() {
		select {
		case <-time.After(delay):
			if err := c.dial(ctx); err != nil {
				c.logger.Error("Twitch reconnect failed", zap.Error(err))
			}
		case <-c.stopCh:
		case <-ctx.Done():
		}
	}()
}

func reconnectDelay(attempt int) time.Duration {
	delay := constants.WebSocketConfig.ReconnectBaseDelay * time.Duration(1<<attempt)
	return util.MinDuration(delay, constants.WebSocketConfig.ReconnectMaxDelay)
}

// Disconnect tears the connection down. Idempotent; suppresses any pending
// reconnect timer.
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
		c.logger.Warn("Timeout waiting for Twitch listener to stop")
	}
}

func (c *Connection) setState(newState domain.ConnectionState) {
	c.stateMu.Lock()
	oldState := c.state
	c.state = newState
	c.stateMu.Unlock()

	if oldState != newState {
		c.logger.Info("Twitch connection state changed",
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

func (c *Connection) Status() domain.ConnectionStatus {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return domain.ConnectionStatus{
		Platform: domain.PlatformTwitch,
		Channel:  c.channel,
		State:    c.state,
		Attempts: c.reconnectAttempts,
	}
}
