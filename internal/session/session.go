package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kapu/unichat-go/internal/config"
	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/emotes"
	"github.com/kapu/unichat-go/internal/kick"
	"github.com/kapu/unichat-go/internal/overlay"
	"github.com/kapu/unichat-go/internal/render"
	"github.com/kapu/unichat-go/internal/service/cache"
	"github.com/kapu/unichat-go/internal/twitch"
	"go.uber.org/zap"
)

// Session owns every per-run object: the emote catalog, the platform
// connections, the renderer with its history, and the overlay bridge.
// Nothing here is process-global; two sessions in one process would not
// share state.
type Session struct {
	cfg    *config.Config
	logger *zap.Logger

	catalog  *emotes.Catalog
	loader   *emotes.Loader
	renderer *render.Renderer
	bridge   *overlay.Bridge

	twitchConn *twitch.Connection
	kickConn   *kick.Connection

	// hypeKey names the cache slot hype events land in. Kick is the only
	// hype source, so the slot is keyed by the Kick channel.
	hypeKey string

	mu      sync.RWMutex
	started bool
}

func New(cfg *config.Config, cacheService *cache.CacheService, logger *zap.Logger) *Session {
	catalog := emotes.NewCatalog()

	// A nil *CacheService must stay a nil interface inside the bridge.
	var store overlay.HypeStore
	if cacheService != nil {
		store = cacheService
	}

	s := &Session{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog,
		loader:   emotes.NewLoader(cfg.Twitch.ClientID, cacheService, logger),
		renderer: render.NewRenderer(catalog, constants.ChatConfig.HistoryLimit),
		bridge:   overlay.NewBridge(store, logger),
		hypeKey:  cfg.Channels.Kick,
	}

	if cfg.Channels.Twitch != "" {
		s.twitchConn = twitch.NewConnection(cfg.Channels.Twitch, cfg.Twitch.IRCURL, logger)
	}
	if cfg.Channels.Kick != "" {
		s.kickConn = kick.NewConnection(
			cfg.Channels.Kick,
			kick.NewResolver(logger),
			cfg.Kick.PusherKey,
			cfg.Kick.PusherCluster,
			logger,
		)
	}

	return s
}

// Start loads the emote catalog and opens the configured connections.
// The catalog load for Twitch-keyed providers runs in the background so a
// slow provider never delays chat; messages rendered before a provider
// settles simply miss its emotes.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("Session already started")
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if s.cfg.Channels.Twitch != "" {
		go s.loader.Load(ctx, s.cfg.Channels.Twitch, s.catalog)
	}

	if s.twitchConn != nil {
		s.wireTwitch()
		if err := s.twitchConn.Connect(ctx); err != nil {
			// Transport errors reconnect on their own; just surface it.
			s.logger.Error("Initial Twitch connect failed", zap.Error(err))
		}
	}

	if s.kickConn != nil {
		s.wireKick(ctx)
		if err := s.kickConn.Connect(ctx); err != nil {
			if s.kickConn.State() == domain.StateError {
				// Resolution failure is terminal, report it to the caller.
				return err
			}
			s.logger.Error("Initial Kick connect failed", zap.Error(err))
		}
	}

	return nil
}

func (s *Session) wireTwitch() {
	s.twitchConn.OnChat(s.handleChat)
	s.twitchConn.OnStateChange(func(state domain.ConnectionState) {
		s.announceState(domain.PlatformTwitch, s.cfg.Channels.Twitch, state)
	})
	s.twitchConn.OnError(func(err error) {
		s.logger.Error("Twitch connection gave up", zap.Error(err))
		s.systemMessage(fmt.Sprintf("Twitch connection lost: %v", err))
	})
}

func (s *Session) wireKick(ctx context.Context) {
	s.kickConn.OnChat(s.handleChat)
	s.kickConn.OnHype(func(event domain.HypeEvent) {
		s.bridge.PublishHype(ctx, s.hypeKey, event)
	})
	s.kickConn.OnChannelEmotes(func(entries []domain.EmoteEntry) {
		emotes.ApplyKick(s.catalog, entries)
	})
	s.kickConn.OnStateChange(func(state domain.ConnectionState) {
		s.announceState(domain.PlatformKick, s.cfg.Channels.Kick, state)
	})
	s.kickConn.OnError(func(err error) {
		s.logger.Error("Kick connection gave up", zap.Error(err))
		s.systemMessage(fmt.Sprintf("Kick connection lost: %v", err))
	})
}

func (s *Session) handleChat(event domain.ChatEvent) {
	s.bridge.Broadcast(s.renderer.Render(event))
}

func (s *Session) announceState(platform domain.Platform, channel string, state domain.ConnectionState) {
	switch state {
	case domain.StateSubscribed:
		s.systemMessage(fmt.Sprintf("Connected to %s/%s", platform, channel))
	case domain.StateReconnecting:
		s.systemMessage(fmt.Sprintf("Reconnecting to %s/%s", platform, channel))
	}
}

// systemMessage injects a synthetic chat line so overlays can surface
// connection changes inline with chat.
func (s *Session) systemMessage(text string) {
	s.handleChat(domain.ChatEvent{
		Platform:  domain.PlatformSystem,
		Username:  "System",
		Message:   text,
		Timestamp: time.Now(),
	})
}

// Stop closes both connections and drops overlay clients. Safe to call
// more than once.
func (s *Session) Stop() {
	if s.twitchConn != nil {
		s.twitchConn.Disconnect()
	}
	if s.kickConn != nil {
		s.kickConn.Disconnect()
	}
	s.bridge.Close()
	s.logger.Info("Session stopped")
}

// Bridge exposes the overlay bridge for the HTTP layer.
func (s *Session) Bridge() *overlay.Bridge {
	return s.bridge
}

// History returns the current rendered-message history, oldest first.
func (s *Session) History() []render.RenderedMessage {
	return s.renderer.History().Snapshot()
}

// HypeChannel is the cache-slot key the overlay polls for hype events.
func (s *Session) HypeChannel() string {
	return s.hypeKey
}

// Status collects a snapshot of every connection plus catalog and overlay
// counters for the status endpoint.
type Status struct {
	Connections  []domain.ConnectionStatus `json:"connections"`
	EmoteCount   int                       `json:"emoteCount"`
	HistoryLen   int                       `json:"historyLength"`
	OverlayCount int                       `json:"overlayClients"`
}

func (s *Session) Status() Status {
	status := Status{
		EmoteCount:   s.catalog.Size(),
		HistoryLen:   s.renderer.History().Len(),
		OverlayCount: s.bridge.ClientCount(),
	}
	if s.twitchConn != nil {
		status.Connections = append(status.Connections, s.twitchConn.Status())
	}
	if s.kickConn != nil {
		status.Connections = append(status.Connections, s.kickConn.Status())
	}
	return status
}
