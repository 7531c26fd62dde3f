package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kapu/unichat-go/internal/service/cache"
	"github.com/kapu/unichat-go/internal/session"
	"go.uber.org/zap"
)

// Server exposes the overlay endpoints: the chat WebSocket, the polled
// hype slot, persisted tool settings, and health/status probes.
type Server struct {
	httpServer *http.Server
	session    *session.Session
	cache      *cache.CacheService
	logger     *zap.Logger
}

func New(addr string, sess *session.Session, cacheService *cache.CacheService, logger *zap.Logger) *Server {
	s := &Server{
		session: sess,
		cache:   cacheService,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/overlay/ws", s.handleOverlayWS)
	mux.HandleFunc("/overlay/hype", s.handleHype)
	mux.HandleFunc("/settings/", s.handleSettings)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // WebSocket connections outlive any write deadline
	}

	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.cache == nil || s.cache.IsConnected(r.Context())
	if !healthy {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *Server) handleOverlayWS(w http.ResponseWriter, r *http.Request) {
	s.session.Bridge().HandleWS(w, r, s.session.History())
}

// handleHype serves the polled hype slot. Clients pass the timestamp of
// the last event they displayed via ?since=; an empty body with 204 means
// nothing new.
func (s *Server) handleHype(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	event, err := s.session.Bridge().PollHype(r.Context(), s.session.HypeChannel(), since)
	if err != nil {
		s.logger.Error("Hype poll failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "hype slot unavailable"})
		return
	}
	if event == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

// handleSettings persists and restores per-tool overlay settings. The
// payload is opaque JSON; the server only keys it by tool name.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	tool := r.URL.Path[len("/settings/"):]
	if tool == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tool name required"})
		return
	}
	if s.cache == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "settings storage unavailable"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		var settings json.RawMessage
		found, err := s.cache.LoadSettings(r.Context(), tool, &settings)
		if err != nil {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load settings"})
			return
		}
		if !found {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no settings saved"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(settings)

	case http.MethodPut, http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
			return
		}
		if !json.Valid(body) {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "settings must be JSON"})
			return
		}
		if err := s.cache.SaveSettings(r.Context(), tool, json.RawMessage(body)); err != nil {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})

	default:
		w.Header().Set("Allow", "GET, PUT, POST")
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
