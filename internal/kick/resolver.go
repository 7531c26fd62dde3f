package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/pkg/errors"
	"go.uber.org/zap"
)

// channelResponse is the kick.com/api/v2/channels/{slug} payload.
type channelResponse struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	UserID   int    `json:"user_id"`
	Chatroom struct {
		ID     int `json:"id"`
		Emotes []struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"emotes"`
	} `json:"chatroom"`
}

// Resolution is the outcome of a channel lookup: the ids needed for Pusher
// subscriptions plus the channel-scoped emotes embedded in the payload.
type Resolution struct {
	Identity domain.ChannelIdentity
	Emotes   []domain.EmoteEntry
}

// Resolver looks up Kick channel metadata over HTTP.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		baseURL: constants.APIConfig.KickChannelBaseURL,
		httpClient: &http.Client{
			Timeout: constants.APIConfig.RequestTimeout,
		},
		logger: logger,
	}
}

// Resolve fetches channel metadata for a slug. A not-found or transport
// failure here is terminal for the connection attempt and is never retried.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*Resolution, error) {
	url := fmt.Sprintf("%s/%s", r.baseURL, slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewResolutionError("channel not found", "kick", slug, err)
	}
	setBrowserHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewResolutionError("channel not found", "kick", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Warn("Kick channel lookup failed",
			zap.String("channel", slug),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, errors.NewResolutionError("channel not found", "kick", slug, nil)
	}

	var channel channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&channel); err != nil {
		return nil, errors.NewResolutionError("channel not found", "kick", slug, err)
	}

	emotes := make([]domain.EmoteEntry, 0, len(channel.Chatroom.Emotes))
	for _, e := range channel.Chatroom.Emotes {
		if e.Name == "" || e.ID.String() == "" {
			continue
		}
		emotes = append(emotes, domain.EmoteEntry{
			Name:     e.Name,
			URL:      fmt.Sprintf("%s/%s/fullsize", constants.APIConfig.KickEmoteCDN, e.ID.String()),
			Provider: domain.ProviderKick,
			Scope:    domain.ScopeChannel,
		})
	}

	r.logger.Info("Kick channel resolved",
		zap.String("channel", channel.Slug),
		zap.Int("channel_id", channel.ID),
		zap.Int("chatroom_id", channel.Chatroom.ID),
		zap.Int("channel_emotes", len(emotes)),
	)

	return &Resolution{
		Identity: domain.ChannelIdentity{
			Platform:   domain.PlatformKick,
			Name:       channel.Slug,
			ChannelID:  channel.ID,
			ChatroomID: channel.Chatroom.ID,
		},
		Emotes: emotes,
	}, nil
}

// setBrowserHeaders mirrors a desktop browser profile; the channel endpoint
// sits behind CloudFlare and rejects bare clients.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://kick.com/")
	req.Header.Set("Origin", "https://kick.com")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
}
