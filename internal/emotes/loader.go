package emotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/service/cache"
	"github.com/kapu/unichat-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// LoadSummary reports per-provider index sizes after a load settles.
type LoadSummary map[domain.Provider]int

// Loader populates a Catalog from the HTTP emote providers. Each provider is
// fetched once per Load; failures are isolated and logged, never fatal.
type Loader struct {
	httpClient *http.Client
	cache      *cache.CacheService
	logger     *zap.Logger

	twitchClientID string

	// Base URLs live in fields so tests can point them at local servers.
	helixBaseURL   string
	sevenTVBaseURL string
	bttvBaseURL    string
	ffzBaseURL     string
}

func NewLoader(twitchClientID string, cacheSvc *cache.CacheService, logger *zap.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: constants.APIConfig.RequestTimeout,
		},
		cache:          cacheSvc,
		logger:         logger,
		twitchClientID: twitchClientID,
		helixBaseURL:   constants.APIConfig.TwitchHelixBaseURL,
		sevenTVBaseURL: constants.APIConfig.SevenTVBaseURL,
		bttvBaseURL:    constants.APIConfig.BTTVBaseURL,
		ffzBaseURL:     constants.APIConfig.FFZBaseURL,
	}
}

// Load fetches the four Twitch-channel-keyed providers concurrently and
// merges the results into the catalog. It blocks until every provider has
// settled (success or failure); the catalog is queryable throughout.
// The Kick provider is fed separately from channel resolution, see ApplyKick.
func (l *Loader) Load(ctx context.Context, channelName string, catalog *Catalog) LoadSummary {
	type providerLoad struct {
		provider domain.Provider
		fetch    func(context.Context, string) ([]domain.EmoteEntry, error)
	}

	loads := []providerLoad{
		{domain.ProviderTwitch, l.loadTwitch},
		{domain.ProviderSevenTV, l.loadSevenTV},
		{domain.ProviderBTTV, l.loadBTTV},
		{domain.ProviderFFZ, l.loadFFZ},
	}

	p := pool.New().WithMaxGoroutines(constants.EmoteConfig.LoadConcurrency)
	for _, load := range loads {
		load := load
		p.Go(func() {
			entries, err := load.fetch(ctx, channelName)
			if err != nil {
				l.logger.Warn("Emote provider load failed",
					zap.String("provider", load.provider.String()),
					zap.String("channel", channelName),
					zap.Error(err),
				)
				return
			}
			catalog.Apply(load.provider, entries)
		})
	}
	p.Wait()

	summary := make(LoadSummary, len(domain.ProviderPriority))
	for _, provider := range domain.ProviderPriority {
		summary[provider] = catalog.ProviderSize(provider)
	}

	l.logger.Info("Emote catalog loaded",
		zap.String("channel", channelName),
		zap.Int("total", catalog.Size()),
		zap.Int("twitch", summary[domain.ProviderTwitch]),
		zap.Int("seventv", summary[domain.ProviderSevenTV]),
		zap.Int("bttv", summary[domain.ProviderBTTV]),
		zap.Int("ffz", summary[domain.ProviderFFZ]),
	)
	return summary
}

// fetchJSON GETs a provider URL and decodes the body into dest. Successful
// bodies are cached in Redis under provider+cacheKey so a quick reconnect
// skips the upstream call; the cache being down degrades to a direct fetch.
func (l *Loader) fetchJSON(ctx context.Context, url string, headers map[string]string, provider domain.Provider, cacheKey string, dest any) error {
	if l.cache != nil {
		if payload, ok := l.cache.GetEmotePayload(ctx, provider, cacheKey); ok {
			if err := json.Unmarshal(payload, dest); err == nil {
				return nil
			}
			// Corrupt cache entry, fall through to a live fetch.
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{"url": url}).WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{"url": url}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError(
			fmt.Sprintf("provider returned %s", resp.Status),
			resp.StatusCode,
			map[string]any{"url": url},
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewAPIError("failed to read response", 500, map[string]any{"url": url}).WithCause(err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewAPIError("failed to decode response", 500, map[string]any{"url": url}).WithCause(err)
	}

	if l.cache != nil {
		l.cache.SetEmotePayload(ctx, provider, cacheKey, body, constants.CacheTTL.EmoteProvider)
	}

	return nil
}
