package emotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/pkg/errors"
	"go.uber.org/zap"
)

// helixUsersResponse is the Helix user lookup payload.
type helixUsersResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	} `json:"data"`
}

type helixEmotesResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

func (l *Loader) loadTwitch(ctx context.Context, channelName string) ([]domain.EmoteEntry, error) {
	headers := map[string]string{"Client-Id": l.twitchClientID}

	var users helixUsersResponse
	userURL := fmt.Sprintf("%s/users?login=%s", l.helixBaseURL, channelName)
	if err := l.fetchJSON(ctx, userURL, headers, domain.ProviderTwitch, "user:"+channelName, &users); err != nil {
		return nil, err
	}
	if len(users.Data) == 0 {
		return nil, errors.NewResolutionError("twitch user not found", "twitch", channelName, nil)
	}
	broadcasterID := users.Data[0].ID

	entries := make([]domain.EmoteEntry, 0, constants.ChatConfig.TwitchGlobalLimit)

	var channelEmotes helixEmotesResponse
	channelURL := fmt.Sprintf("%s/chat/emotes?broadcaster_id=%s", l.helixBaseURL, broadcasterID)
	if err := l.fetchJSON(ctx, channelURL, headers, domain.ProviderTwitch, "channel:"+channelName, &channelEmotes); err != nil {
		// Channel emotes missing is not fatal; globals still apply.
		l.logger.Debug("Twitch channel emotes unavailable",
			zap.String("channel", channelName), zap.Error(err))
	} else {
		for _, e := range channelEmotes.Data {
			entries = append(entries, domain.EmoteEntry{
				Name:     e.Name,
				URL:      twitchEmoteURL(e.ID),
				Provider: domain.ProviderTwitch,
				Scope:    domain.ScopeChannel,
			})
		}
	}

	var globalEmotes helixEmotesResponse
	globalURL := fmt.Sprintf("%s/chat/emotes/global", l.helixBaseURL)
	if err := l.fetchJSON(ctx, globalURL, headers, domain.ProviderTwitch, "global", &globalEmotes); err != nil {
		if len(entries) == 0 {
			return nil, err
		}
		return entries, nil
	}

	limit := constants.ChatConfig.TwitchGlobalLimit
	for i, e := range globalEmotes.Data {
		if i >= limit {
			break
		}
		entries = append(entries, domain.EmoteEntry{
			Name:     e.Name,
			URL:      twitchEmoteURL(e.ID),
			Provider: domain.ProviderTwitch,
			Scope:    domain.ScopeGlobal,
		})
	}

	return entries, nil
}

func twitchEmoteURL(id string) string {
	return fmt.Sprintf("%s/%s/default/dark/2.0", constants.APIConfig.TwitchEmoteCDN, id)
}

// sevenTVUserResponse is the 7TV channel-name lookup payload.
type sevenTVUserResponse struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	EmoteSet *sevenTVEmoteSet `json:"emote_set"`
}

type sevenTVEmoteSet struct {
	Emotes []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"emotes"`
}

func (l *Loader) loadSevenTV(ctx context.Context, channelName string) ([]domain.EmoteEntry, error) {
	var user sevenTVUserResponse
	userURL := fmt.Sprintf("%s/users/twitch/%s", l.sevenTVBaseURL, channelName)
	if err := l.fetchJSON(ctx, userURL, nil, domain.ProviderSevenTV, "channel:"+channelName, &user); err != nil {
		return nil, err
	}

	entries := make([]domain.EmoteEntry, 0, 64)
	if user.EmoteSet != nil {
		for _, e := range user.EmoteSet.Emotes {
			entries = append(entries, domain.EmoteEntry{
				Name:     e.Name,
				URL:      sevenTVEmoteURL(e.ID),
				Provider: domain.ProviderSevenTV,
				Scope:    domain.ScopeChannel,
			})
		}
	}

	var global struct {
		Emotes []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"emotes"`
	}
	globalURL := fmt.Sprintf("%s/emote-sets/global", l.sevenTVBaseURL)
	if err := l.fetchJSON(ctx, globalURL, nil, domain.ProviderSevenTV, "global", &global); err != nil {
		if len(entries) == 0 {
			return nil, err
		}
		return entries, nil
	}
	for _, e := range global.Emotes {
		entries = append(entries, domain.EmoteEntry{
			Name:     e.Name,
			URL:      sevenTVEmoteURL(e.ID),
			Provider: domain.ProviderSevenTV,
			Scope:    domain.ScopeGlobal,
		})
	}

	return entries, nil
}

func sevenTVEmoteURL(id string) string {
	return fmt.Sprintf("%s/%s/2x.webp", constants.APIConfig.SevenTVEmoteCDN, id)
}

type bttvUserResponse struct {
	ChannelEmotes []bttvEmote `json:"channelEmotes"`
	SharedEmotes  []bttvEmote `json:"sharedEmotes"`
}

type bttvEmote struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

func (l *Loader) loadBTTV(ctx context.Context, channelName string) ([]domain.EmoteEntry, error) {
	var user bttvUserResponse
	userURL := fmt.Sprintf("%s/cached/users/twitch/%s", l.bttvBaseURL, channelName)
	if err := l.fetchJSON(ctx, userURL, nil, domain.ProviderBTTV, "channel:"+channelName, &user); err != nil {
		return nil, err
	}

	entries := make([]domain.EmoteEntry, 0, len(user.ChannelEmotes)+len(user.SharedEmotes))
	for _, e := range append(user.ChannelEmotes, user.SharedEmotes...) {
		entries = append(entries, domain.EmoteEntry{
			Name:     e.Code,
			URL:      bttvEmoteURL(e.ID),
			Provider: domain.ProviderBTTV,
			Scope:    domain.ScopeChannel,
		})
	}

	var global []bttvEmote
	globalURL := fmt.Sprintf("%s/cached/emotes/global", l.bttvBaseURL)
	if err := l.fetchJSON(ctx, globalURL, nil, domain.ProviderBTTV, "global", &global); err != nil {
		if len(entries) == 0 {
			return nil, err
		}
		return entries, nil
	}
	for _, e := range global {
		entries = append(entries, domain.EmoteEntry{
			Name:     e.Code,
			URL:      bttvEmoteURL(e.ID),
			Provider: domain.ProviderBTTV,
			Scope:    domain.ScopeGlobal,
		})
	}

	return entries, nil
}

func bttvEmoteURL(id string) string {
	return fmt.Sprintf("%s/%s/2x", constants.APIConfig.BTTVEmoteCDN, id)
}

type ffzRoomResponse struct {
	Sets map[string]struct {
		Emoticons []struct {
			Name string            `json:"name"`
			URLs map[string]string `json:"urls"`
		} `json:"emoticons"`
	} `json:"sets"`
}

func (l *Loader) loadFFZ(ctx context.Context, channelName string) ([]domain.EmoteEntry, error) {
	var room ffzRoomResponse
	roomURL := fmt.Sprintf("%s/room/%s", l.ffzBaseURL, channelName)
	if err := l.fetchJSON(ctx, roomURL, nil, domain.ProviderFFZ, "channel:"+channelName, &room); err != nil {
		return nil, err
	}

	var entries []domain.EmoteEntry
	for _, set := range room.Sets {
		for _, e := range set.Emoticons {
			url := e.URLs["2"]
			if url == "" {
				url = e.URLs["1"]
			}
			if url == "" {
				continue
			}
			if strings.HasPrefix(url, "//") {
				url = "https:" + url
			}
			entries = append(entries, domain.EmoteEntry{
				Name:     e.Name,
				URL:      url,
				Provider: domain.ProviderFFZ,
				Scope:    domain.ScopeChannel,
			})
		}
	}

	return entries, nil
}
