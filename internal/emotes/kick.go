package emotes

import (
	"fmt"

	"github.com/kapu/unichat-go/internal/constants"
	"github.com/kapu/unichat-go/internal/domain"
)

// Kick ships no public emote listing endpoint; channel emotes arrive embedded
// in the channel resolution payload and a short list of common globals is
// known by id.
var kickGlobalEmotes = []struct {
	Name string
	ID   string
}{
	{"kickPepe", "34448"},
	{"kickLove", "34449"},
	{"kickPog", "34450"},
	{"kickSad", "34451"},
	{"kickLUL", "34452"},
	{"kickHype", "34453"},
	{"kickCool", "34454"},
	{"kickThinking", "34455"},
}

// KickEmoteURL builds the CDN URL for a Kick emote id.
func KickEmoteURL(id string) string {
	return fmt.Sprintf("%s/%s/fullsize", constants.APIConfig.KickEmoteCDN, id)
}

// ApplyKick merges the channel emotes carried by a Kick resolution payload,
// plus the known globals, into the catalog's Kick provider.
func ApplyKick(catalog *Catalog, channelEmotes []domain.EmoteEntry) {
	entries := make([]domain.EmoteEntry, 0, len(channelEmotes)+len(kickGlobalEmotes))
	entries = append(entries, channelEmotes...)
	for _, g := range kickGlobalEmotes {
		entries = append(entries, domain.EmoteEntry{
			Name:     g.Name,
			URL:      KickEmoteURL(g.ID),
			Provider: domain.ProviderKick,
			Scope:    domain.ScopeGlobal,
		})
	}
	catalog.Apply(domain.ProviderKick, entries)
}
