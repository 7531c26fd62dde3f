package domain

// Provider is an emote image source.
type Provider string

const (
	ProviderTwitch  Provider = "twitch"
	ProviderKick    Provider = "kick"
	ProviderSevenTV Provider = "7tv"
	ProviderBTTV    Provider = "bttv"
	ProviderFFZ     Provider = "ffz"
)

func (p Provider) String() string {
	return string(p)
}

// ProviderPriority is the fixed lookup order: platform-native providers win
// over cross-platform ones when a word matches in more than one.
var ProviderPriority = []Provider{
	ProviderTwitch,
	ProviderKick,
	ProviderSevenTV,
	ProviderBTTV,
	ProviderFFZ,
}

// EmoteScope distinguishes channel-scoped entries from global ones.
// Channel entries shadow global entries of the same provider on name collision.
type EmoteScope string

const (
	ScopeGlobal  EmoteScope = "global"
	ScopeChannel EmoteScope = "channel"
)

// EmoteEntry maps an emote name to its image URL within one provider.
type EmoteEntry struct {
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Provider Provider   `json:"provider"`
	Scope    EmoteScope `json:"scope"`
}
