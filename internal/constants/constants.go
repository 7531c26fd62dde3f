package constants

import "time"

var CacheTTL = struct {
	EmoteProvider   time.Duration
	ChannelIdentity time.Duration
	UserSettings    time.Duration
}{
	EmoteProvider:   10 * time.Minute, // provider payloads survive quick reconnects
	ChannelIdentity: 20 * time.Minute,
	UserSettings:    0, // no expiry
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	HandshakeTimeout     time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectBaseDelay:   1 * time.Second,
	ReconnectMaxDelay:    30 * time.Second,
	HandshakeTimeout:     10 * time.Second,
}

var ChatConfig = struct {
	HistoryLimit      int
	TwitchGlobalLimit int
}{
	HistoryLimit:      100,
	TwitchGlobalLimit: 500, // cap on global Twitch emotes indexed per load
}

var APIConfig = struct {
	KickChannelBaseURL string
	KickEmoteCDN       string
	TwitchHelixBaseURL string
	TwitchEmoteCDN     string
	SevenTVBaseURL     string
	SevenTVEmoteCDN    string
	BTTVBaseURL        string
	BTTVEmoteCDN       string
	FFZBaseURL         string
	RequestTimeout     time.Duration
}{
	KickChannelBaseURL: "https://kick.com/api/v2/channels",
	KickEmoteCDN:       "https://files.kick.com/emotes",
	TwitchHelixBaseURL: "https://api.twitch.tv/helix",
	TwitchEmoteCDN:     "https://static-cdn.jtvnw.net/emoticons/v2",
	SevenTVBaseURL:     "https://7tv.io/v3",
	SevenTVEmoteCDN:    "https://cdn.7tv.app/emote",
	BTTVBaseURL:        "https://api.betterttv.net/3",
	BTTVEmoteCDN:       "https://cdn.betterttv.net/emote",
	FFZBaseURL:         "https://api.frankerfacez.com/v1",
	RequestTimeout:     10 * time.Second,
}

var OverlayConfig = struct {
	ClientBufferSize int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
}{
	ClientBufferSize: 16,
	WriteTimeout:     5 * time.Second,
	PingInterval:     30 * time.Second,
	PongTimeout:      60 * time.Second,
}

var EmoteConfig = struct {
	LoadConcurrency int
}{
	LoadConcurrency: 5, // one worker per provider
}
