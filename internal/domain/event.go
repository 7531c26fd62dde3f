package domain

import "time"

// Platform identifies the origin of a normalized event.
type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformKick   Platform = "kick"
	PlatformSystem Platform = "system"
)

func (p Platform) String() string {
	return string(p)
}

// ConnectionState is the lifecycle state of a single platform connection.
type ConnectionState string

const (
	StateIdle         ConnectionState = "IDLE"
	StateResolving    ConnectionState = "RESOLVING"
	StateConnecting   ConnectionState = "CONNECTING"
	StateSubscribed   ConnectionState = "SUBSCRIBED"
	StateReconnecting ConnectionState = "RECONNECTING"
	StateClosed       ConnectionState = "CLOSED"
	StateError        ConnectionState = "ERROR"
)

func (s ConnectionState) String() string {
	return string(s)
}

// ChannelIdentity is the resolved identity of a channel for one connection
// attempt. Resolved once, immutable for the connection's lifetime.
type ChannelIdentity struct {
	Platform   Platform
	Name       string
	ChannelID  int
	ChatroomID int // Kick only
}

// ChatEvent is a normalized chat message from either platform.
type ChatEvent struct {
	Platform  Platform  `json:"platform"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HypeKind distinguishes the monetized viewer-support actions.
type HypeKind string

const (
	HypeSubscription HypeKind = "sub"
	HypeGiftedSubs   HypeKind = "gift-sub"
	HypeGift         HypeKind = "gift"
)

// HypeEvent is a normalized viewer-support event. Amount carries the
// subscriber count, gifted-sub count, or gift quantity depending on Kind.
type HypeEvent struct {
	Kind      HypeKind `json:"type"`
	Username  string   `json:"username"`
	Amount    int      `json:"amount"`
	GiftName  string   `json:"giftName,omitempty"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// ConnectionStatus is a point-in-time snapshot of one platform connection,
// reported on the status endpoint.
type ConnectionStatus struct {
	Platform  Platform        `json:"platform"`
	Channel   string          `json:"channel"`
	State     ConnectionState `json:"state"`
	ChannelID int             `json:"channelId,omitempty"`
	Attempts  int             `json:"reconnectAttempts"`
}
