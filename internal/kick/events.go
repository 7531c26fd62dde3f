package kick

import (
	"encoding/json"
	"time"

	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/util"
)

// Pusher event names published on the subscribed channels.
const (
	eventConnectionEstablished = "pusher:connection_established"
	eventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	eventPing                  = "pusher:ping"
	eventPong                  = "pusher:pong"
	eventSubscribe             = "pusher:subscribe"

	eventSubscription = `App\Events\SubscriptionEvent`
	eventGiftedSubs   = `App\Events\GiftedSubscriptionsEvent`
	eventChatMessage  = `App\Events\ChatMessageEvent`
	eventGift         = `App\Events\GiftEvent`
	eventUserGifted   = `App\Events\UserGiftedEvent`
)

const defaultGiftName = "Kick Gift"

// pusherFrame is the envelope of every inbound message.
type pusherFrame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Channel string          `json:"channel"`
}

// Inbound is the tagged union produced by frame parsing. Each recognized
// upstream event name maps to one variant; unrecognized names become
// UnknownFrame, which the connection drops without a state change.
type Inbound interface {
	isInbound()
}

type ControlFrame struct {
	Established bool
	Subscribed  bool
}

type PingFrame struct{}

type ChatFrame struct {
	Chat domain.ChatEvent
	Gift *domain.HypeEvent // set when the message carries gift metadata
}

type HypeFrame struct {
	Hype domain.HypeEvent
}

type UnknownFrame struct {
	Event string
}

func (ControlFrame) isInbound() {}
func (PingFrame) isInbound()    {}
func (ChatFrame) isInbound()    {}
func (HypeFrame) isInbound()    {}
func (UnknownFrame) isInbound() {}

// ParseFrame decodes one raw WebSocket message into its Inbound variant.
// A malformed envelope is an error; a malformed payload inside a recognized
// event is also an error. Both are dropped by the caller.
func ParseFrame(data []byte) (Inbound, error) {
	var frame pusherFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}

	switch frame.Event {
	case eventConnectionEstablished:
		return ControlFrame{Established: true}, nil
	case eventSubscriptionSucceeded:
		return ControlFrame{Subscribed: true}, nil
	case eventPing:
		return PingFrame{}, nil
	case eventSubscription:
		return parseSubscription(frame.Data)
	case eventGiftedSubs:
		return parseGiftedSubs(frame.Data)
	case eventChatMessage:
		return parseChatMessage(frame.Data)
	case eventGift, eventUserGifted:
		return parseGift(frame.Data)
	default:
		return UnknownFrame{Event: frame.Event}, nil
	}
}

// decodePayload unwraps the Pusher convention of double-encoded event data:
// the data field is usually a JSON string containing JSON.
func decodePayload(raw json.RawMessage, dest any) error {
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		return json.Unmarshal([]byte(inner), dest)
	}
	return json.Unmarshal(raw, dest)
}

type namedUser struct {
	Username string `json:"username"`
}

type subscriptionPayload struct {
	Username   string    `json:"username"`
	Months     int       `json:"months"`
	Subscriber namedUser `json:"subscriber"`
	User       namedUser `json:"user"`
}

func parseSubscription(raw json.RawMessage) (Inbound, error) {
	var p subscriptionPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	return HypeFrame{Hype: domain.HypeEvent{
		Kind:      domain.HypeSubscription,
		Username:  util.FirstNonEmpty("Anonymous", p.Username, p.Subscriber.Username, p.User.Username),
		Amount:    1,
		Timestamp: util.NowMillis(),
	}}, nil
}

type giftedSubsPayload struct {
	GifterUsername  string    `json:"gifter_username"`
	Gifter          namedUser `json:"gifter"`
	Username        string    `json:"username"`
	GiftedUsernames []string  `json:"gifted_usernames"`
	Quantity        int       `json:"quantity"`
	Count           int       `json:"count"`
}

func parseGiftedSubs(raw json.RawMessage) (Inbound, error) {
	var p giftedSubsPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	amount := len(p.GiftedUsernames)
	if amount == 0 {
		amount = p.Quantity
	}
	if amount == 0 {
		amount = p.Count
	}
	if amount == 0 {
		amount = 1
	}

	return HypeFrame{Hype: domain.HypeEvent{
		Kind:      domain.HypeGiftedSubs,
		Username:  util.FirstNonEmpty("Anonymous", p.GifterUsername, p.Gifter.Username, p.Username),
		Amount:    amount,
		Timestamp: util.NowMillis(),
	}}, nil
}

type giftPayload struct {
	Sender         namedUser `json:"sender"`
	GifterUsername string    `json:"gifter_username"`
	Username       string    `json:"username"`
	Amount         int       `json:"amount"`
	Quantity       int       `json:"quantity"`
	Gift           struct {
		Name string `json:"name"`
	} `json:"gift"`
	GiftName string `json:"gift_name"`
}

func parseGift(raw json.RawMessage) (Inbound, error) {
	var p giftPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	amount := p.Amount
	if amount == 0 {
		amount = p.Quantity
	}
	if amount == 0 {
		amount = 1
	}

	return HypeFrame{Hype: domain.HypeEvent{
		Kind:      domain.HypeGift,
		Username:  util.FirstNonEmpty("Anonymous", p.Sender.Username, p.GifterUsername, p.Username),
		Amount:    amount,
		GiftName:  util.FirstNonEmpty(defaultGiftName, p.Gift.Name, p.GiftName),
		Timestamp: util.NowMillis(),
	}}, nil
}

type chatMessagePayload struct {
	Content  string    `json:"content"`
	Type     string    `json:"type"`
	Sender   namedUser `json:"sender"`
	Metadata *struct {
		Gift *struct {
			Name   string `json:"name"`
			Amount int    `json:"amount"`
		} `json:"gift"`
	} `json:"metadata"`
}

func parseChatMessage(raw json.RawMessage) (Inbound, error) {
	var p chatMessagePayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	frame := ChatFrame{Chat: domain.ChatEvent{
		Platform:  domain.PlatformKick,
		Username:  util.FirstNonEmpty("Unknown", p.Sender.Username),
		Message:   p.Content,
		Timestamp: time.Now(),
	}}

	// Some gifts arrive as chat messages with gift metadata attached.
	if p.Metadata != nil && (p.Metadata.Gift != nil || p.Type == "gift") {
		gift := domain.HypeEvent{
			Kind:      domain.HypeGift,
			Username:  util.FirstNonEmpty("Anonymous", p.Sender.Username),
			Amount:    1,
			GiftName:  "Gift",
			Timestamp: util.NowMillis(),
		}
		if p.Metadata.Gift != nil {
			if p.Metadata.Gift.Amount > 0 {
				gift.Amount = p.Metadata.Gift.Amount
			}
			if p.Metadata.Gift.Name != "" {
				gift.GiftName = p.Metadata.Gift.Name
			}
		}
		frame.Gift = &gift
	}

	return frame, nil
}
