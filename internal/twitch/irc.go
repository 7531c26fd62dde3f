package twitch

import (
	"strings"
	"time"

	"github.com/kapu/unichat-go/internal/domain"
)

// Inbound is a parsed IRC line. Exactly one of the concrete types comes
// back from ParseLine.
type Inbound interface {
	isInbound()
}

// PingFrame asks for a keepalive reply.
type PingFrame struct{}

// ChatFrame carries one chat message.
type ChatFrame struct {
	Chat domain.ChatEvent
}

// IgnoredFrame is any line that carries no event we surface (JOIN acks,
// capability acks, server notices, malformed input).
type IgnoredFrame struct{}

func (PingFrame) isInbound()    {}
func (ChatFrame) isInbound()    {}
func (IgnoredFrame) isInbound() {}

// ParseLine classifies one raw IRC line. Lines that are not PING or a
// well-formed tagged PRIVMSG are ignored rather than treated as errors;
// the upstream mixes many line types over one socket.
func ParseLine(line string) Inbound {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return IgnoredFrame{}
	}

	if strings.HasPrefix(line, "PING") {
		return PingFrame{}
	}

	marker := strings.Index(line, "PRIVMSG")
	if marker < 0 {
		return IgnoredFrame{}
	}

	// Tags live only in the @-prefixed block before the command. The
	// message body is untrusted input and must never be scanned for tags,
	// so extraction stops at the PRIVMSG marker.
	if !strings.HasPrefix(line, "@") {
		return IgnoredFrame{}
	}
	username := parseTag(line[:marker], "display-name")
	message, ok := parseMessage(line[marker:])
	if !ok || username == "" {
		return IgnoredFrame{}
	}

	return ChatFrame{Chat: domain.ChatEvent{
		Platform:  domain.PlatformTwitch,
		Username:  username,
		Message:   message,
		Timestamp: time.Now(),
	}}
}

// parseTag extracts one IRCv3 tag value from the tag segment of a line.
// Callers must pass only the portion preceding the command marker.
func parseTag(tagSegment, key string) string {
	marker := key + "="
	idx := strings.Index(tagSegment, marker)
	if idx < 0 {
		return ""
	}
	rest := tagSegment[idx+len(marker):]
	if end := strings.IndexByte(rest, ';'); end >= 0 {
		return rest[:end]
	}
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		return rest[:end]
	}
	return rest
}

// parseMessage returns everything after the first colon in the segment
// starting at the PRIVMSG marker. Colons inside the message body are
// preserved.
func parseMessage(rest string) (string, bool) {
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", false
	}
	return rest[colon+1:], true
}
