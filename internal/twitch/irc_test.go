package twitch

import (
	"testing"

	"github.com/kapu/unichat-go/internal/domain"
)

func TestParseLinePing(t *testing.T) {
	inbound := ParseLine("PING :tmi.twitch.tv")
	if _, ok := inbound.(PingFrame); !ok {
		t.Fatalf("expected ping frame, got %#v", inbound)
	}
}

func TestParseLinePrivmsg(t *testing.T) {
	line := "@badge-info=;badges=;color=#FF0000;display-name=SomeViewer;emotes=;id=abc;mod=0 :someviewer!someviewer@someviewer.tmi.twitch.tv PRIVMSG #channel :Hello chat"
	inbound := ParseLine(line)
	chat, ok := inbound.(ChatFrame)
	if !ok {
		t.Fatalf("expected chat frame, got %#v", inbound)
	}
	if chat.Chat.Platform != domain.PlatformTwitch {
		t.Errorf("platform = %q", chat.Chat.Platform)
	}
	if chat.Chat.Username != "SomeViewer" {
		t.Errorf("username = %q", chat.Chat.Username)
	}
	if chat.Chat.Message != "Hello chat" {
		t.Errorf("message = %q", chat.Chat.Message)
	}
}

func TestParseLinePreservesLaterColons(t *testing.T) {
	line := "@display-name=V :v!v@v.tmi.twitch.tv PRIVMSG #c :check this: https://example.com :)"
	chat, ok := ParseLine(line).(ChatFrame)
	if !ok {
		t.Fatal("expected chat frame")
	}
	if chat.Chat.Message != "check this: https://example.com :)" {
		t.Errorf("message = %q", chat.Chat.Message)
	}
}

func TestParseLineStripsCRLF(t *testing.T) {
	chat, ok := ParseLine("@display-name=V :v!v@v.tmi.twitch.tv PRIVMSG #c :hi\r\n").(ChatFrame)
	if !ok {
		t.Fatal("expected chat frame")
	}
	if chat.Chat.Message != "hi" {
		t.Errorf("message = %q", chat.Chat.Message)
	}
}

func TestParseLineIgnored(t *testing.T) {
	lines := []string{
		"",
		":tmi.twitch.tv 001 justinfan123 :Welcome, GLHF!",
		":tmi.twitch.tv CAP * ACK :twitch.tv/tags twitch.tv/commands",
		":justinfan123!justinfan123@justinfan123.tmi.twitch.tv JOIN #channel",
		// PRIVMSG without a display-name tag
		":v!v@v.tmi.twitch.tv PRIVMSG #c :no tags here",
		// PRIVMSG without a message body
		"@display-name=V PRIVMSG #c",
	}

	for _, line := range lines {
		if _, ok := ParseLine(line).(IgnoredFrame); !ok {
			t.Errorf("expected line to be ignored: %q", line)
		}
	}
}

func TestParseTag(t *testing.T) {
	segment := "@color=#FF0000;display-name=Name;emotes= :x "
	if got := parseTag(segment, "display-name"); got != "Name" {
		t.Errorf("display-name = %q", got)
	}
	if got := parseTag(segment, "color"); got != "#FF0000" {
		t.Errorf("color = %q", got)
	}
	if got := parseTag(segment, "missing"); got != "" {
		t.Errorf("missing tag = %q", got)
	}
}

func TestParseLineIgnoresTagsInMessageBody(t *testing.T) {
	// A tag-less line whose body happens to contain tag syntax must not be
	// taken for a tagged message.
	line := ":v!v@v.tmi.twitch.tv PRIVMSG #c :hello display-name=Spoof ok"
	if _, ok := ParseLine(line).(IgnoredFrame); !ok {
		t.Fatalf("expected tag-less line to be ignored, got %#v", ParseLine(line))
	}

	// Same body on a properly tagged line still uses the real tag.
	tagged := "@display-name=Real :v!v@v.tmi.twitch.tv PRIVMSG #c :hello display-name=Spoof ok"
	chat, ok := ParseLine(tagged).(ChatFrame)
	if !ok {
		t.Fatal("expected chat frame")
	}
	if chat.Chat.Username != "Real" {
		t.Errorf("username = %q, want Real", chat.Chat.Username)
	}
	if chat.Chat.Message != "hello display-name=Spoof ok" {
		t.Errorf("message = %q", chat.Chat.Message)
	}
}

func TestTwitchReconnectDelay(t *testing.T) {
	// Both platforms share the same backoff curve.
	wants := []int64{2000, 4000, 8000, 16000, 30000}
	for i, want := range wants {
		if got := reconnectDelay(i + 1).Milliseconds(); got != want {
			t.Errorf("reconnectDelay(%d) = %dms, want %dms", i+1, got, want)
		}
	}
}
