package domain

// TokenKind tags a rendered message token.
type TokenKind string

const (
	TokenText  TokenKind = "text"
	TokenEmote TokenKind = "emote"
)

// Token is one element of a display-ready message: either an HTML-escaped
// text fragment or an emote image reference.
type Token struct {
	Kind  TokenKind `json:"kind"`
	Value string    `json:"value,omitempty"`
	Name  string    `json:"name,omitempty"`
	URL   string    `json:"url,omitempty"`
}

// TextToken builds a text token.
func TextToken(value string) Token {
	return Token{Kind: TokenText, Value: value}
}

// EmoteToken builds an emote token.
func EmoteToken(name, url string) Token {
	return Token{Kind: TokenEmote, Name: name, URL: url}
}
