package render

import (
	"html"
	"strings"

	"github.com/kapu/unichat-go/internal/domain"
	"github.com/kapu/unichat-go/internal/emotes"
)

// Tokenize splits a raw message on single spaces and classifies each word
// against the emote catalog. Words that miss become HTML-escaped text
// tokens; consecutive spaces yield empty text tokens so the client can
// reconstruct the original spacing by joining values with a single space.
func Tokenize(message string, catalog *emotes.Catalog) []domain.Token {
	words := strings.Split(message, " ")
	tokens := make([]domain.Token, 0, len(words))

	for _, word := range words {
		if entry, ok := catalog.Lookup(word); ok {
			tokens = append(tokens, domain.EmoteToken(entry.Name, entry.URL))
			continue
		}
		tokens = append(tokens, domain.TextToken(html.EscapeString(word)))
	}

	return tokens
}

// RenderedMessage pairs a chat event with its display tokens.
type RenderedMessage struct {
	Event  domain.ChatEvent `json:"event"`
	Tokens []domain.Token   `json:"tokens"`
}

// Renderer turns chat events into display-ready messages and keeps a
// bounded history of the most recent renderings.
type Renderer struct {
	catalog *emotes.Catalog
	history *History
}

func NewRenderer(catalog *emotes.Catalog, historyLimit int) *Renderer {
	return &Renderer{
		catalog: catalog,
		history: NewHistory(historyLimit),
	}
}

// Render tokenizes the event and records it in history.
func (r *Renderer) Render(event domain.ChatEvent) RenderedMessage {
	msg := RenderedMessage{
		Event:  event,
		Tokens: Tokenize(event.Message, r.catalog),
	}
	r.history.Append(msg)
	return msg
}

// History returns the renderer's message history.
func (r *Renderer) History() *History {
	return r.history
}
