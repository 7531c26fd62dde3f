package render

import "sync"

// History holds the most recent rendered messages, first-in first-out.
// The newest message is always appended before the oldest is evicted, so
// the buffer momentarily holds limit+1 entries during an Append.
type History struct {
	mu      sync.Mutex
	entries []RenderedMessage
	limit   int
}

func NewHistory(limit int) *History {
	return &History{
		entries: make([]RenderedMessage, 0, limit+1),
		limit:   limit,
	}
}

// Append records a message, evicting the oldest entry once the buffer
// exceeds its limit.
func (h *History) Append(msg RenderedMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, msg)
	if len(h.entries) > h.limit {
		h.entries = h.entries[1:]
	}
}

// Snapshot returns a copy of the current entries, oldest first.
func (h *History) Snapshot() []RenderedMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RenderedMessage, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the current entry count.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
