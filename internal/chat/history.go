package chat

// DefaultHistoryLimit is the number of broadcast messages replayed to a
// newly joined user.
const DefaultHistoryLimit = 50

// History keeps the most recent broadcast messages in insertion order.
// It is not safe for concurrent use; the Hub guards it with its lock.
type History struct {
	limit int
	items []MessageEvent
}

// NewHistory returns an empty history holding at most limit messages.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, items: make([]MessageEvent, 0, limit)}
}

// Append stores msg, evicting the oldest entries beyond the limit.
func (h *History) Append(msg MessageEvent) {
	h.items = append(h.items, msg)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append(h.items[:0], h.items[over:]...)
	}
}

// Snapshot returns a copy of the stored messages, oldest first.
func (h *History) Snapshot() []MessageEvent {
	out := make([]MessageEvent, len(h.items))
	copy(out, h.items)
	return out
}

// Len reports the number of stored messages.
func (h *History) Len() int {
	return len(h.items)
}

// Limit reports the capacity of the history.
func (h *History) Limit() int {
	return h.limit
}
