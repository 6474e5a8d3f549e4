package command

import "sync"

// History is the ordered list of dispatched lines. It only grows while a
// session runs; loading and saving it belong to the history package.
type History struct {
	mu      sync.RWMutex
	entries []string
}

// NewHistory creates a history seeded with earlier entries.
func NewHistory(entries ...string) *History {
	return &History{entries: append([]string(nil), entries...)}
}

// Append records a dispatched line.
func (h *History) Append(line string) {
	h.mu.Lock()
	h.entries = append(h.entries, line)
	h.mu.Unlock()
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Entry returns the 1-based entry n.
func (h *History) Entry(n int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n < 1 || n > len(h.entries) {
		return "", false
	}
	return h.entries[n-1], true
}

// Last returns the most recent entry.
func (h *History) Last() (string, bool) {
	return h.Entry(h.Len())
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}
