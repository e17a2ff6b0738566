package notifications

import (
	"slices"
	"sync"
)

// Inbox keeps the most recent notifications in memory, newest last.
type Inbox struct {
	items []Notification
	size  int
	mu    sync.RWMutex
}

// NewInbox creates an inbox holding at most size notifications. Size below 1 is treated as 1.
func NewInbox(size int) *Inbox {
	return &Inbox{size: max(size, 1)}
}

// Add stores n, dropping the oldest notification when the inbox is full.
func (i *Inbox) Add(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.items) >= i.size {
		i.items = slices.Delete(i.items, 0, len(i.items)-i.size+1)
	}
	i.items = append(i.items, n)
}

// List returns up to limit notifications, newest first. Limit 0 returns all of them.
func (i *Inbox) List(limit int) []Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := slices.Clone(i.items)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of stored notifications.
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.items)
}
