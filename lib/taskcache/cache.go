// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskcache

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/taskdeck/taskdeck/lib/codec"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Key names one cache entry. Keys are hierarchical strings so
// Invalidate can match by prefix, mirroring how query keys nest.
type Key string

// ViewKey names the bucketed view for a viewer and workspace scope
// (empty workspace means the all-workspaces view).
func ViewKey(viewerID, workspaceID string) Key {
	return Key(viewerPrefix(viewerID) + workspaceID)
}

// viewerPrefix is the key prefix shared by one viewer's bucketed
// views, used to scope personal mutations to that viewer.
func viewerPrefix(viewerID string) string {
	return "my-tasks/" + viewerID + "/"
}

// CompletedKey names one page of a viewer's completed feed.
func CompletedKey(viewerID, workspaceID string, page int) Key {
	return Key(fmt.Sprintf("completed/%s/%s/%d", viewerID, workspaceID, page))
}

// EventKind classifies a cache event.
type EventKind string

const (
	// EventUpdated fires when an entry's value changes.
	EventUpdated EventKind = "updated"
	// EventInvalidated fires when an entry is marked stale and must
	// be re-fetched before next use.
	EventInvalidated EventKind = "invalidated"
)

// Event notifies subscribers of a cache change.
type Event struct {
	Key  Key
	Kind EventKind
}

// Cache holds the dashboard's cached query results. Safe for
// concurrent use. Values are deep-copied on the way in and out.
type Cache struct {
	logger *slog.Logger

	mu          sync.Mutex
	views       map[Key]*task.Buckets
	completed   map[Key]*task.CompletedPage
	stale       map[Key]bool
	subscribers map[int]chan Event
	nextSubID   int
}

// New creates an empty cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		logger:      logger,
		views:       make(map[Key]*task.Buckets),
		completed:   make(map[Key]*task.CompletedPage),
		stale:       make(map[Key]bool),
		subscribers: make(map[int]chan Event),
	}
}

// SetView stores a bucketed view and clears its staleness.
func (c *Cache) SetView(key Key, buckets *task.Buckets) {
	c.mu.Lock()
	c.views[key] = codec.Clone(buckets)
	delete(c.stale, key)
	c.mu.Unlock()
	c.notify(Event{Key: key, Kind: EventUpdated})
}

// View returns a deep copy of the cached view, or nil when absent.
func (c *Cache) View(key Key) *task.Buckets {
	c.mu.Lock()
	defer c.mu.Unlock()
	buckets, ok := c.views[key]
	if !ok {
		return nil
	}
	return codec.Clone(buckets)
}

// SetCompleted stores one completed-feed page.
func (c *Cache) SetCompleted(key Key, page *task.CompletedPage) {
	c.mu.Lock()
	c.completed[key] = codec.Clone(page)
	delete(c.stale, key)
	c.mu.Unlock()
	c.notify(Event{Key: key, Kind: EventUpdated})
}

// Completed returns a deep copy of the cached page, or nil.
func (c *Cache) Completed(key Key) *task.CompletedPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.completed[key]
	if !ok {
		return nil
	}
	return codec.Clone(page)
}

// Stale reports whether an entry has been invalidated since it was
// last set. Unknown keys are stale by definition.
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale[key] {
		return true
	}
	_, inViews := c.views[key]
	_, inCompleted := c.completed[key]
	return !inViews && !inCompleted
}

// Invalidate marks every entry whose key starts with prefix as stale
// and notifies subscribers. The values stay readable (the UI keeps
// rendering them) until fresh data replaces them.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	var touched []Key
	for key := range c.views {
		if strings.HasPrefix(string(key), prefix) {
			c.stale[key] = true
			touched = append(touched, key)
		}
	}
	for key := range c.completed {
		if strings.HasPrefix(string(key), prefix) {
			c.stale[key] = true
			touched = append(touched, key)
		}
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(Event{Key: key, Kind: EventInvalidated})
	}
}

// RemoveTask removes a task from the three active buckets of every
// cached view, decrementing that view's TotalActiveTasks by exactly
// one when the task was present. For shared-state actions only
// (complete, delete): the task really is gone for everyone.
func (c *Cache) RemoveTask(taskID string) {
	c.removeTask("", taskID)
}

// RemoveTaskFor is RemoveTask restricted to one viewer's views.
// Personal opt-outs (personally-unassign, done-with-my-part,
// self-completed, unassign-me) use this form: a personal override
// must never change what other viewers see.
func (c *Cache) RemoveTaskFor(viewerID, taskID string) {
	c.removeTask(viewerPrefix(viewerID), taskID)
}

func (c *Cache) removeTask(prefix, taskID string) {
	c.mu.Lock()
	var touched []Key
	for key, buckets := range c.views {
		if !strings.HasPrefix(string(key), prefix) {
			continue
		}
		removed := false
		buckets.Overdue, removed = removeFromBucket(buckets.Overdue, taskID, removed)
		buckets.Today, removed = removeFromBucket(buckets.Today, taskID, removed)
		buckets.Upcoming, removed = removeFromBucket(buckets.Upcoming, taskID, removed)
		if removed {
			buckets.TotalActiveTasks--
			touched = append(touched, key)
		}
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(Event{Key: key, Kind: EventUpdated})
	}
}

func removeFromBucket(bucket []task.EffectiveTask, taskID string, already bool) ([]task.EffectiveTask, bool) {
	for i := range bucket {
		if bucket[i].Canonical.ID == taskID {
			return append(bucket[:i], bucket[i+1:]...), true
		}
	}
	return bucket, already
}

// PatchTask applies fn to the task wherever it appears in a cached
// view. The patch is broadcast to all three active buckets — a task
// lives in at most one, so at most one application per view takes
// effect, but broadcasting keeps call sites uniform.
func (c *Cache) PatchTask(taskID string, fn func(*task.EffectiveTask)) {
	c.mu.Lock()
	var touched []Key
	for key, buckets := range c.views {
		patched := false
		for _, bucket := range [][]task.EffectiveTask{buckets.Overdue, buckets.Today, buckets.Upcoming} {
			for i := range bucket {
				if bucket[i].Canonical.ID == taskID {
					fn(&bucket[i])
					patched = true
				}
			}
		}
		if patched {
			touched = append(touched, key)
		}
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(Event{Key: key, Kind: EventUpdated})
	}
}

// Subscribe registers a change listener. The returned channel is
// buffered; if a subscriber falls behind, events are dropped rather
// than blocking mutations. The second return value unsubscribes.
func (c *Cache) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Event, 64)
	c.subscribers[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if existing, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(existing)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Cache) notify(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			c.logger.Debug("cache event dropped", "subscriber", id, "key", event.Key)
		}
	}
}
