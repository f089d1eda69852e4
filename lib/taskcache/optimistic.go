// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskcache

import (
	"strings"

	"github.com/taskdeck/taskdeck/lib/codec"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Bucket positions inside a view, recorded by snapshots.
const (
	bucketOverdue = iota
	bucketToday
	bucketUpcoming
)

// taskSnapshot remembers where one task sat in one cached view at
// Begin — which bucket, which index — with its value captured as
// encoded bytes so later cache changes cannot leak into it.
type taskSnapshot struct {
	bucket int
	index  int
	data   []byte
}

// Txn is one optimistic transaction, scoped to a single task: Begin
// captures that task's value and position in every view that holds
// it, and Rollback puts exactly that task back, leaving every other
// cached task alone. Transactions on different tasks therefore never
// disturb each other's committed changes. Two transactions on the
// same task are last-write-wins, matching the storage layer's
// behavior for the underlying writes.
type Txn struct {
	cache   *Cache
	taskID  string
	entries map[Key]taskSnapshot
	done    bool
}

// Begin snapshots a task across every cached view, ahead of an
// optimistic RemoveTask or PatchTask on it.
func (c *Cache) Begin(taskID string) *Txn {
	return c.begin("", taskID)
}

// BeginFor is Begin restricted to one viewer's views, pairing with
// RemoveTaskFor for personal actions.
func (c *Cache) BeginFor(viewerID, taskID string) *Txn {
	return c.begin(viewerPrefix(viewerID), taskID)
}

func (c *Cache) begin(prefix, taskID string) *Txn {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn := &Txn{cache: c, taskID: taskID, entries: make(map[Key]taskSnapshot)}
	for key, buckets := range c.views {
		if !strings.HasPrefix(string(key), prefix) {
			continue
		}
		for b, bucket := range [][]task.EffectiveTask{buckets.Overdue, buckets.Today, buckets.Upcoming} {
			for i := range bucket {
				if bucket[i].Canonical.ID == taskID {
					txn.entries[key] = taskSnapshot{bucket: b, index: i, data: mustMarshal(&bucket[i])}
				}
			}
		}
	}
	return txn
}

// Commit settles the transaction, keeping the optimistic changes.
func (t *Txn) Commit() {
	t.done = true
}

// Rollback restores the snapshotted task verbatim in every view that
// held it at Begin — not a re-fetch, and never a whole-entry
// overwrite, so changes other transactions committed in the meantime
// survive. After Commit, Rollback is a no-op.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.done = true

	c := t.cache
	c.mu.Lock()
	touched := make([]Key, 0, len(t.entries))
	for key, snap := range t.entries {
		buckets, ok := c.views[key]
		if !ok {
			continue
		}
		// Drop any current copy first: a patched task is replaced, a
		// removed task is re-inserted and its counter decrement
		// undone.
		present := false
		buckets.Overdue, present = removeFromBucket(buckets.Overdue, t.taskID, present)
		buckets.Today, present = removeFromBucket(buckets.Today, t.taskID, present)
		buckets.Upcoming, present = removeFromBucket(buckets.Upcoming, t.taskID, present)

		restored := new(task.EffectiveTask)
		mustUnmarshal(snap.data, restored)

		target := &buckets.Overdue
		switch snap.bucket {
		case bucketToday:
			target = &buckets.Today
		case bucketUpcoming:
			target = &buckets.Upcoming
		}
		i := snap.index
		if i > len(*target) {
			i = len(*target)
		}
		rest := append([]task.EffectiveTask{*restored}, (*target)[i:]...)
		*target = append((*target)[:i], rest...)

		if !present {
			buckets.TotalActiveTasks++
		}
		touched = append(touched, key)
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(Event{Key: key, Kind: EventUpdated})
	}
}

func mustMarshal(v any) []byte {
	data, err := codec.Marshal(v)
	if err != nil {
		panic("taskcache: snapshot encode: " + err.Error())
	}
	return data
}

func mustUnmarshal(data []byte, v any) {
	if err := codec.Unmarshal(data, v); err != nil {
		panic("taskcache: snapshot decode: " + err.Error())
	}
}
