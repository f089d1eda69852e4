// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskcache is the client-side query cache for the dashboard:
// the bucketed view per (viewer, workspace) key plus the pages of the
// completed feed, with subscriptions, invalidation, and optimistic
// transactions.
//
// The cache is the sole shared mutable resource between the mutation
// actions and the creation workflow. All access goes through narrow,
// key- or task-scoped operations — there is no bulk overwrite. Values
// cross the cache boundary as CBOR deep copies, so callers can never
// alias cached state.
//
// Optimistic mutation follows one discipline everywhere: Begin a
// transaction (which snapshots the task being mutated), apply local
// changes, then Commit on write success or Rollback on failure.
// Rollback restores that one task verbatim rather than re-fetching,
// so neither an interleaved update nor another action's committed
// change is lost.
//
// Key exports:
//
//   - [Cache] -- the store; [ViewKey] and [CompletedKey] name entries
//   - [Cache.RemoveTask], [Cache.RemoveTaskFor], [Cache.PatchTask] --
//     task-scoped edits
//   - [Cache.Begin] -- optimistic transaction (snapshot/commit/rollback)
//   - [Cache.Subscribe] -- change notification stream
package taskcache
