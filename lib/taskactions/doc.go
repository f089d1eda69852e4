// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskactions implements the per-task imperative operations
// of the dashboard: complete and undo-complete, personal done/undo,
// personal unassign, unassign-me, label toggle, field edits, and soft
// delete.
//
// Every action follows one shape: optimistic cache apply, then the
// storage write, then settle — commit on success, rollback (restore
// the exact pre-action snapshot) on failure. Actions that cannot
// patch the cache back (unassign-me, undo-complete) invalidate
// instead, forcing a re-fetch of ground truth.
//
// Precondition failures ([ErrNoDoneList], [ErrNoActiveList]) abort
// before any mutation, cache or storage.
package taskactions
