// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the data model shared by the storage layer,
// the aggregation pipeline, and the creation workflow.
//
// The central distinction is canonical versus effective: a [Task] is
// the shared record every collaborator sees, a [UserOverride] is one
// viewer's private adjustments to it, and an [EffectiveTask] is the
// merge of the two that the viewer's dashboard actually displays.
// Canonical records are owned by storage and mutable by any permitted
// collaborator; overrides are created lazily on first personalization
// and never required to exist; effective tasks are derived and never
// persisted.
//
// Key exports:
//
//   - [Task], [UserOverride], [BoardListOverride] -- stored records
//   - [EffectiveTask] -- canonical + override merge (see lib/taskview)
//   - [Buckets], [CompletedPage] -- the dashboard view model
//   - [ConfirmedTask] -- workflow-transient shape of one task pending
//     commit
//
// This package depends on no other taskdeck packages.
package task
