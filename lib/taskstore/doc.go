// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore is the SQLite-backed storage layer for the task
// dashboard.
//
// The read side serves the aggregation loader: one bulk
// accessible-tasks query (with personalization exclusions pushed into
// SQL as an optimization), bulk relation reads keyed by a task-id
// set, and a cursor-paginated completed feed. Relation reads return
// maps keyed by task id so the loader can join in memory; nothing
// here is ever fetched per-task.
//
// The write side serves the mutation actions and the creation
// workflow: list moves, field updates, partial-merge override
// upserts, assignee/label association changes, soft deletes, and
// single or bulk task creation.
//
// All multi-statement writes run inside an IMMEDIATE transaction.
// Timestamps are stored as Unix nanoseconds; NULL means unset.
package taskstore
