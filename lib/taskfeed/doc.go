// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskfeed assembles the dashboard view: one bulk
// accessible-tasks query, parallel bulk relation reads keyed by the
// task-id set, an in-memory join, override resolution, and
// categorization into the time buckets.
//
// The per-relation bulk reads and the single attach step are a
// deliberate batching contract — nothing in this package ever issues
// a per-task query.
//
// The loader never lets a failure escape as a malformed view: if the
// base query fails, the caller receives a well-formed empty bucket
// set and the error is logged.
package taskfeed
