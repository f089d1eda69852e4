// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskview holds the pure core of the dashboard: override
// resolution, visibility filtering, and time-bucket categorization.
//
// Nothing here touches storage, the network, or the wall clock — the
// caller supplies tasks, overrides, and "now". That keeps the merge
// and bucketing laws unit-testable independent of fetch and cache
// concerns.
//
// Key exports:
//
//   - [Resolve] -- merge a canonical task with a viewer override into
//     an effective task
//   - [PersonallyHidden] -- the visibility filter applied before
//     categorization
//   - [Categorize] -- partition visible live tasks into the
//     overdue/today/upcoming buckets
package taskview
