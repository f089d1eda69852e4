// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability.
//
// Production code injects [Real]; tests inject a [Fake] whose current
// time is set explicitly and advanced deterministically. Any function
// that would otherwise call time.Now takes a Clock parameter (or lives
// on a struct with a Clock field) instead.
//
// The task categorizer is the heaviest consumer: bucket boundaries
// (overdue vs. due-today vs. upcoming) are all computed relative to
// Clock.Now, so every categorization test pins the clock to a known
// instant.
package clock
