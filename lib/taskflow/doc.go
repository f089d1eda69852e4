// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskflow is the state machine behind command-bar task
// creation: manual single tasks, or an AI batch that is previewed,
// reviewed, and committed to a board/list destination.
//
// The machine has three phases. Idle accepts submissions. Reviewing
// holds the AI candidates while the viewer edits, soft-removes, and
// reorders them. SelectingDestination holds either the confirmed
// batch or a suspended manual submission until a board and list are
// resolved. Each phase's data lives only in that phase, so a
// half-built combination (destination selection with nothing to
// commit) cannot be represented.
//
// Async failures return the machine to its pre-transition phase with
// the viewer's edits and destination intact. A successful commit
// resets to Idle and invalidates the viewer's cache entries; newly
// created tasks carry server-generated ids and positions the client
// cannot predict, so patching is not an option.
package taskflow
