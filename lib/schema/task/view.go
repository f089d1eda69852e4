// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "time"

// EffectiveTask is a canonical task with one viewer's override
// projected over it. Derived, never persisted. The original override
// rides along so the UI can disclose personalization ("personally
// completed" badges and the like) without re-deriving it.
type EffectiveTask struct {
	Canonical Task          `json:"task"`
	Override  *UserOverride `json:"override,omitempty"`

	// Projected values: the override field when present and
	// non-null, else the canonical field.
	Priority   Priority   `json:"priority,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Estimation *int       `json:"estimation_points,omitempty"`

	// Done is the viewer-facing completion state. For self-managed
	// tasks it is driven solely by the override's CompletedAt; for
	// everything else by the shared list status and canonical
	// completion timestamps.
	Done bool `json:"done"`
}

// ID returns the canonical task id.
func (e *EffectiveTask) ID() string { return e.Canonical.ID }

// Buckets is the primary dashboard view model: every visible live
// task in exactly one of the three active buckets. Completed tasks
// are served separately by the paginated feed and never appear here.
//
// Ordering: Overdue and Today ascend by effective end date. Upcoming
// holds dated tasks (ascending by end date) followed by undated ones
// sorted by priority rank descending, then creation time descending.
type Buckets struct {
	Overdue  []EffectiveTask `json:"overdue"`
	Today    []EffectiveTask `json:"today"`
	Upcoming []EffectiveTask `json:"upcoming"`

	TotalActiveTasks    int `json:"totalActiveTasks"`
	TotalCompletedTasks int `json:"totalCompletedTasks"`
}

// CompletedPageSize is how many completed tasks one feed page holds.
const CompletedPageSize = 20

// CompletedPage is one page of the completed-tasks feed. Total is
// computed once for the feed and carried across pages, so it stays
// stable while the user pages through.
type CompletedPage struct {
	Completed           []EffectiveTask `json:"completed"`
	HasMoreCompleted    bool            `json:"hasMoreCompleted"`
	Page                int             `json:"completedPage"`
	TotalCompletedTasks int             `json:"totalCompletedTasks"`
}

// ConfirmedTask is the user-approved shape of one task pending
// commit: created while editing AI review candidates (or from a
// manual submission), destroyed after commit or cancel.
type ConfirmedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Estimation  *int       `json:"estimation_points,omitempty"`
	ProjectIDs  []string   `json:"project_ids,omitempty"`
}
