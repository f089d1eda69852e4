// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"strings"
	"time"
)

// Priority is a task's urgency level. The empty string means no
// priority was assigned.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
	PriorityNone     Priority = ""
)

// Rank returns the sort weight of a priority: critical=4, high=3,
// normal=2, low=1, none=0. Unknown strings rank as none.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the recognized priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// ListStatus is the lifecycle status of a board list. Tasks on a
// not_started or active list are "live"; tasks on a done or closed
// list are finished from the shared board's point of view.
type ListStatus string

const (
	ListNotStarted ListStatus = "not_started"
	ListActive     ListStatus = "active"
	ListDone       ListStatus = "done"
	ListClosed     ListStatus = "closed"
)

// Task is the canonical, shared task record plus the board/list
// context and relations the dashboard joins onto it. The core fields
// mirror the tasks table; the context and relation fields are filled
// by the aggregation loader's bulk joins.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatorID   string     `json:"creator_id"`
	ListID      string     `json:"list_id"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Estimation  *int       `json:"estimation_points,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Board/list/workspace context, joined by the loader.
	ListStatus    ListStatus `json:"list_status"`
	BoardID       string     `json:"board_id"`
	BoardName     string     `json:"board_name,omitempty"`
	WorkspaceID   string     `json:"workspace_id"`
	WorkspaceName string     `json:"workspace_name,omitempty"`

	// Relations, joined in bulk by task id.
	Assignees []Assignee `json:"assignees,omitempty"`
	Labels    []Label    `json:"labels,omitempty"`
	Projects  []Project  `json:"projects,omitempty"`

	// Schedule carries per-user scheduling settings through the
	// pipeline unmodified. The dashboard never interprets it.
	Schedule *ScheduleSettings `json:"schedule,omitempty"`
}

// Assignee is one user assigned to a task.
type Assignee struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Label is a workspace label attached to a task.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Project is a workspace project a task belongs to.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScheduleSettings is opaque pass-through data from the scheduling
// feature. Stored and returned verbatim.
type ScheduleSettings struct {
	TotalDuration  *float64 `json:"total_duration,omitempty"`
	IsSplittable   *bool    `json:"is_splittable,omitempty"`
	MinSplitPoints *float64 `json:"min_split_duration_minutes,omitempty"`
	CalendarHours  string   `json:"calendar_hours,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
}

// Live reports whether the task's shared list status makes it eligible
// for the active buckets (overdue/today/upcoming).
func (t *Task) Live() bool {
	return t.ListStatus == ListNotStarted || t.ListStatus == ListActive
}

// HasLabel reports whether the task carries the given label id.
// Presence is determined by scanning the joined label slice, not by a
// separate lookup.
func (t *Task) HasLabel(labelID string) bool {
	for _, label := range t.Labels {
		if label.ID == labelID {
			return true
		}
	}
	return false
}

// Validate checks the constraints storage enforces on task creation:
// a non-blank name, a recognized priority, and a non-negative
// estimation.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("task: name must not be blank")
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task: unknown priority %q", t.Priority)
	}
	if t.Estimation != nil && *t.Estimation < 0 {
		return fmt.Errorf("task: estimation points must not be negative")
	}
	return nil
}

// Board is a kanban board inside a workspace.
type Board struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// List is one column of a board. Position orders lists within a
// board; Status drives completion semantics.
type List struct {
	ID       string     `json:"id"`
	BoardID  string     `json:"board_id"`
	Name     string     `json:"name"`
	Status   ListStatus `json:"status"`
	Position int        `json:"position"`
	Deleted  bool       `json:"deleted"`
}
