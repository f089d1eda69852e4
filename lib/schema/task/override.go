// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "time"

// UserOverride is one viewer's private adjustments to a shared task.
// At most one row exists per (task, viewer) pair; the row is created
// lazily on the first personalization action and is never required to
// exist. Overrides only change what the viewer sees, never the shared
// record.
type UserOverride struct {
	TaskID string `json:"task_id"`
	UserID string `json:"user_id"`

	// SelfManaged means the viewer tracks completion independently
	// of the shared list status: completion is driven solely by
	// CompletedAt below.
	SelfManaged bool `json:"self_managed"`

	// CompletedAt is the viewer's personal completion timestamp.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Field overrides. Each applies independently: the effective
	// value falls back to the canonical one only when the override
	// is nil.
	Priority   *Priority  `json:"priority_override,omitempty"`
	DueDate    *time.Time `json:"due_date_override,omitempty"`
	Estimation *int       `json:"estimation_override,omitempty"`

	// PersonallyUnassigned means the viewer opted out of this task
	// without altering the shared assignment record. The task is
	// hidden from their dashboard entirely.
	PersonallyUnassigned bool `json:"personally_unassigned"`

	Notes string `json:"notes,omitempty"`
}

// OverridePatch is a partial-merge update to a UserOverride. A nil
// pointer field is left untouched. Nullable columns (CompletedAt,
// Priority, DueDate, Estimation) are written back to null by setting
// the corresponding Clear flag instead; a Clear flag wins over the
// value pointer. The write is update-by-merge, never a full replace,
// so concurrent patches to different fields do not clobber each
// other.
type OverridePatch struct {
	SelfManaged *bool `json:"self_managed,omitempty"`

	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ClearCompletedAt bool       `json:"clear_completed_at,omitempty"`

	Priority      *Priority `json:"priority_override,omitempty"`
	ClearPriority bool      `json:"clear_priority_override,omitempty"`

	DueDate      *time.Time `json:"due_date_override,omitempty"`
	ClearDueDate bool       `json:"clear_due_date_override,omitempty"`

	Estimation      *int `json:"estimation_override,omitempty"`
	ClearEstimation bool `json:"clear_estimation_override,omitempty"`

	PersonallyUnassigned *bool `json:"personally_unassigned,omitempty"`

	Notes *string `json:"notes,omitempty"`
}

// Empty reports whether the patch would write nothing.
func (p *OverridePatch) Empty() bool {
	return p.SelfManaged == nil &&
		p.CompletedAt == nil && !p.ClearCompletedAt &&
		p.Priority == nil && !p.ClearPriority &&
		p.DueDate == nil && !p.ClearDueDate &&
		p.Estimation == nil && !p.ClearEstimation &&
		p.PersonallyUnassigned == nil &&
		p.Notes == nil
}

// Apply merges the patch into an override record in memory. Storage
// uses this to compute the post-merge row; tests use it to state the
// merge law directly.
func (p *OverridePatch) Apply(o *UserOverride) {
	if p.SelfManaged != nil {
		o.SelfManaged = *p.SelfManaged
	}
	if p.ClearCompletedAt {
		o.CompletedAt = nil
	} else if p.CompletedAt != nil {
		o.CompletedAt = p.CompletedAt
	}
	if p.ClearPriority {
		o.Priority = nil
	} else if p.Priority != nil {
		o.Priority = p.Priority
	}
	if p.ClearDueDate {
		o.DueDate = nil
	} else if p.DueDate != nil {
		o.DueDate = p.DueDate
	}
	if p.ClearEstimation {
		o.Estimation = nil
	} else if p.Estimation != nil {
		o.Estimation = p.Estimation
	}
	if p.PersonallyUnassigned != nil {
		o.PersonallyUnassigned = *p.PersonallyUnassigned
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}

// BoardListOverride is a viewer's personal hidden/visible status for
// an entire board or list, independent of the shared list's status.
// Exactly one of BoardID or ListID is set. Used only to decide
// visibility, never to change shared state.
type BoardListOverride struct {
	UserID  string `json:"user_id"`
	BoardID string `json:"board_id,omitempty"`
	ListID  string `json:"list_id,omitempty"`
	Hidden  bool   `json:"hidden"`
}
