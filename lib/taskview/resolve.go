// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskview

import (
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Resolve merges a canonical task with the viewer's override (nil
// when the viewer never personalized the task) into an EffectiveTask.
// Pure and total: no side effects, canonical is never mutated.
//
// Each field override applies independently: priority, due date, and
// estimation fall back to the canonical value only when their
// override is nil. For self-managed tasks the completion state is
// driven solely by the override's CompletedAt, independent of the
// shared list.
func Resolve(canonical task.Task, override *task.UserOverride) task.EffectiveTask {
	effective := task.EffectiveTask{
		Canonical:  canonical,
		Override:   override,
		Priority:   canonical.Priority,
		EndDate:    canonical.EndDate,
		Estimation: canonical.Estimation,
		Done:       sharedDone(&canonical),
	}
	if override == nil {
		return effective
	}

	if override.Priority != nil {
		effective.Priority = *override.Priority
	}
	if override.DueDate != nil {
		effective.EndDate = override.DueDate
	}
	if override.Estimation != nil {
		effective.Estimation = override.Estimation
	}
	if override.SelfManaged {
		effective.Done = override.CompletedAt != nil
	}
	return effective
}

// sharedDone is the completion state the shared board reports: the
// task sits on a done/closed list or carries a canonical completion
// timestamp.
func sharedDone(canonical *task.Task) bool {
	if canonical.ListStatus == task.ListDone || canonical.ListStatus == task.ListClosed {
		return true
	}
	return canonical.CompletedAt != nil || canonical.ClosedAt != nil
}

// PersonallyHidden reports whether the viewer has opted this task out
// of their dashboard: personally unassigned, personally completed, or
// the task's board or list is hidden by one of the viewer's
// board/list overrides. A pure filter — hidden tasks are excluded
// before categorization, never deleted.
func PersonallyHidden(effective task.EffectiveTask, override *task.UserOverride, boardListOverrides []task.BoardListOverride) bool {
	if override != nil {
		if override.PersonallyUnassigned {
			return true
		}
		if override.CompletedAt != nil {
			return true
		}
	}
	for _, blo := range boardListOverrides {
		if !blo.Hidden {
			continue
		}
		if blo.BoardID != "" && blo.BoardID == effective.Canonical.BoardID {
			return true
		}
		if blo.ListID != "" && blo.ListID == effective.Canonical.ListID {
			return true
		}
	}
	return false
}
