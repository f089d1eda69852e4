// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskcache"
)

// Precondition errors. These abort an action before any mutation.
var (
	// ErrNoDoneList means the task's board has no done-status list
	// to complete into.
	ErrNoDoneList = errors.New("board has no done list")

	// ErrNoActiveList means the task's board has neither an active
	// nor a not_started list to reopen into.
	ErrNoActiveList = errors.New("board has no active list")
)

// Storage is the slice of the task store the actions write through.
// *taskstore.Store satisfies it.
type Storage interface {
	ListsForBoard(ctx context.Context, boardID string) ([]task.List, error)
	MoveTaskToList(ctx context.Context, taskID, listID string) error
	MergeOverride(ctx context.Context, taskID, viewerID string, patch *task.OverridePatch) error
	DeleteAssignee(ctx context.Context, taskID, userID string) error
	InsertTaskLabel(ctx context.Context, taskID, labelID string) error
	DeleteTaskLabel(ctx context.Context, taskID, labelID string) error
	SetTaskPriority(ctx context.Context, taskID string, priority task.Priority) error
	SetTaskDueDate(ctx context.Context, taskID string, due *time.Time) error
	SetTaskEstimation(ctx context.Context, taskID string, points *int) error
	SoftDeleteTask(ctx context.Context, taskID string) error
}

// Actions executes mutation actions for one viewer, reconciling the
// shared query cache as it goes.
type Actions struct {
	storage  Storage
	cache    *taskcache.Cache
	clock    clock.Clock
	logger   *slog.Logger
	viewerID string
}

// Config holds the dependencies for NewActions. All are required.
type Config struct {
	Storage  Storage
	Cache    *taskcache.Cache
	Clock    clock.Clock
	Logger   *slog.Logger
	ViewerID string
}

// NewActions creates the action set for one viewer.
func NewActions(cfg Config) *Actions {
	if cfg.Storage == nil || cfg.Cache == nil || cfg.Clock == nil || cfg.Logger == nil {
		panic("taskactions: Storage, Cache, Clock, and Logger are required")
	}
	if cfg.ViewerID == "" {
		panic("taskactions: ViewerID is required")
	}
	return &Actions{
		storage:  cfg.Storage,
		cache:    cfg.Cache,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		viewerID: cfg.ViewerID,
	}
}

// invalidateViewer marks every cached entry for this viewer stale:
// the recovery path for actions whose prior state cannot be patched
// back, and the settle path for actions that add rows the client
// cannot construct locally.
func (a *Actions) invalidateViewer() {
	a.cache.Invalidate("my-tasks/" + a.viewerID + "/")
	a.cache.Invalidate("completed/" + a.viewerID + "/")
}

// resolveList returns the board's first list with the wanted status,
// in position order. Boards with multiple lists of one status are
// legal; first-by-position wins.
func resolveList(lists []task.List, status task.ListStatus) *task.List {
	for i := range lists {
		if lists[i].Status == status {
			return &lists[i]
		}
	}
	return nil
}

// Complete moves a task to its board's done list. If the board has no
// done list the action aborts with ErrNoDoneList before touching
// anything. On success, a leftover personal completion or unassign
// override is cleared best-effort: the task is actually done now, so
// "done with my part" styling would be stale, but a cleanup failure
// never undoes the completed move.
func (a *Actions) Complete(ctx context.Context, view task.EffectiveTask) error {
	lists, err := a.storage.ListsForBoard(ctx, view.Canonical.BoardID)
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	doneList := resolveList(lists, task.ListDone)
	if doneList == nil {
		return fmt.Errorf("complete task %s: %w", view.ID(), ErrNoDoneList)
	}

	txn := a.cache.Begin(view.ID())
	a.cache.RemoveTask(view.ID())

	if err := a.storage.MoveTaskToList(ctx, view.ID(), doneList.ID); err != nil {
		txn.Rollback()
		return fmt.Errorf("complete: %w", err)
	}
	txn.Commit()

	if override := view.Override; override != nil &&
		(override.CompletedAt != nil || override.PersonallyUnassigned) {
		no := false
		patch := &task.OverridePatch{PersonallyUnassigned: &no, ClearCompletedAt: true}
		if err := a.storage.MergeOverride(ctx, view.ID(), a.viewerID, patch); err != nil {
			// Best-effort: the primary state change already landed.
			a.logger.Debug("override cleanup failed after complete",
				"task", view.ID(), "error", err)
		}
	}

	a.cache.Invalidate("completed/" + a.viewerID + "/")
	return nil
}

// UndoComplete moves a task back to the board's active list, falling
// back to not_started, aborting with ErrNoActiveList when the board
// has neither. The reopened task's bucket cannot be computed locally,
// so the viewer's cache is invalidated rather than patched.
func (a *Actions) UndoComplete(ctx context.Context, view task.EffectiveTask) error {
	lists, err := a.storage.ListsForBoard(ctx, view.Canonical.BoardID)
	if err != nil {
		return fmt.Errorf("undo complete: %w", err)
	}
	target := resolveList(lists, task.ListActive)
	if target == nil {
		target = resolveList(lists, task.ListNotStarted)
	}
	if target == nil {
		return fmt.Errorf("undo complete task %s: %w", view.ID(), ErrNoActiveList)
	}

	if err := a.storage.MoveTaskToList(ctx, view.ID(), target.ID); err != nil {
		return fmt.Errorf("undo complete: %w", err)
	}
	a.invalidateViewer()
	return nil
}

// ToggleSelfCompleted flips personal completion on a self-managed
// task. Completing removes the task from the active view
// optimistically with rollback; un-completing writes through and
// invalidates, since the task's return bucket is not known locally.
func (a *Actions) ToggleSelfCompleted(ctx context.Context, view task.EffectiveTask) error {
	if view.Override == nil || !view.Override.SelfManaged {
		return fmt.Errorf("toggle self-completed: task %s is not self-managed", view.ID())
	}

	if view.Override.CompletedAt == nil {
		now := a.clock.Now()
		txn := a.cache.BeginFor(a.viewerID, view.ID())
		a.cache.RemoveTaskFor(a.viewerID, view.ID())
		if err := a.storage.MergeOverride(ctx, view.ID(), a.viewerID,
			&task.OverridePatch{CompletedAt: &now}); err != nil {
			txn.Rollback()
			return fmt.Errorf("toggle self-completed: %w", err)
		}
		txn.Commit()
		a.cache.Invalidate("completed/" + a.viewerID + "/")
		return nil
	}

	if err := a.storage.MergeOverride(ctx, view.ID(), a.viewerID,
		&task.OverridePatch{ClearCompletedAt: true}); err != nil {
		return fmt.Errorf("toggle self-completed: %w", err)
	}
	a.invalidateViewer()
	return nil
}

// MarkDoneWithMyPart records personal completion on a shared task:
// the viewer is finished even though the shared task stays live. Also
// clears any personal unassign so the two flags never contradict.
func (a *Actions) MarkDoneWithMyPart(ctx context.Context, view task.EffectiveTask) error {
	now := a.clock.Now()
	no := false

	txn := a.cache.BeginFor(a.viewerID, view.ID())
	a.cache.RemoveTaskFor(a.viewerID, view.ID())
	if err := a.storage.MergeOverride(ctx, view.ID(), a.viewerID,
		&task.OverridePatch{CompletedAt: &now, PersonallyUnassigned: &no}); err != nil {
		txn.Rollback()
		return fmt.Errorf("done with my part: %w", err)
	}
	txn.Commit()
	a.cache.Invalidate("completed/" + a.viewerID + "/")
	return nil
}

// UndoDoneWithMyPart clears personal completion (and any personal
// unassign) so the task rejoins the active view on next fetch.
func (a *Actions) UndoDoneWithMyPart(ctx context.Context, taskID string) error {
	no := false
	patch := &task.OverridePatch{ClearCompletedAt: true, PersonallyUnassigned: &no}
	if err := a.storage.MergeOverride(ctx, taskID, a.viewerID, patch); err != nil {
		return fmt.Errorf("undo done with my part: %w", err)
	}
	a.invalidateViewer()
	return nil
}

// PersonallyUnassign opts the viewer out of a task without touching
// the shared assignment record.
func (a *Actions) PersonallyUnassign(ctx context.Context, view task.EffectiveTask) error {
	yes := true

	txn := a.cache.BeginFor(a.viewerID, view.ID())
	a.cache.RemoveTaskFor(a.viewerID, view.ID())
	if err := a.storage.MergeOverride(ctx, view.ID(), a.viewerID,
		&task.OverridePatch{PersonallyUnassigned: &yes}); err != nil {
		txn.Rollback()
		return fmt.Errorf("personally unassign: %w", err)
	}
	txn.Commit()
	return nil
}

// UnassignMe deletes the viewer's own assignee relation — never the
// task. The removal is optimistic, but failure recovery is
// invalidation rather than patch-back: the exact prior assignee set
// is not retained client-side.
func (a *Actions) UnassignMe(ctx context.Context, view task.EffectiveTask) error {
	a.cache.RemoveTaskFor(a.viewerID, view.ID())

	if err := a.storage.DeleteAssignee(ctx, view.ID(), a.viewerID); err != nil {
		a.invalidateViewer()
		return fmt.Errorf("unassign me: %w", err)
	}
	return nil
}

// ChangePriority writes a new canonical priority, patching the cached
// task in place across the active buckets.
func (a *Actions) ChangePriority(ctx context.Context, taskID string, priority task.Priority) error {
	txn := a.cache.Begin(taskID)
	a.cache.PatchTask(taskID, func(e *task.EffectiveTask) {
		e.Canonical.Priority = priority
		if e.Override == nil || e.Override.Priority == nil {
			e.Priority = priority
		}
	})

	if err := a.storage.SetTaskPriority(ctx, taskID, priority); err != nil {
		txn.Rollback()
		return fmt.Errorf("change priority: %w", err)
	}
	txn.Commit()
	return nil
}

// ChangeDueDate writes a new canonical due date (nil clears it). The
// cache is patched in place; the task keeps its bucket until the next
// full load, matching the interactive behavior of editing a card
// without reshuffling the view underneath the user.
func (a *Actions) ChangeDueDate(ctx context.Context, taskID string, due *time.Time) error {
	txn := a.cache.Begin(taskID)
	a.cache.PatchTask(taskID, func(e *task.EffectiveTask) {
		e.Canonical.EndDate = due
		if e.Override == nil || e.Override.DueDate == nil {
			e.EndDate = due
		}
	})

	if err := a.storage.SetTaskDueDate(ctx, taskID, due); err != nil {
		txn.Rollback()
		return fmt.Errorf("change due date: %w", err)
	}
	txn.Commit()
	return nil
}

// ChangeEstimation writes new canonical estimation points (nil
// clears).
func (a *Actions) ChangeEstimation(ctx context.Context, taskID string, points *int) error {
	txn := a.cache.Begin(taskID)
	a.cache.PatchTask(taskID, func(e *task.EffectiveTask) {
		e.Canonical.Estimation = points
		if e.Override == nil || e.Override.Estimation == nil {
			e.Estimation = points
		}
	})

	if err := a.storage.SetTaskEstimation(ctx, taskID, points); err != nil {
		txn.Rollback()
		return fmt.Errorf("change estimation: %w", err)
	}
	txn.Commit()
	return nil
}

// ToggleLabel attaches the label if the task lacks it, detaches it
// otherwise. Presence is decided by scanning the cached task's label
// list, not by a storage lookup.
func (a *Actions) ToggleLabel(ctx context.Context, view task.EffectiveTask, label task.Label) error {
	present := view.Canonical.HasLabel(label.ID)

	txn := a.cache.Begin(view.ID())
	a.cache.PatchTask(view.ID(), func(e *task.EffectiveTask) {
		if present {
			labels := e.Canonical.Labels[:0]
			for _, existing := range e.Canonical.Labels {
				if existing.ID != label.ID {
					labels = append(labels, existing)
				}
			}
			e.Canonical.Labels = labels
		} else {
			e.Canonical.Labels = append(e.Canonical.Labels, label)
		}
	})

	var err error
	if present {
		err = a.storage.DeleteTaskLabel(ctx, view.ID(), label.ID)
	} else {
		err = a.storage.InsertTaskLabel(ctx, view.ID(), label.ID)
	}
	if err != nil {
		txn.Rollback()
		return fmt.Errorf("toggle label: %w", err)
	}
	txn.Commit()
	return nil
}

// Delete soft-deletes a task and removes it from the active view.
func (a *Actions) Delete(ctx context.Context, taskID string) error {
	txn := a.cache.Begin(taskID)
	a.cache.RemoveTask(taskID)

	if err := a.storage.SoftDeleteTask(ctx, taskID); err != nil {
		txn.Rollback()
		return fmt.Errorf("delete: %w", err)
	}
	txn.Commit()
	return nil
}
