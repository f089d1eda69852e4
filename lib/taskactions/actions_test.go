// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskactions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskcache"
)

const viewer = "user-alice"

// fakeStorage records every write and fails on demand.
type fakeStorage struct {
	lists    []task.List
	listsErr error
	moveErr  error
	mergeErr error

	assigneeErr error
	labelErr    error
	updateErr   error

	moved           []string
	merged          []*task.OverridePatch
	removedAssignee []string
	insertedLabels  []string
	deletedLabels   []string
	priorities      []task.Priority
	dueDates        []*time.Time
	estimations     []*int
	softDeleted     []string
}

func (f *fakeStorage) ListsForBoard(ctx context.Context, boardID string) ([]task.List, error) {
	return f.lists, f.listsErr
}

func (f *fakeStorage) MoveTaskToList(ctx context.Context, taskID, listID string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moved = append(f.moved, listID)
	return nil
}

func (f *fakeStorage) MergeOverride(ctx context.Context, taskID, viewerID string, patch *task.OverridePatch) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.merged = append(f.merged, patch)
	return nil
}

func (f *fakeStorage) DeleteAssignee(ctx context.Context, taskID, userID string) error {
	if f.assigneeErr != nil {
		return f.assigneeErr
	}
	f.removedAssignee = append(f.removedAssignee, userID)
	return nil
}

func (f *fakeStorage) InsertTaskLabel(ctx context.Context, taskID, labelID string) error {
	if f.labelErr != nil {
		return f.labelErr
	}
	f.insertedLabels = append(f.insertedLabels, labelID)
	return nil
}

func (f *fakeStorage) DeleteTaskLabel(ctx context.Context, taskID, labelID string) error {
	if f.labelErr != nil {
		return f.labelErr
	}
	f.deletedLabels = append(f.deletedLabels, labelID)
	return nil
}

func (f *fakeStorage) SetTaskPriority(ctx context.Context, taskID string, priority task.Priority) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.priorities = append(f.priorities, priority)
	return nil
}

func (f *fakeStorage) SetTaskDueDate(ctx context.Context, taskID string, due *time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.dueDates = append(f.dueDates, due)
	return nil
}

func (f *fakeStorage) SetTaskEstimation(ctx context.Context, taskID string, points *int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.estimations = append(f.estimations, points)
	return nil
}

func (f *fakeStorage) SoftDeleteTask(ctx context.Context, taskID string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.softDeleted = append(f.softDeleted, taskID)
	return nil
}

func boardLists() []task.List {
	return []task.List{
		{ID: "list-todo", BoardID: "board-1", Status: task.ListNotStarted, Position: 0},
		{ID: "list-doing", BoardID: "board-1", Status: task.ListActive, Position: 1},
		{ID: "list-done-a", BoardID: "board-1", Status: task.ListDone, Position: 2},
		{ID: "list-done-b", BoardID: "board-1", Status: task.ListDone, Position: 3},
	}
}

func makeView(id string) task.EffectiveTask {
	return task.EffectiveTask{
		Canonical: task.Task{
			ID:         id,
			Name:       "task " + id,
			BoardID:    "board-1",
			ListID:     "list-doing",
			ListStatus: task.ListActive,
			Priority:   task.PriorityNormal,
			Labels:     []task.Label{{ID: "label-red", Name: "red"}},
			CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		Priority: task.PriorityNormal,
	}
}

type fixture struct {
	storage *fakeStorage
	cache   *taskcache.Cache
	clock   *clock.Fake
	actions *Actions
	key     taskcache.Key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	storage := &fakeStorage{lists: boardLists()}
	cache := taskcache.New(nil)
	fake := clock.NewFake(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	actions := NewActions(Config{
		Storage:  storage,
		Cache:    cache,
		Clock:    fake,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ViewerID: viewer,
	})

	key := taskcache.ViewKey(viewer, "ws-1")
	cache.SetView(key, &task.Buckets{
		Today:            []task.EffectiveTask{makeView("task-1"), makeView("task-2")},
		TotalActiveTasks: 2,
	})
	return &fixture{storage: storage, cache: cache, clock: fake, actions: actions, key: key}
}

func TestCompleteMovesToFirstDoneList(t *testing.T) {
	f := newFixture(t)

	if err := f.actions.Complete(context.Background(), makeView("task-1")); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(f.storage.moved) != 1 || f.storage.moved[0] != "list-done-a" {
		t.Errorf("moved to %v, want first done list by position", f.storage.moved)
	}
	view := f.cache.View(f.key)
	if len(view.Today) != 1 || view.Today[0].ID() != "task-2" {
		t.Errorf("completed task still in view: %+v", view.Today)
	}
	if view.TotalActiveTasks != 1 {
		t.Errorf("TotalActiveTasks = %d, want 1", view.TotalActiveTasks)
	}
}

func TestCompleteAbortsWithoutDoneList(t *testing.T) {
	f := newFixture(t)
	f.storage.lists = []task.List{
		{ID: "list-todo", BoardID: "board-1", Status: task.ListNotStarted},
	}

	err := f.actions.Complete(context.Background(), makeView("task-1"))
	if !errors.Is(err, ErrNoDoneList) {
		t.Fatalf("err = %v, want ErrNoDoneList", err)
	}
	if len(f.storage.moved) != 0 {
		t.Error("task moved despite missing done list")
	}
	if view := f.cache.View(f.key); len(view.Today) != 2 {
		t.Error("cache mutated despite aborted action")
	}
}

func TestCompleteRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	before := f.cache.View(f.key)
	f.storage.moveErr = errors.New("disk full")

	if err := f.actions.Complete(context.Background(), makeView("task-1")); err == nil {
		t.Fatal("expected error from failed move")
	}
	after := f.cache.View(f.key)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("view not restored verbatim:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestCompleteClearsStaleOverride(t *testing.T) {
	f := newFixture(t)
	done := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	view := makeView("task-1")
	view.Override = &task.UserOverride{TaskID: "task-1", UserID: viewer, CompletedAt: &done}

	if err := f.actions.Complete(context.Background(), view); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(f.storage.merged) != 1 {
		t.Fatalf("merged %d patches, want 1 cleanup", len(f.storage.merged))
	}
	patch := f.storage.merged[0]
	if !patch.ClearCompletedAt {
		t.Error("cleanup patch does not clear personal completion")
	}
	if patch.PersonallyUnassigned == nil || *patch.PersonallyUnassigned {
		t.Error("cleanup patch does not clear personal unassign")
	}
}

func TestCompleteCleanupFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	done := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	view := makeView("task-1")
	view.Override = &task.UserOverride{TaskID: "task-1", UserID: viewer, CompletedAt: &done}
	f.storage.mergeErr = errors.New("transient")

	if err := f.actions.Complete(context.Background(), view); err != nil {
		t.Fatalf("Complete surfaced best-effort cleanup failure: %v", err)
	}
	if len(f.storage.moved) != 1 {
		t.Error("primary move did not land")
	}
}

func TestUndoCompleteFallsBackToNotStarted(t *testing.T) {
	f := newFixture(t)
	f.storage.lists = []task.List{
		{ID: "list-todo", BoardID: "board-1", Status: task.ListNotStarted, Position: 0},
		{ID: "list-done-a", BoardID: "board-1", Status: task.ListDone, Position: 1},
	}

	if err := f.actions.UndoComplete(context.Background(), makeView("task-1")); err != nil {
		t.Fatalf("UndoComplete: %v", err)
	}
	if len(f.storage.moved) != 1 || f.storage.moved[0] != "list-todo" {
		t.Errorf("moved to %v, want not_started fallback", f.storage.moved)
	}
	if !f.cache.Stale(f.key) {
		t.Error("viewer cache not invalidated after reopen")
	}
}

func TestUndoCompleteAbortsWithoutActiveList(t *testing.T) {
	f := newFixture(t)
	f.storage.lists = []task.List{
		{ID: "list-done-a", BoardID: "board-1", Status: task.ListDone},
	}

	err := f.actions.UndoComplete(context.Background(), makeView("task-1"))
	if !errors.Is(err, ErrNoActiveList) {
		t.Fatalf("err = %v, want ErrNoActiveList", err)
	}
	if len(f.storage.moved) != 0 {
		t.Error("task moved despite missing target list")
	}
}

func TestToggleSelfCompletedRequiresOptIn(t *testing.T) {
	f := newFixture(t)

	if err := f.actions.ToggleSelfCompleted(context.Background(), makeView("task-1")); err == nil {
		t.Fatal("expected error for task without self-managed override")
	}
	if len(f.storage.merged) != 0 {
		t.Error("override written despite precondition failure")
	}
}

func TestToggleSelfCompletedStampsClockTime(t *testing.T) {
	f := newFixture(t)
	view := makeView("task-1")
	view.Override = &task.UserOverride{TaskID: "task-1", UserID: viewer, SelfManaged: true}

	if err := f.actions.ToggleSelfCompleted(context.Background(), view); err != nil {
		t.Fatalf("ToggleSelfCompleted: %v", err)
	}
	if len(f.storage.merged) != 1 || f.storage.merged[0].CompletedAt == nil {
		t.Fatalf("expected completion patch, got %+v", f.storage.merged)
	}
	if !f.storage.merged[0].CompletedAt.Equal(f.clock.Now()) {
		t.Errorf("CompletedAt = %v, want clock time %v",
			f.storage.merged[0].CompletedAt, f.clock.Now())
	}
	if view := f.cache.View(f.key); len(view.Today) != 1 {
		t.Error("self-completed task still in active view")
	}
}

func TestToggleSelfCompletedUncompleteInvalidates(t *testing.T) {
	f := newFixture(t)
	done := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	view := makeView("task-1")
	view.Override = &task.UserOverride{
		TaskID: "task-1", UserID: viewer, SelfManaged: true, CompletedAt: &done,
	}

	if err := f.actions.ToggleSelfCompleted(context.Background(), view); err != nil {
		t.Fatalf("ToggleSelfCompleted: %v", err)
	}
	if len(f.storage.merged) != 1 || !f.storage.merged[0].ClearCompletedAt {
		t.Fatalf("expected clear patch, got %+v", f.storage.merged)
	}
	if !f.cache.Stale(f.key) {
		t.Error("active view not invalidated after un-complete")
	}
}

func TestUnassignMeFailureInvalidates(t *testing.T) {
	f := newFixture(t)
	f.storage.assigneeErr = errors.New("conflict")

	if err := f.actions.UnassignMe(context.Background(), makeView("task-1")); err == nil {
		t.Fatal("expected error from failed unassign")
	}
	// The optimistic removal is not patched back; the view is marked
	// stale so the next load refetches.
	if !f.cache.Stale(f.key) {
		t.Error("view not invalidated after failed unassign")
	}
}

func TestUnassignMeRemovesOnlyAssignment(t *testing.T) {
	f := newFixture(t)

	if err := f.actions.UnassignMe(context.Background(), makeView("task-1")); err != nil {
		t.Fatalf("UnassignMe: %v", err)
	}
	if len(f.storage.removedAssignee) != 1 || f.storage.removedAssignee[0] != viewer {
		t.Errorf("removed assignees %v, want just the viewer", f.storage.removedAssignee)
	}
	if len(f.storage.softDeleted) != 0 {
		t.Error("unassign must never delete the task")
	}
}

func TestToggleLabelAddsAndRemoves(t *testing.T) {
	f := newFixture(t)
	view := makeView("task-1")

	blue := task.Label{ID: "label-blue", Name: "blue"}
	if err := f.actions.ToggleLabel(context.Background(), view, blue); err != nil {
		t.Fatalf("ToggleLabel add: %v", err)
	}
	if len(f.storage.insertedLabels) != 1 || f.storage.insertedLabels[0] != "label-blue" {
		t.Errorf("inserted %v, want label-blue", f.storage.insertedLabels)
	}

	red := task.Label{ID: "label-red", Name: "red"}
	if err := f.actions.ToggleLabel(context.Background(), view, red); err != nil {
		t.Fatalf("ToggleLabel remove: %v", err)
	}
	if len(f.storage.deletedLabels) != 1 || f.storage.deletedLabels[0] != "label-red" {
		t.Errorf("deleted %v, want label-red", f.storage.deletedLabels)
	}

	cached := f.cache.View(f.key)
	for _, e := range cached.Today {
		if e.ID() != "task-1" {
			continue
		}
		if e.Canonical.HasLabel("label-red") {
			t.Error("removed label still on cached task")
		}
		if !e.Canonical.HasLabel("label-blue") {
			t.Error("added label missing from cached task")
		}
	}
}

func TestChangePriorityRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	before := f.cache.View(f.key)
	f.storage.updateErr = errors.New("locked")

	err := f.actions.ChangePriority(context.Background(), "task-1", task.PriorityCritical)
	if err == nil {
		t.Fatal("expected error from failed write")
	}
	if !reflect.DeepEqual(before, f.cache.View(f.key)) {
		t.Error("priority patch not rolled back")
	}
}

func TestChangeDueDatePatchesInPlace(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2026, 3, 15, 17, 0, 0, 0, time.UTC)

	if err := f.actions.ChangeDueDate(context.Background(), "task-1", &due); err != nil {
		t.Fatalf("ChangeDueDate: %v", err)
	}
	view := f.cache.View(f.key)
	// The task stays in its bucket until the next full load.
	if len(view.Today) != 2 {
		t.Fatalf("task left its bucket on due date edit")
	}
	for _, e := range view.Today {
		if e.ID() == "task-1" && (e.EndDate == nil || !e.EndDate.Equal(due)) {
			t.Errorf("cached EndDate = %v, want %v", e.EndDate, due)
		}
	}
}

func TestDeleteRemovesFromView(t *testing.T) {
	f := newFixture(t)

	if err := f.actions.Delete(context.Background(), "task-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.storage.softDeleted) != 1 || f.storage.softDeleted[0] != "task-2" {
		t.Errorf("soft deleted %v, want task-2", f.storage.softDeleted)
	}
	view := f.cache.View(f.key)
	if len(view.Today) != 1 || view.Today[0].ID() != "task-1" {
		t.Errorf("deleted task still in view: %+v", view.Today)
	}
}

func TestMarkDoneWithMyPartClearsUnassign(t *testing.T) {
	f := newFixture(t)

	if err := f.actions.MarkDoneWithMyPart(context.Background(), makeView("task-1")); err != nil {
		t.Fatalf("MarkDoneWithMyPart: %v", err)
	}
	if len(f.storage.merged) != 1 {
		t.Fatalf("merged %d patches, want 1", len(f.storage.merged))
	}
	patch := f.storage.merged[0]
	if patch.CompletedAt == nil {
		t.Error("patch missing personal completion timestamp")
	}
	if patch.PersonallyUnassigned == nil || *patch.PersonallyUnassigned {
		t.Error("patch does not clear personal unassign")
	}
}

func TestPersonalActionsLeaveOtherViewersViews(t *testing.T) {
	// A personal opt-out changes only the acting viewer's cached
	// buckets. Other viewers still see the task, fresh.
	f := newFixture(t)
	bobKey := taskcache.ViewKey("user-bob", "ws-1")
	f.cache.SetView(bobKey, &task.Buckets{
		Today:            []task.EffectiveTask{makeView("task-1"), makeView("task-2")},
		TotalActiveTasks: 2,
	})

	if err := f.actions.PersonallyUnassign(context.Background(), makeView("task-1")); err != nil {
		t.Fatalf("PersonallyUnassign: %v", err)
	}

	if view := f.cache.View(f.key); len(view.Today) != 1 {
		t.Error("task still in the acting viewer's buckets")
	}
	bob := f.cache.View(bobKey)
	if len(bob.Today) != 2 || bob.TotalActiveTasks != 2 {
		t.Errorf("other viewer's buckets changed: %d tasks, total %d", len(bob.Today), bob.TotalActiveTasks)
	}
	if f.cache.Stale(bobKey) {
		t.Error("other viewer's view marked stale by a personal action")
	}
}
