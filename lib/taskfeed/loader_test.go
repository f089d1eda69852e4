// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskfeed

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskstore"
)

// fakeStorage serves canned data and records the task-id sets the
// loader asks for, so tests can assert the bulk-fetch contract.
type fakeStorage struct {
	tasks     []task.Task
	completed []task.Task
	total     int

	assignees map[string][]task.Assignee
	labels    map[string][]task.Label
	overrides map[string]*task.UserOverride
	hidden    []task.BoardListOverride

	queryErr error

	requestedIDs [][]string
}

func (f *fakeStorage) AccessibleTasks(ctx context.Context, viewerID string, query taskstore.AccessibleQuery) ([]task.Task, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.tasks, nil
}

func (f *fakeStorage) CompletedTasks(ctx context.Context, viewerID, workspaceID string, page, pageSize int) ([]task.Task, int, error) {
	if f.queryErr != nil {
		return nil, 0, f.queryErr
	}
	start := page * pageSize
	if start >= len(f.completed) {
		return nil, f.total, nil
	}
	end := start + pageSize
	if end > len(f.completed) {
		end = len(f.completed)
	}
	return f.completed[start:end], f.total, nil
}

func (f *fakeStorage) CompletedCount(ctx context.Context, viewerID, workspaceID string) (int, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	return f.total, nil
}

func (f *fakeStorage) AssigneesFor(ctx context.Context, taskIDs []string) (map[string][]task.Assignee, error) {
	f.requestedIDs = append(f.requestedIDs, taskIDs)
	return f.assignees, nil
}

func (f *fakeStorage) LabelsFor(ctx context.Context, taskIDs []string) (map[string][]task.Label, error) {
	return f.labels, nil
}

func (f *fakeStorage) ProjectsFor(ctx context.Context, taskIDs []string) (map[string][]task.Project, error) {
	return nil, nil
}

func (f *fakeStorage) OverridesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.UserOverride, error) {
	return f.overrides, nil
}

func (f *fakeStorage) SchedulesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.ScheduleSettings, error) {
	return nil, nil
}

func (f *fakeStorage) BoardListOverrides(ctx context.Context, viewerID, workspaceID string) ([]task.BoardListOverride, error) {
	return f.hidden, nil
}

var loadNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func makeRow(id string, due *time.Time) task.Task {
	return task.Task{
		ID:         id,
		Name:       "task " + id,
		ListID:     "list-1",
		ListStatus: task.ListActive,
		BoardID:    "board-1",
		EndDate:    due,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newLoader(storage Storage) *Loader {
	return NewLoader(storage, clock.NewFake(loadNow), slog.New(slog.DiscardHandler))
}

func duePtr(t time.Time) *time.Time { return &t }

func TestLoadJoinsRelations(t *testing.T) {
	overdue := loadNow.Add(-time.Hour)
	storage := &fakeStorage{
		tasks: []task.Task{makeRow("t1", &overdue)},
		assignees: map[string][]task.Assignee{
			"t1": {{UserID: "user-alice"}},
		},
		labels: map[string][]task.Label{
			"t1": {{ID: "l1", Name: "bug"}},
		},
	}

	buckets, err := newLoader(storage).Load(context.Background(), "user-alice", "", Filters{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(buckets.Overdue) != 1 {
		t.Fatalf("Overdue = %d tasks, want 1", len(buckets.Overdue))
	}
	joined := buckets.Overdue[0].Canonical
	if len(joined.Assignees) != 1 || joined.Assignees[0].UserID != "user-alice" {
		t.Error("assignees not joined")
	}
	if len(joined.Labels) != 1 || joined.Labels[0].Name != "bug" {
		t.Error("labels not joined")
	}

	// The bulk fetch received the full task-id set.
	if len(storage.requestedIDs) != 1 || len(storage.requestedIDs[0]) != 1 || storage.requestedIDs[0][0] != "t1" {
		t.Errorf("bulk fetch ids = %v, want [[t1]]", storage.requestedIDs)
	}
}

func TestLoadAppliesOverridesAndHiding(t *testing.T) {
	kept := makeRow("kept", duePtr(loadNow.Add(-time.Hour)))
	optedOut := makeRow("opted-out", duePtr(loadNow.Add(-time.Hour)))
	hiddenBoard := makeRow("hidden-board", duePtr(loadNow.Add(-time.Hour)))
	hiddenBoard.BoardID = "board-2"

	critical := task.PriorityCritical
	storage := &fakeStorage{
		tasks: []task.Task{kept, optedOut, hiddenBoard},
		overrides: map[string]*task.UserOverride{
			"kept":      {TaskID: "kept", UserID: "u", Priority: &critical},
			"opted-out": {TaskID: "opted-out", UserID: "u", PersonallyUnassigned: true},
		},
		hidden: []task.BoardListOverride{{UserID: "u", BoardID: "board-2", Hidden: true}},
	}

	buckets, err := newLoader(storage).Load(context.Background(), "u", "", Filters{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(buckets.Overdue) != 1 || buckets.Overdue[0].Canonical.ID != "kept" {
		t.Fatalf("Overdue = %v, want only kept", buckets.Overdue)
	}
	if buckets.Overdue[0].Priority != task.PriorityCritical {
		t.Error("priority override not applied")
	}
	if buckets.TotalActiveTasks != 1 {
		t.Errorf("TotalActiveTasks = %d, want 1", buckets.TotalActiveTasks)
	}
}

func TestLoadFailureYieldsWellFormedEmpty(t *testing.T) {
	storage := &fakeStorage{queryErr: errors.New("connection refused")}

	buckets, err := newLoader(storage).Load(context.Background(), "u", "", Filters{})
	if err == nil {
		t.Fatal("expected the error to surface")
	}
	if buckets.Overdue == nil || buckets.Today == nil || buckets.Upcoming == nil {
		t.Error("failure must still produce non-nil buckets")
	}
	if buckets.TotalActiveTasks != 0 {
		t.Error("failure buckets should be empty")
	}
}

func TestLoadCompletedPagination(t *testing.T) {
	completed := make([]task.Task, 45)
	for i := range completed {
		completed[i] = makeRow("c", nil)
		completed[i].ID = completed[i].ID + string(rune('a'+i%26))
		completed[i].ListStatus = task.ListDone
	}
	storage := &fakeStorage{completed: completed, total: 45}
	loader := newLoader(storage)
	ctx := context.Background()

	page0, err := loader.LoadCompleted(ctx, "u", "", 0)
	if err != nil {
		t.Fatalf("LoadCompleted: %v", err)
	}
	if len(page0.Completed) != task.CompletedPageSize {
		t.Errorf("page 0 size = %d, want %d", len(page0.Completed), task.CompletedPageSize)
	}
	if !page0.HasMoreCompleted {
		t.Error("page 0 should report more")
	}
	if page0.TotalCompletedTasks != 45 {
		t.Errorf("total = %d, want 45", page0.TotalCompletedTasks)
	}

	page2, err := loader.LoadCompleted(ctx, "u", "", 2)
	if err != nil {
		t.Fatalf("LoadCompleted page 2: %v", err)
	}
	if len(page2.Completed) != 5 {
		t.Errorf("page 2 size = %d, want 5", len(page2.Completed))
	}
	if page2.HasMoreCompleted {
		t.Error("page 2 is the last page")
	}
	if page2.TotalCompletedTasks != page0.TotalCompletedTasks {
		t.Error("total changed across pages")
	}
}

func TestLoadCompletedRejectsNegativePage(t *testing.T) {
	if _, err := newLoader(&fakeStorage{}).LoadCompleted(context.Background(), "u", "", -1); err == nil {
		t.Fatal("negative page should be rejected")
	}
}

func TestLoadCarriesCompletedTotal(t *testing.T) {
	due := loadNow.Add(time.Hour)
	storage := &fakeStorage{
		tasks: []task.Task{makeRow("t1", &due)},
		total: 3,
	}

	buckets, err := newLoader(storage).Load(context.Background(), "user-alice", "", Filters{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buckets.TotalCompletedTasks != 3 {
		t.Errorf("TotalCompletedTasks = %d, want 3", buckets.TotalCompletedTasks)
	}
	if buckets.TotalActiveTasks != 1 {
		t.Errorf("TotalActiveTasks = %d, want 1", buckets.TotalActiveTasks)
	}
}
