// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

const viewer = "user-alice"

type fixture struct {
	store *Store
	clock *clock.Fake

	workspaceID string
	boardID     string
	backlogID   string // not_started
	activeID    string // active
	doneID      string // done
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store, err := Open(StoreConfig{
		Path:     filepath.Join(t.TempDir(), "tasks.db"),
		PoolSize: 2,
		Clock:    fake,
		Logger:   slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	f := &fixture{store: store, clock: fake}

	f.workspaceID, err = store.CreateWorkspace(ctx, "acme")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	f.boardID, err = store.CreateBoard(ctx, f.workspaceID, "sprint board")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	f.backlogID, err = store.CreateList(ctx, f.boardID, "Backlog", task.ListNotStarted, 0)
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	f.activeID, err = store.CreateList(ctx, f.boardID, "In Progress", task.ListActive, 1)
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	f.doneID, err = store.CreateList(ctx, f.boardID, "Done", task.ListDone, 2)
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	return f
}

// addTask creates a viewer-assigned task on the given list.
func (f *fixture) addTask(t *testing.T, listID, title string) string {
	t.Helper()
	id, err := f.store.CreateTask(context.Background(), NewTask{
		ListID:      listID,
		CreatorID:   "user-bob",
		Title:       title,
		AssigneeIDs: []string{viewer},
	})
	if err != nil {
		t.Fatalf("CreateTask(%s): %v", title, err)
	}
	// Distinct created_at per task keeps ordering deterministic.
	f.clock.Advance(time.Minute)
	return id
}

func taskIDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

func TestAccessibleTasksVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assigned := f.addTask(t, f.activeID, "assigned to viewer")

	created, err := f.store.CreateTask(ctx, NewTask{
		ListID:    f.backlogID,
		CreatorID: viewer,
		Title:     "created by viewer",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Neither assigned nor created: invisible.
	if _, err := f.store.CreateTask(ctx, NewTask{
		ListID: f.activeID, CreatorID: "user-bob", Title: "someone else's",
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks %v, want 2", len(tasks), taskIDs(tasks))
	}
	seen := map[string]bool{}
	for _, tk := range tasks {
		seen[tk.ID] = true
		if tk.BoardID != f.boardID || tk.WorkspaceID != f.workspaceID {
			t.Errorf("task %s missing board/workspace context", tk.ID)
		}
	}
	if !seen[assigned] || !seen[created] {
		t.Errorf("missing assigned or created task: %v", seen)
	}
}

func TestAccessibleTasksExcludesDoneLists(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, f.activeID, "live")
	f.addTask(t, f.doneID, "finished")

	tasks, err := f.store.AccessibleTasks(context.Background(), viewer, AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "live" {
		t.Fatalf("got %v, want only the live task", taskIDs(tasks))
	}
	if tasks[0].ListStatus != task.ListActive {
		t.Errorf("ListStatus = %q, want active", tasks[0].ListStatus)
	}
}

func TestAccessibleTasksExcludesSoftDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addTask(t, f.activeID, "doomed")

	if err := f.store.SoftDeleteTask(ctx, id); err != nil {
		t.Fatalf("SoftDeleteTask: %v", err)
	}

	tasks, err := f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("soft-deleted task still visible: %v", taskIDs(tasks))
	}

	tasks, err = f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatal("IncludeDeleted should surface the soft-deleted task")
	}
}

func TestAccessibleTasksPersonalizationExclusions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := f.addTask(t, f.activeID, "kept")
	personallyDone := f.addTask(t, f.activeID, "personally done")
	optedOut := f.addTask(t, f.activeID, "opted out")

	done := f.clock.Now()
	if err := f.store.MergeOverride(ctx, personallyDone, viewer,
		(&task.OverridePatch{CompletedAt: &done})); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}
	yes := true
	if err := f.store.MergeOverride(ctx, optedOut, viewer,
		&task.OverridePatch{PersonallyUnassigned: &yes}); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}

	tasks, err := f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{
		ExcludePersonallyCompleted:  true,
		ExcludePersonallyUnassigned: true,
	})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != kept {
		t.Fatalf("got %v, want only %s", taskIDs(tasks), kept)
	}

	// The exclusions are an optimization, not a visibility rule:
	// without them the rows still come back.
	tasks, err = f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks without exclusions, want 3", len(tasks))
	}
}

func TestAccessibleTasksLabelFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	labelID, err := f.store.CreateLabel(ctx, f.workspaceID, "bug", "#ff0000")
	if err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}
	tagged := f.addTask(t, f.activeID, "tagged")
	f.addTask(t, f.activeID, "untagged")
	if err := f.store.InsertTaskLabel(ctx, tagged, labelID); err != nil {
		t.Fatalf("InsertTaskLabel: %v", err)
	}

	tasks, err := f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{
		LabelIDs: []string{labelID},
	})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != tagged {
		t.Fatalf("label filter returned %v, want [%s]", taskIDs(tasks), tagged)
	}
}

func TestBulkRelationReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	labelID, _ := f.store.CreateLabel(ctx, f.workspaceID, "infra", "#00ff00")
	projectID, _ := f.store.CreateProject(ctx, f.workspaceID, "migration")

	first := f.addTask(t, f.activeID, "first")
	second := f.addTask(t, f.activeID, "second")
	if err := f.store.InsertTaskLabel(ctx, first, labelID); err != nil {
		t.Fatalf("InsertTaskLabel: %v", err)
	}
	if err := f.store.AddAssignee(ctx, first, "user-carol"); err != nil {
		t.Fatalf("AddAssignee: %v", err)
	}

	ids := []string{first, second}

	assignees, err := f.store.AssigneesFor(ctx, ids)
	if err != nil {
		t.Fatalf("AssigneesFor: %v", err)
	}
	if len(assignees[first]) != 2 {
		t.Errorf("assignees[first] = %v, want viewer and carol", assignees[first])
	}
	if len(assignees[second]) != 1 {
		t.Errorf("assignees[second] = %v, want just viewer", assignees[second])
	}

	labels, err := f.store.LabelsFor(ctx, ids)
	if err != nil {
		t.Fatalf("LabelsFor: %v", err)
	}
	if len(labels[first]) != 1 || labels[first][0].Name != "infra" {
		t.Errorf("labels[first] = %v", labels[first])
	}
	if len(labels[second]) != 0 {
		t.Errorf("labels[second] = %v, want none", labels[second])
	}

	_ = projectID
	if _, err := f.store.ProjectsFor(ctx, nil); err != nil {
		t.Errorf("ProjectsFor(nil) should be a no-op, got %v", err)
	}
}

func TestMergeOverridePartialPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addTask(t, f.activeID, "task")

	high := task.PriorityHigh
	if err := f.store.MergeOverride(ctx, id, viewer,
		(&task.OverridePatch{Priority: &high, Notes: strPtr("mine")})); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}

	// A second patch touching a different field leaves the first
	// write intact.
	done := f.clock.Now()
	if err := f.store.MergeOverride(ctx, id, viewer,
		&task.OverridePatch{CompletedAt: &done}); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}

	overrides, err := f.store.OverridesFor(ctx, viewer, []string{id})
	if err != nil {
		t.Fatalf("OverridesFor: %v", err)
	}
	override := overrides[id]
	if override == nil {
		t.Fatal("override row missing")
	}
	if override.Priority == nil || *override.Priority != task.PriorityHigh {
		t.Error("priority override lost by later patch")
	}
	if override.CompletedAt == nil || !override.CompletedAt.Equal(done) {
		t.Error("completed_at not written")
	}
	if override.Notes != "mine" {
		t.Errorf("notes = %q, want mine", override.Notes)
	}

	// Clear flags null the column.
	if err := f.store.MergeOverride(ctx, id, viewer,
		&task.OverridePatch{ClearCompletedAt: true}); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}
	overrides, _ = f.store.OverridesFor(ctx, viewer, []string{id})
	if overrides[id].CompletedAt != nil {
		t.Error("ClearCompletedAt did not null the column")
	}
}

func TestCompletedTasksPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 25 tasks on the done list; page size 10 gives 3 pages.
	for i := 0; i < 25; i++ {
		f.addTask(t, f.doneID, "done task")
	}
	f.addTask(t, f.activeID, "still active")

	page0, total, err := f.store.CompletedTasks(ctx, viewer, "", 0, 10)
	if err != nil {
		t.Fatalf("CompletedTasks: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(page0) != 10 {
		t.Errorf("page 0 has %d tasks, want 10", len(page0))
	}

	page2, total2, err := f.store.CompletedTasks(ctx, viewer, "", 2, 10)
	if err != nil {
		t.Fatalf("CompletedTasks page 2: %v", err)
	}
	if total2 != total {
		t.Errorf("total changed across pages: %d then %d", total, total2)
	}
	if len(page2) != 5 {
		t.Errorf("page 2 has %d tasks, want 5", len(page2))
	}

	// Personally completed tasks join the feed too.
	personal := f.addTask(t, f.activeID, "personally done")
	done := f.clock.Now()
	if err := f.store.MergeOverride(ctx, personal, viewer,
		&task.OverridePatch{CompletedAt: &done}); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}
	_, total3, err := f.store.CompletedTasks(ctx, viewer, "", 0, 10)
	if err != nil {
		t.Fatalf("CompletedTasks: %v", err)
	}
	if total3 != 26 {
		t.Errorf("total = %d after personal completion, want 26", total3)
	}
}

func TestCompletedTasksExcludesPersonallyUnassigned(t *testing.T) {
	// Personal opt-out is exclusive: an opted-out task appears in no
	// feed, not even the completed one its done list would place it
	// in.
	f := newFixture(t)
	ctx := context.Background()

	kept := f.addTask(t, f.doneID, "finished")
	optedOut := f.addTask(t, f.doneID, "opted out")
	yes := true
	if err := f.store.MergeOverride(ctx, optedOut, viewer,
		&task.OverridePatch{PersonallyUnassigned: &yes}); err != nil {
		t.Fatalf("MergeOverride: %v", err)
	}

	tasks, total, err := f.store.CompletedTasks(ctx, viewer, "", 0, 10)
	if err != nil {
		t.Fatalf("CompletedTasks: %v", err)
	}
	if total != 1 || len(tasks) != 1 || tasks[0].ID != kept {
		t.Fatalf("got %v (total %d), want only %s", taskIDs(tasks), total, kept)
	}

	count, err := f.store.CompletedCount(ctx, viewer, "")
	if err != nil {
		t.Fatalf("CompletedCount: %v", err)
	}
	if count != total {
		t.Errorf("CompletedCount = %d, CompletedTasks total = %d", count, total)
	}
}

func TestCreateTasksBatchIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateTasks(ctx, []NewTask{
		{ListID: f.backlogID, CreatorID: viewer, Title: "good"},
		{ListID: f.backlogID, CreatorID: viewer, Title: "   "},
	})
	if err == nil {
		t.Fatal("batch with a blank title should fail")
	}

	tasks, err := f.store.AccessibleTasks(ctx, viewer, AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("failed batch leaked %d tasks", len(tasks))
	}
}

func TestListsForBoardOrder(t *testing.T) {
	f := newFixture(t)
	lists, err := f.store.ListsForBoard(context.Background(), f.boardID)
	if err != nil {
		t.Fatalf("ListsForBoard: %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("got %d lists, want 3", len(lists))
	}
	for i := 1; i < len(lists); i++ {
		if lists[i-1].Position > lists[i].Position {
			t.Fatal("lists not in position order")
		}
	}
}

func TestBoardsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.Advance(time.Hour)
	newer, err := f.store.CreateBoard(ctx, f.workspaceID, "newer board")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	boards, err := f.store.Boards(ctx, f.workspaceID)
	if err != nil {
		t.Fatalf("Boards: %v", err)
	}
	if len(boards) != 2 || boards[0].ID != newer {
		t.Fatalf("Boards order wrong: %v", boards)
	}
}

func TestDeleteAssigneeLeavesTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addTask(t, f.activeID, "shared task")

	if err := f.store.DeleteAssignee(ctx, id, viewer); err != nil {
		t.Fatalf("DeleteAssignee: %v", err)
	}

	assignees, err := f.store.AssigneesFor(ctx, []string{id})
	if err != nil {
		t.Fatalf("AssigneesFor: %v", err)
	}
	if len(assignees[id]) != 0 {
		t.Errorf("assignees remain: %v", assignees[id])
	}

	// The task row itself survives (creator can still see it).
	tasks, err := f.store.AccessibleTasks(ctx, "user-bob", AccessibleQuery{})
	if err != nil {
		t.Fatalf("AccessibleTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Error("task vanished after unassign")
	}
}

func strPtr(s string) *string { return &s }
