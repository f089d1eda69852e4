// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskstore"
	"github.com/taskdeck/taskdeck/lib/taskview"
)

// Storage is the slice of the task store the loader reads from.
// *taskstore.Store satisfies it; tests substitute fakes.
type Storage interface {
	AccessibleTasks(ctx context.Context, viewerID string, query taskstore.AccessibleQuery) ([]task.Task, error)
	CompletedTasks(ctx context.Context, viewerID, workspaceID string, page, pageSize int) ([]task.Task, int, error)
	CompletedCount(ctx context.Context, viewerID, workspaceID string) (int, error)
	AssigneesFor(ctx context.Context, taskIDs []string) (map[string][]task.Assignee, error)
	LabelsFor(ctx context.Context, taskIDs []string) (map[string][]task.Label, error)
	ProjectsFor(ctx context.Context, taskIDs []string) (map[string][]task.Project, error)
	OverridesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.UserOverride, error)
	SchedulesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.ScheduleSettings, error)
	BoardListOverrides(ctx context.Context, viewerID, workspaceID string) ([]task.BoardListOverride, error)
}

// Filters narrows the primary feed. Zero value means no narrowing.
type Filters struct {
	WorkspaceIDs    []string
	BoardIDs        []string
	LabelIDs        []string
	ProjectIDs      []string
	SelfManagedOnly bool
}

// Loader builds bucketed views from storage.
type Loader struct {
	storage Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewLoader creates a loader. All three dependencies are required.
func NewLoader(storage Storage, clk clock.Clock, logger *slog.Logger) *Loader {
	if storage == nil {
		panic("taskfeed.Loader: Storage is required")
	}
	if clk == nil {
		panic("taskfeed.Loader: Clock is required")
	}
	if logger == nil {
		panic("taskfeed.Loader: Logger is required")
	}
	return &Loader{storage: storage, clock: clk, logger: logger}
}

// Load produces the viewer's bucketed view for a workspace scope
// (empty means all workspaces). Never returns a malformed view: on
// base-query failure the buckets come back empty alongside the error,
// which is also logged.
func (l *Loader) Load(ctx context.Context, viewerID, workspaceID string, filters Filters) (task.Buckets, error) {
	empty := task.Buckets{
		Overdue:  []task.EffectiveTask{},
		Today:    []task.EffectiveTask{},
		Upcoming: []task.EffectiveTask{},
	}

	rows, err := l.storage.AccessibleTasks(ctx, viewerID, taskstore.AccessibleQuery{
		WorkspaceID:     workspaceID,
		WorkspaceIDs:    filters.WorkspaceIDs,
		BoardIDs:        filters.BoardIDs,
		LabelIDs:        filters.LabelIDs,
		ProjectIDs:      filters.ProjectIDs,
		SelfManagedOnly: filters.SelfManagedOnly,
		// Source-side exclusion of rows the visibility filter would
		// drop anyway. The resolver below does not depend on it.
		ExcludePersonallyCompleted:  true,
		ExcludePersonallyUnassigned: true,
	})
	if err != nil {
		l.logger.Error("accessible-tasks query failed",
			"viewer", viewerID, "workspace", workspaceID, "error", err)
		return empty, fmt.Errorf("task feed: %w", err)
	}

	joined, overrides, boardListOverrides, err := l.attachRelations(ctx, viewerID, workspaceID, rows)
	if err != nil {
		l.logger.Error("relation fetch failed",
			"viewer", viewerID, "workspace", workspaceID, "error", err)
		return empty, fmt.Errorf("task feed: %w", err)
	}

	visible := make([]task.EffectiveTask, 0, len(joined))
	for i := range joined {
		override := overrides[joined[i].ID]
		effective := taskview.Resolve(joined[i], override)
		if taskview.PersonallyHidden(effective, override, boardListOverrides) {
			continue
		}
		visible = append(visible, effective)
	}

	buckets := taskview.Categorize(l.clock.Now(), visible)

	// The primary feed carries the completed total so the dashboard
	// can show it without fetching a completed page.
	totalCompleted, err := l.storage.CompletedCount(ctx, viewerID, workspaceID)
	if err != nil {
		l.logger.Error("completed-count query failed",
			"viewer", viewerID, "workspace", workspaceID, "error", err)
		return empty, fmt.Errorf("task feed: %w", err)
	}
	buckets.TotalCompletedTasks = totalCompleted
	return buckets, nil
}

// LoadCompleted produces one page of the viewer's completed feed.
// Page numbering starts at zero; the page size is fixed at
// task.CompletedPageSize. The total is computed by storage in the
// same call and carried on every page, so it stays stable while the
// user pages through.
func (l *Loader) LoadCompleted(ctx context.Context, viewerID, workspaceID string, page int) (task.CompletedPage, error) {
	result := task.CompletedPage{
		Completed: []task.EffectiveTask{},
		Page:      page,
	}
	if page < 0 {
		return result, fmt.Errorf("task feed: page must not be negative")
	}

	rows, total, err := l.storage.CompletedTasks(ctx, viewerID, workspaceID, page, task.CompletedPageSize)
	if err != nil {
		l.logger.Error("completed-tasks query failed",
			"viewer", viewerID, "page", page, "error", err)
		return result, fmt.Errorf("task feed: %w", err)
	}

	joined, overrides, _, err := l.attachRelations(ctx, viewerID, workspaceID, rows)
	if err != nil {
		l.logger.Error("relation fetch failed",
			"viewer", viewerID, "page", page, "error", err)
		return result, fmt.Errorf("task feed: %w", err)
	}

	for i := range joined {
		result.Completed = append(result.Completed, taskview.Resolve(joined[i], overrides[joined[i].ID]))
	}
	result.TotalCompletedTasks = total
	result.HasMoreCompleted = (page+1)*task.CompletedPageSize < total
	return result, nil
}

// attachRelations bulk-fetches every relation type for the task-id
// set in parallel and joins them onto the rows in memory. This is the
// single join step: relations are keyed by task id and never fetched
// per-task.
func (l *Loader) attachRelations(ctx context.Context, viewerID, workspaceID string, rows []task.Task) ([]task.Task, map[string]*task.UserOverride, []task.BoardListOverride, error) {
	taskIDs := make([]string, len(rows))
	for i := range rows {
		taskIDs[i] = rows[i].ID
	}

	var (
		wg         sync.WaitGroup
		assignees  map[string][]task.Assignee
		labels     map[string][]task.Label
		projects   map[string][]task.Project
		overrides  map[string]*task.UserOverride
		schedules  map[string]*task.ScheduleSettings
		boardLists []task.BoardListOverride
		errs       = make([]error, 6)
	)

	wg.Add(6)
	go func() {
		defer wg.Done()
		assignees, errs[0] = l.storage.AssigneesFor(ctx, taskIDs)
	}()
	go func() {
		defer wg.Done()
		labels, errs[1] = l.storage.LabelsFor(ctx, taskIDs)
	}()
	go func() {
		defer wg.Done()
		projects, errs[2] = l.storage.ProjectsFor(ctx, taskIDs)
	}()
	go func() {
		defer wg.Done()
		overrides, errs[3] = l.storage.OverridesFor(ctx, viewerID, taskIDs)
	}()
	go func() {
		defer wg.Done()
		schedules, errs[4] = l.storage.SchedulesFor(ctx, viewerID, taskIDs)
	}()
	go func() {
		defer wg.Done()
		boardLists, errs[5] = l.storage.BoardListOverrides(ctx, viewerID, workspaceID)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, nil, err
		}
	}

	for i := range rows {
		id := rows[i].ID
		rows[i].Assignees = assignees[id]
		rows[i].Labels = labels[id]
		rows[i].Projects = projects[id]
		rows[i].Schedule = schedules[id]
	}
	return rows, overrides, boardLists, nil
}
