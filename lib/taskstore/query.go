// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// AccessibleQuery parameterizes the bulk accessible-tasks read. The
// zero value means: every workspace, live lists only, no filters, no
// personalization exclusions.
type AccessibleQuery struct {
	// WorkspaceID scopes the query to one workspace. Empty means all
	// workspaces the viewer can reach.
	WorkspaceID string

	// IncludeDeleted includes soft-deleted tasks.
	IncludeDeleted bool

	// ListStatuses restricts the shared list statuses returned. Nil
	// means live lists only (not_started, active).
	ListStatuses []task.ListStatus

	// Filter sets. Nil slices mean no filtering on that dimension.
	WorkspaceIDs []string
	BoardIDs     []string
	LabelIDs     []string
	ProjectIDs   []string

	// SelfManagedOnly keeps only tasks the viewer marked
	// self-managed.
	SelfManagedOnly bool

	// Source-side personalization exclusions. These are a
	// performance optimization: the resolver and visibility filter
	// remain correct without them, they just avoid shipping rows the
	// dashboard would hide anyway.
	ExcludePersonallyCompleted  bool
	ExcludePersonallyUnassigned bool
}

// taskColumns is the shared SELECT list for task reads. Keep in sync
// with scanTask.
const taskColumns = `
	t.id, t.list_id, t.name, t.description, t.creator_id,
	t.start_date, t.end_date, t.priority,
	t.completed_at, t.closed_at, t.deleted_at,
	t.estimation_points, t.created_at,
	l.status, b.id, b.name, w.id, w.name`

const taskJoins = `
	FROM tasks t
	JOIN lists l ON l.id = t.list_id
	JOIN boards b ON b.id = l.board_id
	JOIN workspaces w ON w.id = b.workspace_id`

func scanTask(stmt *sqlite.Stmt) task.Task {
	t := task.Task{
		ID:            stmt.ColumnText(0),
		ListID:        stmt.ColumnText(1),
		Name:          stmt.ColumnText(2),
		Description:   stmt.ColumnText(3),
		CreatorID:     stmt.ColumnText(4),
		StartDate:     columnTime(stmt, 5),
		EndDate:       columnTime(stmt, 6),
		Priority:      task.Priority(stmt.ColumnText(7)),
		CompletedAt:   columnTime(stmt, 8),
		ClosedAt:      columnTime(stmt, 9),
		DeletedAt:     columnTime(stmt, 10),
		Estimation:    columnOptInt(stmt, 11),
		ListStatus:    task.ListStatus(stmt.ColumnText(13)),
		BoardID:       stmt.ColumnText(14),
		BoardName:     stmt.ColumnText(15),
		WorkspaceID:   stmt.ColumnText(16),
		WorkspaceName: stmt.ColumnText(17),
	}
	if created := columnTime(stmt, 12); created != nil {
		t.CreatedAt = *created
	}
	return t
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// AccessibleTasks returns every task the viewer can see — assigned to
// them or created by them — narrowed by the query's scope, filters,
// and exclusions. Relations are not attached; callers join them via
// the bulk reads below.
func (s *Store) AccessibleTasks(ctx context.Context, viewerID string, query AccessibleQuery) ([]task.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: accessible tasks: %w", err)
	}
	defer s.pool.Put(conn)

	conditions := []string{
		`(t.creator_id = ? OR EXISTS (
			SELECT 1 FROM task_assignees a
			WHERE a.task_id = t.id AND a.user_id = ?))`,
	}
	args := []any{viewerID, viewerID}

	if !query.IncludeDeleted {
		conditions = append(conditions, "t.deleted_at IS NULL")
	}

	statuses := query.ListStatuses
	if len(statuses) == 0 {
		statuses = []task.ListStatus{task.ListNotStarted, task.ListActive}
	}
	condition := "l.status IN (" + placeholders(len(statuses)) + ")"
	conditions = append(conditions, condition)
	for _, status := range statuses {
		args = append(args, string(status))
	}

	if query.WorkspaceID != "" {
		conditions = append(conditions, "w.id = ?")
		args = append(args, query.WorkspaceID)
	}
	if len(query.WorkspaceIDs) > 0 {
		conditions = append(conditions, "w.id IN ("+placeholders(len(query.WorkspaceIDs))+")")
		for _, id := range query.WorkspaceIDs {
			args = append(args, id)
		}
	}
	if len(query.BoardIDs) > 0 {
		conditions = append(conditions, "b.id IN ("+placeholders(len(query.BoardIDs))+")")
		for _, id := range query.BoardIDs {
			args = append(args, id)
		}
	}
	if len(query.LabelIDs) > 0 {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM task_labels tl
			WHERE tl.task_id = t.id AND tl.label_id IN (`+placeholders(len(query.LabelIDs))+"))")
		for _, id := range query.LabelIDs {
			args = append(args, id)
		}
	}
	if len(query.ProjectIDs) > 0 {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM task_projects tp
			WHERE tp.task_id = t.id AND tp.project_id IN (`+placeholders(len(query.ProjectIDs))+"))")
		for _, id := range query.ProjectIDs {
			args = append(args, id)
		}
	}
	if query.SelfManagedOnly {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM user_overrides o
			WHERE o.task_id = t.id AND o.user_id = ? AND o.self_managed = 1)`)
		args = append(args, viewerID)
	}
	if query.ExcludePersonallyCompleted {
		conditions = append(conditions, `NOT EXISTS (
			SELECT 1 FROM user_overrides o
			WHERE o.task_id = t.id AND o.user_id = ? AND o.completed_at IS NOT NULL)`)
		args = append(args, viewerID)
	}
	if query.ExcludePersonallyUnassigned {
		conditions = append(conditions, `NOT EXISTS (
			SELECT 1 FROM user_overrides o
			WHERE o.task_id = t.id AND o.user_id = ? AND o.personally_unassigned = 1)`)
		args = append(args, viewerID)
	}

	sql := "SELECT " + taskColumns + taskJoins +
		" WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY t.created_at DESC, t.id"

	var tasks []task.Task
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tasks = append(tasks, scanTask(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: accessible tasks: %w", err)
	}
	return tasks, nil
}

// TaskByID returns one task with its board/list/workspace context,
// or ErrNotFound. Soft-deleted tasks are returned; callers that care
// check DeletedAt.
func (s *Store) TaskByID(ctx context.Context, taskID string) (task.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return task.Task{}, fmt.Errorf("task store: task by id: %w", err)
	}
	defer s.pool.Put(conn)

	var found *task.Task
	err = sqlitex.Execute(conn,
		"SELECT "+taskColumns+taskJoins+" WHERE t.id = ?",
		&sqlitex.ExecOptions{
			Args: []any{taskID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				t := scanTask(stmt)
				found = &t
				return nil
			},
		})
	if err != nil {
		return task.Task{}, fmt.Errorf("task store: task by id: %w", err)
	}
	if found == nil {
		return task.Task{}, fmt.Errorf("task store: task %s: %w", taskID, ErrNotFound)
	}
	return *found, nil
}

// completedFilter builds the joins, WHERE clause, and arguments
// shared by the completed-feed page and count queries. Completed
// means: the shared list is done/closed, the task carries a canonical
// completion timestamp, or the viewer personally completed it. Tasks
// the viewer personally opted out of never appear.
func completedFilter(viewerID, workspaceID string) (joins, where string, args []any) {
	conditions := []string{
		`(t.creator_id = ? OR EXISTS (
			SELECT 1 FROM task_assignees a
			WHERE a.task_id = t.id AND a.user_id = ?))`,
		"t.deleted_at IS NULL",
		`(l.status IN ('done', 'closed')
			OR t.completed_at IS NOT NULL
			OR o.completed_at IS NOT NULL)`,
		"COALESCE(o.personally_unassigned, 0) = 0",
	}
	joins = taskJoins + `
	LEFT JOIN user_overrides o ON o.task_id = t.id AND o.user_id = ?`
	// The override join parameter precedes the WHERE parameters.
	args = []any{viewerID, viewerID, viewerID}

	if workspaceID != "" {
		conditions = append(conditions, "w.id = ?")
		args = append(args, workspaceID)
	}
	return joins, " WHERE " + strings.Join(conditions, " AND "), args
}

// CompletedCount returns the stable total of the viewer's completed
// feed for a workspace scope, using the same predicate as
// CompletedTasks.
func (s *Store) CompletedCount(ctx context.Context, viewerID, workspaceID string) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("task store: completed count: %w", err)
	}
	defer s.pool.Put(conn)
	return completedCount(conn, viewerID, workspaceID)
}

func completedCount(conn *sqlite.Conn, viewerID, workspaceID string) (int, error) {
	joins, where, args := completedFilter(viewerID, workspaceID)
	var total int
	err := sqlitex.Execute(conn, "SELECT COUNT(*)"+joins+where, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			total = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("task store: completed count: %w", err)
	}
	return total, nil
}

// CompletedTasks returns one page of the viewer's completed feed plus
// the total count for the same predicate, newest completion first.
func (s *Store) CompletedTasks(ctx context.Context, viewerID, workspaceID string, page, pageSize int) ([]task.Task, int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("task store: completed tasks: %w", err)
	}
	defer s.pool.Put(conn)

	joins, where, args := completedFilter(viewerID, workspaceID)
	total, err := completedCount(conn, viewerID, workspaceID)
	if err != nil {
		return nil, 0, err
	}

	sql := "SELECT " + taskColumns + joins + where +
		` ORDER BY COALESCE(o.completed_at, t.completed_at, t.closed_at, t.created_at) DESC, t.id
		 LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), pageSize, page*pageSize)

	var tasks []task.Task
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: pageArgs,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tasks = append(tasks, scanTask(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("task store: completed tasks: %w", err)
	}
	return tasks, total, nil
}

// AssigneesFor bulk-reads assignees for a task-id set, keyed by task
// id.
func (s *Store) AssigneesFor(ctx context.Context, taskIDs []string) (map[string][]task.Assignee, error) {
	result := make(map[string][]task.Assignee, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: assignees: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT task_id, user_id, display_name FROM task_assignees
		WHERE task_id IN (` + placeholders(len(taskIDs)) + ") ORDER BY user_id"
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: idArgs(taskIDs),
		ResultFunc: func(stmt *sqlite.Stmt) error {
			taskID := stmt.ColumnText(0)
			result[taskID] = append(result[taskID], task.Assignee{
				UserID:      stmt.ColumnText(1),
				DisplayName: stmt.ColumnText(2),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: assignees: %w", err)
	}
	return result, nil
}

// LabelsFor bulk-reads labels for a task-id set, keyed by task id.
func (s *Store) LabelsFor(ctx context.Context, taskIDs []string) (map[string][]task.Label, error) {
	result := make(map[string][]task.Label, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: labels: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT tl.task_id, lb.id, lb.name, lb.color
		FROM task_labels tl JOIN labels lb ON lb.id = tl.label_id
		WHERE tl.task_id IN (` + placeholders(len(taskIDs)) + ") ORDER BY lb.name"
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: idArgs(taskIDs),
		ResultFunc: func(stmt *sqlite.Stmt) error {
			taskID := stmt.ColumnText(0)
			result[taskID] = append(result[taskID], task.Label{
				ID:    stmt.ColumnText(1),
				Name:  stmt.ColumnText(2),
				Color: stmt.ColumnText(3),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: labels: %w", err)
	}
	return result, nil
}

// ProjectsFor bulk-reads projects for a task-id set, keyed by task
// id.
func (s *Store) ProjectsFor(ctx context.Context, taskIDs []string) (map[string][]task.Project, error) {
	result := make(map[string][]task.Project, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: projects: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT tp.task_id, p.id, p.name
		FROM task_projects tp JOIN projects p ON p.id = tp.project_id
		WHERE tp.task_id IN (` + placeholders(len(taskIDs)) + ") ORDER BY p.name"
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: idArgs(taskIDs),
		ResultFunc: func(stmt *sqlite.Stmt) error {
			taskID := stmt.ColumnText(0)
			result[taskID] = append(result[taskID], task.Project{
				ID:   stmt.ColumnText(1),
				Name: stmt.ColumnText(2),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: projects: %w", err)
	}
	return result, nil
}

// OverridesFor bulk-reads the viewer's overrides for a task-id set,
// keyed by task id. Tasks the viewer never personalized are absent.
func (s *Store) OverridesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.UserOverride, error) {
	result := make(map[string]*task.UserOverride, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: overrides: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT task_id, user_id, self_managed, completed_at,
		priority_override, due_date_override, estimation_override,
		personally_unassigned, notes
		FROM user_overrides
		WHERE user_id = ? AND task_id IN (` + placeholders(len(taskIDs)) + ")"
	args := append([]any{viewerID}, idArgs(taskIDs)...)
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			override := scanOverride(stmt)
			result[override.TaskID] = override
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: overrides: %w", err)
	}
	return result, nil
}

func scanOverride(stmt *sqlite.Stmt) *task.UserOverride {
	override := &task.UserOverride{
		TaskID:               stmt.ColumnText(0),
		UserID:               stmt.ColumnText(1),
		SelfManaged:          stmt.ColumnInt(2) != 0,
		CompletedAt:          columnTime(stmt, 3),
		DueDate:              columnTime(stmt, 5),
		Estimation:           columnOptInt(stmt, 6),
		PersonallyUnassigned: stmt.ColumnInt(7) != 0,
		Notes:                stmt.ColumnText(8),
	}
	if p := columnOptText(stmt, 4); p != nil {
		priority := task.Priority(*p)
		override.Priority = &priority
	}
	return override
}

// SchedulesFor bulk-reads the viewer's scheduling settings for a
// task-id set, keyed by task id. Pass-through data; never
// interpreted here.
func (s *Store) SchedulesFor(ctx context.Context, viewerID string, taskIDs []string) (map[string]*task.ScheduleSettings, error) {
	result := make(map[string]*task.ScheduleSettings, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: schedules: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT task_id, total_duration, is_splittable,
		min_split_duration_minutes, calendar_hours
		FROM schedule_settings
		WHERE user_id = ? AND task_id IN (` + placeholders(len(taskIDs)) + ")"
	args := append([]any{viewerID}, idArgs(taskIDs)...)
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			settings := &task.ScheduleSettings{
				CalendarHours: stmt.ColumnText(4),
				UserID:        viewerID,
			}
			if stmt.ColumnType(1) != sqlite.TypeNull {
				v := stmt.ColumnFloat(1)
				settings.TotalDuration = &v
			}
			if stmt.ColumnType(2) != sqlite.TypeNull {
				v := stmt.ColumnInt(2) != 0
				settings.IsSplittable = &v
			}
			if stmt.ColumnType(3) != sqlite.TypeNull {
				v := stmt.ColumnFloat(3)
				settings.MinSplitPoints = &v
			}
			result[stmt.ColumnText(0)] = settings
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: schedules: %w", err)
	}
	return result, nil
}

// BoardListOverrides returns the viewer's board/list visibility
// overrides, optionally scoped to one workspace.
func (s *Store) BoardListOverrides(ctx context.Context, viewerID, workspaceID string) ([]task.BoardListOverride, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: board/list overrides: %w", err)
	}
	defer s.pool.Put(conn)

	sql := `SELECT user_id, COALESCE(board_id, ''), COALESCE(list_id, ''), hidden
		FROM board_list_overrides WHERE user_id = ?`
	args := []any{viewerID}
	if workspaceID != "" {
		sql += ` AND (
			board_id IN (SELECT id FROM boards WHERE workspace_id = ?)
			OR list_id IN (
				SELECT l.id FROM lists l
				JOIN boards b ON b.id = l.board_id
				WHERE b.workspace_id = ?))`
		args = append(args, workspaceID, workspaceID)
	}

	var overrides []task.BoardListOverride
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			overrides = append(overrides, task.BoardListOverride{
				UserID:  stmt.ColumnText(0),
				BoardID: stmt.ColumnText(1),
				ListID:  stmt.ColumnText(2),
				Hidden:  stmt.ColumnInt(3) != 0,
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: board/list overrides: %w", err)
	}
	return overrides, nil
}

// SetBoardListOverride upserts a board or list visibility override.
// Exactly one of boardID/listID must be non-empty.
func (s *Store) SetBoardListOverride(ctx context.Context, viewerID, boardID, listID string, hidden bool) error {
	if (boardID == "") == (listID == "") {
		return fmt.Errorf("task store: exactly one of board or list id is required")
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: set board/list override: %w", err)
	}
	defer s.pool.Put(conn)

	var board, list any
	if boardID != "" {
		board = boardID
	}
	if listID != "" {
		list = listID
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO board_list_overrides (user_id, board_id, list_id, hidden)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, board_id, list_id) DO UPDATE SET hidden = excluded.hidden`,
		&sqlitex.ExecOptions{Args: []any{viewerID, board, list, boolInt(hidden)}})
	if err != nil {
		return fmt.Errorf("task store: set board/list override: %w", err)
	}
	return nil
}

func idArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
