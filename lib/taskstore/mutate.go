// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// NewTask describes a task to create: the confirmed shape plus the
// destination list and the relations to attach.
type NewTask struct {
	ListID      string
	CreatorID   string
	Title       string
	Description string
	Priority    task.Priority
	DueDate     *time.Time
	Estimation  *int
	LabelIDs    []string
	ProjectIDs  []string
	AssigneeIDs []string
}

// CreateTask inserts one task with its relations in a single
// transaction and returns the new id.
func (s *Store) CreateTask(ctx context.Context, newTask NewTask) (string, error) {
	ids, err := s.CreateTasks(ctx, []NewTask{newTask})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// CreateTasks inserts a batch of tasks with their relations in a
// single IMMEDIATE transaction. Either every task lands or none
// does. Returns the new ids in input order.
func (s *Store) CreateTasks(ctx context.Context, newTasks []NewTask) (ids []string, err error) {
	if len(newTasks) == 0 {
		return nil, fmt.Errorf("task store: create tasks: empty batch")
	}
	for i := range newTasks {
		record := task.Task{
			Name:       newTasks[i].Title,
			Priority:   newTasks[i].Priority,
			Estimation: newTasks[i].Estimation,
		}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("task store: create tasks: %w", err)
		}
		if newTasks[i].ListID == "" {
			return nil, fmt.Errorf("task store: create tasks: list id is required")
		}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: create tasks: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("task store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	now := s.clock.Now().UnixNano()
	for i := range newTasks {
		spec := &newTasks[i]
		id := newID()

		err = sqlitex.Execute(conn,
			`INSERT INTO tasks (id, list_id, name, description, creator_id,
				end_date, priority, estimation_points, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				id, spec.ListID, spec.Title, spec.Description, spec.CreatorID,
				nanos(spec.DueDate), string(spec.Priority), optInt(spec.Estimation), now,
			}})
		if err != nil {
			return nil, fmt.Errorf("task store: insert task: %w", err)
		}

		for _, labelID := range spec.LabelIDs {
			if err = s.insertAssociation(conn, "task_labels", "label_id", id, labelID); err != nil {
				return nil, err
			}
		}
		for _, projectID := range spec.ProjectIDs {
			if err = s.insertAssociation(conn, "task_projects", "project_id", id, projectID); err != nil {
				return nil, err
			}
		}
		for _, userID := range spec.AssigneeIDs {
			err = sqlitex.Execute(conn,
				`INSERT OR IGNORE INTO task_assignees (task_id, user_id) VALUES (?, ?)`,
				&sqlitex.ExecOptions{Args: []any{id, userID}})
			if err != nil {
				return nil, fmt.Errorf("task store: insert assignee: %w", err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) insertAssociation(conn *sqlite.Conn, table, column, taskID, value string) error {
	sql := fmt.Sprintf("INSERT OR IGNORE INTO %s (task_id, %s) VALUES (?, ?)", table, column)
	if err := sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{Args: []any{taskID, value}}); err != nil {
		return fmt.Errorf("task store: insert %s: %w", table, err)
	}
	return nil
}

func optInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// MoveTaskToList reparents a task onto another list. Used by
// complete/undo-complete, which resolve the destination list from the
// board's status lists.
func (s *Store) MoveTaskToList(ctx context.Context, taskID, listID string) error {
	return s.updateTask(ctx, "move task",
		"UPDATE tasks SET list_id = ? WHERE id = ?", listID, taskID)
}

// SetTaskPriority updates the canonical priority.
func (s *Store) SetTaskPriority(ctx context.Context, taskID string, priority task.Priority) error {
	if !priority.Valid() {
		return fmt.Errorf("task store: unknown priority %q", priority)
	}
	return s.updateTask(ctx, "set priority",
		"UPDATE tasks SET priority = ? WHERE id = ?", string(priority), taskID)
}

// SetTaskDueDate updates the canonical end date; nil clears it.
func (s *Store) SetTaskDueDate(ctx context.Context, taskID string, due *time.Time) error {
	return s.updateTask(ctx, "set due date",
		"UPDATE tasks SET end_date = ? WHERE id = ?", nanos(due), taskID)
}

// SetTaskEstimation updates the canonical estimation; nil clears it.
func (s *Store) SetTaskEstimation(ctx context.Context, taskID string, points *int) error {
	if points != nil && *points < 0 {
		return fmt.Errorf("task store: estimation points must not be negative")
	}
	return s.updateTask(ctx, "set estimation",
		"UPDATE tasks SET estimation_points = ? WHERE id = ?", optInt(points), taskID)
}

// SoftDeleteTask stamps deleted_at. The row survives for audit and
// undeletion; every read filters it out by default.
func (s *Store) SoftDeleteTask(ctx context.Context, taskID string) error {
	return s.updateTask(ctx, "soft delete",
		"UPDATE tasks SET deleted_at = ? WHERE id = ?", s.clock.Now().UnixNano(), taskID)
}

func (s *Store) updateTask(ctx context.Context, op, sql string, args ...any) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: %s: %w", op, err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("task store: %s: %w", op, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("task store: %s: %w", op, ErrNotFound)
	}
	return nil
}

// MergeOverride applies a partial patch to the viewer's override row,
// creating the row lazily on first personalization. Only the fields
// the patch names are written; everything else keeps its stored
// value. This is the update-by-merge contract — never a full replace.
func (s *Store) MergeOverride(ctx context.Context, taskID, viewerID string, patch *task.OverridePatch) (err error) {
	if patch == nil || patch.Empty() {
		return nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: merge override: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("task store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	// Read-merge-write inside the transaction: the merge law lives
	// in OverridePatch.Apply, storage just persists its result.
	current := &task.UserOverride{TaskID: taskID, UserID: viewerID}
	err = sqlitex.Execute(conn,
		`SELECT task_id, user_id, self_managed, completed_at,
			priority_override, due_date_override, estimation_override,
			personally_unassigned, notes
		 FROM user_overrides WHERE task_id = ? AND user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{taskID, viewerID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current = scanOverride(stmt)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("task store: merge override: %w", err)
	}

	patch.Apply(current)

	var priority any
	if current.Priority != nil {
		priority = string(*current.Priority)
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO user_overrides (task_id, user_id, self_managed, completed_at,
			priority_override, due_date_override, estimation_override,
			personally_unassigned, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (task_id, user_id) DO UPDATE SET
			self_managed = excluded.self_managed,
			completed_at = excluded.completed_at,
			priority_override = excluded.priority_override,
			due_date_override = excluded.due_date_override,
			estimation_override = excluded.estimation_override,
			personally_unassigned = excluded.personally_unassigned,
			notes = excluded.notes`,
		&sqlitex.ExecOptions{Args: []any{
			taskID, viewerID,
			boolInt(current.SelfManaged),
			nanos(current.CompletedAt),
			priority,
			nanos(current.DueDate),
			optInt(current.Estimation),
			boolInt(current.PersonallyUnassigned),
			current.Notes,
		}})
	if err != nil {
		return fmt.Errorf("task store: merge override: %w", err)
	}
	return nil
}

// AddAssignee attaches a user to a task. Idempotent.
func (s *Store) AddAssignee(ctx context.Context, taskID, userID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: add assignee: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT OR IGNORE INTO task_assignees (task_id, user_id) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{taskID, userID}})
	if err != nil {
		return fmt.Errorf("task store: add assignee: %w", err)
	}
	return nil
}

// DeleteAssignee removes one user's assignee relation. The task
// itself is never touched.
func (s *Store) DeleteAssignee(ctx context.Context, taskID, userID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: delete assignee: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?",
		&sqlitex.ExecOptions{Args: []any{taskID, userID}})
	if err != nil {
		return fmt.Errorf("task store: delete assignee: %w", err)
	}
	return nil
}

// InsertTaskLabel attaches a label to a task. Idempotent.
func (s *Store) InsertTaskLabel(ctx context.Context, taskID, labelID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: insert task label: %w", err)
	}
	defer s.pool.Put(conn)
	return s.insertAssociation(conn, "task_labels", "label_id", taskID, labelID)
}

// DeleteTaskLabel detaches a label from a task.
func (s *Store) DeleteTaskLabel(ctx context.Context, taskID, labelID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: delete task label: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM task_labels WHERE task_id = ? AND label_id = ?",
		&sqlitex.ExecOptions{Args: []any{taskID, labelID}})
	if err != nil {
		return fmt.Errorf("task store: delete task label: %w", err)
	}
	return nil
}

// SetScheduleSettings upserts the viewer's scheduling pass-through
// data for a task.
func (s *Store) SetScheduleSettings(ctx context.Context, taskID, viewerID string, settings *task.ScheduleSettings) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("task store: set schedule: %w", err)
	}
	defer s.pool.Put(conn)

	var total, splittable, minSplit any
	if settings.TotalDuration != nil {
		total = *settings.TotalDuration
	}
	if settings.IsSplittable != nil {
		splittable = boolInt(*settings.IsSplittable)
	}
	if settings.MinSplitPoints != nil {
		minSplit = *settings.MinSplitPoints
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO schedule_settings (task_id, user_id, total_duration,
			is_splittable, min_split_duration_minutes, calendar_hours)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (task_id, user_id) DO UPDATE SET
			total_duration = excluded.total_duration,
			is_splittable = excluded.is_splittable,
			min_split_duration_minutes = excluded.min_split_duration_minutes,
			calendar_hours = excluded.calendar_hours`,
		&sqlitex.ExecOptions{Args: []any{
			taskID, viewerID, total, splittable, minSplit, settings.CalendarHours,
		}})
	if err != nil {
		return fmt.Errorf("task store: set schedule: %w", err)
	}
	return nil
}
