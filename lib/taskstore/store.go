// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/sqlitepool"
)

// ErrNotFound is returned when an operation names a task that does
// not exist.
var ErrNotFound = errors.New("no such task")

// Store manages SQLite storage for tasks, board structure, and
// per-viewer overrides. Safe for concurrent use; every method borrows
// a pooled connection for its duration.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// StoreConfig holds the parameters for opening a store.
type StoreConfig struct {
	// Path is the SQLite database file. Required.
	Path string

	// PoolSize is the connection pool size. Zero means the pool
	// default.
	PoolSize int

	// Clock provides creation timestamps.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// Open creates the store, applying the schema to every connection.
func Open(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("task store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("task store: Logger is required")
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: %w", err)
	}

	return &Store{pool: pool, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// Close closes the underlying pool, blocking until borrowed
// connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// newID returns a fresh random identifier.
func newID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("task store: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf[:])
}

// nanos converts an optional time into its stored representation:
// Unix nanoseconds, or nil for NULL.
func nanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

// columnTime reads an optional timestamp column back into *time.Time.
func columnTime(stmt *sqlite.Stmt, col int) *time.Time {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return nil
	}
	t := time.Unix(0, stmt.ColumnInt64(col)).UTC()
	return &t
}

// columnOptText reads an optional text column, nil for NULL.
func columnOptText(stmt *sqlite.Stmt, col int) *string {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return nil
	}
	v := stmt.ColumnText(col)
	return &v
}

// columnOptInt reads an optional integer column, nil for NULL.
func columnOptInt(stmt *sqlite.Stmt, col int) *int {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return nil
	}
	v := stmt.ColumnInt(col)
	return &v
}

// --- Board structure ---

// CreateWorkspace inserts a workspace and returns its id.
func (s *Store) CreateWorkspace(ctx context.Context, name string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("task store: create workspace: %w", err)
	}
	defer s.pool.Put(conn)

	id := newID()
	err = sqlitex.Execute(conn,
		"INSERT INTO workspaces (id, name, created_at) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{id, name, s.clock.Now().UnixNano()}})
	if err != nil {
		return "", fmt.Errorf("task store: create workspace: %w", err)
	}
	return id, nil
}

// CreateBoard inserts a board and returns its id.
func (s *Store) CreateBoard(ctx context.Context, workspaceID, name string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("task store: create board: %w", err)
	}
	defer s.pool.Put(conn)

	id := newID()
	err = sqlitex.Execute(conn,
		"INSERT INTO boards (id, workspace_id, name, created_at) VALUES (?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{id, workspaceID, name, s.clock.Now().UnixNano()}})
	if err != nil {
		return "", fmt.Errorf("task store: create board: %w", err)
	}
	return id, nil
}

// CreateList inserts a board list and returns its id.
func (s *Store) CreateList(ctx context.Context, boardID, name string, status task.ListStatus, position int) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("task store: create list: %w", err)
	}
	defer s.pool.Put(conn)

	id := newID()
	err = sqlitex.Execute(conn,
		"INSERT INTO lists (id, board_id, name, status, position) VALUES (?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{id, boardID, name, string(status), position}})
	if err != nil {
		return "", fmt.Errorf("task store: create list: %w", err)
	}
	return id, nil
}

// CreateLabel inserts a workspace label and returns its id.
func (s *Store) CreateLabel(ctx context.Context, workspaceID, name, color string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("task store: create label: %w", err)
	}
	defer s.pool.Put(conn)

	id := newID()
	err = sqlitex.Execute(conn,
		"INSERT INTO labels (id, workspace_id, name, color) VALUES (?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{id, workspaceID, name, color}})
	if err != nil {
		return "", fmt.Errorf("task store: create label: %w", err)
	}
	return id, nil
}

// CreateProject inserts a workspace project and returns its id.
func (s *Store) CreateProject(ctx context.Context, workspaceID, name string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("task store: create project: %w", err)
	}
	defer s.pool.Put(conn)

	id := newID()
	err = sqlitex.Execute(conn,
		"INSERT INTO projects (id, workspace_id, name) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{id, workspaceID, name}})
	if err != nil {
		return "", fmt.Errorf("task store: create project: %w", err)
	}
	return id, nil
}

// Boards returns the boards in a workspace, newest first. An empty
// workspaceID returns boards across all workspaces, still newest
// first — the order destination auto-selection depends on.
func (s *Store) Boards(ctx context.Context, workspaceID string) ([]task.Board, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: boards: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, workspace_id, name, created_at FROM boards"
	var args []any
	if workspaceID != "" {
		query += " WHERE workspace_id = ?"
		args = append(args, workspaceID)
	}
	query += " ORDER BY created_at DESC, id"

	var boards []task.Board
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			boards = append(boards, task.Board{
				ID:          stmt.ColumnText(0),
				WorkspaceID: stmt.ColumnText(1),
				Name:        stmt.ColumnText(2),
				CreatedAt:   time.Unix(0, stmt.ColumnInt64(3)).UTC(),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("task store: boards: %w", err)
	}
	return boards, nil
}

// ListsForBoard returns the board's non-deleted lists in position
// order.
func (s *Store) ListsForBoard(ctx context.Context, boardID string) ([]task.List, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("task store: lists for board: %w", err)
	}
	defer s.pool.Put(conn)

	var lists []task.List
	err = sqlitex.Execute(conn,
		`SELECT id, board_id, name, status, position FROM lists
		 WHERE board_id = ? AND deleted = 0
		 ORDER BY position, id`,
		&sqlitex.ExecOptions{
			Args: []any{boardID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				lists = append(lists, task.List{
					ID:       stmt.ColumnText(0),
					BoardID:  stmt.ColumnText(1),
					Name:     stmt.ColumnText(2),
					Status:   task.ListStatus(stmt.ColumnText(3)),
					Position: stmt.ColumnInt(4),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("task store: lists for board: %w", err)
	}
	return lists, nil
}
