// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

// schema is the full database schema, applied idempotently to every
// new connection. Junction rows cascade with their task so soft
// deletes stay cheap and hard deletes stay consistent.
const schema = `
	CREATE TABLE IF NOT EXISTS workspaces (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boards (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		created_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_boards_workspace ON boards(workspace_id, created_at);

	CREATE TABLE IF NOT EXISTS lists (
		id       TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		name     TEXT NOT NULL,
		status   TEXT NOT NULL,
		position INTEGER NOT NULL,
		deleted  INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_lists_board ON lists(board_id, position);

	CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT PRIMARY KEY,
		list_id           TEXT NOT NULL REFERENCES lists(id),
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		creator_id        TEXT NOT NULL,
		start_date        INTEGER,
		end_date          INTEGER,
		priority          TEXT NOT NULL DEFAULT '',
		completed_at      INTEGER,
		closed_at         INTEGER,
		deleted_at        INTEGER,
		estimation_points INTEGER,
		created_at        INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks(list_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_id);

	CREATE TABLE IF NOT EXISTS task_assignees (
		task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_assignees_user ON task_assignees(user_id);

	CREATE TABLE IF NOT EXISTS labels (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		color        TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS task_labels (
		task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		label_id TEXT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, label_id)
	);

	CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_projects (
		task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, project_id)
	);

	CREATE TABLE IF NOT EXISTS user_overrides (
		task_id               TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id               TEXT NOT NULL,
		self_managed          INTEGER NOT NULL DEFAULT 0,
		completed_at          INTEGER,
		priority_override     TEXT,
		due_date_override     INTEGER,
		estimation_override   INTEGER,
		personally_unassigned INTEGER NOT NULL DEFAULT 0,
		notes                 TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_overrides_user ON user_overrides(user_id);

	CREATE TABLE IF NOT EXISTS board_list_overrides (
		user_id  TEXT NOT NULL,
		board_id TEXT,
		list_id  TEXT,
		hidden   INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, board_id, list_id)
	);
	CREATE INDEX IF NOT EXISTS idx_blo_user ON board_list_overrides(user_id);

	CREATE TABLE IF NOT EXISTS schedule_settings (
		task_id                    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id                    TEXT NOT NULL,
		total_duration             REAL,
		is_splittable              INTEGER,
		min_split_duration_minutes REAL,
		calendar_hours             TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_id, user_id)
	);
`
