// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a fixed-size pool of SQLite connections
// with taskdeck-standard pragmas applied.
//
// SQLite is used as a library, not a server: each connection is an
// open file handle plus page cache. The pool exists so concurrent
// HTTP handlers can read in parallel (WAL mode allows many readers
// alongside a single writer) without every call site repeating pragma
// setup.
//
// Standard pragmas applied to every connection:
//
//   - journal_mode=WAL: readers never block the writer
//   - synchronous=NORMAL: fsync on WAL checkpoint, not every commit
//   - busy_timeout=5000: writers wait rather than failing immediately
//   - foreign_keys=ON: the task schema relies on cascading deletes
//     for assignee/label/project junction rows
//
// Usage:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{Path: dbPath, Logger: logger})
//	...
//	conn, err := pool.Take(ctx)
//	if err != nil { ... }
//	defer pool.Put(conn)
//
// Connections are not safe for concurrent use; each goroutine must
// Take its own and Put it back when done.
package sqlitepool
