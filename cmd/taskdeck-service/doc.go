// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// taskdeck-service serves the personal task dashboard over HTTP: the
// bucketed task view, the paginated completed feed, per-task mutation
// actions, personalization overrides, and the multi-step creation
// workflow with optional AI-assisted generation.
//
// Viewer identity comes from the X-Viewer-ID request header;
// authentication and permission checks happen upstream of this
// service. State lives in a SQLite database; the bucketed views are
// served from an in-process reactive cache that mutation actions keep
// current.
package main
