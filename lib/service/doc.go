// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP server lifecycle shared by
// taskdeck binaries: bind, signal readiness, serve, and drain
// gracefully on context cancellation.
//
// The caller provides the http.Handler; this package owns listener
// management and shutdown sequencing only.
package service
