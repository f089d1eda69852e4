// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// failer is the subset of *testing.T these helpers need. Declared
// structurally so the helpers also work with *testing.B.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test. Encapsulates the timeout safety valve so individual tests do
// not reach for time.After directly.
//
//	event := testutil.RequireReceive(t, events, time.Second, "cache event")
func RequireReceive[T any](t failer, ch <-chan T, timeout time.Duration, msg string, args ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without a value: %s", fmt.Sprintf(msg, args...))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, fmt.Sprintf(msg, args...))
	}
	panic("unreachable")
}

// RequireNoReceive asserts that nothing arrives on ch within the given
// window. Use sparingly: the window is real wall-clock time.
func RequireNoReceive[T any](t failer, ch <-chan T, window time.Duration, msg string, args ...any) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v: %s", v, fmt.Sprintf(msg, args...))
	case <-time.After(window):
	}
}

// RequireClosed waits for ch to close (or deliver) within timeout, or
// fails the test. Used for readiness channels that signal by closing.
func RequireClosed(t failer, ch <-chan struct{}, timeout time.Duration, msg string, args ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for close: %s", timeout, fmt.Sprintf(msg, args...))
	}
}
