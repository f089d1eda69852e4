// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskgen turns a free-form text entry into a batch of
// candidate tasks using an AI generation service.
//
// The Generator interface has one operation, Preview, which proposes
// tasks without creating anything; committing the reviewed batch is
// the caller's job, through the task store. HTTP is the production
// implementation; Fake is a deterministic line-splitting stand-in for
// tests and local runs without a configured service.
package taskgen
