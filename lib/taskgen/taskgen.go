// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskgen

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Generator proposes tasks from a free-form entry. Implementations
// never create tasks; the returned preview is reviewed and committed
// by the caller.
type Generator interface {
	Preview(ctx context.Context, request Request) (*Preview, error)
}

// Request describes one generation call. The flags control which
// fields the service fills in beyond titles; the client timezone and
// timestamp let it resolve relative dates ("friday", "next week") the
// way the viewer meant them.
type Request struct {
	Entry                string    `json:"entry"`
	PreviewOnly          bool      `json:"preview_only"`
	GenerateDescriptions bool      `json:"generate_descriptions"`
	GeneratePriority     bool      `json:"generate_priority"`
	GenerateLabels       bool      `json:"generate_labels"`
	ClientTimezone       string    `json:"client_timezone,omitempty"`
	ClientTimestamp      time.Time `json:"client_timestamp,omitzero"`
}

// Metadata describes how a preview was produced.
type Metadata struct {
	GeneratedWithAI bool `json:"generated_with_ai"`
	TotalTasks      int  `json:"total_tasks"`
}

// Preview is the service's proposal: candidate tasks in the shape the
// review surface edits, plus generation metadata.
type Preview struct {
	Tasks    []task.ConfirmedTask `json:"tasks"`
	Metadata Metadata             `json:"metadata"`
}

// GeneratorError is returned when the generation service responds
// with an error status.
type GeneratorError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the service's error type string, when it sent one.
	Type string

	// Message is the human-readable error description.
	Message string
}

func (err *GeneratorError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("taskgen: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("taskgen: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *GeneratorError) IsRateLimited() bool {
	return err.StatusCode == 429
}
