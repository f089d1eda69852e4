// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskgen

import (
	"context"
	"strings"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Fake is a deterministic [Generator]: each non-blank line of the
// entry becomes one candidate task with the line as its title. Useful
// in tests and when no generation service is configured.
type Fake struct {
	// Err, when set, is returned from every Preview call.
	Err error
}

// Preview splits the entry into candidates.
func (f *Fake) Preview(ctx context.Context, request Request) (*Preview, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	var candidates []task.ConfirmedTask
	for _, line := range strings.Split(request.Entry, "\n") {
		title := strings.TrimSpace(line)
		if title == "" {
			continue
		}
		candidate := task.ConfirmedTask{Title: title}
		if request.GenerateDescriptions {
			candidate.Description = "From entry: " + title
		}
		if request.GeneratePriority {
			candidate.Priority = task.PriorityNormal
		}
		candidates = append(candidates, candidate)
	}

	return &Preview{
		Tasks: candidates,
		Metadata: Metadata{
			GeneratedWithAI: false,
			TotalTasks:      len(candidates),
		},
	}, nil
}
