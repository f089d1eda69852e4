// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskgen"
)

// Phase identifies where the creation workflow currently is.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseReviewing            Phase = "reviewing"
	PhaseSelectingDestination Phase = "selecting-destination"
)

// Candidate is one AI-proposed task on the review surface. Removal is
// soft: a removed candidate stays in place, greyed out, and can be
// restored until the batch is confirmed.
type Candidate struct {
	task.ConfirmedTask
	Removed bool `json:"removed"`
}

// Destination is the board/list pair tasks are committed to. Both
// fields are set or both are empty.
type Destination struct {
	BoardID string `json:"board_id,omitempty"`
	ListID  string `json:"list_id,omitempty"`
}

// Resolved reports whether the destination names a concrete list.
func (d Destination) Resolved() bool {
	return d.BoardID != "" && d.ListID != ""
}

// state is the tagged variant behind the workflow. Exactly one
// concrete type inhabits it at a time; each carries only the data
// meaningful in its phase.
type state interface {
	phase() Phase
}

// idle is the rest state. No pending input of any kind.
type idle struct{}

func (idle) phase() Phase { return PhaseIdle }

// reviewing holds the AI preview while the viewer works through it.
type reviewing struct {
	candidates []Candidate
	metadata   taskgen.Metadata
}

func (reviewing) phase() Phase { return PhaseReviewing }

// retained returns the candidates that survived review, edits
// applied, original order preserved.
func (r *reviewing) retained() []task.ConfirmedTask {
	var kept []task.ConfirmedTask
	for _, candidate := range r.candidates {
		if !candidate.Removed {
			kept = append(kept, candidate.ConfirmedTask)
		}
	}
	return kept
}

// selectingDestination waits for a resolved board/list. Either
// confirmed (the AI batch) or manual (a suspended single submission)
// is set, never both, never neither.
type selectingDestination struct {
	confirmed []task.ConfirmedTask
	manual    *ManualInput
}

func (selectingDestination) phase() Phase { return PhaseSelectingDestination }
