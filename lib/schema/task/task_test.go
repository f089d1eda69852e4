// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"testing"
	"time"
)

func TestPriorityRank(t *testing.T) {
	ranks := map[Priority]int{
		PriorityCritical:  4,
		PriorityHigh:      3,
		PriorityNormal:    2,
		PriorityLow:       1,
		PriorityNone:      0,
		Priority("bogus"): 0,
	}
	for priority, want := range ranks {
		if got := priority.Rank(); got != want {
			t.Errorf("Rank(%q) = %d, want %d", priority, got, want)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	negative := -1
	cases := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"valid", Task{Name: "write report", Priority: PriorityHigh}, false},
		{"blank name", Task{Name: "   "}, true},
		{"empty name", Task{}, true},
		{"unknown priority", Task{Name: "x", Priority: "urgent"}, true},
		{"negative estimation", Task{Name: "x", Estimation: &negative}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHasLabel(t *testing.T) {
	tk := Task{Labels: []Label{{ID: "l1", Name: "bug"}, {ID: "l2", Name: "infra"}}}
	if !tk.HasLabel("l2") {
		t.Error("HasLabel(l2) = false, want true")
	}
	if tk.HasLabel("l3") {
		t.Error("HasLabel(l3) = true, want false")
	}
}

func TestOverridePatchApply(t *testing.T) {
	done := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	high := PriorityHigh

	override := UserOverride{
		TaskID:      "t1",
		UserID:      "u1",
		CompletedAt: &done,
		Priority:    &high,
		Notes:       "original",
	}

	// A patch touching only personally_unassigned leaves everything
	// else in place.
	yes := true
	(&OverridePatch{PersonallyUnassigned: &yes}).Apply(&override)
	if !override.PersonallyUnassigned {
		t.Error("PersonallyUnassigned not applied")
	}
	if override.CompletedAt == nil || !override.CompletedAt.Equal(done) {
		t.Error("CompletedAt clobbered by unrelated patch")
	}
	if override.Priority == nil || *override.Priority != PriorityHigh {
		t.Error("Priority clobbered by unrelated patch")
	}

	// Clear flags write nullable fields back to null.
	no := false
	(&OverridePatch{ClearCompletedAt: true, PersonallyUnassigned: &no}).Apply(&override)
	if override.CompletedAt != nil {
		t.Error("ClearCompletedAt did not null the field")
	}
	if override.PersonallyUnassigned {
		t.Error("PersonallyUnassigned not reset")
	}
	if override.Notes != "original" {
		t.Error("Notes clobbered")
	}
}

func TestOverridePatchEmpty(t *testing.T) {
	if !(&OverridePatch{}).Empty() {
		t.Error("zero patch should be Empty")
	}
	if (&OverridePatch{ClearCompletedAt: true}).Empty() {
		t.Error("clear-only patch should not be Empty")
	}
}
