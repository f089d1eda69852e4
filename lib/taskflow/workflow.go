// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskcache"
	"github.com/taskdeck/taskdeck/lib/taskgen"
	"github.com/taskdeck/taskdeck/lib/taskstore"
)

// Validation and precondition errors. Validation errors are rejected
// before any request is issued; precondition errors abort a confirm
// and leave all other state untouched.
var (
	ErrEmptyTitle    = errors.New("task title is empty")
	ErrEmptyEntry    = errors.New("generation entry is empty")
	ErrNoDestination = errors.New("no destination selected")

	// ErrWrongPhase means the requested operation does not exist in
	// the machine's current phase.
	ErrWrongPhase = errors.New("operation not available in this phase")
)

// Storage is the slice of the task store the workflow commits
// through. *taskstore.Store satisfies it.
type Storage interface {
	Boards(ctx context.Context, workspaceID string) ([]task.Board, error)
	ListsForBoard(ctx context.Context, boardID string) ([]task.List, error)
	CreateTask(ctx context.Context, newTask taskstore.NewTask) (string, error)
	CreateTasks(ctx context.Context, newTasks []taskstore.NewTask) ([]string, error)
}

// ManualInput is one manually entered task, as typed into the command
// bar.
type ManualInput struct {
	Title       string
	Description string
	Priority    task.Priority
	DueDate     *time.Time
	Estimation  *int
	LabelIDs    []string
	ProjectIDs  []string
	AssigneeIDs []string
}

// Options are the generation flags carried on preview and commit
// requests. DefaultOptions turns everything on, which is what the
// command bar starts with.
type Options struct {
	GenerateDescriptions bool
	GeneratePriority     bool
	GenerateLabels       bool
	AutoAssignToMe       bool
}

// DefaultOptions returns the flag set used until the viewer changes
// it: all generation features and self-assignment enabled.
func DefaultOptions() Options {
	return Options{
		GenerateDescriptions: true,
		GeneratePriority:     true,
		GenerateLabels:       true,
		AutoAssignToMe:       true,
	}
}

// Config holds the workflow's dependencies. Storage, Cache,
// Generator, Clock, Logger, and ViewerID are required. WorkspaceID
// scopes destination auto-selection; empty means all workspaces.
type Config struct {
	Storage     Storage
	Cache       *taskcache.Cache
	Generator   taskgen.Generator
	Clock       clock.Clock
	Logger      *slog.Logger
	ViewerID    string
	WorkspaceID string

	// Timezone is the viewer's IANA timezone name, sent with
	// generation requests so relative dates resolve correctly.
	Timezone string
}

// Workflow is one viewer's creation state machine. Transitions are
// serialized by an internal mutex; blocking I/O (preview, commit)
// runs outside it so a slow generation call never wedges the
// accessors.
type Workflow struct {
	storage   Storage
	cache     *taskcache.Cache
	generator taskgen.Generator
	clock     clock.Clock
	logger    *slog.Logger
	viewerID  string
	workspace string

	mu          sync.Mutex
	state       state
	destination Destination
	options     Options
	timezone    string
}

// New creates an idle workflow.
func New(cfg Config) *Workflow {
	if cfg.Storage == nil || cfg.Cache == nil || cfg.Generator == nil ||
		cfg.Clock == nil || cfg.Logger == nil {
		panic("taskflow: Storage, Cache, Generator, Clock, and Logger are required")
	}
	if cfg.ViewerID == "" {
		panic("taskflow: ViewerID is required")
	}
	return &Workflow{
		storage:   cfg.Storage,
		cache:     cfg.Cache,
		generator: cfg.Generator,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		viewerID:  cfg.ViewerID,
		workspace: cfg.WorkspaceID,
		timezone:  cfg.Timezone,
		state:     idle{},
		options:   DefaultOptions(),
	}
}

// Phase returns the machine's current phase.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.phase()
}

// Destination returns the stored board/list pair. It survives
// workflow resets: once a viewer has picked where tasks go, the next
// submission reuses it.
func (w *Workflow) Destination() Destination {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destination
}

// Options returns the current generation flags.
func (w *Workflow) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.options
}

// SetOptions replaces the generation flags.
func (w *Workflow) SetOptions(options Options) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.options = options
}

// SetTimezone records the viewer's IANA timezone name, carried on
// generation requests so relative dates resolve correctly. Clients
// may send it per request; the latest value wins.
func (w *Workflow) SetTimezone(timezone string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timezone = timezone
}

// Candidates returns a copy of the review surface, removed entries
// included. Empty outside the reviewing phase.
func (w *Workflow) Candidates() []Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(*reviewing)
	if !ok {
		return nil
	}
	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Metadata returns the generation metadata for the batch under
// review. Zero outside the reviewing phase.
func (w *Workflow) Metadata() taskgen.Metadata {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(*reviewing)
	if !ok {
		return taskgen.Metadata{}
	}
	return r.metadata
}

// Confirmed returns a copy of the batch awaiting destination
// selection. Empty outside that phase and for suspended manual
// submissions.
func (w *Workflow) Confirmed() []task.ConfirmedTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.state.(*selectingDestination)
	if !ok {
		return nil
	}
	out := make([]task.ConfirmedTask, len(s.confirmed))
	copy(out, s.confirmed)
	return out
}

// Cancel discards the in-flight creation and returns to idle. The
// stored destination is kept.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = idle{}
}

// SubmitManual handles a single-task submission from the command bar.
// With a resolved destination the task is created immediately. With
// none, creation suspends: the input is parked and the machine moves
// to destination selection, nothing written yet.
func (w *Workflow) SubmitManual(ctx context.Context, input ManualInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrEmptyTitle
	}

	w.mu.Lock()
	if w.state.phase() != PhaseIdle {
		w.mu.Unlock()
		return fmt.Errorf("submit: %w", ErrWrongPhase)
	}
	destination := w.destination
	if !destination.Resolved() {
		w.state = &selectingDestination{manual: &input}
		w.mu.Unlock()
		return w.autoSelectDestination(ctx)
	}
	w.mu.Unlock()

	return w.createSingle(ctx, destination.ListID, input)
}

// SubmitAI sends the entry to the generator and, on success, opens
// the review surface. A blank entry is rejected before any request is
// issued. The stored destination is irrelevant here; it matters only
// at commit time.
func (w *Workflow) SubmitAI(ctx context.Context, entry string) error {
	if strings.TrimSpace(entry) == "" {
		return ErrEmptyEntry
	}

	w.mu.Lock()
	if w.state.phase() != PhaseIdle {
		w.mu.Unlock()
		return fmt.Errorf("generate: %w", ErrWrongPhase)
	}
	options := w.options
	timezone := w.timezone
	w.mu.Unlock()

	preview, err := w.generator.Preview(ctx, taskgen.Request{
		Entry:                entry,
		PreviewOnly:          true,
		GenerateDescriptions: options.GenerateDescriptions,
		GeneratePriority:     options.GeneratePriority,
		GenerateLabels:       options.GenerateLabels,
		ClientTimezone:       timezone,
		ClientTimestamp:      w.clock.Now(),
	})
	if err != nil {
		// Pre-transition state was idle; stay there.
		return fmt.Errorf("generate: %w", err)
	}

	candidates := make([]Candidate, len(preview.Tasks))
	for i, proposed := range preview.Tasks {
		candidates[i] = Candidate{ConfirmedTask: proposed}
	}

	w.mu.Lock()
	w.state = &reviewing{candidates: candidates, metadata: preview.Metadata}
	w.mu.Unlock()
	return nil
}

// EditCandidate replaces candidate i's content with the viewer's
// edited version. The commit will carry this shape, not the
// generator's original.
func (w *Workflow) EditCandidate(i int, edited task.ConfirmedTask) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(*reviewing)
	if !ok {
		return fmt.Errorf("edit candidate: %w", ErrWrongPhase)
	}
	if i < 0 || i >= len(r.candidates) {
		return fmt.Errorf("edit candidate: index %d out of range", i)
	}
	r.candidates[i].ConfirmedTask = edited
	return nil
}

// RemoveCandidate soft-removes candidate i. It stays on the surface
// and can be restored until the batch is confirmed.
func (w *Workflow) RemoveCandidate(i int) error {
	return w.setRemoved(i, true)
}

// RestoreCandidate undoes a soft removal.
func (w *Workflow) RestoreCandidate(i int) error {
	return w.setRemoved(i, false)
}

func (w *Workflow) setRemoved(i int, removed bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(*reviewing)
	if !ok {
		return fmt.Errorf("remove candidate: %w", ErrWrongPhase)
	}
	if i < 0 || i >= len(r.candidates) {
		return fmt.Errorf("remove candidate: index %d out of range", i)
	}
	r.candidates[i].Removed = removed
	return nil
}

// MoveCandidate reorders the review surface, moving the candidate at
// from to position to.
func (w *Workflow) MoveCandidate(from, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(*reviewing)
	if !ok {
		return fmt.Errorf("move candidate: %w", ErrWrongPhase)
	}
	if from < 0 || from >= len(r.candidates) || to < 0 || to >= len(r.candidates) {
		return fmt.Errorf("move candidate: index out of range")
	}
	moved := r.candidates[from]
	r.candidates = append(r.candidates[:from], r.candidates[from+1:]...)
	r.candidates = append(r.candidates[:to],
		append([]Candidate{moved}, r.candidates[to:]...)...)
	return nil
}

// ConfirmReview finalizes the review. With at least one retained
// candidate the machine moves to destination selection carrying the
// edited batch; with none, the workflow cancels back to idle instead
// of confirming an empty batch.
func (w *Workflow) ConfirmReview(ctx context.Context) error {
	w.mu.Lock()
	r, ok := w.state.(*reviewing)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("confirm review: %w", ErrWrongPhase)
	}
	retained := r.retained()
	if len(retained) == 0 {
		w.state = idle{}
		w.mu.Unlock()
		return nil
	}
	w.state = &selectingDestination{confirmed: retained}
	w.mu.Unlock()
	return w.autoSelectDestination(ctx)
}

// SelectBoard picks the destination board. Changing boards resets
// only the list; the new board's lists have different ids, so the old
// selection cannot carry over.
func (w *Workflow) SelectBoard(boardID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destination.BoardID == boardID {
		return
	}
	w.destination = Destination{BoardID: boardID}
}

// SelectList picks the destination list within the selected board.
func (w *Workflow) SelectList(listID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destination.BoardID == "" {
		return fmt.Errorf("select list: %w", ErrNoDestination)
	}
	w.destination.ListID = listID
	return nil
}

// autoSelectDestination fills in a default destination when none is
// chosen yet: the newest board, and its first list by position. A
// selected board is never overridden; a board without a list leaves
// the list empty for the viewer to sort out. Purely a convenience —
// failures are logged and swallowed, never surfaced as workflow
// errors.
func (w *Workflow) autoSelectDestination(ctx context.Context) error {
	w.mu.Lock()
	current := w.destination
	w.mu.Unlock()
	if current.BoardID != "" {
		return nil
	}

	boards, err := w.storage.Boards(ctx, w.workspace)
	if err != nil || len(boards) == 0 {
		if err != nil {
			w.logger.Debug("destination auto-selection failed", "error", err)
		}
		return nil
	}
	selected := Destination{BoardID: boards[0].ID}

	lists, err := w.storage.ListsForBoard(ctx, selected.BoardID)
	if err != nil {
		w.logger.Debug("destination auto-selection failed", "error", err)
	} else if len(lists) > 0 {
		selected.ListID = lists[0].ID
	}

	w.mu.Lock()
	// Re-check: the viewer may have picked a board while we were
	// fetching.
	if w.destination.BoardID == "" {
		w.destination = selected
	}
	w.mu.Unlock()
	return nil
}

// ConfirmDestination commits the pending creation to the selected
// board/list. On success the machine resets to idle and the viewer's
// cache is invalidated. On failure the phase, the batch, and the
// destination all survive for another attempt.
func (w *Workflow) ConfirmDestination(ctx context.Context) error {
	w.mu.Lock()
	s, ok := w.state.(*selectingDestination)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("commit: %w", ErrWrongPhase)
	}
	destination := w.destination
	w.mu.Unlock()

	if !destination.Resolved() {
		return fmt.Errorf("commit: %w", ErrNoDestination)
	}

	if s.manual != nil {
		if err := w.createSingle(ctx, destination.ListID, *s.manual); err != nil {
			return err
		}
	} else {
		if err := w.createBatch(ctx, destination.ListID, s.confirmed); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.state = idle{}
	w.mu.Unlock()
	return nil
}

// createSingle writes one manual task with the auto-assign union
// applied, then invalidates the viewer's cache.
func (w *Workflow) createSingle(ctx context.Context, listID string, input ManualInput) error {
	w.mu.Lock()
	assignToMe := w.options.AutoAssignToMe
	w.mu.Unlock()

	_, err := w.storage.CreateTask(ctx, taskstore.NewTask{
		ListID:      listID,
		CreatorID:   w.viewerID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Estimation:  input.Estimation,
		LabelIDs:    input.LabelIDs,
		ProjectIDs:  input.ProjectIDs,
		AssigneeIDs: assigneeUnion(input.AssigneeIDs, w.viewerID, assignToMe),
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	w.invalidateViewer()
	return nil
}

// createBatch writes the confirmed AI batch in one transaction, then
// invalidates the viewer's cache.
func (w *Workflow) createBatch(ctx context.Context, listID string, confirmed []task.ConfirmedTask) error {
	w.mu.Lock()
	assignToMe := w.options.AutoAssignToMe
	w.mu.Unlock()

	newTasks := make([]taskstore.NewTask, len(confirmed))
	for i, confirmedTask := range confirmed {
		newTasks[i] = taskstore.NewTask{
			ListID:      listID,
			CreatorID:   w.viewerID,
			Title:       confirmedTask.Title,
			Description: confirmedTask.Description,
			Priority:    confirmedTask.Priority,
			DueDate:     confirmedTask.DueDate,
			Estimation:  confirmedTask.Estimation,
			LabelIDs:    confirmedTask.Labels,
			ProjectIDs:  confirmedTask.ProjectIDs,
			AssigneeIDs: assigneeUnion(nil, w.viewerID, assignToMe),
		}
	}

	if _, err := w.storage.CreateTasks(ctx, newTasks); err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}

	w.invalidateViewer()
	return nil
}

// assigneeUnion merges the explicit assignees with the viewer when
// self-assignment is on. Set semantics: the viewer is never added
// twice, and explicit duplicates collapse.
func assigneeUnion(explicit []string, viewerID string, assignToMe bool) []string {
	seen := make(map[string]bool, len(explicit)+1)
	var union []string
	for _, id := range explicit {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		union = append(union, id)
	}
	if assignToMe && !seen[viewerID] {
		union = append(union, viewerID)
	}
	return union
}

// invalidateViewer marks the viewer's cached views stale. Created
// tasks carry ids, positions, and joined relations only the server
// knows, so the cache cannot be patched in place.
func (w *Workflow) invalidateViewer() {
	w.cache.Invalidate("my-tasks/" + w.viewerID + "/")
	w.cache.Invalidate("completed/" + w.viewerID + "/")
}
