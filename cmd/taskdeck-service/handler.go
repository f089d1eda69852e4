// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/taskactions"
	"github.com/taskdeck/taskdeck/lib/taskcache"
	"github.com/taskdeck/taskdeck/lib/taskfeed"
	"github.com/taskdeck/taskdeck/lib/taskflow"
	"github.com/taskdeck/taskdeck/lib/taskgen"
	"github.com/taskdeck/taskdeck/lib/taskstore"
	"github.com/taskdeck/taskdeck/lib/taskview"
)

// viewerHeader carries the authenticated viewer's id. Authentication
// itself happens upstream; requests without the header are rejected.
const viewerHeader = "X-Viewer-ID"

// timezoneHeader optionally carries the viewer's IANA timezone,
// forwarded on AI generation requests so relative dates in the entry
// resolve in the viewer's local time.
const timezoneHeader = "X-Viewer-Timezone"

// server wires the dashboard components behind the HTTP API. One
// creation workflow lives per viewer, created on first use.
type server struct {
	store     *taskstore.Store
	loader    *taskfeed.Loader
	cache     *taskcache.Cache
	generator taskgen.Generator
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	workflows map[string]*taskflow.Workflow
}

type serverConfig struct {
	Store     *taskstore.Store
	Loader    *taskfeed.Loader
	Cache     *taskcache.Cache
	Generator taskgen.Generator
	Clock     clock.Clock
	Logger    *slog.Logger
}

func newServer(cfg serverConfig) *server {
	if cfg.Store == nil || cfg.Loader == nil || cfg.Cache == nil ||
		cfg.Generator == nil || cfg.Clock == nil || cfg.Logger == nil {
		panic("server: all dependencies are required")
	}
	return &server{
		store:     cfg.Store,
		loader:    cfg.Loader,
		cache:     cfg.Cache,
		generator: cfg.Generator,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		workflows: make(map[string]*taskflow.Workflow),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/tasks", s.withViewer(s.handleTasks))
	mux.HandleFunc("GET /v1/tasks/completed", s.withViewer(s.handleCompleted))

	mux.HandleFunc("PATCH /v1/tasks/{id}", s.withViewer(s.handlePatchTask))
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.withViewer(s.handleDeleteTask))
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.withViewer(s.handleComplete))
	mux.HandleFunc("POST /v1/tasks/{id}/undo-complete", s.withViewer(s.handleUndoComplete))
	mux.HandleFunc("POST /v1/tasks/{id}/toggle-self-completed", s.withViewer(s.handleToggleSelfCompleted))
	mux.HandleFunc("POST /v1/tasks/{id}/done-with-my-part", s.withViewer(s.handleDoneWithMyPart))
	mux.HandleFunc("POST /v1/tasks/{id}/undo-done-with-my-part", s.withViewer(s.handleUndoDoneWithMyPart))
	mux.HandleFunc("POST /v1/tasks/{id}/personally-unassign", s.withViewer(s.handlePersonallyUnassign))
	mux.HandleFunc("POST /v1/tasks/{id}/unassign-me", s.withViewer(s.handleUnassignMe))
	mux.HandleFunc("POST /v1/tasks/{id}/labels/{labelID}", s.withViewer(s.handleToggleLabel))

	mux.HandleFunc("PUT /v1/overrides/{taskID}", s.withViewer(s.handleMergeOverride))
	mux.HandleFunc("PUT /v1/boards/{boardID}/lists/{listID}/hidden", s.withViewer(s.handleBoardListHidden))

	mux.HandleFunc("POST /v1/generate/preview", s.withViewer(s.handleGeneratePreview))
	mux.HandleFunc("POST /v1/tasks/batch", s.withViewer(s.handleCreateBatch))

	mux.HandleFunc("GET /v1/workflow", s.withViewer(s.handleWorkflowState))
	mux.HandleFunc("POST /v1/workflow/manual", s.withViewer(s.handleWorkflowManual))
	mux.HandleFunc("POST /v1/workflow/generate", s.withViewer(s.handleWorkflowGenerate))
	mux.HandleFunc("PUT /v1/workflow/candidates/{index}", s.withViewer(s.handleWorkflowEdit))
	mux.HandleFunc("POST /v1/workflow/candidates/{index}/remove", s.withViewer(s.handleWorkflowRemove))
	mux.HandleFunc("POST /v1/workflow/candidates/{index}/restore", s.withViewer(s.handleWorkflowRestore))
	mux.HandleFunc("POST /v1/workflow/candidates/move", s.withViewer(s.handleWorkflowMove))
	mux.HandleFunc("POST /v1/workflow/confirm-review", s.withViewer(s.handleWorkflowConfirmReview))
	mux.HandleFunc("PUT /v1/workflow/destination", s.withViewer(s.handleWorkflowDestination))
	mux.HandleFunc("POST /v1/workflow/commit", s.withViewer(s.handleWorkflowCommit))
	mux.HandleFunc("POST /v1/workflow/cancel", s.withViewer(s.handleWorkflowCancel))

	return mux
}

// viewerHandler is a handler with the viewer id already extracted.
type viewerHandler func(w http.ResponseWriter, r *http.Request, viewerID string)

func (s *server) withViewer(handler viewerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID := r.Header.Get(viewerHeader)
		if viewerID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing "+viewerHeader+" header"))
			return
		}
		handler(w, r, viewerID)
	}
}

// actions builds the viewer-scoped action set. Cheap; one per
// request.
func (s *server) actions(viewerID string) *taskactions.Actions {
	return taskactions.NewActions(taskactions.Config{
		Storage:  s.store,
		Cache:    s.cache,
		Clock:    s.clock,
		Logger:   s.logger,
		ViewerID: viewerID,
	})
}

// workflow returns the viewer's creation workflow, creating it on
// first use. The viewer's timezone header, when present, is applied
// so generation requests carry it.
func (s *server) workflow(viewerID string, r *http.Request) *taskflow.Workflow {
	timezone := r.Header.Get(timezoneHeader)

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workflows[viewerID]; ok {
		if timezone != "" {
			w.SetTimezone(timezone)
		}
		return w
	}
	w := taskflow.New(taskflow.Config{
		Storage:   s.store,
		Cache:     s.cache,
		Generator: s.generator,
		Clock:     s.clock,
		Logger:    s.logger,
		ViewerID:  viewerID,
		Timezone:  timezone,
	})
	s.workflows[viewerID] = w
	return w
}

// effectiveTask loads one task with the viewer's override projected,
// for the action endpoints that need board context or override state.
func (s *server) effectiveTask(r *http.Request, viewerID, taskID string) (task.EffectiveTask, error) {
	canonical, err := s.store.TaskByID(r.Context(), taskID)
	if err != nil {
		return task.EffectiveTask{}, err
	}
	overrides, err := s.store.OverridesFor(r.Context(), viewerID, []string{taskID})
	if err != nil {
		return task.EffectiveTask{}, err
	}
	return taskview.Resolve(canonical, overrides[taskID]), nil
}

// ---- feed endpoints ----

func (s *server) handleTasks(w http.ResponseWriter, r *http.Request, viewerID string) {
	query := r.URL.Query()
	workspaceID := query.Get("workspace")
	filters := taskfeed.Filters{
		WorkspaceIDs:    query["workspace_id"],
		BoardIDs:        query["board_id"],
		LabelIDs:        query["label_id"],
		ProjectIDs:      query["project_id"],
		SelfManagedOnly: query.Get("self_managed") == "true",
	}

	// Unfiltered views are served from the reactive cache; filtered
	// ones always hit storage since the cache keys only on
	// viewer/workspace.
	filtered := len(filters.WorkspaceIDs) > 0 || len(filters.BoardIDs) > 0 ||
		len(filters.LabelIDs) > 0 || len(filters.ProjectIDs) > 0 || filters.SelfManagedOnly
	key := taskcache.ViewKey(viewerID, workspaceID)

	if !filtered && !s.cache.Stale(key) {
		if cached := s.cache.View(key); cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	buckets, err := s.loader.Load(r.Context(), viewerID, workspaceID, filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !filtered {
		s.cache.SetView(key, &buckets)
	}
	writeJSON(w, http.StatusOK, &buckets)
}

func (s *server) handleCompleted(w http.ResponseWriter, r *http.Request, viewerID string) {
	workspaceID := r.URL.Query().Get("workspace")
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("page must be an integer"))
			return
		}
		page = parsed
	}

	key := taskcache.CompletedKey(viewerID, workspaceID, page)
	if !s.cache.Stale(key) {
		if cached := s.cache.Completed(key); cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := s.loader.LoadCompleted(r.Context(), viewerID, workspaceID, page)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.cache.SetCompleted(key, &result)
	writeJSON(w, http.StatusOK, &result)
}

// ---- per-task actions ----

// patchTaskRequest edits canonical fields. Absent fields are left
// alone; the clear flags null a field out.
type patchTaskRequest struct {
	Priority        *task.Priority `json:"priority,omitempty"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	ClearDueDate    bool           `json:"clear_due_date,omitempty"`
	Estimation      *int           `json:"estimation_points,omitempty"`
	ClearEstimation bool           `json:"clear_estimation,omitempty"`
}

func (s *server) handlePatchTask(w http.ResponseWriter, r *http.Request, viewerID string) {
	taskID := r.PathValue("id")
	var request patchTaskRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	actions := s.actions(viewerID)
	ctx := r.Context()

	if request.Priority != nil {
		if err := actions.ChangePriority(ctx, taskID, *request.Priority); err != nil {
			writeActionError(w, err)
			return
		}
	}
	if request.DueDate != nil || request.ClearDueDate {
		due := request.DueDate
		if request.ClearDueDate {
			due = nil
		}
		if err := actions.ChangeDueDate(ctx, taskID, due); err != nil {
			writeActionError(w, err)
			return
		}
	}
	if request.Estimation != nil || request.ClearEstimation {
		points := request.Estimation
		if request.ClearEstimation {
			points = nil
		}
		if err := actions.ChangeEstimation(ctx, taskID, points); err != nil {
			writeActionError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDeleteTask(w http.ResponseWriter, r *http.Request, viewerID string) {
	if err := s.actions(viewerID).Delete(r.Context(), r.PathValue("id")); err != nil {
		writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// viewAction runs an action that needs the full effective task.
func (s *server) viewAction(w http.ResponseWriter, r *http.Request, viewerID string,
	action func(view task.EffectiveTask) error) {
	view, err := s.effectiveTask(r, viewerID, r.PathValue("id"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	if err := action(view); err != nil {
		writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleComplete(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.Complete(r.Context(), view)
	})
}

func (s *server) handleUndoComplete(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.UndoComplete(r.Context(), view)
	})
}

func (s *server) handleToggleSelfCompleted(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.ToggleSelfCompleted(r.Context(), view)
	})
}

func (s *server) handleDoneWithMyPart(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.MarkDoneWithMyPart(r.Context(), view)
	})
}

func (s *server) handleUndoDoneWithMyPart(w http.ResponseWriter, r *http.Request, viewerID string) {
	if err := s.actions(viewerID).UndoDoneWithMyPart(r.Context(), r.PathValue("id")); err != nil {
		writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePersonallyUnassign(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.PersonallyUnassign(r.Context(), view)
	})
}

func (s *server) handleUnassignMe(w http.ResponseWriter, r *http.Request, viewerID string) {
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.UnassignMe(r.Context(), view)
	})
}

func (s *server) handleToggleLabel(w http.ResponseWriter, r *http.Request, viewerID string) {
	labelID := r.PathValue("labelID")
	actions := s.actions(viewerID)
	s.viewAction(w, r, viewerID, func(view task.EffectiveTask) error {
		return actions.ToggleLabel(r.Context(), view, task.Label{ID: labelID})
	})
}

func (s *server) handleMergeOverride(w http.ResponseWriter, r *http.Request, viewerID string) {
	taskID := r.PathValue("taskID")
	var patch task.OverridePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.store.MergeOverride(r.Context(), taskID, viewerID, &patch); err != nil {
		writeActionError(w, err)
		return
	}
	// Overrides change visibility and effective fields; the next load
	// recomputes from ground truth.
	s.cache.Invalidate("my-tasks/" + viewerID + "/")
	s.cache.Invalidate("completed/" + viewerID + "/")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleBoardListHidden(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request struct {
		Hidden bool `json:"hidden"`
	}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.store.SetBoardListOverride(r.Context(),
		viewerID, r.PathValue("boardID"), r.PathValue("listID"), request.Hidden)
	if err != nil {
		writeActionError(w, err)
		return
	}
	s.cache.Invalidate("my-tasks/" + viewerID + "/")
	w.WriteHeader(http.StatusNoContent)
}

// ---- generation and batch creation ----

type generateRequest struct {
	Entry                string `json:"entry"`
	GenerateDescriptions *bool  `json:"generate_descriptions,omitempty"`
	GeneratePriority     *bool  `json:"generate_priority,omitempty"`
	GenerateLabels       *bool  `json:"generate_labels,omitempty"`
	ClientTimezone       string `json:"client_timezone,omitempty"`
}

func (s *server) handleGeneratePreview(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request generateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	enabled := func(flag *bool) bool { return flag == nil || *flag }
	preview, err := s.generator.Preview(r.Context(), taskgen.Request{
		Entry:                request.Entry,
		PreviewOnly:          true,
		GenerateDescriptions: enabled(request.GenerateDescriptions),
		GeneratePriority:     enabled(request.GeneratePriority),
		GenerateLabels:       enabled(request.GenerateLabels),
		ClientTimezone:       request.ClientTimezone,
		ClientTimestamp:      s.clock.Now(),
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type batchRequest struct {
	ListID      string               `json:"list_id"`
	Tasks       []task.ConfirmedTask `json:"tasks"`
	AssigneeIDs []string             `json:"assignee_ids,omitempty"`
}

func (s *server) handleCreateBatch(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request batchRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if request.ListID == "" {
		writeError(w, http.StatusBadRequest, errors.New("list_id is required"))
		return
	}
	if len(request.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("tasks must not be empty"))
		return
	}

	newTasks := make([]taskstore.NewTask, len(request.Tasks))
	for i, confirmed := range request.Tasks {
		newTasks[i] = taskstore.NewTask{
			ListID:      request.ListID,
			CreatorID:   viewerID,
			Title:       confirmed.Title,
			Description: confirmed.Description,
			Priority:    confirmed.Priority,
			DueDate:     confirmed.DueDate,
			Estimation:  confirmed.Estimation,
			LabelIDs:    confirmed.Labels,
			ProjectIDs:  confirmed.ProjectIDs,
			AssigneeIDs: request.AssigneeIDs,
		}
	}

	ids, err := s.store.CreateTasks(r.Context(), newTasks)
	if err != nil {
		writeActionError(w, err)
		return
	}
	s.cache.Invalidate("my-tasks/" + viewerID + "/")
	s.cache.Invalidate("completed/" + viewerID + "/")
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

// ---- creation workflow ----

// workflowState is the snapshot returned from every workflow
// endpoint, so the client always renders from the machine's truth.
type workflowState struct {
	Phase       taskflow.Phase       `json:"phase"`
	Candidates  []taskflow.Candidate `json:"candidates,omitempty"`
	Confirmed   []task.ConfirmedTask `json:"confirmed,omitempty"`
	Destination taskflow.Destination `json:"destination"`
	Metadata    taskgen.Metadata     `json:"metadata"`
}

func (s *server) writeWorkflowState(w http.ResponseWriter, workflow *taskflow.Workflow) {
	writeJSON(w, http.StatusOK, workflowState{
		Phase:       workflow.Phase(),
		Candidates:  workflow.Candidates(),
		Confirmed:   workflow.Confirmed(),
		Destination: workflow.Destination(),
		Metadata:    workflow.Metadata(),
	})
}

func (s *server) handleWorkflowState(w http.ResponseWriter, r *http.Request, viewerID string) {
	s.writeWorkflowState(w, s.workflow(viewerID, r))
}

type manualRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Estimation  *int          `json:"estimation_points,omitempty"`
	LabelIDs    []string      `json:"label_ids,omitempty"`
	ProjectIDs  []string      `json:"project_ids,omitempty"`
	AssigneeIDs []string      `json:"assignee_ids,omitempty"`
}

func (s *server) handleWorkflowManual(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request manualRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	err := workflow.SubmitManual(r.Context(), taskflow.ManualInput{
		Title:       request.Title,
		Description: request.Description,
		Priority:    request.Priority,
		DueDate:     request.DueDate,
		Estimation:  request.Estimation,
		LabelIDs:    request.LabelIDs,
		ProjectIDs:  request.ProjectIDs,
		AssigneeIDs: request.AssigneeIDs,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowGenerate(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request struct {
		Entry string `json:"entry"`
	}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	if err := workflow.SubmitAI(r.Context(), request.Entry); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) candidateIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, errors.New("candidate index must be an integer")
	}
	return index, nil
}

func (s *server) handleWorkflowEdit(w http.ResponseWriter, r *http.Request, viewerID string) {
	index, err := s.candidateIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var edited task.ConfirmedTask
	if err := decodeJSON(r, &edited); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	if err := workflow.EditCandidate(index, edited); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowRemove(w http.ResponseWriter, r *http.Request, viewerID string) {
	s.candidateOp(w, r, viewerID, (*taskflow.Workflow).RemoveCandidate)
}

func (s *server) handleWorkflowRestore(w http.ResponseWriter, r *http.Request, viewerID string) {
	s.candidateOp(w, r, viewerID, (*taskflow.Workflow).RestoreCandidate)
}

func (s *server) candidateOp(w http.ResponseWriter, r *http.Request, viewerID string,
	op func(*taskflow.Workflow, int) error) {
	index, err := s.candidateIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	if err := op(workflow, index); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowMove(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	if err := workflow.MoveCandidate(request.From, request.To); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowConfirmReview(w http.ResponseWriter, r *http.Request, viewerID string) {
	workflow := s.workflow(viewerID, r)
	if err := workflow.ConfirmReview(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowDestination(w http.ResponseWriter, r *http.Request, viewerID string) {
	var request struct {
		BoardID string `json:"board_id"`
		ListID  string `json:"list_id,omitempty"`
	}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflow := s.workflow(viewerID, r)
	workflow.SelectBoard(request.BoardID)
	if request.ListID != "" {
		if err := workflow.SelectList(request.ListID); err != nil {
			writeWorkflowError(w, err)
			return
		}
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowCommit(w http.ResponseWriter, r *http.Request, viewerID string) {
	workflow := s.workflow(viewerID, r)
	if err := workflow.ConfirmDestination(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.writeWorkflowState(w, workflow)
}

func (s *server) handleWorkflowCancel(w http.ResponseWriter, r *http.Request, viewerID string) {
	workflow := s.workflow(viewerID, r)
	workflow.Cancel()
	s.writeWorkflowState(w, workflow)
}

// ---- helpers ----

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeActionError maps action and storage errors onto HTTP statuses:
// missing rows are 404, precondition failures 409, everything else a
// 500.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, taskactions.ErrNoDoneList),
		errors.Is(err, taskactions.ErrNoActiveList):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// writeWorkflowError maps workflow errors: validation 400, phase and
// destination preconditions 409, generation failures 502.
func writeWorkflowError(w http.ResponseWriter, err error) {
	var genErr *taskgen.GeneratorError
	switch {
	case errors.Is(err, taskflow.ErrEmptyTitle),
		errors.Is(err, taskflow.ErrEmptyEntry):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, taskflow.ErrNoDestination),
		errors.Is(err, taskflow.ErrWrongPhase):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &genErr):
		writeError(w, http.StatusBadGateway, err)
	case errors.Is(err, taskstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
