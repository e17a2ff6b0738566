package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pedalpoint/taskcore/pkg/background"
	"github.com/pedalpoint/taskcore/pkg/lifecycle"
)

func (h *handler) listBackgroundTasks(w http.ResponseWriter, r *http.Request) {
	taskType := background.TaskType(r.URL.Query().Get("type"))
	status := background.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, r, http.StatusBadRequest, "invalid status")
		return
	}

	var tasks []background.Task
	switch {
	case taskType != "":
		tasks = h.Manager.GetTasksByType(taskType)
	case status != "":
		tasks = h.Manager.GetTasksByStatus(status)
	default:
		tasks = h.Manager.GetAllTasks()
	}

	out := make([]background.Task, 0, len(tasks))
	for _, t := range tasks {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (h *handler) getBackgroundTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.Manager.GetTask(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, http.StatusNotFound, background.ErrTaskNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *handler) cancelBackgroundTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Manager.CancelTask(r.Context(), id) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if _, ok := h.Manager.GetTask(id); !ok {
		respondError(w, r, http.StatusNotFound, background.ErrTaskNotFound.Error())
		return
	}
	respondError(w, r, http.StatusConflict, "task already finished")
}

func (h *handler) processBackground(w http.ResponseWriter, r *http.Request) {
	h.Manager.Process(r.Context())
	respondJSON(w, http.StatusOK, map[string]int{
		"scheduled": len(h.Manager.GetTasksByStatus(background.StatusScheduled)),
		"running":   len(h.Manager.GetTasksByStatus(background.StatusRunning)),
	})
}

func (h *handler) cleanupBackground(w http.ResponseWriter, r *http.Request) {
	var olderThan time.Duration
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			respondError(w, r, http.StatusBadRequest, "invalid older_than duration")
			return
		}
		olderThan = d
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": h.Manager.CleanupTasks(r.Context(), olderThan)})
}

type lifecycleRequest struct {
	State string `json:"state"`
}

func (h *handler) setLifecycle(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := lifecycle.ParseState(req.State)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Emitter.Emit(r.Context(), state); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lifecycle.ErrEmitterClosed) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, r, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"state": string(h.Emitter.Current())})
}
