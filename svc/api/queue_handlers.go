package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pedalpoint/taskcore/pkg/queue"
)

type queueTaskView struct {
	queue.Task
	Error string `json:"error,omitempty"`
}

type queueStatsView struct {
	queue.Stats
	Paused bool `json:"paused"`
}

func viewQueueTask(t queue.Task) queueTaskView {
	return queueTaskView{Task: t, Error: t.Error()}
}

func (h *handler) listQueueTasks(w http.ResponseWriter, r *http.Request) {
	var tasks []queue.Task
	if s := r.URL.Query().Get("status"); s != "" {
		status := queue.Status(s)
		if !status.Valid() {
			respondError(w, r, http.StatusBadRequest, "invalid status")
			return
		}
		tasks = h.Queue.GetTasksByStatus(status)
	} else {
		tasks = h.Queue.GetAllTasks()
	}

	views := make([]queueTaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, viewQueueTask(t))
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": views})
}

func (h *handler) getQueueTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.Queue.GetTask(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, http.StatusNotFound, queue.ErrTaskNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, viewQueueTask(task))
}

func (h *handler) cancelQueueTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Queue.CancelTask(id) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if _, ok := h.Queue.GetTask(id); !ok {
		respondError(w, r, http.StatusNotFound, queue.ErrTaskNotFound.Error())
		return
	}
	respondError(w, r, http.StatusConflict, "only pending tasks can be cancelled")
}

func (h *handler) queueStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, queueStatsView{Stats: h.Queue.GetStats(), Paused: h.Queue.Paused()})
}

func (h *handler) pauseQueue(w http.ResponseWriter, r *http.Request) {
	h.Queue.Pause()
	h.queueStats(w, r)
}

func (h *handler) resumeQueue(w http.ResponseWriter, r *http.Request) {
	h.Queue.Resume()
	h.queueStats(w, r)
}

func (h *handler) clearQueue(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"removed": h.Queue.ClearCompletedTasks()})
}
