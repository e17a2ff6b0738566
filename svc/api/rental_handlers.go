package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pedalpoint/taskcore/pkg/queue"
	"github.com/pedalpoint/taskcore/svc/rental"
)

type trackingStatus struct {
	Active          *rental.ActiveRental `json:"active"`
	LastProcessedAt *time.Time           `json:"last_processed_at"`
}

func (h *handler) startTracking(w http.ResponseWriter, r *http.Request) {
	var req rental.ActiveRental
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := h.Operations.Execute("track rental "+req.BikeID, func(context.Context) (any, error) {
		return nil, h.Tracker.Start(req)
	}, queue.WithPriority(queue.PriorityHigh))
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"operation_id": id})
}

func (h *handler) trackingStatus(w http.ResponseWriter, r *http.Request) {
	var resp trackingStatus
	if active, ok := h.Tracker.Active(); ok {
		resp.Active = &active
	}

	last, found, err := h.Tracker.LastProcessedTime(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if found {
		resp.LastProcessedAt = &last
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *handler) stopTracking(w http.ResponseWriter, _ *http.Request) {
	h.Tracker.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": h.Inbox.List(limit)})
}
