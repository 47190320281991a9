package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type MetricHandler struct {
	metrics *service.MetricService
	log     *zap.Logger
}

func NewMetricHandler(metrics *service.MetricService, log *zap.Logger) *MetricHandler {
	return &MetricHandler{metrics: metrics, log: log}
}

// Create answers 201 for a new entry and 200 when an existing entry for the
// same type and date was overwritten.
func (h *MetricHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.MetricCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, created, err := h.metrics.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, status, entry)
}

func (h *MetricHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	entries, err := h.metrics.List(r.Context(), userID, domain.MetricQuery{
		MetricType: q.Get("metric_type"),
		DateFrom:   q.Get("date_from"),
		DateTo:     q.Get("date_to"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entries)
}

func (h *MetricHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := h.metrics.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entry)
}

func (h *MetricHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.MetricUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.metrics.Update(r.Context(), id, userID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entry)
}

func (h *MetricHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.metrics.Delete(r.Context(), id, userID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.Message(w, http.StatusOK, fmt.Sprintf("Metric entry with id %d has been successfully deleted", id))
}
