package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type WeightHandler struct {
	weights *service.WeightService
	log     *zap.Logger
}

func NewWeightHandler(weights *service.WeightService, log *zap.Logger) *WeightHandler {
	return &WeightHandler{weights: weights, log: log}
}

func (h *WeightHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.WeightCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.weights.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusCreated, entry)
}

func (h *WeightHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.weights.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entries)
}

func (h *WeightHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := h.weights.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entry)
}

func (h *WeightHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.WeightUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.weights.Update(r.Context(), id, userID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, entry)
}

func (h *WeightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.weights.Delete(r.Context(), id, userID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.NoContent(w)
}
