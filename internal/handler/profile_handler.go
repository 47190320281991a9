package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
	log      *zap.Logger
}

func NewProfileHandler(profiles *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profiles.Update(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.NoContent(w)
}
