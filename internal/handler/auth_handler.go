package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusCreated, registerResponse{ID: user.ID, Username: user.Username})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, domain.TokenResponse{AccessToken: token, TokenType: "bearer"})
}
