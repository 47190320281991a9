package handler

import (
	"net/http"

	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
)

func Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
