package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/middleware"
	"github.com/yusufkecer/fit-tracker-backend/internal/respond"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// currentUser reads the id stored by the auth middleware. A missing id means
// the route was mounted without it.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respond.Unauthorized(w, "not authenticated")
	}
	return id, ok
}

// writeError maps service errors onto HTTP statuses. Unclassified errors are
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		validation  *domain.ValidationError
		invalid     *domain.InvalidValueError
		unknownType *domain.UnknownMetricTypeError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &invalid),
		errors.As(err, &unknownType),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrDuplicateDate),
		errors.Is(err, domain.ErrUsernameTaken):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthenticated):
		respond.Unauthorized(w, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	default:
		log.Error("request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
