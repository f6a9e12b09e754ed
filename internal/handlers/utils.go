package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shiftnotes/apiserver/internal/services"
	"github.com/shiftnotes/apiserver/internal/storage"
	"github.com/shiftnotes/apiserver/internal/store"
	"github.com/shiftnotes/apiserver/types"
)

type contextKey string

const contextActorKey contextKey = "actor"

var errInvalidID = errors.New("invalid id")

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func actorFromContext(ctx context.Context) (types.Actor, error) {
	actor, ok := ctx.Value(contextActorKey).(types.Actor)
	if !ok || actor.ID < 1 {
		return types.Actor{}, errors.New("missing actor")
	}
	return actor, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
// Forbidden responses deliberately carry no resource detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrStorageNotLinked):
		writeError(w, http.StatusBadRequest, "blob store not linked")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "email already exists")
	case errors.Is(err, storage.ErrStore):
		writeError(w, http.StatusBadGateway, "blob store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// Healthz is a liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
