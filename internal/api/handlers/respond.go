package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type validator interface {
	Validate() map[string]string
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its status. Internal causes are logged
// here and nowhere else.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	msg, fields := apperr.PublicMessage(err)
	writeJSON(w, status, dto.ErrorResponse{Error: msg, Details: fields})
}

// decode reads a JSON body into req and runs its validation. It writes the
// 400 itself and returns false when the request cannot proceed.
func decode(w http.ResponseWriter, r *http.Request, req validator) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return false
	}
	return true
}

// urlID parses a UUID path parameter.
func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if !validation.IsValidUUID(raw) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid ID format"})
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

// queryID parses an optional UUID query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	id, ok := validation.ParseOptionalUUID(r.URL.Query().Get(name))
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return nil, false
	}
	return id, true
}

func mustIDs(values []string) []uuid.UUID {
	ids, _, _ := validation.ParseUUIDs(values)
	return ids
}

func optionalID(value *string) *uuid.UUID {
	if value == nil {
		return nil
	}
	id, _ := validation.ParseOptionalUUID(*value)
	return id
}

// optionalDate parses an already validated date; nil and "" mean absent.
func optionalDate(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, ok := validation.ParseDate(*value)
	if !ok {
		return nil
	}
	return &t
}
