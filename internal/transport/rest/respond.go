package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/syllabus"
	"github.com/questforge/questforge/pkg/ctxutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code,omitempty"`
	Block  string               `json:"block,omitempty"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

// handleError maps domain errors onto HTTP status codes. Validation
// failures carry their field list; syllabus syntax rejections carry the
// offending block. Anything unrecognized is a 500 and gets logged.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *syllabus.ParseError
	if errors.As(err, &parseErr) {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Error: parseErr.Error(),
			Code:  parseErr.Kind.String(),
			Block: parseErr.Block,
		})
		return
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		fields := make([]fieldErrorResponse, 0, len(valErr.Errors))
		for _, fe := range valErr.Errors {
			fields = append(fields, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Error:  valErr.Error(),
			Fields: fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// userFromCtx pulls the authenticated user ID placed by the auth
// middleware. Missing means the route was wired without Auth.
func userFromCtx(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
