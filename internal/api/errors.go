package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kalmbach/toolrack/internal/attach"
	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/heads"
	"github.com/kalmbach/toolrack/internal/profiles"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/tools"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// domainError maps service-layer sentinels onto HTTP responses.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, storage.ErrDuplicate):
		httpError(w, http.StatusConflict, "duplicate", "%v", err)
	case errors.Is(err, tools.ErrToolAssigned),
		errors.Is(err, tools.ErrBadTransition):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	case errors.Is(err, settings.ErrReadOnly):
		httpError(w, http.StatusForbidden, "read_only", "%v", err)
	case errors.Is(err, tools.ErrValidation),
		errors.Is(err, profiles.ErrValidation),
		errors.Is(err, heads.ErrHeadRange),
		errors.Is(err, heads.ErrPositionMismatch),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, attach.ErrBadFileType):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
