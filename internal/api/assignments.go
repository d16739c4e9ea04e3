package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalmbach/toolrack/internal/heads"
)

func headParam(r *http.Request) (int, bool) {
	head, err := strconv.Atoi(chi.URLParam(r, "head"))
	return head, err == nil
}

func handleListAssignments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		byHead, err := deps.Heads.List(id)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, byHead)
	}
}

func handleAssignHead(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		head, ok := headParam(r)
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid head")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			ToolID       int64   `json:"tool_id"`
			RPM          int     `json:"rpm"`
			PassDepth    float64 `json:"pass_depth"`
			WorkMaterial string  `json:"work_material"`
			Remarks      string  `json:"remarks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		a, err := deps.Heads.Assign(id, head, req.ToolID, heads.Params{
			RPM:          req.RPM,
			PassDepth:    req.PassDepth,
			WorkMaterial: req.WorkMaterial,
			Remarks:      req.Remarks,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

func handleClearHead(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		head, ok := headParam(r)
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid head")
			return
		}
		if err := deps.Heads.Clear(id, head); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "cleared"})
	}
}
