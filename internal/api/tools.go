package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/tools"
)

func handleCreateTool(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			ProfileID   int64  `json:"profile_id"`
			Position    string `json:"position"`
			Type        string `json:"tool_type"`
			SetNumber   int    `json:"set_number"`
			KnivesCount int    `json:"knives_count"`
			Notes       string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		t, err := deps.Tools.Create(tools.CreateRequest{
			ProfileID:   req.ProfileID,
			Position:    req.Position,
			Type:        req.Type,
			SetNumber:   req.SetNumber,
			KnivesCount: req.KnivesCount,
			Notes:       req.Notes,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, t)
	}
}

func handleGetTool(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		t, err := deps.Tools.Get(id)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, t)
	}
}

func handleGetToolByCode(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := deps.Tools.GetByCode(chi.URLParam(r, "code"))
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, t)
	}
}

func handlePatchTool(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Position    *string `json:"position"`
			Type        *string `json:"tool_type"`
			SetNumber   *int    `json:"set_number"`
			KnivesCount *int    `json:"knives_count"`
			Notes       *string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		t, err := deps.Tools.Update(id, tools.UpdateRequest{
			Position:    req.Position,
			Type:        req.Type,
			SetNumber:   req.SetNumber,
			KnivesCount: req.KnivesCount,
			Notes:       req.Notes,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, t)
	}
}

func handleDeleteTool(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Tools.Delete(id); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleSetToolStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		t, err := deps.Tools.SetStatus(id, req.Status)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, t)
	}
}

func handleSearchTools(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := storage.ToolFilter{
			Status:     q.Get("status"),
			Position:   q.Get("position"),
			Type:       q.Get("type"),
			CodePrefix: q.Get("code"),
			Notes:      q.Get("notes"),
		}
		if s := q.Get("profile_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid profile_id")
				return
			}
			f.ProfileID = id
		}
		if s := q.Get("head"); s != "" {
			head, err := strconv.Atoi(s)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid head")
				return
			}
			f.HeadNumber = head
		}
		list, err := deps.Search.CollectTools(f)
		if err != nil {
			domainError(w, err)
			return
		}
		if list == nil {
			list = []storage.Tool{}
		}
		writeJSON(w, list)
	}
}

func handleSearchDrawings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q is required")
			return
		}
		list, err := deps.Search.Drawings(q)
		if err != nil {
			domainError(w, err)
			return
		}
		if list == nil {
			list = []storage.Profile{}
		}
		writeJSON(w, list)
	}
}
