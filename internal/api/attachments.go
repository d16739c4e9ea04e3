package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// uploadRequest carries a file as base64 in JSON, matching the rest of
// the localhost API surface.
type uploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func decodeUpload(w http.ResponseWriter, r *http.Request) (uploadRequest, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return uploadRequest{}, nil, false
	}
	if req.Filename == "" || req.Content == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "filename and content are required")
		return uploadRequest{}, nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
		return uploadRequest{}, nil, false
	}
	return req, raw, true
}

func handleUploadDrawing(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		req, raw, ok := decodeUpload(w, r)
		if !ok {
			return
		}
		a, err := deps.Attach.SaveDrawing(id, req.Filename, bytes.NewReader(raw))
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, a)
	}
}

func handleDetachDrawing(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Attach.DetachDrawing(id); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "detached"})
	}
}

func handleUploadPhoto(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		req, raw, ok := decodeUpload(w, r)
		if !ok {
			return
		}
		a, err := deps.Attach.SavePhoto(id, req.Filename, bytes.NewReader(raw))
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, a)
	}
}

func handleDownloadAttachment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, rc, err := deps.Attach.Open(chi.URLParam(r, "id"))
		if err != nil {
			domainError(w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
		w.Header().Set("Content-Disposition", `attachment; filename="`+a.Filename+`"`)
		io.Copy(w, rc)
	}
}

func handleListBackups(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Backup.List()
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

func handleCreateBackup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := deps.Backup.Create("manual")
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, info)
	}
}

func handleGetSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Settings.Get()
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, s)
	}
}

func handlePutSetting(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		// Set is never guarded by the security mode; this endpoint is
		// how the operator leaves read-only mode.
		if err := deps.Settings.Set(req.Key, req.Value); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}
