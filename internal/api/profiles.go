package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/profiles"
	"github.com/kalmbach/toolrack/internal/storage"
)

func idParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func handleListProfiles(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Search.Profiles(r.URL.Query().Get("q"))
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

func handleCreateProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			FeedRate    float64 `json:"feed_rate"`
			MaterialID  int64   `json:"material_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		p, err := deps.Profiles.Create(profiles.CreateRequest{
			Name:        req.Name,
			Description: req.Description,
			FeedRate:    req.FeedRate,
			MaterialID:  req.MaterialID,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, p)
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		p, err := deps.Profiles.Get(id)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Name        *string  `json:"name"`
			Description *string  `json:"description"`
			FeedRate    *float64 `json:"feed_rate"`
			MaterialID  *int64   `json:"material_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		p, err := deps.Profiles.Update(id, profiles.UpdateRequest{
			Name:        req.Name,
			Description: req.Description,
			FeedRate:    req.FeedRate,
			MaterialID:  req.MaterialID,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func handleDeleteProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Profiles.Delete(id); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleProfileStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		st, err := deps.Profiles.Statistics(id)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, st)
	}
}

func handleListProfileTools(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		list, err := deps.Tools.ListByProfile(id)
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

func handleExportProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		format := r.URL.Query().Get("format")
		if format == "" {
			format = export.FormatJSON
		}
		switch format {
		case export.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		case export.FormatYAML:
			w.Header().Set("Content-Type", "application/yaml")
		case export.FormatCSV:
			w.Header().Set("Content-Type", "text/csv")
		case export.FormatText:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		if err := deps.Export.Export(id, format, w); err != nil {
			domainError(w, err)
			return
		}
	}
}

func handleImportProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Settings.Guard(); err != nil {
			domainError(w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
		p, err := deps.Export.Import(r.Body)
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, p)
	}
}

func handleListMaterials(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Profiles.ListMaterials()
		if err != nil {
			domainError(w, err)
			return
		}
		if list == nil {
			list = []storage.MaterialSize{}
		}
		writeJSON(w, list)
	}
}

func handleAddMaterial(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var m storage.MaterialSize
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		out, err := deps.Profiles.AddMaterial(m)
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, out)
	}
}

func handleListVariants(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		list, err := deps.Profiles.ListVariants(id)
		if err != nil {
			domainError(w, err)
			return
		}
		if list == nil {
			list = []storage.ProductVariant{}
		}
		writeJSON(w, list)
	}
}

func handleAddVariant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var v storage.ProductVariant
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		v.ProfileID = id
		out, err := deps.Profiles.AddVariant(v)
		if err != nil {
			domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, out)
	}
}

func handleSetDefaultVariant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		variantID, err := idParam(r, "variant")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Profiles.SetDefaultVariant(id, variantID); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleDeleteVariant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Profiles.DeleteVariant(id); err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}
