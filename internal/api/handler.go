// Package api exposes the localhost HTTP surface: profile and tool CRUD,
// head assignments, attachments, export, search, backups, and settings.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalmbach/toolrack/internal/attach"
	"github.com/kalmbach/toolrack/internal/backup"
	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/heads"
	"github.com/kalmbach/toolrack/internal/profiles"
	"github.com/kalmbach/toolrack/internal/search"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/tools"
)

const maxRequestBodySize = 1 << 20   // 1MB
const maxUploadBodySize = 25 << 20   // 25MB, drawings can be large scans

type AppDeps struct {
	Store    *storage.Store
	Profiles *profiles.Service
	Tools    *tools.Service
	Heads    *heads.Service
	Attach   *attach.Store
	Export   *export.Service
	Search   *search.Service
	Backup   *backup.Service
	Settings *settings.Manager
	Token    string
	Version  string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/profiles", handleListProfiles(deps))
		r.Post("/profiles", handleCreateProfile(deps))
		r.Get("/profiles/{id}", handleGetProfile(deps))
		r.Patch("/profiles/{id}", handlePatchProfile(deps))
		r.Delete("/profiles/{id}", handleDeleteProfile(deps))
		r.Get("/profiles/{id}/stats", handleProfileStats(deps))
		r.Get("/profiles/{id}/tools", handleListProfileTools(deps))
		r.Get("/profiles/{id}/export", handleExportProfile(deps))

		r.Get("/profiles/{id}/heads", handleListAssignments(deps))
		r.Put("/profiles/{id}/heads/{head}", handleAssignHead(deps))
		r.Delete("/profiles/{id}/heads/{head}", handleClearHead(deps))

		r.Get("/profiles/{id}/variants", handleListVariants(deps))
		r.Post("/profiles/{id}/variants", handleAddVariant(deps))
		r.Put("/profiles/{id}/variants/{variant}/default", handleSetDefaultVariant(deps))
		r.Delete("/variants/{id}", handleDeleteVariant(deps))

		r.Post("/profiles/{id}/drawing", handleUploadDrawing(deps))
		r.Delete("/profiles/{id}/drawing", handleDetachDrawing(deps))

		r.Get("/materials", handleListMaterials(deps))
		r.Post("/materials", handleAddMaterial(deps))

		r.Post("/import", handleImportProfile(deps))

		r.Get("/tools", handleSearchTools(deps))
		r.Post("/tools", handleCreateTool(deps))
		r.Get("/tools/code/{code}", handleGetToolByCode(deps))
		r.Get("/tools/{id}", handleGetTool(deps))
		r.Patch("/tools/{id}", handlePatchTool(deps))
		r.Delete("/tools/{id}", handleDeleteTool(deps))
		r.Put("/tools/{id}/status", handleSetToolStatus(deps))
		r.Post("/tools/{id}/photo", handleUploadPhoto(deps))

		r.Get("/attachments/{id}", handleDownloadAttachment(deps))

		r.Get("/search/drawings", handleSearchDrawings(deps))

		r.Get("/backups", handleListBackups(deps))
		r.Post("/backups", handleCreateBackup(deps))

		r.Get("/settings", handleGetSettings(deps))
		r.Put("/settings", handlePutSetting(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Store.CountProfiles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "database unavailable: %v", err)
			return
		}
		writeJSON(w, map[string]any{
			"status":   "ok",
			"version":  deps.Version,
			"profiles": n,
		})
	}
}
