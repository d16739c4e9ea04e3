// Package profiles manages moulder profiles: the named processing
// configurations that tools, head assignments, material sizes, and
// product variants hang off.
package profiles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kalmbach/toolrack/internal/audit"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
)

// ErrValidation wraps input validation failures.
var ErrValidation = errors.New("invalid input")

// FileStore removes stored attachment files when their owning records go
// away. Satisfied by attach.Store.
type FileStore interface {
	Remove(id string) error
}

// Service manages profiles and their size catalogs.
type Service struct {
	store    *storage.Store
	settings *settings.Manager
	audit    *audit.Log
	files    FileStore
}

// NewService creates a profile service. auditLog and files may be nil.
func NewService(store *storage.Store, mgr *settings.Manager, auditLog *audit.Log, files FileStore) *Service {
	return &Service{store: store, settings: mgr, audit: auditLog, files: files}
}

// CreateRequest carries the fields for a new profile. A zero FeedRate
// falls back to the machine default.
type CreateRequest struct {
	Name        string
	Description string
	FeedRate    float64
	MaterialID  int64
}

// Create validates and stores a new profile.
func (s *Service) Create(req CreateRequest) (storage.Profile, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.Profile{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return storage.Profile{}, fmt.Errorf("profile name: %w", ErrValidation)
	}
	if req.FeedRate < 0 {
		return storage.Profile{}, fmt.Errorf("feed rate %.2f: %w", req.FeedRate, ErrValidation)
	}
	if req.FeedRate == 0 {
		defaults, err := s.settings.Get()
		if err != nil {
			return storage.Profile{}, fmt.Errorf("loading defaults: %w", err)
		}
		req.FeedRate = defaults.DefaultFeedRate
	}
	if req.MaterialID != 0 {
		if _, err := s.store.GetMaterialSize(req.MaterialID); err != nil {
			return storage.Profile{}, fmt.Errorf("material %d: %w", req.MaterialID, err)
		}
	}

	p := storage.Profile{
		Name:        req.Name,
		Description: req.Description,
		FeedRate:    req.FeedRate,
		MaterialID:  req.MaterialID,
	}
	id, err := s.store.CreateProfile(p)
	if err != nil {
		return storage.Profile{}, err
	}
	p.ID = id

	s.audit.Record("profile_edit", "profile %q created (id %d)", p.Name, p.ID)
	return s.store.GetProfile(id)
}

// Get fetches a profile by ID.
func (s *Service) Get(id int64) (storage.Profile, error) {
	return s.store.GetProfile(id)
}

// GetByName fetches a profile by its exact name.
func (s *Service) GetByName(name string) (storage.Profile, error) {
	return s.store.GetProfileByName(name)
}

// List returns all profiles ordered by name.
func (s *Service) List() ([]storage.Profile, error) {
	return s.store.ListProfiles()
}

// UpdateRequest carries profile edits. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	FeedRate    *float64
	MaterialID  *int64
}

// Update applies edits to a profile.
func (s *Service) Update(id int64, req UpdateRequest) (storage.Profile, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.Profile{}, err
	}

	p, err := s.store.GetProfile(id)
	if err != nil {
		return storage.Profile{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return storage.Profile{}, fmt.Errorf("profile name: %w", ErrValidation)
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.FeedRate != nil {
		if *req.FeedRate <= 0 {
			return storage.Profile{}, fmt.Errorf("feed rate %.2f: %w", *req.FeedRate, ErrValidation)
		}
		p.FeedRate = *req.FeedRate
	}
	if req.MaterialID != nil {
		if *req.MaterialID != 0 {
			if _, err := s.store.GetMaterialSize(*req.MaterialID); err != nil {
				return storage.Profile{}, fmt.Errorf("material %d: %w", *req.MaterialID, err)
			}
		}
		p.MaterialID = *req.MaterialID
	}

	if err := s.store.UpdateProfile(p); err != nil {
		return storage.Profile{}, err
	}
	s.audit.Record("profile_edit", "profile %q updated (id %d)", p.Name, p.ID)
	return s.store.GetProfile(id)
}

// Delete removes a profile together with its tools, assignments, and
// variants. Attachment files of the profile and its tools are removed
// from disk best-effort after the database rows go away.
func (s *Service) Delete(id int64) error {
	if err := s.settings.Guard(); err != nil {
		return err
	}

	p, err := s.store.GetProfile(id)
	if err != nil {
		return err
	}

	var orphaned []string
	if p.DrawingID != "" {
		orphaned = append(orphaned, p.DrawingID)
	}
	tools, err := s.store.ListToolsByProfile(id)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, t := range tools {
		if t.PhotoID != "" && !seen[t.PhotoID] {
			seen[t.PhotoID] = true
			orphaned = append(orphaned, t.PhotoID)
		}
	}

	if err := s.store.DeleteProfile(id); err != nil {
		return err
	}
	for _, attID := range orphaned {
		s.removeAttachment(attID)
	}

	s.audit.Record("profile_edit", "profile %q deleted (id %d, %d tools)", p.Name, p.ID, len(tools))
	return nil
}

// A photo can be shared across a tool set; only remove it once nothing
// references it anymore.
func (s *Service) removeAttachment(id string) {
	if still, err := s.store.AttachmentInUse(id); err != nil || still {
		return
	}
	if err := s.store.DeleteAttachment(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return
	}
	if s.files != nil {
		_ = s.files.Remove(id)
	}
}

// Stats summarizes the tool inventory of one profile.
type Stats struct {
	Profile     storage.Profile `json:"profile"`
	ToolCount   int             `json:"tool_count"`
	TotalKnives int             `json:"total_knives"`
	ByStatus    map[string]int  `json:"by_status"`
	ByPosition  map[string]int  `json:"by_position"`
	ByType      map[string]int  `json:"by_type"`
}

// Statistics computes inventory counts for a profile.
func (s *Service) Statistics(id int64) (Stats, error) {
	p, err := s.store.GetProfile(id)
	if err != nil {
		return Stats{}, err
	}
	tools, err := s.store.ListToolsByProfile(id)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Profile:    p,
		ToolCount:  len(tools),
		ByStatus:   make(map[string]int),
		ByPosition: make(map[string]int),
		ByType:     make(map[string]int),
	}
	for _, t := range tools {
		st.TotalKnives += t.KnivesCount
		st.ByStatus[t.Status]++
		st.ByPosition[t.Position]++
		st.ByType[t.Type]++
	}
	return st, nil
}

// AddMaterial registers a stock size in the shared catalog. Sizes are
// deduplicated on (width, thickness); adding an existing pair returns
// the existing entry.
func (s *Service) AddMaterial(m storage.MaterialSize) (storage.MaterialSize, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.MaterialSize{}, err
	}
	if m.Width <= 0 || m.Thickness <= 0 {
		return storage.MaterialSize{}, fmt.Errorf("material size %.1fx%.1f: %w", m.Width, m.Thickness, ErrValidation)
	}
	id, err := s.store.AddMaterialSize(m)
	if err != nil {
		return storage.MaterialSize{}, err
	}
	return s.store.GetMaterialSize(id)
}

// ListMaterials returns the shared material size catalog.
func (s *Service) ListMaterials() ([]storage.MaterialSize, error) {
	return s.store.ListMaterialSizes()
}

// AddVariant appends a product size variant to a profile. A zero
// tolerance falls back to the machine default.
func (s *Service) AddVariant(v storage.ProductVariant) (storage.ProductVariant, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.ProductVariant{}, err
	}
	if _, err := s.store.GetProfile(v.ProfileID); err != nil {
		return storage.ProductVariant{}, fmt.Errorf("profile %d: %w", v.ProfileID, err)
	}
	if v.Width <= 0 || v.Thickness <= 0 {
		return storage.ProductVariant{}, fmt.Errorf("variant size %.1fx%.1f: %w", v.Width, v.Thickness, ErrValidation)
	}
	if v.Tolerance == 0 {
		defaults, err := s.settings.Get()
		if err != nil {
			return storage.ProductVariant{}, fmt.Errorf("loading defaults: %w", err)
		}
		v.Tolerance = defaults.DefaultTolerance
	}

	existing, err := s.store.ListProductVariants(v.ProfileID)
	if err != nil {
		return storage.ProductVariant{}, err
	}
	if len(existing) == 0 {
		v.IsDefault = true
	}
	if v.SortOrder == 0 {
		v.SortOrder = len(existing) + 1
	}

	id, err := s.store.AddProductVariant(v)
	if err != nil {
		return storage.ProductVariant{}, err
	}
	v.ID = id
	s.audit.Record("profile_edit", "variant %.1fx%.1f added to profile %d", v.Width, v.Thickness, v.ProfileID)
	return v, nil
}

// ListVariants returns a profile's product size variants in sort order.
func (s *Service) ListVariants(profileID int64) ([]storage.ProductVariant, error) {
	if _, err := s.store.GetProfile(profileID); err != nil {
		return nil, fmt.Errorf("profile %d: %w", profileID, err)
	}
	return s.store.ListProductVariants(profileID)
}

// SetDefaultVariant marks one variant as the profile's default size.
func (s *Service) SetDefaultVariant(profileID, variantID int64) error {
	if err := s.settings.Guard(); err != nil {
		return err
	}
	variants, err := s.store.ListProductVariants(profileID)
	if err != nil {
		return err
	}
	var found bool
	for _, v := range variants {
		v.IsDefault = v.ID == variantID
		if v.IsDefault {
			found = true
		}
		if err := s.store.UpdateProductVariant(v); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("variant %d: %w", variantID, storage.ErrNotFound)
	}
	return nil
}

// DeleteVariant removes a product size variant.
func (s *Service) DeleteVariant(id int64) error {
	if err := s.settings.Guard(); err != nil {
		return err
	}
	return s.store.DeleteProductVariant(id)
}
