// Package tools implements the tool lifecycle: creation with generated
// codes, edits, condition tracking, and removal.
package tools

import (
	"errors"
	"fmt"

	"github.com/kalmbach/toolrack/internal/audit"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/toolcode"
)

// ErrValidation wraps input validation failures.
var ErrValidation = errors.New("invalid input")

// ErrToolAssigned is returned when deleting a tool that is still mounted
// on a head.
var ErrToolAssigned = errors.New("tool is assigned to a head")

// FileStore removes stored attachment files when their owning records go
// away. Satisfied by attach.Store.
type FileStore interface {
	Remove(id string) error
}

// Service manages tools.
type Service struct {
	store    *storage.Store
	settings *settings.Manager
	audit    *audit.Log
	files    FileStore
}

// NewService creates a tool service. auditLog and files may be nil.
func NewService(store *storage.Store, mgr *settings.Manager, auditLog *audit.Log, files FileStore) *Service {
	return &Service{store: store, settings: mgr, audit: auditLog, files: files}
}

// CreateRequest carries the fields for a new tool. Zero-valued SetNumber
// and KnivesCount fall back to the machine defaults.
type CreateRequest struct {
	ProfileID   int64
	Position    string
	Type        string
	SetNumber   int
	KnivesCount int
	Notes       string
}

// Create validates the request, generates a unique code, and stores the
// tool with status ready.
func (s *Service) Create(req CreateRequest) (storage.Tool, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.Tool{}, err
	}

	defaults, err := s.settings.Get()
	if err != nil {
		return storage.Tool{}, fmt.Errorf("loading defaults: %w", err)
	}
	if req.SetNumber == 0 {
		req.SetNumber = defaults.DefaultSetNumber
	}
	if req.KnivesCount == 0 {
		req.KnivesCount = defaults.DefaultKnivesCount
	}

	if !toolcode.ValidPosition(req.Position) {
		return storage.Tool{}, fmt.Errorf("position %q: %w", req.Position, ErrValidation)
	}
	if !toolcode.ValidType(req.Type) {
		return storage.Tool{}, fmt.Errorf("tool type %q: %w", req.Type, ErrValidation)
	}
	if req.KnivesCount < 1 {
		return storage.Tool{}, fmt.Errorf("knives count %d: %w", req.KnivesCount, ErrValidation)
	}
	if _, err := s.store.GetProfile(req.ProfileID); err != nil {
		return storage.Tool{}, fmt.Errorf("profile %d: %w", req.ProfileID, err)
	}

	code, err := toolcode.Generate(req.ProfileID, req.Position, req.Type, req.SetNumber)
	if err != nil {
		return storage.Tool{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.store.GetToolByCode(code); err == nil {
		return storage.Tool{}, fmt.Errorf("tool code %s: %w", code, storage.ErrDuplicate)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.Tool{}, fmt.Errorf("checking code %s: %w", code, err)
	}

	t := storage.Tool{
		ProfileID:   req.ProfileID,
		Position:    req.Position,
		Type:        req.Type,
		SetNumber:   req.SetNumber,
		Code:        code,
		KnivesCount: req.KnivesCount,
		Status:      StatusReady,
		Notes:       req.Notes,
	}

	// New set members inherit the photo of the first tool in the set.
	if siblings, err := s.store.ListToolsInSet(toolcode.SetPrefix(code)); err == nil && len(siblings) > 0 {
		t.PhotoID = siblings[0].PhotoID
	}

	id, err := s.store.CreateTool(t)
	if err != nil {
		return storage.Tool{}, err
	}
	t.ID = id

	s.audit.Record("tool_edit", "tool %s created (profile %d, %s %s, set %d)",
		t.Code, t.ProfileID, t.Position, t.Type, t.SetNumber)
	return t, nil
}

// Get fetches a tool by ID.
func (s *Service) Get(id int64) (storage.Tool, error) {
	return s.store.GetTool(id)
}

// GetByCode fetches a tool by its 6-digit code.
func (s *Service) GetByCode(code string) (storage.Tool, error) {
	if !toolcode.Valid(code) {
		return storage.Tool{}, fmt.Errorf("tool code %q: %w", code, ErrValidation)
	}
	return s.store.GetToolByCode(code)
}

// ListByProfile returns all tools linked to a profile.
func (s *Service) ListByProfile(profileID int64) ([]storage.Tool, error) {
	if _, err := s.store.GetProfile(profileID); err != nil {
		return nil, fmt.Errorf("profile %d: %w", profileID, err)
	}
	return s.store.ListToolsByProfile(profileID)
}

// ListSet returns the tools sharing the set of the given code.
func (s *Service) ListSet(code string) ([]storage.Tool, error) {
	if !toolcode.Valid(code) {
		return nil, fmt.Errorf("tool code %q: %w", code, ErrValidation)
	}
	return s.store.ListToolsInSet(toolcode.SetPrefix(code))
}

// UpdateRequest carries tool edits. Nil fields are left unchanged.
type UpdateRequest struct {
	Position    *string
	Type        *string
	SetNumber   *int
	KnivesCount *int
	Notes       *string
}

// Update applies edits to a tool. When position, type, or set number
// change, the code is regenerated; the new code must be unused.
func (s *Service) Update(id int64, req UpdateRequest) (storage.Tool, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.Tool{}, err
	}

	t, err := s.store.GetTool(id)
	if err != nil {
		return storage.Tool{}, err
	}

	codeChanged := false
	if req.Position != nil && *req.Position != t.Position {
		if !toolcode.ValidPosition(*req.Position) {
			return storage.Tool{}, fmt.Errorf("position %q: %w", *req.Position, ErrValidation)
		}
		t.Position = *req.Position
		codeChanged = true
	}
	if req.Type != nil && *req.Type != t.Type {
		if !toolcode.ValidType(*req.Type) {
			return storage.Tool{}, fmt.Errorf("tool type %q: %w", *req.Type, ErrValidation)
		}
		t.Type = *req.Type
		codeChanged = true
	}
	if req.SetNumber != nil && *req.SetNumber != t.SetNumber {
		t.SetNumber = *req.SetNumber
		codeChanged = true
	}
	if req.KnivesCount != nil {
		if *req.KnivesCount < 1 {
			return storage.Tool{}, fmt.Errorf("knives count %d: %w", *req.KnivesCount, ErrValidation)
		}
		t.KnivesCount = *req.KnivesCount
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}

	if codeChanged {
		code, err := toolcode.Generate(t.ProfileID, t.Position, t.Type, t.SetNumber)
		if err != nil {
			return storage.Tool{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if existing, err := s.store.GetToolByCode(code); err == nil && existing.ID != id {
			return storage.Tool{}, fmt.Errorf("tool code %s: %w", code, storage.ErrDuplicate)
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return storage.Tool{}, fmt.Errorf("checking code %s: %w", code, err)
		}
		t.Code = code
	}

	if err := s.store.UpdateTool(t); err != nil {
		return storage.Tool{}, err
	}
	s.audit.Record("tool_edit", "tool %s updated", t.Code)
	return t, nil
}

// Delete removes a tool. A tool still mounted on a head must be cleared
// from its setup first.
func (s *Service) Delete(id int64) error {
	if err := s.settings.Guard(); err != nil {
		return err
	}
	t, err := s.store.GetTool(id)
	if err != nil {
		return err
	}
	assigned, err := s.store.IsToolAssigned(id)
	if err != nil {
		return fmt.Errorf("checking assignments of tool %s: %w", t.Code, err)
	}
	if assigned {
		return fmt.Errorf("tool %s: %w", t.Code, ErrToolAssigned)
	}
	if err := s.store.DeleteTool(id); err != nil {
		return err
	}
	if t.PhotoID != "" {
		s.removeOrphanedPhoto(t.PhotoID)
	}
	s.audit.Record("tool_edit", "tool %s deleted", t.Code)
	return nil
}

// A photo can be shared across a tool set; only remove it once nothing
// references it anymore.
func (s *Service) removeOrphanedPhoto(id string) {
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
