package tools

import (
	"errors"
	"fmt"

	"github.com/kalmbach/toolrack/internal/storage"
)

// Tool condition states.
const (
	StatusReady     = "ready"
	StatusInService = "in_service"
	StatusWorn      = "worn"
)

// ErrBadTransition is returned for a disallowed status change.
var ErrBadTransition = errors.New("illegal status transition")

// legalTransitions encodes the tool lifecycle. A worn tool must be
// serviced (worn -> ready) before it can run again; every other move
// between states is allowed, including ready -> worn for wear found at
// inspection.
var legalTransitions = map[string][]string{
	StatusReady:     {StatusInService, StatusWorn},
	StatusInService: {StatusReady, StatusWorn},
	StatusWorn:      {StatusReady},
}

// ValidStatus reports whether s names a tool status.
func ValidStatus(s string) bool {
	_, ok := legalTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal status change.
// A same-status transition is always allowed (no-op).
func CanTransition(from, to string) bool {
	if from == to {
		return ValidStatus(from)
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus changes a tool's condition, enforcing the lifecycle rules.
func (s *Service) SetStatus(id int64, status string) (storage.Tool, error) {
	if err := s.settings.Guard(); err != nil {
		return storage.Tool{}, err
	}
	if !ValidStatus(status) {
		return storage.Tool{}, fmt.Errorf("status %q: %w", status, ErrValidation)
	}

	t, err := s.store.GetTool(id)
	if err != nil {
		return storage.Tool{}, err
	}
	if t.Status == status {
		return t, nil
	}
	if !CanTransition(t.Status, status) {
		return storage.Tool{}, fmt.Errorf("%s -> %s for tool %s: %w", t.Status, status, t.Code, ErrBadTransition)
	}

	if err := s.store.SetToolStatus(id, status); err != nil {
		return storage.Tool{}, err
	}
	t.Status = status
	s.audit.Record("tool_edit", "tool %s status %s", t.Code, status)
	return t, nil
}
