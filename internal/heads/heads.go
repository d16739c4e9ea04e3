// Package heads manages tool assignments on the machine's 10 fixed heads.
//
// Each head cuts from one fixed position; the mapping mirrors the physical
// layout of the machine line and never changes at runtime.
package heads

import (
	"errors"
	"fmt"

	"github.com/kalmbach/toolrack/internal/audit"
	"github.com/kalmbach/toolrack/internal/storage"
)

// HeadCount is the number of mounting positions on the machine.
const HeadCount = 10

// ErrHeadRange is returned when a head number falls outside [1, HeadCount].
var ErrHeadRange = errors.New("head number out of range")

// ErrPositionMismatch is returned when a tool's cutting position does not
// match the position the head cuts from.
var ErrPositionMismatch = errors.New("tool position does not match head")

// positionByHead maps each head to the position it cuts from.
var positionByHead = map[int]string{
	1: "Bottom", 2: "Top", 3: "Right", 4: "Left",
	5: "Right", 6: "Left", 7: "Top", 8: "Bottom",
	9: "Top", 10: "Bottom",
}

// nameByHead maps each head to its operator-facing label (spindle group
// plus position).
var nameByHead = map[int]string{
	1: "1 Bottom", 2: "1 Top", 3: "1 Right", 4: "1 Left",
	5: "2 Right", 6: "2 Left", 7: "2 Top", 8: "2 Bottom",
	9: "3 Top", 10: "3 Bottom",
}

// RequiredPosition returns the cutting position for a head, or an error
// when the head number is out of range.
func RequiredPosition(head int) (string, error) {
	pos, ok := positionByHead[head]
	if !ok {
		return "", fmt.Errorf("head %d: %w", head, ErrHeadRange)
	}
	return pos, nil
}

// Name returns the operator-facing label of a head ("2 Right").
func Name(head int) string {
	if n, ok := nameByHead[head]; ok {
		return n
	}
	return fmt.Sprintf("Head %d", head)
}

// Guard blocks mutations in read-only mode. Implemented by
// settings.Manager.
type Guard interface {
	Guard() error
}

// Service assigns tools to heads within a profile.
type Service struct {
	store *storage.Store
	guard Guard
	audit *audit.Log
}

// NewService creates a head assignment service. audit may be nil.
func NewService(store *storage.Store, guard Guard, auditLog *audit.Log) *Service {
	return &Service{store: store, guard: guard, audit: auditLog}
}

// Params carries the per-head machining parameters of an assignment.
type Params struct {
	RPM          int
	PassDepth    float64
	WorkMaterial string
	Remarks      string
}

// Assign mounts a tool on a head, replacing any previous assignment on
// that slot. The tool must belong to the profile and its position must
// match the head's cutting position.
func (s *Service) Assign(profileID int64, head int, toolID int64, p Params) (storage.Assignment, error) {
	if err := s.guard.Guard(); err != nil {
		return storage.Assignment{}, err
	}
	required, err := RequiredPosition(head)
	if err != nil {
		return storage.Assignment{}, err
	}

	if _, err := s.store.GetProfile(profileID); err != nil {
		return storage.Assignment{}, fmt.Errorf("profile %d: %w", profileID, err)
	}
	tool, err := s.store.GetTool(toolID)
	if err != nil {
		return storage.Assignment{}, fmt.Errorf("tool %d: %w", toolID, err)
	}
	if tool.ProfileID != profileID {
		return storage.Assignment{}, fmt.Errorf("tool %s belongs to profile %d, not %d", tool.Code, tool.ProfileID, profileID)
	}
	if tool.Position != required {
		return storage.Assignment{}, fmt.Errorf("head %s needs a %s tool, %s cuts %s: %w",
			Name(head), required, tool.Code, tool.Position, ErrPositionMismatch)
	}

	a := storage.Assignment{
		ProfileID:    profileID,
		ToolID:       toolID,
		HeadNumber:   head,
		RPM:          p.RPM,
		PassDepth:    p.PassDepth,
		WorkMaterial: p.WorkMaterial,
		Remarks:      p.Remarks,
	}
	id, err := s.store.AssignToolToHead(a)
	if err != nil {
		return storage.Assignment{}, fmt.Errorf("assigning tool %s to head %d: %w", tool.Code, head, err)
	}
	a.ID = id
	a.ToolCode = tool.Code

	s.audit.Record("setup_edit", "profile %d: head %s <- tool %s (rpm=%d depth=%.1f material=%q)",
		profileID, Name(head), tool.Code, p.RPM, p.PassDepth, p.WorkMaterial)
	return a, nil
}

// Clear removes the assignment on a head slot.
func (s *Service) Clear(profileID int64, head int) error {
	if err := s.guard.Guard(); err != nil {
		return err
	}
	if _, err := RequiredPosition(head); err != nil {
		return err
	}
	if err := s.store.ClearHeadAssignment(profileID, head); err != nil {
		return fmt.Errorf("clearing head %d of profile %d: %w", head, profileID, err)
	}
	s.audit.Record("setup_edit", "profile %d: head %s cleared", profileID, Name(head))
	return nil
}

// List returns the assignments of a profile keyed by head number.
func (s *Service) List(profileID int64) (map[int]storage.Assignment, error) {
	if _, err := s.store.GetProfile(profileID); err != nil {
		return nil, fmt.Errorf("profile %d: %w", profileID, err)
	}
	rows, err := s.store.ListAssignments(profileID)
	if err != nil {
		return nil, err
	}
	result := make(map[int]storage.Assignment, len(rows))
	for _, a := range rows {
		result[a.HeadNumber] = a
	}
	return result, nil
}
