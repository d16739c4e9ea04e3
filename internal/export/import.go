package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/toolcode"
)

// Import reads a JSON bundle and recreates the profile with its tools,
// assignments, and variants. Tool codes are regenerated for the new
// profile ID, so a bundle can be re-imported next to its source profile
// after a rename; a clash with an existing profile name fails with
// ErrDuplicate.
func (s *Service) Import(r io.Reader) (storage.Profile, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return storage.Profile{}, fmt.Errorf("parsing bundle: %w", err)
	}
	if b.Profile.Name == "" {
		return storage.Profile{}, errors.New("bundle has no profile name")
	}

	p := b.Profile
	p.ID = 0
	p.DrawingID = "" // binary assets do not travel in bundles
	if b.Material != nil {
		m := *b.Material
		m.ID = 0
		id, err := s.store.AddMaterialSize(m)
		if err != nil {
			return storage.Profile{}, fmt.Errorf("importing material: %w", err)
		}
		p.MaterialID = id
	} else {
		p.MaterialID = 0
	}

	profileID, err := s.store.CreateProfile(p)
	if err != nil {
		return storage.Profile{}, fmt.Errorf("importing profile %q: %w", p.Name, err)
	}

	// Assignments reference tools by their bundle code, so the map keys
	// stay on the old codes while the stored tools get fresh ones.
	toolIDByCode := make(map[string]int64, len(b.Tools))
	for _, t := range b.Tools {
		oldCode := t.Code
		code, err := toolcode.Generate(profileID, t.Position, t.Type, t.SetNumber)
		if err != nil {
			return storage.Profile{}, fmt.Errorf("importing tool %s: %w", oldCode, err)
		}
		t.ID = 0
		t.ProfileID = profileID
		t.Code = code
		t.PhotoID = ""
		id, err := s.store.CreateTool(t)
		if err != nil {
			return storage.Profile{}, fmt.Errorf("importing tool %s: %w", code, err)
		}
		toolIDByCode[oldCode] = id
	}

	for _, a := range b.Assignments {
		toolID, ok := toolIDByCode[a.ToolCode]
		if !ok {
			return storage.Profile{}, fmt.Errorf("assignment on head %d references unknown tool %q", a.HeadNumber, a.ToolCode)
		}
		a.ID = 0
		a.ProfileID = profileID
		a.ToolID = toolID
		if _, err := s.store.AssignToolToHead(a); err != nil {
			return storage.Profile{}, fmt.Errorf("importing head %d assignment: %w", a.HeadNumber, err)
		}
	}

	for _, v := range b.Variants {
		v.ID = 0
		v.ProfileID = profileID
		if _, err := s.store.AddProductVariant(v); err != nil {
			return storage.Profile{}, fmt.Errorf("importing variant %.1fx%.1f: %w", v.Width, v.Thickness, err)
		}
	}

	return s.store.GetProfile(profileID)
}
