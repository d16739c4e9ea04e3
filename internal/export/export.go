// Package export serializes a profile's full state (tools, head
// assignments, size variants) to external formats, and imports JSON
// bundles back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kalmbach/toolrack/internal/storage"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
	FormatText = "text"
)

// ErrUnsupportedFormat is returned for formats outside json, csv, yaml,
// and text.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Bundle is the complete exportable state of one profile.
type Bundle struct {
	ExportedAt  time.Time                `json:"exported_at" yaml:"exported_at"`
	Profile     storage.Profile          `json:"profile" yaml:"profile"`
	Material    *storage.MaterialSize    `json:"material,omitempty" yaml:"material,omitempty"`
	Tools       []storage.Tool           `json:"tools" yaml:"tools"`
	Assignments []storage.Assignment     `json:"assignments" yaml:"assignments"`
	Variants    []storage.ProductVariant `json:"variants" yaml:"variants"`
}

// Service builds and serializes profile bundles.
type Service struct {
	store *storage.Store
}

// NewService creates an export service.
func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Collect gathers the full bundle for one profile.
func (s *Service) Collect(profileID int64) (Bundle, error) {
	p, err := s.store.GetProfile(profileID)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{ExportedAt: time.Now().UTC(), Profile: p}
	if p.MaterialID != 0 {
		m, err := s.store.GetMaterialSize(p.MaterialID)
		if err == nil {
			b.Material = &m
		} else if !errors.Is(err, storage.ErrNotFound) {
			return Bundle{}, err
		}
	}
	if b.Tools, err = s.store.ListToolsByProfile(profileID); err != nil {
		return Bundle{}, err
	}
	if b.Assignments, err = s.store.ListAssignments(profileID); err != nil {
		return Bundle{}, err
	}
	if b.Variants, err = s.store.ListProductVariants(profileID); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Export writes a profile bundle to w in the requested format.
func (s *Service) Export(profileID int64, format string, w io.Writer) error {
	b, err := s.Collect(profileID)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(b)
	case FormatCSV:
		return writeCSV(w, b)
	case FormatText:
		return writeSetupSheet(w, b)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// Extension returns the conventional file extension for a format.
func Extension(format string) (string, error) {
	switch format {
	case FormatJSON:
		return ".json", nil
	case FormatYAML:
		return ".yaml", nil
	case FormatCSV:
		return ".csv", nil
	case FormatText:
		return ".txt", nil
	default:
		return "", fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

func writeCSV(w io.Writer, b Bundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"code", "position", "tool_type", "set_number", "knives", "status", "head", "rpm", "notes",
	}); err != nil {
		return err
	}

	headByTool := make(map[int64]storage.Assignment)
	for _, a := range b.Assignments {
		headByTool[a.ToolID] = a
	}
	for _, t := range b.Tools {
		head, rpm := "", ""
		if a, ok := headByTool[t.ID]; ok {
			head = strconv.Itoa(a.HeadNumber)
			if a.RPM != 0 {
				rpm = strconv.Itoa(a.RPM)
			}
		}
		if err := cw.Write([]string{
			t.Code, t.Position, t.Type, strconv.Itoa(t.SetNumber),
			strconv.Itoa(t.KnivesCount), t.Status, head, rpm, t.Notes,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
