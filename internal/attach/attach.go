// Package attach stores profile drawings (PDF) and tool photos on disk
// under the data directory, keeping metadata rows in the database.
package attach

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalmbach/toolrack/internal/audit"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/toolcode"
)

// Attachment kinds.
const (
	KindDrawing = "drawing"
	KindPhoto   = "photo"
)

// JobTypeIndexDrawing is the queue job type for drawing text extraction.
const JobTypeIndexDrawing = "drawing_index"

// IndexPayload is the payload of a drawing_index job.
type IndexPayload struct {
	AttachmentID string `json:"attachment_id"`
}

// ErrBadFileType is returned when a file's extension is not accepted for
// the attachment kind.
var ErrBadFileType = errors.New("unsupported file type")

var photoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
}

// Guard blocks mutations in read-only mode. Implemented by
// settings.Manager.
type Guard interface {
	Guard() error
}

// Store saves attachment files under <dataDir>/img.
type Store struct {
	dir   string
	db    *storage.Store
	guard Guard
	audit *audit.Log
}

// New creates the attachment store and its img directory. auditLog may
// be nil.
func New(dataDir string, db *storage.Store, guard Guard, auditLog *audit.Log) (*Store, error) {
	dir := filepath.Join(dataDir, "img")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	return &Store{dir: dir, db: db, guard: guard, audit: auditLog}, nil
}

// Dir returns the directory attachment files live in.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk path of an attachment file.
func (s *Store) Path(a storage.Attachment) string {
	return filepath.Join(s.dir, a.ID+strings.ToLower(filepath.Ext(a.Filename)))
}

// SaveDrawing stores a PDF drawing for a profile, replacing any previous
// drawing, and queues the file for text extraction.
func (s *Store) SaveDrawing(profileID int64, filename string, r io.Reader) (storage.Attachment, error) {
	if err := s.guard.Guard(); err != nil {
		return storage.Attachment{}, err
	}
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return storage.Attachment{}, fmt.Errorf("%s: %w", filename, ErrBadFileType)
	}

	p, err := s.db.GetProfile(profileID)
	if err != nil {
		return storage.Attachment{}, fmt.Errorf("profile %d: %w", profileID, err)
	}

	a, err := s.write(KindDrawing, filename, r)
	if err != nil {
		return storage.Attachment{}, err
	}

	old := p.DrawingID
	p.DrawingID = a.ID
	if err := s.db.UpdateProfile(p); err != nil {
		s.discard(a)
		return storage.Attachment{}, err
	}
	if old != "" {
		s.removeIfOrphaned(old)
	}

	payload, _ := json.Marshal(IndexPayload{AttachmentID: a.ID})
	if err := s.db.EnqueueJob(storage.Job{
		ID:          uuid.NewString(),
		Type:        JobTypeIndexDrawing,
		PayloadJSON: string(payload),
	}); err != nil {
		return storage.Attachment{}, fmt.Errorf("queueing index job: %w", err)
	}

	s.audit.Record("profile_edit", "drawing %s attached to profile %q", a.Filename, p.Name)
	return a, nil
}

// SavePhoto stores a photo for a tool. The photo propagates to every
// tool in the same set, since set members are physically identical.
func (s *Store) SavePhoto(toolID int64, filename string, r io.Reader) (storage.Attachment, error) {
	if err := s.guard.Guard(); err != nil {
		return storage.Attachment{}, err
	}
	if !photoExts[strings.ToLower(filepath.Ext(filename))] {
		return storage.Attachment{}, fmt.Errorf("%s: %w", filename, ErrBadFileType)
	}

	t, err := s.db.GetTool(toolID)
	if err != nil {
		return storage.Attachment{}, fmt.Errorf("tool %d: %w", toolID, err)
	}

	a, err := s.write(KindPhoto, filename, r)
	if err != nil {
		return storage.Attachment{}, err
	}

	set, err := s.db.ListToolsInSet(toolcode.SetPrefix(t.Code))
	if err != nil {
		s.discard(a)
		return storage.Attachment{}, err
	}
	var replaced []string
	for _, member := range set {
		if member.PhotoID != "" && member.PhotoID != a.ID {
			replaced = append(replaced, member.PhotoID)
		}
		member.PhotoID = a.ID
		if err := s.db.UpdateTool(member); err != nil {
			return storage.Attachment{}, err
		}
	}
	for _, old := range replaced {
		s.removeIfOrphaned(old)
	}

	s.audit.Record("tool_edit", "photo %s set for tool set %s (%d tools)",
		a.Filename, toolcode.SetPrefix(t.Code), len(set))
	return a, nil
}

// Open returns the attachment metadata and an open reader on its file.
// The caller closes the reader.
func (s *Store) Open(id string) (storage.Attachment, io.ReadCloser, error) {
	a, err := s.db.GetAttachment(id)
	if err != nil {
		return storage.Attachment{}, nil, err
	}
	f, err := os.Open(s.Path(a))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Attachment{}, nil, fmt.Errorf("attachment %s: %w", id, storage.ErrNotFound)
		}
		return storage.Attachment{}, nil, err
	}
	return a, f, nil
}

// DetachDrawing removes a profile's drawing reference and deletes the
// file when nothing else uses it.
func (s *Store) DetachDrawing(profileID int64) error {
	if err := s.guard.Guard(); err != nil {
		return err
	}
	p, err := s.db.GetProfile(profileID)
	if err != nil {
		return err
	}
	if p.DrawingID == "" {
		return nil
	}
	old := p.DrawingID
	p.DrawingID = ""
	if err := s.db.UpdateProfile(p); err != nil {
		return err
	}
	s.removeIfOrphaned(old)
	s.audit.Record("profile_edit", "drawing detached from profile %q", p.Name)
	return nil
}

// Remove deletes an attachment file from disk. The metadata row is the
// caller's responsibility.
func (s *Store) Remove(id string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *Store) write(kind, filename string, r io.Reader) (storage.Attachment, error) {
	a := storage.Attachment{
		ID:          uuid.NewString(),
		Kind:        kind,
		Filename:    filepath.Base(filename),
		ContentType: contentType(filename),
		CreatedAt:   time.Now().UTC(),
	}

	path := s.Path(a)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return storage.Attachment{}, fmt.Errorf("creating %s: %w", path, err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return storage.Attachment{}, fmt.Errorf("writing %s: %w", path, err)
	}
	a.Size = n
	a.SHA256 = hex.EncodeToString(h.Sum(nil))

	if err := s.db.SaveAttachment(a); err != nil {
		os.Remove(path)
		return storage.Attachment{}, err
	}
	return a, nil
}

func (s *Store) discard(a storage.Attachment) {
	_ = s.db.DeleteAttachment(a.ID)
	_ = os.Remove(s.Path(a))
}

func (s *Store) removeIfOrphaned(id string) {
	if inUse, err := s.db.AttachmentInUse(id); err != nil || inUse {
		return
	}
	_ = s.db.DeleteAttachment(id)
	_ = s.Remove(id)
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
