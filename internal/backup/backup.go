// Package backup creates, lists, and restores zip archives of the data
// directory (database plus attachment files), with retention cleanup and
// optional cron scheduling.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup types, encoded in the archive file name.
const (
	TypeManual     = "manual"
	TypeAuto       = "auto"
	TypePreRestore = "pre_restore"
)

const (
	prefix  = "toolrack_backup_"
	stampFm = "20060102_150405"
)

// ErrBadArchive is returned when a restore target is not a recognizable
// backup archive.
var ErrBadArchive = errors.New("not a toolrack backup archive")

// Checkpointer flushes pending database writes to the main file before a
// copy. Implemented by storage.Store.
type Checkpointer interface {
	Checkpoint() error
}

// Info describes one backup archive on disk.
type Info struct {
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages backup archives in <dataDir>/backups.
type Service struct {
	dataDir string
	dir     string
	db      Checkpointer
	logger  *slog.Logger
}

// NewService creates a backup service and its backups directory.
func NewService(dataDir string, db Checkpointer) (*Service, error) {
	dir := filepath.Join(dataDir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	return &Service{dataDir: dataDir, dir: dir, db: db, logger: slog.Default()}, nil
}

// Dir returns the backups directory.
func (s *Service) Dir() string { return s.dir }

// Create writes a new backup archive of the database and the img
// directory and returns its description.
func (s *Service) Create(backupType string) (Info, error) {
	switch backupType {
	case TypeManual, TypeAuto, TypePreRestore:
	default:
		return Info{}, fmt.Errorf("backup type %q", backupType)
	}

	if s.db != nil {
		if err := s.db.Checkpoint(); err != nil {
			return Info{}, fmt.Errorf("checkpointing database: %w", err)
		}
	}

	now := time.Now()
	name := fmt.Sprintf("%s%s_%s.zip", prefix, now.Format(stampFm), backupType)
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return Info{}, err
	}
	zw := zip.NewWriter(f)

	err = s.addTree(zw)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("writing backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Info{}, err
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	s.logger.Info("backup created", "path", path, "type", backupType, "bytes", st.Size())
	return Info{Path: path, Type: backupType, Size: st.Size(), CreatedAt: now}, nil
}

// addTree archives the database file and the img directory.
func (s *Service) addTree(zw *zip.Writer) error {
	dbPath := filepath.Join(s.dataDir, "toolrack.db")
	if _, err := os.Stat(dbPath); err == nil {
		if err := s.addFile(zw, dbPath, "toolrack.db"); err != nil {
			return err
		}
	}

	imgDir := filepath.Join(s.dataDir, "img")
	return filepath.WalkDir(imgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			return err
		}
		return s.addFile(zw, path, filepath.ToSlash(rel))
	})
}

func (s *Service) addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// List returns the backups on disk, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []Info
	for _, e := range entries {
		info, ok := parseName(e.Name())
		if !ok {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		info.Path = filepath.Join(s.dir, e.Name())
		info.Size = st.Size()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// parseName decodes toolrack_backup_YYYYMMDD_HHMMSS_<type>.zip.
func parseName(name string) (Info, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".zip") {
		return Info{}, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".zip")
	// Stamp is two underscore-joined fields, the remainder is the type.
	parts := strings.SplitN(rest, "_", 3)
	if len(parts) != 3 {
		return Info{}, false
	}
	createdAt, err := time.ParseInLocation(stampFm, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return Info{}, false
	}
	return Info{Type: parts[2], CreatedAt: createdAt}, true
}

// Restore replaces the data directory contents with the archive's. A
// pre_restore backup of the current state is taken first. The database
// must be reopened afterwards; restore is meant to run while the server
// is stopped.
func (s *Service) Restore(archivePath string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer zr.Close()

	hasDB := false
	for _, f := range zr.File {
		if f.Name == "toolrack.db" {
			hasDB = true
			break
		}
	}
	if !hasDB {
		return fmt.Errorf("%s: %w", archivePath, ErrBadArchive)
	}

	if _, err := s.Create(TypePreRestore); err != nil {
		return fmt.Errorf("safety backup before restore: %w", err)
	}

	// Drop current state the archive will replace.
	for _, name := range []string{"toolrack.db", "toolrack.db-wal", "toolrack.db-shm"} {
		if err := os.Remove(filepath.Join(s.dataDir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.RemoveAll(filepath.Join(s.dataDir, "img")); err != nil {
		return err
	}

	for _, f := range zr.File {
		if err := s.extract(f); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	s.logger.Info("backup restored", "archive", archivePath)
	return nil
}

func (s *Service) extract(f *zip.File) error {
	rel := filepath.FromSlash(f.Name)
	if strings.Contains(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("unsafe path in archive: %w", ErrBadArchive)
	}
	dst := filepath.Join(s.dataDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// Prune removes old auto backups beyond keep, newest retained. Manual
// and pre_restore archives are never pruned. Returns the removed paths.
func (s *Service) Prune(keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	backups, err := s.List()
	if err != nil {
		return nil, err
	}

	var auto []Info
	for _, b := range backups {
		if b.Type == TypeAuto {
			auto = append(auto, b)
		}
	}
	if len(auto) <= keep {
		return nil, nil
	}

	var removed []string
	for _, b := range auto[keep:] {
		if err := os.Remove(b.Path); err != nil {
			return removed, err
		}
		removed = append(removed, b.Path)
	}
	if len(removed) > 0 {
		s.logger.Info("old backups pruned", "count", len(removed))
	}
	return removed, nil
}

// CleanupTemp removes leftover .tmp files from interrupted backups.
func (s *Service) CleanupTemp() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.tmp"))
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
