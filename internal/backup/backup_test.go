package backup

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dataDir := t.TempDir()
	svc, err := NewService(dataDir, nil)
	require.NoError(t, err)
	return svc, dataDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// touchArchive drops a minimal valid backup zip under the given name.
func touchArchive(t *testing.T, svc *Service, name string) {
	t.Helper()
	f, err := os.Create(filepath.Join(svc.Dir(), name))
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("toolrack.db")
	require.NoError(t, err)
	_, err = w.Write([]byte("db"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestParseName(t *testing.T) {
	info, ok := parseName("toolrack_backup_20260830_120000_manual.zip")
	require.True(t, ok)
	assert.Equal(t, TypeManual, info.Type)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local), info.CreatedAt)

	info, ok = parseName("toolrack_backup_20260830_120000_pre_restore.zip")
	require.True(t, ok)
	assert.Equal(t, TypePreRestore, info.Type)

	for _, bad := range []string{
		"backup.zip",
		"toolrack_backup_garbage.zip",
		"toolrack_backup_20260830_120000_manual.tar",
		"toolrack_backup_2026_1200_manual.zip",
	} {
		if _, ok := parseName(bad); ok {
			t.Errorf("parseName(%q) accepted", bad)
		}
	}
}

func TestCreateAndList(t *testing.T) {
	svc, dataDir := newTestService(t)
	writeFile(t, filepath.Join(dataDir, "toolrack.db"), "database bytes")
	writeFile(t, filepath.Join(dataDir, "img", "abc.pdf"), "drawing bytes")

	info, err := svc.Create(TypeManual)
	require.NoError(t, err)
	assert.Equal(t, TypeManual, info.Type)
	assert.Greater(t, info.Size, int64(0))

	zr, err := zip.OpenReader(info.Path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"toolrack.db", "img/abc.pdf"}, names)

	backups, err := svc.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Path, backups[0].Path)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create("hourly")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	touchArchive(t, svc, "toolrack_backup_20260828_020000_auto.zip")
	touchArchive(t, svc, "toolrack_backup_20260830_020000_auto.zip")
	touchArchive(t, svc, "toolrack_backup_20260829_020000_manual.zip")

	backups, err := svc.List()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, time.Date(2026, 8, 30, 2, 0, 0, 0, time.Local), backups[0].CreatedAt)
	assert.Equal(t, time.Date(2026, 8, 28, 2, 0, 0, 0, time.Local), backups[2].CreatedAt)
}

func TestPruneKeepsManualAndRecent(t *testing.T) {
	svc, _ := newTestService(t)
	touchArchive(t, svc, "toolrack_backup_20260825_020000_auto.zip")
	touchArchive(t, svc, "toolrack_backup_20260826_020000_auto.zip")
	touchArchive(t, svc, "toolrack_backup_20260827_020000_auto.zip")
	touchArchive(t, svc, "toolrack_backup_20260820_020000_manual.zip")
	touchArchive(t, svc, "toolrack_backup_20260821_020000_pre_restore.zip")

	removed, err := svc.Prune(2)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Contains(t, removed[0], "20260825")

	backups, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, backups, 4, "manual and pre_restore survive pruning")

	// Nothing left to prune.
	removed, err = svc.Prune(2)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRestoreRoundTrip(t *testing.T) {
	svc, dataDir := newTestService(t)
	writeFile(t, filepath.Join(dataDir, "toolrack.db"), "original db")
	writeFile(t, filepath.Join(dataDir, "img", "keep.pdf"), "original drawing")

	info, err := svc.Create(TypeManual)
	require.NoError(t, err)

	// Mutate state after the backup.
	writeFile(t, filepath.Join(dataDir, "toolrack.db"), "changed db")
	writeFile(t, filepath.Join(dataDir, "img", "extra.jpg"), "stray photo")

	require.NoError(t, svc.Restore(info.Path))

	db, err := os.ReadFile(filepath.Join(dataDir, "toolrack.db"))
	require.NoError(t, err)
	assert.Equal(t, "original db", string(db))
	_, err = os.Stat(filepath.Join(dataDir, "img", "keep.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "img", "extra.jpg"))
	assert.True(t, os.IsNotExist(err), "files not in the archive are gone")

	// A safety backup of the pre-restore state exists.
	backups, err := svc.List()
	require.NoError(t, err)
	var preRestore int
	for _, b := range backups {
		if b.Type == TypePreRestore {
			preRestore++
		}
	}
	assert.Equal(t, 1, preRestore)
}

func TestRestoreRejectsBadArchive(t *testing.T) {
	svc, dataDir := newTestService(t)

	// A zip without the database file is not a backup.
	path := filepath.Join(dataDir, "notbackup.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	assert.ErrorIs(t, svc.Restore(path), ErrBadArchive)
}

func TestCleanupTemp(t *testing.T) {
	svc, _ := newTestService(t)
	writeFile(t, filepath.Join(svc.Dir(), "toolrack_backup_20260830_020000_auto.zip.tmp"), "partial")
	touchArchive(t, svc, "toolrack_backup_20260830_020000_auto.zip")

	require.NoError(t, svc.CleanupTemp())

	matches, err := filepath.Glob(filepath.Join(svc.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	backups, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, backups, 1, "finished archives stay")
}
