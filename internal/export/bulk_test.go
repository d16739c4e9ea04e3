package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalmbach/toolrack/internal/storage"
)

func TestSanitize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Skirting 90x18", "Skirting_90x18"},
		{"flooring", "flooring"},
		{"a/b\\c:d", "abcd"},
		{"///", "profile"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitize(tc.in), "sanitize(%q)", tc.in)
	}
}

func TestExportAll(t *testing.T) {
	svc, store := newTestService(t)
	seedBundle(t, store)
	_, err := store.CreateProfile(storage.Profile{Name: "Flooring 120x20", FeedRate: 3.0})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := svc.ExportAll(context.Background(), dir, FormatJSON)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		assert.Equal(t, ".json", filepath.Ext(p))
	}
}

func TestExportAllBadFormat(t *testing.T) {
	svc, store := newTestService(t)
	seedBundle(t, store)

	_, err := svc.ExportAll(context.Background(), t.TempDir(), "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
