package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalmbach/toolrack/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store), store
}

func seedTools(t *testing.T, store *storage.Store, n int) int64 {
	t.Helper()
	profileID, err := store.CreateProfile(storage.Profile{Name: "P", FeedRate: 2.5})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		pos := []string{"Bottom", "Top", "Right", "Left"}[i%4]
		_, err := store.CreateTool(storage.Tool{
			ProfileID: profileID, Position: pos, Type: "Profile",
			SetNumber: 1, Code: fmt.Sprintf("%06d", 110000+i), KnivesCount: 6, Status: "ready",
		})
		require.NoError(t, err)
	}
	return profileID
}

func TestToolsWalksAllPages(t *testing.T) {
	svc, store := newTestService(t)
	// More than one page.
	seedTools(t, store, pageSize+20)

	tools, err := svc.CollectTools(storage.ToolFilter{})
	require.NoError(t, err)
	assert.Len(t, tools, pageSize+20)

	// Stable (code, id) order.
	for i := 1; i < len(tools); i++ {
		assert.LessOrEqual(t, tools[i-1].Code, tools[i].Code)
	}
}

func TestToolsRestartable(t *testing.T) {
	svc, store := newTestService(t)
	seedTools(t, store, 12)

	seq := svc.Tools(storage.ToolFilter{})

	var first []string
	for tool, err := range seq {
		require.NoError(t, err)
		first = append(first, tool.Code)
	}
	var second []string
	for tool, err := range seq {
		require.NoError(t, err)
		second = append(second, tool.Code)
	}
	assert.Equal(t, first, second, "two ranges over one sequence walk identically")
}

func TestToolsEarlyBreak(t *testing.T) {
	svc, store := newTestService(t)
	seedTools(t, store, 12)

	var got int
	for _, err := range svc.Tools(storage.ToolFilter{}) {
		require.NoError(t, err)
		got++
		if got == 3 {
			break
		}
	}
	assert.Equal(t, 3, got)
}

func TestToolsFilter(t *testing.T) {
	svc, store := newTestService(t)
	profileID := seedTools(t, store, 8)
	wornID, err := store.CreateTool(storage.Tool{
		ProfileID: profileID, Position: "Bottom", Type: "Straight",
		SetNumber: 9, Code: "100019", KnivesCount: 4, Status: "worn",
		Notes: "chipped edge",
	})
	require.NoError(t, err)

	tools, err := svc.CollectTools(storage.ToolFilter{Status: "worn"})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, wornID, tools[0].ID)

	tools, err = svc.CollectTools(storage.ToolFilter{Notes: "CHIPPED"})
	require.NoError(t, err)
	require.Len(t, tools, 1, "notes match is case-insensitive")

	tools, err = svc.CollectTools(storage.ToolFilter{Position: "Bottom", Type: "Profile"})
	require.NoError(t, err)
	assert.Len(t, tools, 2)
}

func TestProfiles(t *testing.T) {
	svc, store := newTestService(t)
	for _, name := range []string{"Skirting 90x18", "Flooring 120x20", "Skirting 140x18"} {
		_, err := store.CreateProfile(storage.Profile{Name: name, FeedRate: 2.5})
		require.NoError(t, err)
	}

	all, err := svc.Profiles("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	hits, err := svc.Profiles("skirting")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, p := range hits {
		assert.Contains(t, p.Name, "Skirting")
	}
}

func TestDrawings(t *testing.T) {
	svc, store := newTestService(t)

	profileID, err := store.CreateProfile(storage.Profile{Name: "Cladding", FeedRate: 2.5})
	require.NoError(t, err)
	require.NoError(t, store.SaveAttachment(storage.Attachment{ID: "drw-1", Kind: "drawing", Filename: "c.pdf"}))
	require.NoError(t, store.UpdateAttachmentText("drw-1", "rebate 12mm chamfer 45 deg"))
	p, err := store.GetProfile(profileID)
	require.NoError(t, err)
	p.DrawingID = "drw-1"
	require.NoError(t, store.UpdateProfile(p))

	hits, err := svc.Drawings("chamfer")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Cladding", hits[0].Name)

	hits, err = svc.Drawings("dovetail")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
