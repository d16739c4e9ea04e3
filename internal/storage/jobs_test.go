package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobClaimComplete(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.EnqueueJob(Job{ID: id, Type: "drawing_index", PayloadJSON: `{"attachment_id":"abc"}`}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	job, err := s.ClaimNextJob([]string{"drawing_index"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil {
		t.Fatal("ClaimNextJob returned nil for a pending job")
	}
	if job.ID != id || job.Status != "running" {
		t.Errorf("claimed job = %+v", job)
	}

	// Claimed job must not be handed out twice.
	again, err := s.ClaimNextJob([]string{"drawing_index"})
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if again != nil {
		t.Errorf("running job re-claimed: %+v", again)
	}

	if err := s.CompleteJob(id); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
}

func TestJobTypeFilter(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(Job{ID: uuid.NewString(), Type: "other"}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	job, err := s.ClaimNextJob([]string{"drawing_index"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job != nil {
		t.Errorf("claimed job of wrong type: %+v", job)
	}
}

func TestJobRunAfterDefersClaim(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(Job{
		ID:       uuid.NewString(),
		Type:     "drawing_index",
		RunAfter: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	job, err := s.ClaimNextJob([]string{"drawing_index"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job != nil {
		t.Errorf("future job claimed early: %+v", job)
	}
}

func TestFailJobRetriesThenFails(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.EnqueueJob(Job{ID: id, Type: "drawing_index", MaxAttempts: 2}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	if _, err := s.ClaimNextJob([]string{"drawing_index"}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := s.FailJob(id, "parse error"); err != nil {
		t.Fatalf("first FailJob: %v", err)
	}
	var status string
	if err := s.DB().QueryRow(`SELECT status FROM jobs WHERE id = ?`, id).Scan(&status); err != nil {
		t.Fatalf("status query: %v", err)
	}
	if status != "pending" {
		t.Errorf("status after first failure = %q, want pending (retry)", status)
	}

	if err := s.FailJob(id, "parse error"); err != nil {
		t.Fatalf("second FailJob: %v", err)
	}
	if err := s.DB().QueryRow(`SELECT status, last_error FROM jobs WHERE id = ?`, id).Scan(&status, new(string)); err != nil {
		t.Fatalf("status query: %v", err)
	}
	if status != "failed" {
		t.Errorf("status after exhausting attempts = %q, want failed", status)
	}
}

func TestListToolsPageKeyset(t *testing.T) {
	s := openTestStore(t)

	profileID := seedProfile(t, s, "P1")
	codes := []string{"110011", "110012", "210011", "300021", "410051"}
	for _, c := range codes {
		seedTool(t, s, profileID, c)
	}

	var got []string
	after := ""
	for {
		page, err := s.ListToolsPage(ToolFilter{ProfileID: profileID}, after, 2)
		if err != nil {
			t.Fatalf("ListToolsPage(after=%q): %v", after, err)
		}
		if len(page) == 0 {
			break
		}
		for _, tool := range page {
			got = append(got, tool.Code)
		}
		after = page[len(page)-1].Code
	}

	if len(got) != len(codes) {
		t.Fatalf("walked %d tools, want %d: %v", len(got), len(codes), got)
	}
	for i, c := range codes {
		if got[i] != c {
			t.Errorf("position %d: got %s, want %s", i, got[i], c)
		}
	}
}

func TestListToolsPageFilters(t *testing.T) {
	s := openTestStore(t)

	profileID := seedProfile(t, s, "P1")
	seedTool(t, s, profileID, "110011")
	wornID := seedTool(t, s, profileID, "110012")
	if err := s.SetToolStatus(wornID, "worn"); err != nil {
		t.Fatalf("SetToolStatus: %v", err)
	}

	page, err := s.ListToolsPage(ToolFilter{Status: "worn"}, "", 10)
	if err != nil {
		t.Fatalf("ListToolsPage: %v", err)
	}
	if len(page) != 1 || page[0].ID != wornID {
		t.Errorf("worn filter returned %+v", page)
	}

	page, err = s.ListToolsPage(ToolFilter{CodePrefix: "11001"}, "", 10)
	if err != nil {
		t.Fatalf("ListToolsPage prefix: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("prefix filter returned %d tools, want 2", len(page))
	}
}
