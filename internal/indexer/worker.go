// Package indexer processes queued drawing_index jobs: it extracts the
// text layer of attached PDF drawings so profiles become searchable by
// drawing content.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalmbach/toolrack/internal/attach"
	"github.com/kalmbach/toolrack/internal/storage"
)

// JobStore abstracts the job queue and attachment operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetAttachment(id string) (storage.Attachment, error)
	UpdateAttachmentText(id, text string) error
}

// Files resolves an attachment to its on-disk path. Implemented by
// attach.Store.
type Files interface {
	Path(a storage.Attachment) string
}

// Worker processes drawing_index jobs from the SQLite job queue.
type Worker struct {
	store  JobStore
	files  Files
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 1s.
func NewWorker(store JobStore, files Files, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		store:  store,
		files:  files,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("indexer iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single drawing_index job. Returns true
// if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{attach.JobTypeIndexDrawing})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(job); err != nil {
		w.logger.Warn("indexing failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(job *storage.Job) error {
	var payload attach.IndexPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	a, err := w.store.GetAttachment(payload.AttachmentID)
	if err != nil {
		return fmt.Errorf("loading attachment %s: %w", payload.AttachmentID, err)
	}

	text, err := attach.ExtractText(w.files.Path(a))
	if err != nil {
		return err
	}

	if err := w.store.UpdateAttachmentText(a.ID, text); err != nil {
		return fmt.Errorf("storing text for %s: %w", a.ID, err)
	}
	w.logger.Info("drawing indexed", "attachment_id", a.ID, "chars", len(text))
	return nil
}
