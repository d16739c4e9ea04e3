package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalmbach/toolrack/internal/attach"
	"github.com/kalmbach/toolrack/internal/storage"
)

type fakeJobStore struct {
	queue       []*storage.Job
	attachments map[string]storage.Attachment
	completed   []string
	failed      map[string]string
	texts       map[string]string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		attachments: make(map[string]storage.Attachment),
		failed:      make(map[string]string),
		texts:       make(map[string]string),
	}
}

func (f *fakeJobStore) ClaimNextJob(types []string) (*storage.Job, error) {
	if len(f.queue) == 0 {
		return nil, nil
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, nil
}

func (f *fakeJobStore) CompleteJob(id string) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeJobStore) FailJob(id, errMsg string) error {
	f.failed[id] = errMsg
	return nil
}

func (f *fakeJobStore) GetAttachment(id string) (storage.Attachment, error) {
	a, ok := f.attachments[id]
	if !ok {
		return storage.Attachment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeJobStore) UpdateAttachmentText(id, text string) error {
	f.texts[id] = text
	return nil
}

type fakeFiles struct{ dir string }

func (f fakeFiles) Path(a storage.Attachment) string { return f.dir + "/" + a.ID + ".pdf" }

func TestRunOnceEmptyQueue(t *testing.T) {
	w := NewWorker(newFakeJobStore(), fakeFiles{}, 0)

	done, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRunOnceBadPayloadFailsJob(t *testing.T) {
	store := newFakeJobStore()
	store.queue = append(store.queue, &storage.Job{
		ID: "j1", Type: attach.JobTypeIndexDrawing, PayloadJSON: "not json",
	})
	w := NewWorker(store, fakeFiles{}, 0)

	done, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, store.failed, "j1")
	assert.Empty(t, store.completed)
}

func TestRunOnceMissingAttachmentFailsJob(t *testing.T) {
	store := newFakeJobStore()
	store.queue = append(store.queue, &storage.Job{
		ID: "j1", Type: attach.JobTypeIndexDrawing,
		PayloadJSON: `{"attachment_id":"gone"}`,
	})
	w := NewWorker(store, fakeFiles{}, 0)

	done, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, store.failed["j1"], "gone")
}

func TestRunOnceUnreadableFileFailsJob(t *testing.T) {
	store := newFakeJobStore()
	store.attachments["a1"] = storage.Attachment{ID: "a1", Kind: "drawing", Filename: "d.pdf"}
	store.queue = append(store.queue, &storage.Job{
		ID: "j1", Type: attach.JobTypeIndexDrawing,
		PayloadJSON: `{"attachment_id":"a1"}`,
	})
	w := NewWorker(store, fakeFiles{dir: t.TempDir()}, 0)

	done, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, store.failed, "j1")
	assert.Empty(t, store.texts)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorker(newFakeJobStore(), fakeFiles{}, 0)
	w.Run(ctx) // returns immediately on a cancelled context
}

type errorStore struct{ fakeJobStore }

func (errorStore) ClaimNextJob(types []string) (*storage.Job, error) {
	return nil, errors.New("database locked")
}

func TestRunOnceClaimError(t *testing.T) {
	w := NewWorker(&errorStore{*newFakeJobStore()}, fakeFiles{}, 0)

	done, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, done)
}
