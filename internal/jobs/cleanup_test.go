package jobs

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/repository"
)

type mockCaptureRepo struct {
	deleteExpiredCount atomic.Int64
	calls              atomic.Int64
	lastCutoff         atomic.Value
}

func (m *mockCaptureRepo) SaveMedia(ctx context.Context, sessionID, prefix, originalName string, src io.Reader) (string, int64, error) {
	return "", 0, nil
}

func (m *mockCaptureRepo) SaveText(ctx context.Context, sessionID, text string) (string, error) {
	return "", nil
}

func (m *mockCaptureRepo) WriteCaptureMetadata(ctx context.Context, sessionID, captureID string, payload map[string]any) error {
	return nil
}

func (m *mockCaptureRepo) ListFiles(ctx context.Context, sessionID string) ([]repository.SessionFile, error) {
	return nil, nil
}

func (m *mockCaptureRepo) MediaPath(ctx context.Context, sessionID, filename string) (string, error) {
	return "", nil
}

func (m *mockCaptureRepo) FindCaptureFile(ctx context.Context, captureID, mediaType string) (string, error) {
	return "", nil
}

func (m *mockCaptureRepo) DeleteSession(ctx context.Context, sessionID string) error {
	return nil
}

func (m *mockCaptureRepo) LoadPlacedObjects(ctx context.Context, sessionID string) ([]model.PlacedObject, error) {
	return nil, nil
}

func (m *mockCaptureRepo) AppendPlacedObject(ctx context.Context, sessionID string, obj model.PlacedObject) (int, error) {
	return 0, nil
}

func (m *mockCaptureRepo) ClearPlacedObjects(ctx context.Context, sessionID string) error {
	return nil
}

func (m *mockCaptureRepo) ScanTextObjects(ctx context.Context, sessionID string) ([]map[string]any, error) {
	return nil, nil
}

func (m *mockCaptureRepo) Stats(ctx context.Context) (repository.StorageStats, error) {
	return repository.StorageStats{}, nil
}

func (m *mockCaptureRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.calls.Add(1)
	m.lastCutoff.Store(cutoff)
	return m.deleteExpiredCount.Load(), nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("runs immediately on start", func(t *testing.T) {
		repo := &mockCaptureRepo{}
		repo.deleteExpiredCount.Store(3)

		job := NewCleanupJob(repo, 7*24*time.Hour, time.Hour)
		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			return repo.calls.Load() >= 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("cutoff reflects the retention window", func(t *testing.T) {
		repo := &mockCaptureRepo{}
		retention := 48 * time.Hour

		job := NewCleanupJob(repo, retention, time.Hour)
		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			return repo.calls.Load() >= 1
		}, time.Second, 10*time.Millisecond)

		cutoff, _ := repo.lastCutoff.Load().(time.Time)
		expected := time.Now().Add(-retention)
		assert.WithinDuration(t, expected, cutoff, 5*time.Second)
	})

	t.Run("ticks on the interval", func(t *testing.T) {
		repo := &mockCaptureRepo{}

		job := NewCleanupJob(repo, time.Hour, 20*time.Millisecond)
		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			return repo.calls.Load() >= 3
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("stop halts the loop", func(t *testing.T) {
		repo := &mockCaptureRepo{}

		job := NewCleanupJob(repo, time.Hour, 20*time.Millisecond)
		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()

		after := repo.calls.Load()
		time.Sleep(100 * time.Millisecond)
		assert.LessOrEqual(t, repo.calls.Load(), after+1)
	})
}
