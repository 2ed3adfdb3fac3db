package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/registry"
	"github.com/aiframe/capture-server-go/internal/repository"
)

func newCaptureFixture(t *testing.T) (*CaptureService, *repository.FileStore, *registry.MemoryRegistry) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	reg := registry.NewMemoryRegistry()
	svc := NewCaptureService(repository.NewCaptureRepository(store), reg, NewForwardService(nil))
	return svc, store, reg
}

func TestCaptureService_Intake(t *testing.T) {
	ctx := context.Background()

	t.Run("stores all parts and writes metadata", func(t *testing.T) {
		svc, store, _ := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{
			Source:    "quest",
			Device:    "quest-3",
			SessionID: "sess-1",
			Text:      "note from the field",
			Video:     &MediaPart{Filename: "clip.mp4", Data: strings.NewReader("mp4")},
			Image:     &MediaPart{Filename: "frame.png", Data: strings.NewReader("png")},
		})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.NotEmpty(t, result.CaptureID)
		assert.Equal(t, "sess-1", result.SessionID)
		assert.Contains(t, result.Results, "video")
		assert.Contains(t, result.Results, "image")
		assert.Contains(t, result.Results, "text")
		assert.NotContains(t, result.Results, "audio")

		assert.FileExists(t, filepath.Join(store.SessionDir("sess-1"), "metadata_"+result.CaptureID+".json"))
	})

	t.Run("synthesizes a session id when absent", func(t *testing.T) {
		svc, _, reg := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{
			Source: "glasses",
			Device: "glasses-1",
			Text:   "hi",
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(result.SessionID, "glasses_"))

		entry, err := reg.Get(ctx, result.SessionID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "glasses-1", entry.DeviceID)
	})

	t.Run("records the capture in the registry", func(t *testing.T) {
		svc, _, reg := newCaptureFixture(t)
		require.NoError(t, reg.Put(ctx, "sess-1", "dev"))

		result, err := svc.Intake(ctx, IntakeInput{
			Source:    "quest",
			SessionID: "sess-1",
			Text:      "hi",
		})
		require.NoError(t, err)

		entry, err := reg.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Contains(t, entry.Captures, result.CaptureID)
	})

	t.Run("response object summarizes stored parts", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{
			Source:    "quest",
			SessionID: "sess-1",
			Text:      "hi",
			Audio:     &MediaPart{Filename: "rec.webm", Data: strings.NewReader("audio")},
		})
		require.NoError(t, err)

		require.Len(t, result.Objects, 1)
		obj := result.Objects[0]
		assert.Equal(t, "response_"+result.CaptureID, obj.ID)
		assert.Equal(t, "text", obj.Type)
		assert.Contains(t, obj.Content, "audio, text")
		assert.Equal(t, 1.5, obj.Position["y"])
	})

	t.Run("empty capture returns no response objects", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{Source: "quest", SessionID: "sess-1"})
		require.NoError(t, err)
		assert.Empty(t, result.Objects)
		assert.Empty(t, result.Results)
	})

	t.Run("free-form metadata merges into the summary", func(t *testing.T) {
		svc, store, _ := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{
			Source:    "quest",
			SessionID: "sess-1",
			Text:      "hi",
			Metadata:  `{"location": "lab"}`,
		})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(store.SessionDir("sess-1"), "metadata_"+result.CaptureID+".json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"location"`)
		assert.Contains(t, string(data), `"lab"`)
	})

	t.Run("malformed metadata is dropped", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		result, err := svc.Intake(ctx, IntakeInput{
			Source:    "quest",
			SessionID: "sess-1",
			Text:      "hi",
			Metadata:  "{broken",
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}

func TestCaptureService_Sessions(t *testing.T) {
	ctx := context.Background()

	t.Run("create, list and get details", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		sessionID, err := svc.CreateSession(ctx, "quest-3")
		require.NoError(t, err)
		assert.NotEmpty(t, sessionID)

		sessions, err := svc.ListSessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, sessionID, sessions[0].SessionID)

		details, err := svc.SessionDetails(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "quest-3", details.DeviceID)
		assert.NotNil(t, details.MediaFiles)
		assert.Empty(t, details.MediaFiles)
	})

	t.Run("details of unknown session returns NotFound", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		_, err := svc.SessionDetails(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("delete drops registry entry and directory", func(t *testing.T) {
		svc, store, reg := newCaptureFixture(t)

		sessionID, err := svc.CreateSession(ctx, "dev")
		require.NoError(t, err)
		_, err = svc.Intake(ctx, IntakeInput{Source: "quest", SessionID: sessionID, Text: "hi"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteSession(ctx, sessionID))

		entry, err := reg.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, entry)
		assert.NoDirExists(t, store.SessionDir(sessionID))
	})

	t.Run("delete of unknown session still succeeds", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		assert.NoError(t, svc.DeleteSession(ctx, "missing"))
	})
}

func TestCaptureService_RecentCaptures(t *testing.T) {
	ctx := context.Background()

	t.Run("unfiltered tail", func(t *testing.T) {
		svc, _, reg := newCaptureFixture(t)
		for _, id := range []string{"cap-1", "cap-2", "cap-3"} {
			require.NoError(t, reg.AddCapture(ctx, "sess-1", id))
		}

		captures, err := svc.RecentCaptures(ctx, "", 2)
		require.NoError(t, err)
		require.Len(t, captures, 2)
		assert.Equal(t, "cap-2", captures[0].ID)
	})

	t.Run("filters by session ownership", func(t *testing.T) {
		svc, _, reg := newCaptureFixture(t)
		require.NoError(t, reg.Put(ctx, "sess-1", "dev"))
		require.NoError(t, reg.AddCapture(ctx, "sess-1", "cap-1"))
		require.NoError(t, reg.AddCapture(ctx, "other", "cap-2"))

		captures, err := svc.RecentCaptures(ctx, "sess-1", 10)
		require.NoError(t, err)
		require.Len(t, captures, 1)
		assert.Equal(t, "cap-1", captures[0].ID)
	})

	t.Run("unknown session returns the unfiltered tail", func(t *testing.T) {
		svc, _, reg := newCaptureFixture(t)
		require.NoError(t, reg.AddCapture(ctx, "sess-1", "cap-1"))

		captures, err := svc.RecentCaptures(ctx, "missing", 10)
		require.NoError(t, err)
		assert.Len(t, captures, 1)
	})
}

func TestCaptureService_PlacedObjects(t *testing.T) {
	ctx := context.Background()

	t.Run("SavePlaced applies defaults", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		saved, total, err := svc.SavePlaced(ctx, "sess-1", model.PlacedObject{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, "cube", saved.Type)
		assert.Equal(t, []float64{0, 0, 0}, saved.Position)
		assert.Equal(t, "sess-1", saved.SessionID)
		assert.False(t, saved.Timestamp.IsZero())
	})

	t.Run("SavePlacement parses JSON form fields", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		saved, total, err := svc.SavePlacement(ctx, "sess-1", "sphere",
			`{"x": 1, "y": 2, "z": 3}`, `[0, 0, 0, 1]`, `{"color": "red"}`)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "sphere", saved.Type)

		pos, ok := saved.Position.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), pos["y"])
		assert.Equal(t, "red", saved.Metadata["color"])
	})

	t.Run("SavePlacement rejects malformed position", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		_, _, err := svc.SavePlacement(ctx, "sess-1", "cube", "{broken", "", "")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
	})

	t.Run("ClearPlaced empties the session", func(t *testing.T) {
		svc, _, _ := newCaptureFixture(t)

		_, _, err := svc.SavePlaced(ctx, "sess-1", model.PlacedObject{Type: "cube"})
		require.NoError(t, err)

		require.NoError(t, svc.ClearPlaced(ctx, "sess-1"))

		objects, err := svc.PlacedObjects(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, objects)
	})
}

func TestCaptureService_Counts(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newCaptureFixture(t)

	require.NoError(t, reg.Put(ctx, "sess-1", "dev"))
	require.NoError(t, reg.AddCapture(ctx, "sess-1", "cap-1"))

	sessions, err := svc.SessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)

	captures, err := svc.CaptureCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, captures)

	_, err = svc.Intake(ctx, IntakeInput{Source: "quest", SessionID: "sess-1", Text: "hi"})
	require.NoError(t, err)

	stats, err := svc.StorageStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.Files, 0)
}
