package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

func newObjectFixture(t *testing.T) (ObjectRepository, SessionRepository, string) {
	t.Helper()
	store := newTestStore(t)
	sessions := NewSessionRepository(store)
	objects := NewObjectRepository(store, sessions)

	session, err := sessions.Create(context.Background(), nil)
	require.NoError(t, err)
	return objects, sessions, session.ID
}

func TestObjectRepository_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("appends to manifest and writes standalone file", func(t *testing.T) {
		objects, sessions, sessionID := newObjectFixture(t)

		stored, err := objects.Add(ctx, sessionID, &model.ARObject{Type: "cube"})
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.Equal(t, 1.0, stored.Scale)

		listed, err := objects.ListBySession(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, stored.ID, listed[0].ID)

		assert.FileExists(t, filepath.Join(sessions.Dir(sessionID), "objects", stored.ID+".json"))
	})

	t.Run("bumps the manifest updated_at", func(t *testing.T) {
		objects, sessions, sessionID := newObjectFixture(t)

		before, err := sessions.Load(ctx, sessionID)
		require.NoError(t, err)

		_, err = objects.Add(ctx, sessionID, &model.ARObject{Type: "cube"})
		require.NoError(t, err)

		after, err := sessions.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt) || after.UpdatedAt.Equal(before.UpdatedAt))
		assert.Len(t, after.Objects, 1)
	})

	t.Run("unknown session returns NotFound", func(t *testing.T) {
		objects, _, _ := newObjectFixture(t)

		_, err := objects.Add(ctx, "missing", &model.ARObject{Type: "cube"})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("concurrent adds all land in the manifest", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		const n = 10
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := objects.Add(ctx, sessionID, &model.ARObject{Type: "cube"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		listed, err := objects.ListBySession(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, listed, n)
	})
}

func TestObjectRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the standalone file", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		stored, err := objects.Add(ctx, sessionID, &model.ARObject{Type: "sphere", Position: model.Position3D{X: 1, Y: 2, Z: 3}})
		require.NoError(t, err)

		got, err := objects.Get(ctx, sessionID, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "sphere", got.Type)
		assert.Equal(t, 2.0, got.Position.Y)
	})

	t.Run("unknown id returns NotFound", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		_, err := objects.Get(ctx, sessionID, "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})

	// List and Get read different sources; a standalone file with no manifest
	// entry is visible to Get but not to List. Known inconsistency, kept.
	t.Run("standalone file without manifest entry", func(t *testing.T) {
		objects, sessions, sessionID := newObjectFixture(t)

		obj := &model.ARObject{ID: "orphan", Type: "cube"}
		obj.ApplyDefaults()
		dir := filepath.Join(sessions.Dir(sessionID), "objects")
		data, err := json.Marshal(obj)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.json"), data, 0o644))

		got, err := objects.Get(ctx, sessionID, "orphan")
		require.NoError(t, err)
		assert.Equal(t, "orphan", got.ID)

		listed, err := objects.ListBySession(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}

func TestObjectRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces both representations", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		stored, err := objects.Add(ctx, sessionID, &model.ARObject{Type: "cube"})
		require.NoError(t, err)

		updated, err := objects.Update(ctx, sessionID, stored.ID, &model.ARObject{
			ID:    stored.ID,
			Type:  "cube",
			Color: "#0000FF",
		})
		require.NoError(t, err)
		assert.Equal(t, "#0000FF", updated.Color)

		got, err := objects.Get(ctx, sessionID, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "#0000FF", got.Color)

		listed, err := objects.ListBySession(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "#0000FF", listed[0].Color)
	})

	t.Run("unknown id returns NotFound", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		_, err := objects.Update(ctx, sessionID, "missing", &model.ARObject{Type: "cube"})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestObjectRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from manifest and standalone file", func(t *testing.T) {
		objects, sessions, sessionID := newObjectFixture(t)

		stored, err := objects.Add(ctx, sessionID, &model.ARObject{Type: "cube"})
		require.NoError(t, err)

		require.NoError(t, objects.Delete(ctx, sessionID, stored.ID))

		listed, err := objects.ListBySession(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, listed)

		assert.NoFileExists(t, filepath.Join(sessions.Dir(sessionID), "objects", stored.ID+".json"))
	})

	t.Run("deleting an absent id still succeeds", func(t *testing.T) {
		objects, _, sessionID := newObjectFixture(t)

		assert.NoError(t, objects.Delete(ctx, sessionID, "missing"))
	})
}
