package repository

import (
	"context"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

// ObjectRepository maintains the dual object representation: the list
// embedded in the session manifest plus one standalone objects/<id>.json
// file per object. List reads the manifest; Get reads the standalone file.
// Clients depend on that asymmetry after partial failures, so it stays.
type ObjectRepository interface {
	Add(ctx context.Context, sessionID string, obj *model.ARObject) (*model.ARObject, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ARObject, error)
	Get(ctx context.Context, sessionID, objectID string) (*model.ARObject, error)
	Update(ctx context.Context, sessionID, objectID string, obj *model.ARObject) (*model.ARObject, error)
	Delete(ctx context.Context, sessionID, objectID string) error
}

type objectRepo struct {
	store    *FileStore
	sessions SessionRepository
}

func NewObjectRepository(store *FileStore, sessions SessionRepository) ObjectRepository {
	return &objectRepo{store: store, sessions: sessions}
}

func (r *objectRepo) objectPath(sessionID, objectID string) string {
	return filepath.Join(r.store.SessionDir(sessionID), "objects", objectID+".json")
}

func (r *objectRepo) Add(ctx context.Context, sessionID string, obj *model.ARObject) (*model.ARObject, error) {
	unlock := r.store.LockSession(sessionID)
	defer unlock()

	session, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	obj.ApplyDefaults()
	session.Objects = append(session.Objects, *obj)
	session.UpdatedAt = time.Now()

	if err := r.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if err := r.writeStandalone(sessionID, obj.ID, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *objectRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ARObject, error) {
	session, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Objects == nil {
		return []model.ARObject{}, nil
	}
	return session.Objects, nil
}

func (r *objectRepo) Get(ctx context.Context, sessionID, objectID string) (*model.ARObject, error) {
	var obj model.ARObject
	err := readJSONFile(r.objectPath(sessionID, objectID), &obj)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound("Object")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &obj, nil
}

func (r *objectRepo) Update(ctx context.Context, sessionID, objectID string, obj *model.ARObject) (*model.ARObject, error) {
	unlock := r.store.LockSession(sessionID)
	defer unlock()

	session, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	obj.ApplyDefaults()

	found := false
	for i := range session.Objects {
		if session.Objects[i].ID == objectID {
			session.Objects[i] = *obj
			found = true
			break
		}
	}
	// no-match leaves the standalone file untouched as well
	if !found {
		return nil, apperrors.NotFound("Object")
	}

	session.UpdatedAt = time.Now()
	if err := r.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if err := r.writeStandalone(sessionID, objectID, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *objectRepo) Delete(ctx context.Context, sessionID, objectID string) error {
	unlock := r.store.LockSession(sessionID)
	defer unlock()

	session, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	kept := session.Objects[:0]
	for _, existing := range session.Objects {
		if existing.ID != objectID {
			kept = append(kept, existing)
		}
	}
	session.Objects = kept
	session.UpdatedAt = time.Now()

	if err := r.sessions.Save(ctx, session); err != nil {
		return err
	}

	// deleting an absent id still succeeds
	if err := os.Remove(r.objectPath(sessionID, objectID)); err != nil && !os.IsNotExist(err) {
		return apperrors.Storage(err)
	}
	return nil
}

func (r *objectRepo) writeStandalone(sessionID, objectID string, obj *model.ARObject) error {
	dir := filepath.Join(r.store.SessionDir(sessionID), "objects")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Storage(err)
	}
	if err := writeJSONFile(filepath.Join(dir, objectID+".json"), obj); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
