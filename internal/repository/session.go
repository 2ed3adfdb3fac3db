package repository

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

const manifestFile = "session.json"

var mediaSubdirs = []string{"images", "videos", "audio", "objects"}

type SessionRepository interface {
	Create(ctx context.Context, name *string) (*model.Session, error)
	Load(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	List(ctx context.Context) ([]model.SessionListing, error)
	Delete(ctx context.Context, id string) error
	// Count reports the number of entries under the store root, as surfaced
	// by the health endpoint.
	Count(ctx context.Context) (int, error)
	// Lock serializes manifest read-modify-write for a session.
	Lock(id string) func()
	Dir(id string) string
}

type sessionRepo struct {
	store *FileStore
}

func NewSessionRepository(store *FileStore) SessionRepository {
	return &sessionRepo{store: store}
}

func (r *sessionRepo) Dir(id string) string {
	return r.store.SessionDir(id)
}

func (r *sessionRepo) Lock(id string) func() {
	return r.store.LockSession(id)
}

func (r *sessionRepo) Create(ctx context.Context, name *string) (*model.Session, error) {
	session := model.NewSession(name)

	dir := r.store.SessionDir(session.ID)
	for _, sub := range mediaSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, apperrors.Storage(err)
		}
	}

	if err := writeJSONFile(filepath.Join(dir, manifestFile), session); err != nil {
		return nil, apperrors.Storage(err)
	}
	return session, nil
}

func (r *sessionRepo) Load(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := readJSONFile(filepath.Join(r.store.SessionDir(id), manifestFile), &session)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound("Session")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &session, nil
}

func (r *sessionRepo) Save(ctx context.Context, session *model.Session) error {
	dir := r.store.SessionDir(session.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Storage(err)
	}
	if err := writeJSONFile(filepath.Join(dir, manifestFile), session); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (r *sessionRepo) List(ctx context.Context) ([]model.SessionListing, error) {
	entries, err := os.ReadDir(r.store.Root())
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	listings := make([]model.SessionListing, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		var session model.Session
		dir := filepath.Join(r.store.Root(), entry.Name())
		if err := readJSONFile(filepath.Join(dir, manifestFile), &session); err != nil {
			// directories without a manifest are not sessions
			continue
		}

		listings = append(listings, model.SessionListing{
			Session: session,
			Summary: model.SessionSummary{
				ObjectCount: countFiles(filepath.Join(dir, "objects"), ".json", true),
				ImageCount:  countFiles(filepath.Join(dir, "images"), ".json", false),
				AudioCount:  countFiles(filepath.Join(dir, "audio"), ".json", false),
				DisplayName: session.DisplayName(),
			},
		})
	}

	// newest first; RFC 3339 timestamps sort the same lexically and temporally
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	dir := r.store.SessionDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return apperrors.NotFound("Session")
	}
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (r *sessionRepo) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(r.store.Root())
	if err != nil {
		return 0, apperrors.Storage(err)
	}
	return len(entries), nil
}

// countFiles counts directory entries by .json suffix. match selects whether
// sidecars are the target (objects) or excluded (binary media).
func countFiles(dir, suffix string, match bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) == match {
			count++
		}
	}
	return count
}
