package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

// MediaRepository stores binary assets plus their <filename>.json sidecars
// under the session's per-kind subdirectory. Uploading into a session that
// was never created materializes its directories.
type MediaRepository interface {
	Save(ctx context.Context, sessionID string, kind model.MediaKind, filename string, data []byte, metadata map[string]any) (*model.MediaMetadata, error)
	List(ctx context.Context, sessionID string, kind model.MediaKind) ([]map[string]any, error)
	// Path resolves a stored file, returning NotFound if absent.
	Path(ctx context.Context, sessionID string, kind model.MediaKind, filename string) (string, error)
}

type mediaRepo struct {
	store *FileStore
}

func NewMediaRepository(store *FileStore) MediaRepository {
	return &mediaRepo{store: store}
}

func (r *mediaRepo) kindDir(sessionID string, kind model.MediaKind) string {
	return filepath.Join(r.store.SessionDir(sessionID), kind.Dir())
}

func (r *mediaRepo) Save(ctx context.Context, sessionID string, kind model.MediaKind, filename string, data []byte, metadata map[string]any) (*model.MediaMetadata, error) {
	dir := r.kindDir(sessionID, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Storage(err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return nil, apperrors.Storage(err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	sidecar := &model.MediaMetadata{
		Filename:  filename,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	if err := writeJSONFile(filepath.Join(dir, filename+".json"), sidecar); err != nil {
		return nil, apperrors.Storage(err)
	}
	return sidecar, nil
}

func (r *mediaRepo) List(ctx context.Context, sessionID string, kind model.MediaKind) ([]map[string]any, error) {
	dir := r.kindDir(sessionID, kind)
	records := []map[string]any{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return records, nil
	}

	if exts := kind.Extensions(); exts != nil {
		// one pass per extension; listing order groups by extension
		for _, ext := range exts {
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
					continue
				}
				records = append(records, r.record(dir, entry.Name()))
			}
		}
		return records, nil
	}

	// audio: everything that is not a sidecar
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		records = append(records, r.record(dir, entry.Name()))
	}
	return records, nil
}

// record returns the parsed sidecar when present, else a minimal filename entry.
func (r *mediaRepo) record(dir, filename string) map[string]any {
	var sidecar map[string]any
	if err := readJSONFile(filepath.Join(dir, filename+".json"), &sidecar); err == nil {
		return sidecar
	}
	return map[string]any{"filename": filename}
}

func (r *mediaRepo) Path(ctx context.Context, sessionID string, kind model.MediaKind, filename string) (string, error) {
	path := filepath.Join(r.kindDir(sessionID, kind), filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", apperrors.NotFound(resourceName(kind))
	} else if err != nil {
		return "", apperrors.Storage(err)
	}
	return path, nil
}

func resourceName(kind model.MediaKind) string {
	switch kind {
	case model.MediaImage:
		return "Image"
	case model.MediaVideo:
		return "Video"
	default:
		return "Audio file"
	}
}
