package repository

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

const placedObjectsFile = "objects.json"

// SessionFile describes one stored file in a capture session directory.
type SessionFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// StorageStats summarizes the capture tree for the status endpoint.
type StorageStats struct {
	Files int
	Bytes int64
}

// CaptureRepository owns the capture server's directory tree:
// <root>/<session_id>/{metadata_<capture_id>.json, objects.json,
// <prefix>_<ts>_<id>.<ext>, text_<ts>.txt}.
type CaptureRepository interface {
	SaveMedia(ctx context.Context, sessionID, prefix, originalName string, src io.Reader) (path string, size int64, err error)
	SaveText(ctx context.Context, sessionID, text string) (path string, err error)
	WriteCaptureMetadata(ctx context.Context, sessionID, captureID string, payload map[string]any) error
	ListFiles(ctx context.Context, sessionID string) ([]SessionFile, error)
	MediaPath(ctx context.Context, sessionID, filename string) (string, error)
	FindCaptureFile(ctx context.Context, captureID, mediaType string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error

	LoadPlacedObjects(ctx context.Context, sessionID string) ([]model.PlacedObject, error)
	AppendPlacedObject(ctx context.Context, sessionID string, obj model.PlacedObject) (total int, err error)
	ClearPlacedObjects(ctx context.Context, sessionID string) error
	ScanTextObjects(ctx context.Context, sessionID string) ([]map[string]any, error)

	Stats(ctx context.Context) (StorageStats, error)
	// DeleteExpired removes session directories whose oldest file predates
	// the cutoff, returning the number of directories removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type captureRepo struct {
	store *FileStore
}

func NewCaptureRepository(store *FileStore) CaptureRepository {
	return &captureRepo{store: store}
}

func (r *captureRepo) sessionDir(sessionID string) string {
	return r.store.SessionDir(sessionID)
}

func (r *captureRepo) SaveMedia(ctx context.Context, sessionID, prefix, originalName string, src io.Reader) (string, int64, error) {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, apperrors.Storage(err)
	}

	name := mediaFilename(prefix, originalName, time.Now())
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", 0, apperrors.Storage(err)
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, apperrors.Storage(err)
	}
	return path, size, nil
}

func (r *captureRepo) SaveText(ctx context.Context, sessionID, text string) (string, error) {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Storage(err)
	}
	path := filepath.Join(dir, "text_"+time.Now().Format(timestampLayout)+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", apperrors.Storage(err)
	}
	return path, nil
}

func (r *captureRepo) WriteCaptureMetadata(ctx context.Context, sessionID, captureID string, payload map[string]any) error {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Storage(err)
	}
	if err := writeJSONFile(filepath.Join(dir, "metadata_"+captureID+".json"), payload); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (r *captureRepo) ListFiles(ctx context.Context, sessionID string) ([]SessionFile, error) {
	files := []SessionFile{}
	dir := r.sessionDir(sessionID)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), "metadata_") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, SessionFile{
			Filename: d.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.Storage(err)
	}
	return files, nil
}

func (r *captureRepo) MediaPath(ctx context.Context, sessionID, filename string) (string, error) {
	path := filepath.Join(r.sessionDir(sessionID), filename)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NotFound("File")
	}
	return path, nil
}

// FindCaptureFile locates the session holding metadata_<captureID>.json and
// returns the first file whose name contains the media type.
func (r *captureRepo) FindCaptureFile(ctx context.Context, captureID, mediaType string) (string, error) {
	sessions, err := os.ReadDir(r.store.Root())
	if err != nil {
		return "", apperrors.Storage(err)
	}

	for _, session := range sessions {
		if !session.IsDir() {
			continue
		}
		dir := filepath.Join(r.store.Root(), session.Name())
		if _, err := os.Stat(filepath.Join(dir, "metadata_"+captureID+".json")); err != nil {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.Contains(strings.ToLower(entry.Name()), strings.ToLower(mediaType)) {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}
	return "", apperrors.NotFound("File")
}

func (r *captureRepo) DeleteSession(ctx context.Context, sessionID string) error {
	if err := os.RemoveAll(r.sessionDir(sessionID)); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (r *captureRepo) LoadPlacedObjects(ctx context.Context, sessionID string) ([]model.PlacedObject, error) {
	var objects []model.PlacedObject
	err := readJSONFile(filepath.Join(r.sessionDir(sessionID), placedObjectsFile), &objects)
	if err != nil {
		// absent or unreadable array reads as empty
		return []model.PlacedObject{}, nil
	}
	return objects, nil
}

func (r *captureRepo) AppendPlacedObject(ctx context.Context, sessionID string, obj model.PlacedObject) (int, error) {
	unlock := r.store.LockSession(sessionID)
	defer unlock()

	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, apperrors.Storage(err)
	}

	objects, _ := r.LoadPlacedObjects(ctx, sessionID)
	objects = append(objects, obj)

	if err := writeJSONFile(filepath.Join(dir, placedObjectsFile), objects); err != nil {
		return 0, apperrors.Storage(err)
	}
	return len(objects), nil
}

func (r *captureRepo) ClearPlacedObjects(ctx context.Context, sessionID string) error {
	unlock := r.store.LockSession(sessionID)
	defer unlock()

	err := os.Remove(filepath.Join(r.sessionDir(sessionID), placedObjectsFile))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.Storage(err)
	}
	return nil
}

// ScanTextObjects recovers placement records embedded as JSON in a session's
// text.txt, admitting them when metadata.json or the record itself names the
// session. Legacy path kept for captures written before objects.json existed.
func (r *captureRepo) ScanTextObjects(ctx context.Context, sessionID string) ([]map[string]any, error) {
	objects := []map[string]any{}
	dir := r.sessionDir(sessionID)

	content, err := os.ReadFile(filepath.Join(dir, "text.txt"))
	if err != nil {
		return objects, nil
	}

	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		// plain text, not a placement record
		return objects, nil
	}
	if _, hasType := data["type"]; !hasType {
		return objects, nil
	}
	if _, hasPos := data["position"]; !hasPos {
		return objects, nil
	}

	var meta map[string]any
	if err := readJSONFile(filepath.Join(dir, "metadata.json"), &meta); err == nil {
		if meta["session_id"] == sessionID {
			objects = append(objects, data)
		}
	} else if data["session_id"] == sessionID {
		objects = append(objects, data)
	}

	sort.Slice(objects, func(i, j int) bool {
		ti, _ := objects[i]["timestamp"].(string)
		tj, _ := objects[j]["timestamp"].(string)
		return ti < tj
	})
	return objects, nil
}

func (r *captureRepo) Stats(ctx context.Context) (StorageStats, error) {
	var stats StorageStats
	err := filepath.WalkDir(r.store.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.Files++
		stats.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, apperrors.Storage(err)
	}
	return stats, nil
}

func (r *captureRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	sessions, err := os.ReadDir(r.store.Root())
	if err != nil {
		return 0, apperrors.Storage(err)
	}

	var removed int64
	for _, session := range sessions {
		if !session.IsDir() {
			continue
		}
		dir := filepath.Join(r.store.Root(), session.Name())
		if oldestModTime(dir).Before(cutoff) {
			if err := os.RemoveAll(dir); err != nil {
				return removed, apperrors.Storage(err)
			}
			removed++
		}
	}
	return removed, nil
}

// oldestModTime is keyed off the oldest file in the tree, falling back to
// the directory itself when empty.
func oldestModTime(dir string) time.Time {
	oldest := time.Time{}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
		return nil
	})
	if oldest.IsZero() {
		if info, err := os.Stat(dir); err == nil {
			return info.ModTime()
		}
		return time.Now()
	}
	return oldest
}

const timestampLayout = "20060102_150405"

// mediaFilename yields <prefix>_<ts>_<id8><ext>, keeping only the original
// upload's extension.
func mediaFilename(prefix, originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	id := uuid.NewString()[:8]
	if prefix != "" {
		return prefix + "_" + now.Format(timestampLayout) + "_" + id + ext
	}
	return now.Format(timestampLayout) + "_" + id + ext
}
