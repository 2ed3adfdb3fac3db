package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is the process-local backend.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
	captures []Capture
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*Entry),
	}
}

func (r *MemoryRegistry) Create(ctx context.Context, deviceID string) (string, error) {
	sessionID := uuid.NewString()
	return sessionID, r.Put(ctx, sessionID, deviceID)
}

func (r *MemoryRegistry) Put(ctx context.Context, sessionID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &Entry{
		SessionID: sessionID,
		DeviceID:  deviceID,
		Created:   time.Now(),
		Captures:  []string{},
	}
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, sessionID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cloned := *entry
	cloned.Captures = append([]string(nil), entry.Captures...)
	return &cloned, nil
}

func (r *MemoryRegistry) List(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		cloned := *entry
		cloned.Captures = append([]string(nil), entry.Captures...)
		entries = append(entries, cloned)
	}
	return entries, nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryRegistry) AddCapture(ctx context.Context, sessionID, captureID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		entry.Captures = append(entry.Captures, captureID)
	}
	r.captures = append(r.captures, Capture{
		ID:        captureID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	return nil
}

func (r *MemoryRegistry) RecentCaptures(ctx context.Context, limit int) ([]Capture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if limit > 0 && len(r.captures) > limit {
		start = len(r.captures) - limit
	}
	return append([]Capture(nil), r.captures[start:]...), nil
}

func (r *MemoryRegistry) SessionCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

func (r *MemoryRegistry) CaptureCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.captures), nil
}
