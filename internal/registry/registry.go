// Package registry tracks capture sessions and recent capture ids. The data
// is advisory session state, independent of the on-disk session directories,
// and is lost on restart when the memory backend is selected.
package registry

import (
	"context"
	"time"
)

// Entry is one registered capture session.
type Entry struct {
	SessionID string    `json:"session_id"`
	DeviceID  string    `json:"device_id"`
	Created   time.Time `json:"created"`
	Captures  []string  `json:"captures"`
}

// Capture is one recorded capture event.
type Capture struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry is the injectable session registry store. Implementations:
// memory (process-local) and redis (survives restarts, shared across
// replicas).
type Registry interface {
	// Create registers a new session under a fresh uuid and returns its id.
	Create(ctx context.Context, deviceID string) (string, error)
	// Put registers a session under a caller-chosen id (synthesized ids).
	Put(ctx context.Context, sessionID, deviceID string) error
	Get(ctx context.Context, sessionID string) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, sessionID string) error

	// AddCapture appends the capture to the session's list (when the session
	// is known) and to the global capture log unconditionally.
	AddCapture(ctx context.Context, sessionID, captureID string) error
	// RecentCaptures returns up to limit captures, oldest first within the
	// returned window.
	RecentCaptures(ctx context.Context, limit int) ([]Capture, error)

	SessionCount(ctx context.Context) (int, error)
	CaptureCount(ctx context.Context) (int, error)
}
