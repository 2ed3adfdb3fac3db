package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the on-disk manifest persisted as session.json inside the
// directory named by ID.
type Session struct {
	ID        string         `json:"id"`
	Name      *string        `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Objects   []ARObject     `json:"objects"`
	Metadata  map[string]any `json:"metadata"`
}

// NewSession builds a fresh manifest with an empty object list.
func NewSession(name *string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Objects:   []ARObject{},
		Metadata:  map[string]any{},
	}
}

// SessionSummary augments a listed session with per-directory counts.
type SessionSummary struct {
	ObjectCount int    `json:"object_count"`
	ImageCount  int    `json:"image_count"`
	AudioCount  int    `json:"audio_count"`
	DisplayName string `json:"display_name"`
}

// DisplayName is the listed name, falling back to a truncated id.
func (s *Session) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	id := s.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Session %s...", id)
}

// SessionListing is a manifest plus its computed summary, as returned by
// the list endpoint.
type SessionListing struct {
	Session
	Summary SessionSummary `json:"summary"`
}
