package model

import (
	"time"

	"github.com/google/uuid"
)

// Position3D is a point in session space.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation3D is a quaternion.
type Rotation3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// ARObject is a placed object record. It is stored both embedded in the
// session manifest and as a standalone objects/<id>.json file.
type ARObject struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Position  Position3D     `json:"position"`
	Rotation  *Rotation3D    `json:"rotation,omitempty"`
	Scale     float64        `json:"scale"`
	Color     string         `json:"color"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// ApplyDefaults fills in the fields the client may omit. Client-supplied
// ids are honored; the server never regenerates them.
func (o *ARObject) ApplyDefaults() {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Scale == 0 {
		o.Scale = 1.0
	}
	if o.Color == "" {
		o.Color = "#00FF00"
	}
	if o.Metadata == nil {
		o.Metadata = map[string]any{}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
}
