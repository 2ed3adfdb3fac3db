package model

import "time"

// CaptureMetadata is the summary record written as metadata_<capture_id>.json
// for every intake request. Free-form client metadata is merged on top of the
// Extra map before persisting.
type CaptureMetadata struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Device      string  `json:"device"`
	SessionID   string  `json:"session_id"`
	Timestamp   string  `json:"timestamp"`
	CaptureType string  `json:"capture_type,omitempty"`
	Location    *LatLon `json:"location,omitempty"`

	Extra map[string]any `json:"-"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProcessedResult is the local processing stub's report for one media part.
type ProcessedResult struct {
	Analysis string `json:"analysis"`
	Filepath string `json:"filepath"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// TextResult reports a stored text part.
type TextResult struct {
	Content string `json:"content"`
	Length  int    `json:"length"`
}

// ProcessedObject is the synthesized response object echoed back to the
// capturing client so it can render an in-world acknowledgement.
type ProcessedObject struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Content  string             `json:"content,omitempty"`
	URL      string             `json:"url,omitempty"`
	Position map[string]float64 `json:"position,omitempty"`
	Metadata map[string]any     `json:"metadata"`
}

// PlacedObject is one entry of the flat per-session objects.json array kept
// by the capture server. Position and rotation stay raw: clients send both
// {x,y,z} maps and [x,y,z] arrays.
type PlacedObject struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Position  any            `json:"position"`
	Rotation  any            `json:"rotation"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata"`
}
