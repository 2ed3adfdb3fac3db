package model

import "time"

// MediaKind selects one of the three structurally identical media stores.
type MediaKind string

const (
	MediaImage MediaKind = "images"
	MediaVideo MediaKind = "videos"
	MediaAudio MediaKind = "audio"
)

// Dir is the per-session subdirectory holding this kind of media.
func (k MediaKind) Dir() string {
	return string(k)
}

// Extensions lists the filename extensions recognized on listing.
// Audio returns nil: anything that is not a sidecar counts.
func (k MediaKind) Extensions() []string {
	switch k {
	case MediaImage:
		return []string{".png", ".jpg"}
	case MediaVideo:
		return []string{".mp4", ".webm"}
	default:
		return nil
	}
}

// Base64Fallback is the filename suffix used when the payload arrives as a
// base64 form field instead of a file part. Video has none: it is file-only.
func (k MediaKind) Base64Fallback() string {
	switch k {
	case MediaImage:
		return "capture.png"
	case MediaAudio:
		return "recording.webm"
	default:
		return ""
	}
}

// MediaMetadata is the sidecar JSON written next to each stored asset,
// named <filename>.json.
type MediaMetadata struct {
	Filename  string         `json:"filename"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}
