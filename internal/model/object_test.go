package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestARObjectApplyDefaults(t *testing.T) {
	t.Run("fills omitted fields", func(t *testing.T) {
		obj := &ARObject{Type: "cube"}
		obj.ApplyDefaults()

		assert.NotEmpty(t, obj.ID)
		assert.Equal(t, 1.0, obj.Scale)
		assert.Equal(t, "#00FF00", obj.Color)
		assert.NotNil(t, obj.Metadata)
		assert.False(t, obj.CreatedAt.IsZero())
	})

	t.Run("honors client-supplied id", func(t *testing.T) {
		obj := &ARObject{ID: "client-id", Type: "sphere"}
		obj.ApplyDefaults()

		assert.Equal(t, "client-id", obj.ID)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		obj := &ARObject{
			Type:  "cube",
			Scale: 2.5,
			Color: "#FF0000",
		}
		obj.ApplyDefaults()

		assert.Equal(t, 2.5, obj.Scale)
		assert.Equal(t, "#FF0000", obj.Color)
	})
}

func TestMediaKind(t *testing.T) {
	t.Run("Dir matches kind name", func(t *testing.T) {
		assert.Equal(t, "images", MediaImage.Dir())
		assert.Equal(t, "videos", MediaVideo.Dir())
		assert.Equal(t, "audio", MediaAudio.Dir())
	})

	t.Run("Extensions per kind", func(t *testing.T) {
		assert.Equal(t, []string{".png", ".jpg"}, MediaImage.Extensions())
		assert.Equal(t, []string{".mp4", ".webm"}, MediaVideo.Extensions())
		assert.Nil(t, MediaAudio.Extensions())
	})

	t.Run("Base64Fallback only for image and audio", func(t *testing.T) {
		assert.Equal(t, "capture.png", MediaImage.Base64Fallback())
		assert.Equal(t, "recording.webm", MediaAudio.Base64Fallback())
		assert.Empty(t, MediaVideo.Base64Fallback())
	})
}
