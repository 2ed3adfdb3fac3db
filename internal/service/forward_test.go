package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardService_Enabled(t *testing.T) {
	assert.False(t, NewForwardService(nil).Enabled())
	assert.True(t, NewForwardService([]string{"http://a.example"}).Enabled())
}

func TestForwardService_Forward(t *testing.T) {
	t.Run("posts multipart bundle to every target", func(t *testing.T) {
		received := make(chan *http.Request, 2)
		bodies := make(chan map[string]string, 2)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(32<<20))
			bodies <- map[string]string{
				"capture_id": r.FormValue("capture_id"),
				"metadata":   r.FormValue("metadata"),
			}
			received <- r
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		file := filepath.Join(t.TempDir(), "clip.mp4")
		require.NoError(t, os.WriteFile(file, []byte("mp4"), 0o644))

		svc := NewForwardService([]string{server.URL, server.URL})
		svc.Forward(context.Background(), "cap-1", map[string]any{"source": "quest"}, []string{file})

		for i := 0; i < 2; i++ {
			select {
			case body := <-bodies:
				assert.Equal(t, "cap-1", body["capture_id"])
				assert.Contains(t, body["metadata"], "quest")
			case <-time.After(5 * time.Second):
				t.Fatal("forward target was not called")
			}
			<-received
		}
	})

	t.Run("unreachable target does not panic", func(t *testing.T) {
		svc := NewForwardService([]string{"http://127.0.0.1:1/upload"})
		svc.Forward(context.Background(), "cap-1", map[string]any{}, nil)
		// failure is only logged; give the goroutine a moment to run
		time.Sleep(100 * time.Millisecond)
	})
}

func TestBuildBundle(t *testing.T) {
	t.Run("includes files as form parts", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "frame.png")
		require.NoError(t, os.WriteFile(file, []byte("png"), 0o644))

		body, contentType, err := buildBundle("cap-1", map[string]any{"k": "v"}, []string{file})
		require.NoError(t, err)
		assert.Contains(t, contentType, "multipart/form-data")
		assert.NotNil(t, body)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, _, err := buildBundle("cap-1", map[string]any{}, []string{"/does/not/exist"})
		assert.Error(t, err)
	})
}
