package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerClipParsesPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/browse/viewclip/src/1/s/AAAA0001", r.URL.Path)
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		_, _ = fmt.Fprint(w, `["AAAA0001_clip.mp4","https://cdn.example/clips/AAAA0001_clip.mp4",23.976,"mp4"]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	info := client.TriggerClip(context.Background(), "AAAA0001")
	require.NotNil(t, info)

	assert.Equal(t, "AAAA0001_clip.mp4", info.Filename)
	assert.Equal(t, "https://cdn.example/clips/AAAA0001_clip.mp4", info.URL)
	assert.Equal(t, "23.976", info.Framerate)
	assert.Equal(t, "mp4", info.Type)
}

func TestTriggerClipNilOnEmptyBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "  ")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Nil(t, client.TriggerClip(context.Background(), "AAAA0001"))
}

func TestTriggerClipNilOnGarbage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html>login required</html>")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Nil(t, client.TriggerClip(context.Background(), "AAAA0001"))
}

func TestTriggerClipNilOnServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Nil(t, client.TriggerClip(context.Background(), "AAAA0001"))
}
