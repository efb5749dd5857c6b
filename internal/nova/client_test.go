package nova

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/livelink/internal/scene"
)

const sceneListBody = `{
  "actors": [
    {"name": "StaticMeshActor_1", "label": "Cube", "class": "StaticMeshActor",
     "transform": {"location": {"x": 200, "y": 100, "z": 50},
                   "rotation": {"pitch": 10, "yaw": 20, "roll": 30},
                   "scale": {"x": 1, "y": 1, "z": 1}}},
    {"name": "PointLight_0", "label": "",
     "transform": {"location": {"x": 5}}},
    {"name": "", "label": ""}
  ],
  "count": 3,
  "level": "Untitled"
}`

func TestClient_ListObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/nova/scene/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sceneListBody))
	}))
	defer srv.Close()

	c := New(srv.URL + "/nova")
	objs, err := c.ListObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 2)

	assert.Equal(t, scene.Handle("Cube"), objs[0].Name)
	assert.Equal(t, mgl64.Vec3{200, 100, 50}, objs[0].Transform.Location)
	assert.Equal(t, mgl64.Vec3{10, 20, 30}, objs[0].Transform.Rotation)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, objs[0].Transform.Scale)

	assert.Equal(t, scene.Handle("PointLight_0"), objs[1].Name, "falls back to the object name")
	assert.Equal(t, mgl64.Vec3{5, 0, 0}, objs[1].Transform.Location, "missing components read as 0")
}

func TestClient_SetLocation(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/nova/scene/transform", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/nova/", WithAPIKey("secret"))
	err := c.SetLocation(context.Background(), "Cube", mgl64.Vec3{200, 100, 50})
	require.NoError(t, err)

	assert.Equal(t, "Cube", got["name"])
	assert.Equal(t, map[string]any{"x": 200.0, "y": 100.0, "z": 50.0}, got["location"])
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Actor not found: Ghost"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL + "/nova")
	err := c.SetLocation(context.Background(), "Ghost", mgl64.Vec3{})
	require.Error(t, err)

	var ne *Error
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusNotFound, ne.StatusCode)
	assert.Contains(t, ne.Body, "Actor not found")
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestClient_NoAPIKeyHeaderByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"actors":[]}`))
	}))
	defer srv.Close()

	objs, err := New(srv.URL + "/nova").ListObjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL+"/nova", WithTimeout(50*time.Millisecond))
	_, err := c.ListObjects(context.Background())
	assert.Error(t, err)
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url + "/nova").ListObjects(context.Background())
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:30010/nova", BaseURL("localhost", 30010))
}
