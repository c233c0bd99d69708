package mediahost

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activity-media-api/pkg/config"
)

func stageTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func newTestUploader(t *testing.T, handler http.HandlerFunc) (*CloudinaryUploader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	uploader := NewCloudinaryUploader(config.MediaHostConfig{
		CloudName:     "demo",
		APIKey:        "key-1",
		APISecret:     "secret-1",
		UploadTimeout: 5 * time.Second,
		UploadFolder:  "activities",
	})
	uploader.baseURL = server.URL
	return uploader, server
}

func TestCloudinaryUploaderUploadImage(t *testing.T) {
	var gotPath string
	var form map[string]string
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(10<<20))
		form = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			form[key] = values[0]
		}
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"secure_url": "https://res.example.com/image/a.jpg",
			"url":        "http://res.example.com/image/a.jpg",
		})
	})

	path := stageTempFile(t, "a.jpg", []byte("jpeg-bytes"))
	result, err := uploader.Upload(context.Background(), UploadInput{Path: path, Kind: KindImage})
	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/image/a.jpg", result.URL)
	assert.Empty(t, result.PosterURL)

	assert.Equal(t, "/v1_1/demo/image/upload", gotPath)
	assert.Equal(t, "key-1", form["api_key"])
	assert.NotEmpty(t, form["timestamp"])
	assert.NotEmpty(t, form["public_id"])
	assert.NotContains(t, form, "eager")

	// Signature covers the sorted signable params plus the secret.
	payload := "public_id=" + form["public_id"] + "&timestamp=" + form["timestamp"] + "secret-1"
	sum := sha1.Sum([]byte(payload))
	assert.Equal(t, hex.EncodeToString(sum[:]), form["signature"])
}

func TestCloudinaryUploaderUploadVideoRequestsPoster(t *testing.T) {
	var form map[string]string
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		form = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			form[key] = values[0]
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"secure_url": "https://res.example.com/video/v.mp4",
			"eager": []map[string]string{
				{"secure_url": "https://res.example.com/video/v.jpg"},
			},
		})
	})

	path := stageTempFile(t, "v.mp4", []byte("video-bytes"))
	result, err := uploader.Upload(context.Background(), UploadInput{Path: path, Kind: KindVideo})
	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/video/v.mp4", result.URL)
	assert.Equal(t, "https://res.example.com/video/v.jpg", result.PosterURL)
	assert.Equal(t, "c_fit,h_180,w_320", form["eager"])
}

func TestCloudinaryUploaderUploadVideoWithoutEager(t *testing.T) {
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"secure_url": "https://res.example.com/video/v.mp4",
		})
	})

	path := stageTempFile(t, "v.mp4", []byte("video-bytes"))
	result, err := uploader.Upload(context.Background(), UploadInput{Path: path, Kind: KindVideo})
	require.NoError(t, err)
	assert.Empty(t, result.PosterURL)
}

func TestCloudinaryUploaderUploadErrorResponse(t *testing.T) {
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Invalid signature"},
		})
	})

	path := stageTempFile(t, "a.jpg", []byte("jpeg-bytes"))
	_, err := uploader.Upload(context.Background(), UploadInput{Path: path, Kind: KindImage})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid signature")
}

func TestCloudinaryUploaderUploadMissingFile(t *testing.T) {
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := uploader.Upload(context.Background(), UploadInput{Path: filepath.Join(t.TempDir(), "missing.jpg"), Kind: KindImage})
	require.Error(t, err)
}

func TestCloudinaryUploaderContextCancellation(t *testing.T) {
	uploader, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://res.example.com/a.jpg"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	path := stageTempFile(t, "a.jpg", []byte("jpeg-bytes"))
	_, err := uploader.Upload(ctx, UploadInput{Path: path, Kind: KindImage})
	require.Error(t, err)
}
