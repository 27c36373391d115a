package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
)

func TestEnsureDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("中国 100 ns\n"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "downloaded")
	cache := NewCache(dir, srv.Client(), zap.NewNop())

	path, err := cache.Ensure(context.Background(), "dict.txt.big", srv.URL+"/dict")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dict.txt.big"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "中国 100 ns\n", string(data))

	_, err = cache.Ensure(context.Background(), "dict.txt.big", srv.URL+"/dict")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second call must be served from cache")
}

func TestEnsureUsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "idf.txt.big"), []byte("cached"), 0o644))

	cache := NewCache(dir, nil, nil)
	path, err := cache.Ensure(context.Background(), "idf.txt.big", "http://127.0.0.1:0/never")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))
}

func TestEnsureStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cache := NewCache(dir, srv.Client(), nil)

	_, err := cache.Ensure(context.Background(), "dict.txt.big", srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrFetch))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed download must not leave files behind")
}

func TestEnsureTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cache := NewCache(t.TempDir(), nil, nil)
	_, err := cache.Ensure(context.Background(), "x", url)
	assert.ErrorIs(t, err, internalerr.ErrFetch)
}

func TestEnsureCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache := NewCache(t.TempDir(), srv.Client(), nil)
	_, err := cache.Ensure(ctx, "x", srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPathStripsDirectories(t *testing.T) {
	cache := NewCache("/tmp/cache", nil, nil)
	assert.Equal(t, filepath.Join("/tmp/cache", "dict.txt"), cache.Path("../../dict.txt"))
	assert.Equal(t, "/tmp/cache", cache.Dir())
}
