package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/internal/logging"
	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
)

// DefaultTimeout bounds a single download.
const DefaultTimeout = 5 * time.Minute

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Cache keeps verbatim copies of remote files in a directory, one file per
// name. Files are downloaded once and reused on later calls.
type Cache struct {
	dir    string
	client *http.Client
	logger *zap.Logger
}

// NewCache creates a cache rooted at dir. A nil client gets one with
// DefaultTimeout.
func NewCache(dir string, client *http.Client, logger *zap.Logger) *Cache {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Cache{dir: dir, client: client, logger: logging.OrNop(logger)}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the local path for name.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, filepath.Base(name))
}

// Ensure returns the local path of name, downloading url first if the file
// is not cached yet.
func (c *Cache) Ensure(ctx context.Context, name, url string) (string, error) {
	path := c.Path(name)

	if _, err := os.Stat(path); err == nil {
		c.logger.Debug("cache hit", zap.String("name", name), zap.String("path", path))
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	start := time.Now()
	n, err := c.download(ctx, url, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", internalerr.ErrFetch, name, err)
	}

	c.logger.Info("downloaded",
		zap.String("name", name),
		zap.String("url", url),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)))
	return path, nil
}

// download writes the body of url to path through a temp file so a failed
// transfer never leaves a partial cache entry.
func (c *Cache) download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return n, nil
}
