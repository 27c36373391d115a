package stoplist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/internal/logging"
	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
)

// Source names a remote reference word list. Name doubles as the cache
// file name.
type Source struct {
	Name string
	URL  string
}

// Fetcher makes a remote file available locally and returns its path.
type Fetcher interface {
	Ensure(ctx context.Context, name, url string) (string, error)
}

// Repository builds the stopword set from cached reference files.
type Repository struct {
	sources []Source
	fetcher Fetcher
	logger  *zap.Logger
}

// NewRepository creates a repository over the given sources.
func NewRepository(sources []Source, fetcher Fetcher, logger *zap.Logger) *Repository {
	return &Repository{
		sources: append([]Source(nil), sources...),
		fetcher: fetcher,
		logger:  logging.OrNop(logger),
	}
}

// Sources returns the configured sources.
func (r *Repository) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// Load fetches any missing reference file, parses every file and returns the
// union of their entries. A failed fetch or an empty file aborts the load.
func (r *Repository) Load(ctx context.Context) (*Set, error) {
	var all []string
	for _, src := range r.sources {
		path, err := r.fetcher.Ensure(ctx, src.Name, src.URL)
		if err != nil {
			return nil, fmt.Errorf("stopwords %s: %w", src.Name, err)
		}

		words, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("stopwords %s: %w", src.Name, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("stopwords %s (%s): %w", src.Name, path, internalerr.ErrEmptyReference)
		}

		r.logger.Debug("loaded reference list",
			zap.String("name", src.Name),
			zap.String("path", path),
			zap.Int("entries", len(words)))
		all = append(all, words...)
	}

	set := NewSet(all)
	r.logger.Info("stopword set ready",
		zap.Int("sources", len(r.sources)),
		zap.Int("stopwords", set.Len()))
	return set, nil
}
