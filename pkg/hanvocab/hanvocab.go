package hanvocab

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/internal/fetch"
	"github.com/cognicore/hanvocab/internal/logging"
	"github.com/cognicore/hanvocab/pkg/hanvocab/config"
	"github.com/cognicore/hanvocab/pkg/hanvocab/filter"
	"github.com/cognicore/hanvocab/pkg/hanvocab/report"
	"github.com/cognicore/hanvocab/pkg/hanvocab/stoplist"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
	"github.com/cognicore/hanvocab/pkg/hanvocab/vocab"
)

// Curator runs the vocabulary curation end to end: fetch, decode, filter,
// rank, report.
type Curator struct {
	cfg       config.Config
	cache     *fetch.Cache
	stopwords *stoplist.Repository
	store     store.Store
	logger    *zap.Logger
	now       func() time.Time
	entropy   *ulid.MonotonicEntropy
}

// Options configures a Curator
type Options struct {
	Config config.Config
	Logger *zap.Logger

	// Client overrides the HTTP client; nil uses one with Config.HTTPTimeout.
	Client *http.Client

	// Store records the run when set.
	Store store.Store

	// Now overrides the clock (tests).
	Now func() time.Time
}

// New creates a Curator from validated options.
func New(opts Options) (*Curator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := logging.OrNop(opts.Logger)
	client := opts.Client
	if client == nil {
		timeout := opts.Config.HTTPTimeout
		if timeout == 0 {
			timeout = fetch.DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cache := fetch.NewCache(opts.Config.CacheDir, client, logger)
	return &Curator{
		cfg:       opts.Config,
		cache:     cache,
		stopwords: stoplist.NewRepository(opts.Config.StopwordSources(), cache, logger),
		store:     opts.Store,
		logger:    logger,
		now:       now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Result summarizes a successful run.
type Result struct {
	RunID          string
	VocabularySize int
	StopwordCount  int
	Stages         []filter.StageStat
	Rows           []report.Row
	Reports        []string // paths written
}

// Run executes one curation run. Reports are written only after every
// stage succeeded; any failure leaves no new report on disk.
func (c *Curator) Run(ctx context.Context) (*Result, error) {
	started := c.now()
	runID := ulid.MustNew(ulid.Timestamp(started), c.entropy).String()
	log := c.logger.With(zap.String("run_id", runID))
	log.Info("run started",
		zap.String("cache_dir", c.cache.Dir()),
		zap.String("vocabulary", c.cfg.Vocabulary.Name),
		zap.Strings("stopword_sources", sourceNames(c.stopwords.Sources())))

	vocabPath, err := c.cache.Ensure(ctx, c.cfg.Vocabulary.Name, c.cfg.Vocabulary.URL)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	tokens, err := vocab.LoadFile(vocabPath)
	if err != nil {
		return nil, err
	}
	log.Info("vocabulary loaded", zap.String("path", vocabPath), zap.Int("tokens", len(tokens)))

	stops, err := c.stopwords.Load(ctx)
	if err != nil {
		return nil, err
	}

	rows, stats, err := c.Curate(tokens, stops)
	if err != nil {
		return nil, err
	}
	for _, st := range stats {
		log.Info("stage", zap.String("stage", st.Name), zap.Int("in", st.In), zap.Int("out", st.Out))
	}

	written, err := c.writeReports(rows)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:          runID,
		VocabularySize: len(tokens),
		StopwordCount:  stops.Len(),
		Stages:         stats,
		Rows:           rows,
		Reports:        written,
	}

	if c.store != nil {
		if err := c.store.SaveRun(ctx, toRun(res, c.cfg.Vocabulary.Name, started)); err != nil {
			removeAll(written)
			return nil, fmt.Errorf("save run: %w", err)
		}
		log.Debug("run saved")
	}

	log.Info("run complete",
		zap.Int("survivors", len(rows)),
		zap.Strings("reports", written),
		zap.Duration("took", c.now().Sub(started)))
	return res, nil
}

// Curate runs the filter pipeline over decoded tokens and projects the
// survivors back onto the decoded text, so reported tokens keep the
// punctuation the trim stage removed.
func (c *Curator) Curate(tokens vocab.Collection, stops filter.StopSet) ([]report.Row, []filter.StageStat, error) {
	survivors, stats, err := filter.NewPipeline(stops, c.logger).Run(tokens)
	if err != nil {
		return nil, stats, err
	}

	original, err := tokens.Project(survivors.Indices())
	if err != nil {
		return nil, stats, err
	}
	return report.Rows(original), stats, nil
}

func (c *Curator) writeReports(rows []report.Row) ([]string, error) {
	outputs := []struct {
		path   string
		format report.Format
	}{
		{c.cfg.Reports.CSV, report.WriteCSV},
		{c.cfg.Reports.Markdown, report.WriteMarkdown},
		{c.cfg.Reports.HTML, report.WriteHTML},
	}

	var written []string
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := report.WriteFile(o.path, rows, o.format); err != nil {
			removeAll(written)
			return nil, err
		}
		written = append(written, o.path)
	}
	return written, nil
}

func sourceNames(sources []stoplist.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

func toRun(res *Result, vocabulary string, started time.Time) store.Run {
	run := store.Run{
		ID:             res.RunID,
		StartedAt:      started,
		Vocabulary:     vocabulary,
		VocabularySize: res.VocabularySize,
		StopwordCount:  res.StopwordCount,
		Stages:         make([]store.StageCount, len(res.Stages)),
		Entries:        make([]store.Entry, len(res.Rows)),
	}
	for i, st := range res.Stages {
		run.Stages[i] = store.StageCount{Name: st.Name, In: st.In, Out: st.Out}
	}
	for i, r := range res.Rows {
		run.Entries[i] = store.Entry{Index: r.Index, Token: r.Token}
	}
	return run
}
