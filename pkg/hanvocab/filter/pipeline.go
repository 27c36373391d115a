package filter

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/internal/logging"
	"github.com/cognicore/hanvocab/pkg/hanvocab/vocab"
)

// DefaultMinLength is the shortest token, in runes, worth reporting.
const DefaultMinLength = 2

// Stage names used by NewPipeline.
const (
	StageTrimPunctuation = "trim_punctuation"
	StageKeepChinese     = "keep_chinese"
	StageMinLength       = "min_length"
	StageRemoveStopwords = "remove_stopwords"
	StageDeduplicate     = "deduplicate"
)

// Stage is one named step of the pipeline. Apply must return a new
// collection and leave its input untouched.
type Stage struct {
	Name  string
	Apply func(vocab.Collection) (vocab.Collection, error)
}

// Pure wraps an infallible filter as a Stage.
func Pure(name string, fn func(vocab.Collection) vocab.Collection) Stage {
	return Stage{
		Name: name,
		Apply: func(in vocab.Collection) (vocab.Collection, error) {
			return fn(in), nil
		},
	}
}

// StageStat records how many tokens entered and left a stage.
type StageStat struct {
	Name string
	In   int
	Out  int
}

// Pipeline runs stages in order and ranks the survivors:
// trim → keep Chinese → min length → stopwords → dedup → rank by length
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// NewPipeline creates the standard curation pipeline.
func NewPipeline(stops StopSet, logger *zap.Logger) *Pipeline {
	return NewCustomPipeline(logger,
		Pure(StageTrimPunctuation, TrimPunctuation),
		Pure(StageKeepChinese, KeepChinese),
		Pure(StageMinLength, MinLength(DefaultMinLength)),
		Pure(StageRemoveStopwords, RemoveStopwords(stops)),
		Pure(StageDeduplicate, Deduplicate),
	)
}

// NewCustomPipeline creates a pipeline over arbitrary stages.
func NewCustomPipeline(logger *zap.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: logging.OrNop(logger)}
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run applies every stage, then ranks the result with RankByLength. The
// first stage error aborts the run and is returned as is.
func (p *Pipeline) Run(in vocab.Collection) (vocab.Collection, []StageStat, error) {
	stats := make([]StageStat, 0, len(p.stages))
	cur := in
	for _, s := range p.stages {
		next, err := s.Apply(cur)
		if err != nil {
			return nil, stats, err
		}
		stats = append(stats, StageStat{Name: s.Name, In: len(cur), Out: len(next)})
		p.logger.Debug("stage done",
			zap.String("stage", s.Name),
			zap.Int("in", len(cur)),
			zap.Int("out", len(next)))
		cur = next
	}
	return RankByLength(cur), stats, nil
}

// RankByLength returns a copy of in sorted by rune count, longest first.
// Equal lengths keep their relative order.
func RankByLength(in vocab.Collection) vocab.Collection {
	out := make(vocab.Collection, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Text) > utf8.RuneCountInString(out[j].Text)
	})
	return out
}

func (s StageStat) String() string {
	return fmt.Sprintf("%s: %d -> %d", s.Name, s.In, s.Out)
}
