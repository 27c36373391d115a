package store

import (
	"context"
	"time"
)

// Store persists the history of curation runs.
type Store interface {
	Close() error

	// SaveRun inserts or replaces a run, keyed by ID.
	SaveRun(ctx context.Context, r Run) error
	// GetRun returns a run with its entries, or internalerr.ErrNotFound.
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns the most recent runs first, without entries.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Run is one completed curation run.
type Run struct {
	ID             string
	StartedAt      time.Time
	Vocabulary     string // source name of the vocabulary
	VocabularySize int
	StopwordCount  int
	Stages         []StageCount
	Entries        []Entry // ranked survivors
}

// StageCount is the token count before and after one pipeline stage.
type StageCount struct {
	Name string
	In   int
	Out  int
}

// Entry is one surviving token.
type Entry struct {
	Index int
	Token string
}
