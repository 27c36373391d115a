package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
)

func openTest(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRun(id string, started time.Time) store.Run {
	return store.Run{
		ID:             id,
		StartedAt:      started,
		Vocabulary:     "o200k_base.tiktoken",
		VocabularySize: 200000,
		StopwordCount:  350000,
		Stages: []store.StageCount{
			{Name: "trim_punctuation", In: 200000, Out: 200000},
			{Name: "keep_chinese", In: 200000, Out: 7000},
		},
		Entries: []store.Entry{
			{Index: 1201, Token: "中华人民共和国"},
			{Index: 88, Token: "中文"},
		},
	}
}

// TestSQLiteRunRoundTrip saves a run and reads it back
func TestSQLiteRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTest(t)

	started := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	run := sampleRun("01HZX", started)
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "01HZX")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Vocabulary != run.Vocabulary || got.VocabularySize != run.VocabularySize || got.StopwordCount != run.StopwordCount {
		t.Errorf("run fields mismatch: got %+v", got)
	}
	if len(got.Stages) != 2 || got.Stages[1] != run.Stages[1] {
		t.Errorf("Stages = %+v, want %+v", got.Stages, run.Stages)
	}
	if len(got.Entries) != 2 || got.Entries[0] != run.Entries[0] || got.Entries[1] != run.Entries[1] {
		t.Errorf("Entries = %+v, want %+v (rank order)", got.Entries, run.Entries)
	}
}

func TestSQLiteSaveRunReplaces(t *testing.T) {
	ctx := context.Background()
	st := openTest(t)

	run := sampleRun("r1", time.Now())
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run.Entries = run.Entries[:1]
	run.Stages = nil
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}

	got, err := st.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Errorf("expected 1 entry after replace, got %d", len(got.Entries))
	}
	if len(got.Stages) != 0 {
		t.Errorf("expected no stages after replace, got %d", len(got.Stages))
	}
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	st := openTest(t)

	_, err := st.GetRun(context.Background(), "missing")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteSaveRunRequiresID(t *testing.T) {
	st := openTest(t)

	err := st.SaveRun(context.Background(), store.Run{})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSQLiteListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := openTest(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		// Sub-second offsets exercise text ordering of started_at.
		if err := st.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*500*time.Millisecond))); err != nil {
			t.Fatalf("SaveRun %s: %v", id, err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("ListRuns(2) = %+v, want [c b]", runs)
	}
	if runs[0].Entries != nil {
		t.Error("ListRuns should not load entries")
	}
	if len(runs[0].Stages) != 2 {
		t.Errorf("ListRuns should load stages, got %d", len(runs[0].Stages))
	}

	all, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRuns(0) returned %d runs, want 3", len(all))
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.SaveRun(ctx, sampleRun("persist", time.Now())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	st.Close()

	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	if _, err := st.GetRun(ctx, "persist"); err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
}
