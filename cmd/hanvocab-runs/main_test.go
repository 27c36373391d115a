package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store/memstore"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store/sqlite"
)

func seed(t *testing.T) store.Store {
	t.Helper()
	st := memstore.New()
	run := store.Run{
		ID:             "01JRUN",
		StartedAt:      time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Vocabulary:     "o200k_base.tiktoken",
		VocabularySize: 200019,
		StopwordCount:  584429,
		Stages: []store.StageCount{
			{Name: "keep_chinese", In: 200019, Out: 7449},
			{Name: "deduplicate", In: 3000, Out: 2981},
		},
		Entries: []store.Entry{
			{Index: 188000, Token: "中华人民共和国"},
			{Index: 5000, Token: "中文"},
			{Index: 6000, Token: "汉字"},
		},
	}
	if err := st.SaveRun(context.Background(), run); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestListRuns(t *testing.T) {
	var buf bytes.Buffer
	if err := listRuns(context.Background(), &buf, seed(t), 10); err != nil {
		t.Fatalf("listRuns: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "RUN") {
		t.Errorf("missing header: %q", lines[0])
	}
	for _, want := range []string{"01JRUN", "o200k_base.tiktoken", "200019", "584429", "2981"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q should contain %q", lines[1], want)
		}
	}
}

func TestShowRun(t *testing.T) {
	var buf bytes.Buffer
	if err := showRun(context.Background(), &buf, seed(t), "01JRUN", 2); err != nil {
		t.Fatalf("showRun: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "3 of 200019 tokens kept") {
		t.Errorf("summary missing: %q", out)
	}
	if !strings.Contains(out, "中华人民共和国") || !strings.Contains(out, "中文") {
		t.Errorf("top entries missing: %q", out)
	}
	if strings.Contains(out, "汉字") {
		t.Errorf("-top 2 should hide the third entry: %q", out)
	}
}

func TestShowRunUnknown(t *testing.T) {
	var buf bytes.Buffer
	if err := showRun(context.Background(), &buf, seed(t), "nope", 0); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestOpenStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")

	_, err := openStore(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for missing store")
	}
	if !errors.Is(err, fs.ErrNotExist) || !strings.Contains(err.Error(), "no run store at") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("a missing store must not be created")
	}
}

func TestOpenStoreExisting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	created, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	created.Close()

	st, err := openStore(ctx, path)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, 0)
	if err != nil || len(runs) != 0 {
		t.Errorf("ListRuns = %v, %v", runs, err)
	}
}
