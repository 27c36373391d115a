package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store/sqlite"
)

func main() {
	var (
		dbPath = flag.String("db", "runs.db", "SQLite run store written by hanvocab (reports.sqlite)")
		limit  = flag.Int("limit", 10, "Maximum runs to list (0 = all)")
		runID  = flag.String("run", "", "Show the tokens of one run instead of listing runs")
		top    = flag.Int("top", 20, "Tokens to show with -run (0 = all)")
	)
	flag.Parse()

	ctx := context.Background()
	st, err := openStore(ctx, *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	if *runID != "" {
		err = showRun(ctx, os.Stdout, st, *runID, *top)
	} else {
		err = listRuns(ctx, os.Stdout, st, *limit)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		st.Close()
		os.Exit(1)
	}
}

// openStore opens an existing run store. It never creates one.
func openStore(ctx context.Context, path string) (store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no run store at %s: %w", path, err)
	}
	st, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return st, nil
}

func listRuns(ctx context.Context, out io.Writer, st store.Store, limit int) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tVOCABULARY\tTOKENS\tSTOPWORDS\tKEPT")
	for _, r := range runs {
		kept := "-"
		if n := len(r.Stages); n > 0 {
			kept = fmt.Sprint(r.Stages[n-1].Out)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Vocabulary, r.VocabularySize, r.StopwordCount, kept)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, out io.Writer, st store.Store, id string, top int) error {
	r, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run %s (%s), %d of %d tokens kept\n", r.ID, r.Vocabulary, len(r.Entries), r.VocabularySize)
	for _, s := range r.Stages {
		fmt.Fprintf(out, "  %-18s %8d -> %d\n", s.Name, s.In, s.Out)
	}

	entries := r.Entries
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%8d  %s\n", e.Index, e.Token)
	}
	return nil
}
