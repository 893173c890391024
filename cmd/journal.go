package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/tonhe/sol/internal/journal"
	"github.com/tonhe/sol/internal/logging"
)

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of rows to show")
	asCSV := fs.Bool("csv", false, "Write rows as CSV to stdout")
	path := fs.String("path", "", "Journal database (default from config)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sol journal [--limit N] [--csv] [--path FILE]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *limit < 1 {
		fatal("--limit must be at least 1")
	}

	cfg, _, err := LoadConfig(Overrides{})
	if err != nil {
		fatal("%v", err)
	}
	if *path != "" {
		cfg.JournalPath = *path
	}
	j, err := OpenJournal(cfg, logging.Discard())
	if err != nil {
		fatal("%v", err)
	}
	defer j.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	entries, err := j.Recent(ctx, *limit)
	if err != nil {
		fatal("%v", err)
	}

	if *asCSV {
		if err := journal.WriteCSV(os.Stdout, entries); err != nil {
			fatal("%v", err)
		}
		return
	}

	if len(entries) == 0 {
		fmt.Println("Journal is empty.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAKEN\tPANEL\tMETRIC\tVALUE\tSTATUS")
	for _, e := range entries {
		value := "n/a"
		if e.Value != nil {
			value = fmt.Sprintf("%.2f", *e.Value)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.TakenAt.Local().Format(time.DateTime), e.Panel, e.Metric, value, e.Status)
	}
	w.Flush()
}
