package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sqlmint/sqlmint/internal/training"
)

// runExport dumps all training data to stdout.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "emit JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.Training.GetTrainingData(ctx)
	if err != nil {
		return fmt.Errorf("exporting training data: %w", err)
	}

	if *asJSON {
		return writeExportJSON(rows)
	}
	return writeExportTable(rows)
}

type exportRow struct {
	ID       string  `json:"id"`
	Type     string  `json:"training_data_type"`
	Question *string `json:"question"`
	Content  string  `json:"content"`
}

func writeExportJSON(rows []training.DataRow) error {
	out := make([]exportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, exportRow{
			ID:       r.ID,
			Type:     string(r.Type),
			Question: r.Question,
			Content:  r.Content,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

func writeExportTable(rows []training.DataRow) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tQUESTION\tCONTENT")
	for _, r := range rows {
		question := ""
		if r.Question != nil {
			question = *r.Question
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Type, truncate(question, 40), truncate(r.Content, 60))
	}
	return w.Flush()
}

// truncate shortens s to at most n runes, marking the cut with "...".
// Counting runes keeps multi-byte content intact at the cut point.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
