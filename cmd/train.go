package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqlmint/sqlmint/internal/training"
)

// runTrain stores one piece of training data or replays a plan file.
func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	question := fs.String("question", "", "business question paired with -sql")
	sqlText := fs.String("sql", "", "SQL statement to store")
	ddl := fs.String("ddl", "", "DDL statement to store")
	doc := fs.String("doc", "", "documentation text to store")
	planPath := fs.String("plan", "", "path to a training plan JSON file")
	synthesize := fs.Bool("synthesize", false, "synthesize questions for nameless sql plan items")
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

	if *planPath != "" {
		return applyPlanFile(ctx, a, *planPath, *synthesize)
	}

	id, err := a.Trainer.Train(ctx, training.Request{
		Question:      *question,
		SQL:           *sqlText,
		DDL:           *ddl,
		Documentation: *doc,
	})
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if id == "" {
		fmt.Println("Nothing to train: provide -sql, -ddl, or -doc")
		return nil
	}

	fmt.Println(id)
	return nil
}

func applyPlanFile(ctx context.Context, a *App, path string, synthesize bool) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's own flag
	if err != nil {
		return fmt.Errorf("reading plan file: %w", err)
	}

	var plan training.TrainingPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("parsing plan file: %w", err)
	}

	trainer := a.Trainer
	if synthesize {
		trainer = training.NewTrainer(a.Training, a.Questioner, nil,
			training.WithPlanSynthesis())
	}

	if err := trainer.ApplyPlan(ctx, &plan); err != nil {
		return fmt.Errorf("applying plan: %w", err)
	}

	fmt.Printf("Applied training plan: %d items\n", len(plan.Items))
	return nil
}
