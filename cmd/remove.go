package cmd

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
)

// runRemove deletes one training row by id, or a whole collection.
func runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	collection := fs.String("collection", "", "delete this whole collection instead of a single id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *collection == "" && fs.NArg() != 1 {
		return fmt.Errorf("usage: sqlmint remove <id> | sqlmint remove -collection <name>")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if *collection != "" {
		if !a.Training.RemoveCollection(ctx, *collection) {
			return fmt.Errorf("collection %q was not removed", *collection)
		}
		fmt.Printf("Removed collection %q\n", *collection)
		return nil
	}

	id := fs.Arg(0)
	if !a.Training.RemoveTrainingData(ctx, id) {
		return fmt.Errorf("training data %q was not removed", id)
	}
	fmt.Printf("Removed %s\n", id)
	return nil
}
