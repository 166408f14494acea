package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sqlmint/sqlmint/internal/completion"
	"github.com/sqlmint/sqlmint/internal/training"
)

const askSystemPrompt = "You are a SQL expert. Given the schema, " +
	"documentation, and example queries below, answer the user's question " +
	"with a single SQL statement and nothing else."

// runAsk generates SQL for a question using the stored training data as
// retrieval context.
func runAsk(args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: sqlmint ask <question>")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	messages, err := buildAskMessages(ctx, a.Training, question)
	if err != nil {
		return err
	}

	answer, err := a.Adapter.Submit(ctx, messages)
	if err != nil {
		return fmt.Errorf("generating sql: %w", err)
	}

	fmt.Println(answer)
	return nil
}

// buildAskMessages assembles the retrieval context for a question: related
// DDL and documentation in the system message, then similar question/SQL
// pairs as few-shot exchanges, then the question itself.
func buildAskMessages(ctx context.Context, store *training.Store, question string) ([]completion.Message, error) {
	pairs, err := store.GetSimilarQuestionSQL(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving similar questions: %w", err)
	}
	ddl, err := store.GetRelatedDDL(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving related ddl: %w", err)
	}
	docs, err := store.GetRelatedDocumentation(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving related documentation: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(askSystemPrompt)
	if len(ddl) > 0 {
		sb.WriteString("\n\nSchema:\n")
		for _, d := range ddl {
			sb.WriteString(d)
			sb.WriteString("\n")
		}
	}
	if len(docs) > 0 {
		sb.WriteString("\nDocumentation:\n")
		for _, d := range docs {
			sb.WriteString(d)
			sb.WriteString("\n")
		}
	}

	messages := []completion.Message{completion.System(sb.String())}
	for _, p := range pairs {
		if p.Question == "" || p.SQL == "" {
			continue
		}
		messages = append(messages,
			completion.User(p.Question),
			completion.Assistant(p.SQL))
	}
	messages = append(messages, completion.User(question))

	return messages, nil
}
