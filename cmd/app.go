package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sqlmint/sqlmint/db"
	"github.com/sqlmint/sqlmint/internal/completion"
	"github.com/sqlmint/sqlmint/internal/config"
	"github.com/sqlmint/sqlmint/internal/training"
	"github.com/sqlmint/sqlmint/internal/vector"
)

// App bundles the wired components a command works with.
type App struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Training   *training.Store
	Trainer    *training.Trainer
	Adapter    *completion.Adapter
	Questioner *completion.Questioner
}

// Close releases the resources held by the App.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// setup loads configuration, runs migrations, and wires the stores.
// Every command goes through here; commands that never touch the model
// still initialize Genkit because the embedder rides on it.
func setup(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := checkRequiredEnv(); err != nil {
		return nil, err
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		pool.Close()
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	logger := slog.Default()

	vstore, err := vector.New(
		vector.NewQueries(pool, cfg.TableSchema),
		pool,
		cfg.TableSchema,
		embedder,
		logger.With("component", "vector"),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	store := training.NewStore(
		vstore.Collection(string(training.CollectionSQL)),
		vstore.Collection(string(training.CollectionDDL)),
		vstore.Collection(string(training.CollectionDocumentation)),
		vstore,
		logger.With("component", "training"),
		training.WithNResults(cfg.NResults),
	)

	adapter := completion.NewAdapter(
		completion.NewGenkitClient(g),
		cfg.FullModelName(),
		cfg.Temperature,
		logger.With("component", "completion"),
	)

	questioner := completion.NewQuestioner(adapter)
	trainer := training.NewTrainer(store, questioner,
		logger.With("component", "trainer"))

	return &App{
		Config:     cfg,
		Pool:       pool,
		Training:   store,
		Trainer:    trainer,
		Adapter:    adapter,
		Questioner: questioner,
	}, nil
}

// checkRequiredEnv verifies that required environment variables are set.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}
