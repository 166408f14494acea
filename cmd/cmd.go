// Package cmd provides CLI commands for sqlmint.
//
// Commands:
//   - train: store question/SQL pairs, DDL, documentation, or replay a plan
//   - ask: generate SQL for a question using the stored training data
//   - export: dump all training data as a table or JSON
//   - remove: delete one training row or an entire collection
//
// Each command loads configuration, runs migrations, and wires the stores
// before doing its work. Signal handling is implemented via context
// cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sqlmint/sqlmint/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the sqlmint CLI application.
func Execute() error {
	// Initialize logger once at entry point
	slog.SetDefault(newLogger())

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "train":
		return runTrain(os.Args[2:])
	case "ask":
		return runAsk(os.Args[2:])
	case "export":
		return runExport(os.Args[2:])
	case "remove":
		return runRemove(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// newLogger builds the process logger from the environment. DEBUG enables
// debug-level output; LOG_JSON switches from text to JSON format.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	if os.Getenv("LOG_JSON") != "" {
		cfg.JSON = true
	}
	return log.New(cfg)
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("sqlmint - training data store for SQL generation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sqlmint train [flags]       Store training data")
	fmt.Println("  sqlmint ask <question>      Generate SQL for a question")
	fmt.Println("  sqlmint export [-json]      Dump all training data")
	fmt.Println("  sqlmint remove <id>         Delete one training row")
	fmt.Println("  sqlmint remove -collection <name>")
	fmt.Println("                              Delete a whole collection")
	fmt.Println("  sqlmint --version           Show version information")
	fmt.Println("  sqlmint --help              Show this help")
	fmt.Println()
	fmt.Println("Train flags:")
	fmt.Println("  -question <text>   Business question (paired with -sql)")
	fmt.Println("  -sql <text>        SQL statement; without -question a question is synthesized")
	fmt.Println("  -ddl <text>        DDL statement")
	fmt.Println("  -doc <text>        Documentation text")
	fmt.Println("  -plan <file>       Replay a training plan from a JSON file")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
	fmt.Println("  LOG_JSON           Optional: Emit logs as JSON")
}
