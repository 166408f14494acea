package config

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches a plain, unquoted SQL identifier. table_schema
// ends up interpolated into query text, so anything else is rejected here.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks configuration ranges and formats. Called by Load;
// exported so tests and manual construction can reuse it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.NResults < 1 || c.NResults > 1000 {
		return fmt.Errorf("%w: must be between 1 and 1000, got %d", ErrInvalidNResults, c.NResults)
	}

	if !identifierPattern.MatchString(c.TableSchema) {
		return fmt.Errorf("%w: %q must be a plain SQL identifier", ErrInvalidTableSchema, c.TableSchema)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if strings.TrimSpace(c.PostgresHost) == "" || strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: host and database name are required", ErrMissingConnection)
	}

	return nil
}
