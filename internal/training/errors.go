package training

import "errors"

// Sentinel errors for training operations.
// Check with errors.Is().
var (
	// ErrInvalidCollection indicates a collection name outside the closed
	// set {sql, ddl, documentation}.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrSQLRequired indicates a training request carrying a question but
	// no SQL; a question alone cannot be trained.
	ErrSQLRequired = errors.New("a SQL query is required to train a question")

	// ErrNoQuestionGenerator indicates a bare-SQL training request arrived
	// but no question generator was configured.
	ErrNoQuestionGenerator = errors.New("no question generator configured")
)
