package completion

import (
	"context"
	"fmt"
	"strings"
)

const questionSystemPrompt = "The user will give you SQL and you will try to guess " +
	"what the business question this query is answering. Return just the question " +
	"without any additional explanation. Do not reference the table name in the question."

// Questioner synthesizes a natural-language question for a SQL query.
// It satisfies training.QuestionGenerator.
type Questioner struct {
	adapter *Adapter
}

// NewQuestioner creates a Questioner over a completion adapter.
func NewQuestioner(adapter *Adapter) *Questioner {
	return &Questioner{adapter: adapter}
}

// GenerateQuestion asks the model what business question the SQL answers.
func (q *Questioner) GenerateQuestion(ctx context.Context, sqlText string) (string, error) {
	answer, err := q.adapter.Submit(ctx, []Message{
		System(questionSystemPrompt),
		User(sqlText),
	})
	if err != nil {
		return "", fmt.Errorf("generating question: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
