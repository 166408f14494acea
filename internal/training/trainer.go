package training

import (
	"context"
	"fmt"
	"log/slog"
)

// QuestionGenerator synthesizes a natural-language question for a SQL query
// that arrived without one. Backed by the completion collaborator in
// production.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, sqlText string) (string, error)
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithPlanSynthesis enables question synthesis for sql plan items that lack
// a name. By default such items are skipped during plan replay: bulk replay
// avoids per-item completion calls, unlike the single-item Train path which
// always synthesizes for bare SQL.
func WithPlanSynthesis() TrainerOption {
	return func(t *Trainer) {
		t.planSynthesis = true
	}
}

// Trainer routes training requests and replays training plans into the
// Store.
type Trainer struct {
	store         *Store
	questions     QuestionGenerator // may be nil; bare-SQL training then fails
	planSynthesis bool
	logger        *slog.Logger
}

// NewTrainer creates a Trainer over a Store. questions may be nil when no
// completion collaborator is available; training bare SQL then returns
// ErrNoQuestionGenerator.
func NewTrainer(store *Store, questions QuestionGenerator, logger *slog.Logger, opts ...TrainerOption) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Trainer{
		store:     store,
		questions: questions,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Request is a single training request. Exactly one branch applies, in
// priority order; see Train.
type Request struct {
	Question      string
	SQL           string
	DDL           string
	Documentation string
}

// Train stores one piece of training data, dispatching on which fields are
// set:
//
//  1. question + sql       -> store the pair
//  2. documentation        -> store documentation
//  3. sql alone            -> synthesize a question, store the pair
//  4. ddl                  -> store ddl
//  5. question alone       -> ErrSQLRequired
//  6. nothing              -> no-op, empty id
//
// No two branches execute for one call. The returned id is empty only for
// the no-op case.
func (t *Trainer) Train(ctx context.Context, req Request) (string, error) {
	switch {
	case req.SQL != "" && req.Question != "":
		t.logger.Info("training question-sql pair", "question", req.Question)
		return t.store.AddQuestionSQL(ctx, req.Question, req.SQL)

	case req.Documentation != "":
		t.logger.Info("training documentation", "length", len(req.Documentation))
		return t.store.AddDocumentation(ctx, req.Documentation)

	case req.SQL != "":
		if t.questions == nil {
			return "", ErrNoQuestionGenerator
		}
		question, err := t.questions.GenerateQuestion(ctx, req.SQL)
		if err != nil {
			return "", fmt.Errorf("generating question for sql: %w", err)
		}
		t.logger.Info("generated question for bare sql", "question", question)
		return t.store.AddQuestionSQL(ctx, question, req.SQL)

	case req.DDL != "":
		t.logger.Info("training ddl", "length", len(req.DDL))
		return t.store.AddDDL(ctx, req.DDL)

	case req.Question != "":
		return "", ErrSQLRequired

	default:
		return "", nil
	}
}

// ApplyPlan replays a training plan in order, one pass, no retries. Each
// item maps onto the corresponding store operation; sql items without a
// name are skipped unless WithPlanSynthesis was set and a generator is
// available. The first failing item aborts the replay.
func (t *Trainer) ApplyPlan(ctx context.Context, plan *TrainingPlan) error {
	if plan == nil {
		return nil
	}

	for i, item := range plan.Items {
		var err error
		switch {
		case item.Type == ItemTypeDDL:
			_, err = t.store.AddDDL(ctx, item.Value)

		case item.Type == ItemTypeIS:
			_, err = t.store.AddDocumentation(ctx, item.Value)

		case item.Type == ItemTypeSQL && item.Name != "":
			_, err = t.store.AddQuestionSQL(ctx, item.Name, item.Value)

		case item.Type == ItemTypeSQL:
			if t.planSynthesis && t.questions != nil {
				_, err = t.Train(ctx, Request{SQL: item.Value})
			} else {
				// A sql item without a question cannot be trained through
				// plan replay; the single-item Train path synthesizes one.
				t.logger.Debug("skipping sql plan item without a question", "index", i)
			}

		default:
			t.logger.Warn("skipping plan item with unknown type", "index", i, "type", item.Type)
		}

		if err != nil {
			return fmt.Errorf("applying plan item %d (%s): %w", i, item.Type, err)
		}
	}
	return nil
}
