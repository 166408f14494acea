// Package training implements the content-addressed training corpus behind
// the SQL generation assistant: three logical collections (question/SQL
// pairs, DDL, documentation) with deterministic ids, categorized similarity
// retrieval, transactional deletes, and a unified tabular export.
package training

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sqlmint/sqlmint/internal/vector"
)

// DefaultNResults is the similarity-search result bound when none is
// configured.
const DefaultNResults = 10

// Collection is one similarity-searchable corpus partition.
// Implemented by *vector.Collection in production; tests supply mocks.
type Collection interface {
	Add(ctx context.Context, docs []vector.Document) error
	Search(ctx context.Context, query string, k int) ([]vector.Result, error)
}

// Corpus exposes the flat table underneath the partitions: full scans for
// export and transactional deletes. Implemented by *vector.Store.
type Corpus interface {
	List(ctx context.Context) ([]vector.StoredDocument, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteCollection(ctx context.Context, collection string) (int64, error)
}

// DecodePolicy controls how the bulk export treats rows whose payload or
// classification cannot be decoded.
type DecodePolicy int

const (
	// DecodeSkip drops undecodable rows from the export with a log line,
	// preserving the rest. This is the default: export favors completeness
	// of the remainder over per-row strictness.
	DecodeSkip DecodePolicy = iota

	// DecodeFail aborts the export on the first undecodable row.
	DecodeFail
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNResults sets the default similarity-search result count.
func WithNResults(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.nResults = n
		}
	}
}

// WithDecodePolicy sets the bulk-export decode policy.
// Live similarity retrieval is always strict regardless of this setting.
func WithDecodePolicy(p DecodePolicy) StoreOption {
	return func(s *Store) {
		s.decodePolicy = p
	}
}

// Store owns the lifecycle of training records across the three
// collections. Inserts are idempotent: ids derive from content, and the
// backing store upserts, so identical content converges to one record.
//
// Store is safe for concurrent use to the extent the backing store is.
type Store struct {
	collections  map[CollectionName]Collection
	corpus       Corpus
	nResults     int
	decodePolicy DecodePolicy
	logger       *slog.Logger
}

// NewStore creates a Store over the three collection partitions and the
// flat corpus beneath them.
func NewStore(sqlColl, ddlColl, docColl Collection, corpus Corpus, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		collections: map[CollectionName]Collection{
			CollectionSQL:           sqlColl,
			CollectionDDL:           ddlColl,
			CollectionDocumentation: docColl,
		},
		corpus:   corpus,
		nResults: DefaultNResults,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection resolves a collection name to its partition.
// Unknown names return ErrInvalidCollection.
func (s *Store) Collection(name string) (Collection, error) {
	cn, err := ResolveCollection(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}
	return s.collections[cn], nil
}

// AddQuestionSQL stores a question/SQL pair in the sql collection and
// returns the derived id. Re-inserting the same pair yields the same id and
// leaves a single record.
func (s *Store) AddQuestionSQL(ctx context.Context, question, sqlText string) (string, error) {
	payload, err := json.Marshal(questionSQLPayload{Question: question, SQL: sqlText})
	if err != nil {
		return "", fmt.Errorf("encoding question-sql payload: %w", err)
	}

	id := DeterministicID(string(payload)) + idSuffixes[CollectionSQL]
	if err := s.add(ctx, CollectionSQL, id, string(payload)); err != nil {
		return "", err
	}
	return id, nil
}

// AddDDL stores a DDL statement in the ddl collection and returns the
// derived id.
func (s *Store) AddDDL(ctx context.Context, ddl string) (string, error) {
	id := DeterministicID(ddl) + idSuffixes[CollectionDDL]
	if err := s.add(ctx, CollectionDDL, id, ddl); err != nil {
		return "", err
	}
	return id, nil
}

// AddDocumentation stores free-text documentation in the documentation
// collection and returns the derived id.
func (s *Store) AddDocumentation(ctx context.Context, text string) (string, error) {
	id := DeterministicID(text) + idSuffixes[CollectionDocumentation]
	if err := s.add(ctx, CollectionDocumentation, id, text); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) add(ctx context.Context, cn CollectionName, id, content string) error {
	doc := vector.Document{
		ID:       id,
		Content:  content,
		Metadata: map[string]string{"id": id},
	}
	if err := s.collections[cn].Add(ctx, []vector.Document{doc}); err != nil {
		return fmt.Errorf("adding to %s collection: %w", cn, err)
	}

	s.logger.Debug("added training record", "id", id, "collection", cn)
	return nil
}

// SimilaritySearch returns the k most similar records in a collection,
// ordered as the backing index returns them. k <= 0 uses the configured
// default. For the sql collection the stored payload is decoded back into a
// question/SQL pair; a malformed payload fails the whole query, since a
// live retrieval must not hand garbage to the generation pipeline.
func (s *Store) SimilaritySearch(ctx context.Context, collection, query string, k int) ([]Record, error) {
	cn, err := ResolveCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, collection)
	}
	if k <= 0 {
		k = s.nResults
	}

	results, err := s.collections[cn].Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		rec := Record{ID: res.Document.ID, Collection: cn, Content: res.Document.Content}
		if cn == CollectionSQL {
			var payload questionSQLPayload
			if err := json.Unmarshal([]byte(res.Document.Content), &payload); err != nil {
				return nil, fmt.Errorf("decoding question-sql payload %q: %w", res.Document.ID, err)
			}
			rec.Question = payload.Question
			rec.Content = payload.SQL
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetSimilarQuestionSQL returns stored question/SQL pairs most similar to
// the given question.
func (s *Store) GetSimilarQuestionSQL(ctx context.Context, question string) ([]QuestionSQL, error) {
	records, err := s.SimilaritySearch(ctx, string(CollectionSQL), question, s.nResults)
	if err != nil {
		return nil, err
	}

	pairs := make([]QuestionSQL, len(records))
	for i, rec := range records {
		pairs[i] = QuestionSQL{Question: rec.Question, SQL: rec.Content}
	}
	return pairs, nil
}

// GetRelatedDDL returns DDL statements most relevant to the given question.
func (s *Store) GetRelatedDDL(ctx context.Context, question string) ([]string, error) {
	return s.searchContent(ctx, CollectionDDL, question)
}

// GetRelatedDocumentation returns documentation most relevant to the given
// question.
func (s *Store) GetRelatedDocumentation(ctx context.Context, question string) ([]string, error) {
	return s.searchContent(ctx, CollectionDocumentation, question)
}

func (s *Store) searchContent(ctx context.Context, cn CollectionName, query string) ([]string, error) {
	records, err := s.SimilaritySearch(ctx, string(cn), query, s.nResults)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(records))
	for i, rec := range records {
		contents[i] = rec.Content
	}
	return contents, nil
}

// GetTrainingData exports the whole corpus as typed rows. Classification
// comes from the first-class collection tag, falling back to the id suffix
// for rows written before the tag existed. Under the default DecodeSkip
// policy, rows that cannot be classified or decoded are dropped with a log
// line so the rest of the export survives.
func (s *Store) GetTrainingData(ctx context.Context) ([]DataRow, error) {
	docs, err := s.corpus.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]DataRow, 0, len(docs))
	for _, doc := range docs {
		cn, ok := classify(doc)
		if !ok {
			if s.decodePolicy == DecodeFail {
				return nil, fmt.Errorf("%w: row %q has no recognizable collection", ErrInvalidCollection, doc.ID)
			}
			s.logger.Warn("skipping row with unrecognized collection", "id", doc.ID)
			continue
		}

		row := DataRow{ID: doc.ID, Content: doc.Content, Type: cn}
		if cn == CollectionSQL {
			var payload questionSQLPayload
			if err := json.Unmarshal([]byte(doc.Content), &payload); err != nil {
				if s.decodePolicy == DecodeFail {
					return nil, fmt.Errorf("decoding question-sql payload %q: %w", doc.ID, err)
				}
				s.logger.Warn("skipping row with undecodable payload", "id", doc.ID, "error", err)
				continue
			}
			question := payload.Question
			row.Question = &question
			row.Content = payload.SQL
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// classify determines a row's collection from its tag, or from the legacy
// id suffix when the tag is absent.
func classify(doc vector.StoredDocument) (CollectionName, bool) {
	if doc.Collection != "" {
		cn, err := ResolveCollection(doc.Collection)
		if err != nil {
			return "", false
		}
		return cn, true
	}
	if len(doc.ID) < 3 {
		return "", false
	}
	cn, ok := collectionsBySuffix[doc.ID[len(doc.ID)-3:]]
	return cn, ok
}

// RemoveTrainingData deletes the record addressed by id and reports whether
// a record was actually removed. Failures are logged and reported as false,
// never returned as errors; the underlying delete runs in its own
// transaction and rolls back on failure.
func (s *Store) RemoveTrainingData(ctx context.Context, id string) bool {
	n, err := s.corpus.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to remove training record", "id", id, "error", err)
		return false
	}
	return n > 0
}

// RemoveCollection bulk-deletes every record in the named collection.
// Returns false for an unknown name, on failure, and when no rows matched;
// the log output distinguishes the cases.
func (s *Store) RemoveCollection(ctx context.Context, name string) bool {
	cn, err := ResolveCollection(name)
	if err != nil {
		s.logger.Error("invalid collection name", "name", name,
			"valid", strings.Join([]string{string(CollectionSQL), string(CollectionDDL), string(CollectionDocumentation)}, ", "))
		return false
	}

	n, err := s.corpus.DeleteCollection(ctx, string(cn))
	if err != nil {
		s.logger.Error("failed to remove collection", "collection", cn, "error", err)
		return false
	}
	if n == 0 {
		s.logger.Info("no rows deleted for collection", "collection", cn)
		return false
	}

	s.logger.Info("removed collection rows", "collection", cn, "rows", n)
	return true
}
