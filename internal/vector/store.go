package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
)

// Querier defines the database operations the store needs. Interfaces are
// defined by the consumer; *Queries is the production implementation and
// tests supply mocks.
type Querier interface {
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error
	SearchCollection(ctx context.Context, arg SearchCollectionParams) ([]SearchRow, error)
	ListDocuments(ctx context.Context) ([]StoredDocument, error)
	DeleteDocument(ctx context.Context, id string) (int64, error)
	DeleteCollection(ctx context.Context, collection string) (int64, error)
}

// Store is a partitioned document store over PostgreSQL + pgvector.
// Collections are logical partitions of one flat table; Collection() hands
// out per-partition views while List/DeleteByID/DeleteCollection operate on
// the flat table directly.
//
// Store is safe for concurrent use; it adds no locking of its own beyond
// what the connection pool provides.
type Store struct {
	queries  Querier
	pool     *pgxpool.Pool // nil in unit tests; deletes then skip the transaction
	schema   string
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store.
//
// The pool is used only to open short-lived transactions around deletes;
// passing nil (tests with a mock Querier) degrades deletes to plain
// statements. The schema must be a plain identifier.
func New(querier Querier, pool *pgxpool.Pool, schema string, embedder ai.Embedder, logger *slog.Logger) (*Store, error) {
	if err := ValidateSchema(schema); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		queries:  querier,
		pool:     pool,
		schema:   schema,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Collection returns a handle on one logical partition. The name is not
// validated here; callers own the closed set of collection names.
func (s *Store) Collection(name string) *Collection {
	return &Collection{store: s, name: name}
}

// Collection is a similarity-searchable view of one partition.
type Collection struct {
	store *Store
	name  string
}

// Name returns the partition name this handle is bound to.
func (c *Collection) Name() string {
	return c.name
}

// Add embeds and upserts documents into the partition. Documents with ids
// already present are overwritten, so re-adding identical content is a
// no-op in effect.
func (c *Collection) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	embeddings, err := c.store.embed(ctx, docs)
	if err != nil {
		return err
	}

	for i, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %q: %w", doc.ID, err)
		}

		if err := c.store.queries.UpsertDocument(ctx, UpsertDocumentParams{
			ID:         doc.ID,
			Collection: c.name,
			Content:    doc.Content,
			Metadata:   metadataJSON,
			Embedding:  embeddings[i],
		}); err != nil {
			return fmt.Errorf("upserting document %q: %w", doc.ID, err)
		}

		c.store.logger.Debug("added document",
			"id", doc.ID, "collection", c.name, "content_length", len(doc.Content))
	}
	return nil
}

// Search returns the k most similar documents in the partition, ordered by
// descending cosine similarity as computed by the database. No re-ranking
// happens here.
func (c *Collection) Search(ctx context.Context, query string, k int) ([]Result, error) {
	queryEmbedding, err := c.store.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := c.store.queries.SearchCollection(ctx, SearchCollectionParams{
		Collection:     c.name,
		QueryEmbedding: queryEmbedding,
		ResultLimit:    int32(k), // #nosec G115 -- k is a small caller-bounded limit
	})
	if err != nil {
		return nil, fmt.Errorf("searching collection %q: %w", c.name, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]string
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			c.store.logger.Warn("failed to parse metadata", "document_id", row.ID, "error", err)
			metadata = make(map[string]string)
		}
		results = append(results, Result{
			Document: Document{
				ID:       row.ID,
				Content:  row.Content,
				Metadata: metadata,
			},
			Similarity: row.Similarity,
		})
	}
	return results, nil
}

// List scans the entire corpus across partitions.
func (s *Store) List(ctx context.Context) ([]StoredDocument, error) {
	docs, err := s.queries.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}
	return docs, nil
}

// DeleteByID removes one document inside a short-lived transaction and
// reports rows affected. The transaction commits on success and rolls back
// on any failure, including panics unwinding through the defer.
func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	return s.deleteTx(ctx, func(q Querier) (int64, error) {
		return q.DeleteDocument(ctx, id)
	})
}

// DeleteCollection removes every document in a partition inside a
// short-lived transaction and reports rows affected.
func (s *Store) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	return s.deleteTx(ctx, func(q Querier) (int64, error) {
		return q.DeleteCollection(ctx, collection)
	})
}

// deleteTx runs op inside a transaction when a pool is available.
// With a nil pool (mock queriers in tests) it runs op directly.
func (s *Store) deleteTx(ctx context.Context, op func(Querier) (int64, error)) (int64, error) {
	if s.pool == nil {
		return op(s.queries)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning delete transaction: %w", err)
	}
	// Rollback is a no-op once the transaction committed.
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			s.logger.Debug("transaction rollback (may be already committed)", "error", err)
		}
	}()

	n, err := op(NewQueries(tx, s.schema))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing delete transaction: %w", err)
	}
	return n, nil
}

// embed generates embeddings for a batch of documents, preserving order.
func (s *Store) embed(ctx context.Context, docs []Document) ([]*pgvector.Vector, error) {
	input := make([]*ai.Document, len(docs))
	for i, doc := range docs {
		input[i] = ai.DocumentFromText(doc.Content, nil)
	}

	// Gemini embedding models default to more dimensions than the table
	// column holds; pin the output to the schema's dimension.
	dim := int32(VectorDimension)
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   input,
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d documents", len(resp.Embeddings), len(docs))
	}

	vectors := make([]*pgvector.Vector, len(docs))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for document %q", docs[i].ID)
		}
		v := pgvector.NewVector(emb.Embedding)
		vectors[i] = &v
	}
	return vectors, nil
}

// embedOne generates a single query embedding.
func (s *Store) embedOne(ctx context.Context, text string) (*pgvector.Vector, error) {
	dim := int32(VectorDimension)
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	v := pgvector.NewVector(resp.Embeddings[0].Embedding)
	return &v, nil
}
