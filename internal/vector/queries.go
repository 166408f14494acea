package vector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// VectorDimension is the embedding dimension of the training_embedding table.
// Must match the vector(N) column in db/migrations and the configured
// embedder's output dimensionality.
const VectorDimension = 768

// TableName is the unqualified name of the corpus table.
const TableName = "training_embedding"

// identifierPattern matches a safe, unquoted SQL identifier. The table
// schema is the only value interpolated into query text; everything else is
// bound as a parameter.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSchema rejects schema names that are not plain identifiers,
// closing off injection through the table_schema configuration value.
func ValidateSchema(schema string) error {
	if !identifierPattern.MatchString(schema) {
		return fmt.Errorf("invalid table schema %q: must be a plain SQL identifier", schema)
	}
	return nil
}

// DBTX is the subset of pgx operations the queries need. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same query set runs inside and outside
// transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the corpus SQL against a DBTX.
type Queries struct {
	db    DBTX
	table string // validated "<schema>.training_embedding"
}

// NewQueries creates a query set for the corpus table in the given schema.
// The schema must already be validated with ValidateSchema.
func NewQueries(db DBTX, schema string) *Queries {
	return &Queries{
		db:    db,
		table: schema + "." + TableName,
	}
}

// WithTx returns a query set bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, table: q.table}
}

// UpsertDocumentParams holds one row for insert-or-update.
type UpsertDocumentParams struct {
	ID         string
	Collection string
	Content    string
	Metadata   []byte
	Embedding  *pgvector.Vector
}

// UpsertDocument inserts a document or replaces an existing one with the
// same id. Concurrent upserts of identical content race safely: both write
// the same row.
func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s (id, collection, document, cmetadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			collection = EXCLUDED.collection,
			document   = EXCLUDED.document,
			cmetadata  = EXCLUDED.cmetadata,
			embedding  = EXCLUDED.embedding`, q.table)

	_, err := q.db.Exec(ctx, sql, arg.ID, arg.Collection, arg.Content, arg.Metadata, arg.Embedding)
	return err
}

// SearchCollectionParams bounds a vector search to one collection.
type SearchCollectionParams struct {
	Collection     string
	QueryEmbedding *pgvector.Vector
	ResultLimit    int32
}

// SearchRow is one vector-search result row.
type SearchRow struct {
	ID         string
	Content    string
	Metadata   []byte
	Similarity float64
}

// SearchCollection returns the nearest documents in a collection by cosine
// distance, most similar first.
func (q *Queries) SearchCollection(ctx context.Context, arg SearchCollectionParams) ([]SearchRow, error) {
	sql := fmt.Sprintf(`
		SELECT id, document, cmetadata, 1 - (embedding <=> $2) AS similarity
		FROM %s
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3`, q.table)

	rows, err := q.db.Query(ctx, sql, arg.Collection, arg.QueryEmbedding, arg.ResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.Similarity); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListDocuments scans the whole corpus across collections, in insertion
// order. Embeddings are not loaded.
func (q *Queries) ListDocuments(ctx context.Context) ([]StoredDocument, error) {
	sql := fmt.Sprintf(`SELECT id, collection, document FROM %s ORDER BY created_at`, q.table)

	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var d StoredDocument
		if err := rows.Scan(&d.ID, &d.Collection, &d.Content); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes one document by id and reports rows affected.
func (q *Queries) DeleteDocument(ctx context.Context, id string) (int64, error) {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, q.table)
	tag, err := q.db.Exec(ctx, sql, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteCollection removes every document in a collection and reports rows
// affected.
func (q *Queries) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1`, q.table)
	tag, err := q.db.Exec(ctx, sql, collection)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
