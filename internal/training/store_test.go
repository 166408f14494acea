package training

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sqlmint/sqlmint/internal/vector"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockCollection implements Collection for testing
type mockCollection struct {
	addErr      error
	searchErr   error
	results     []vector.Result
	addCalls    int
	searchCalls int
	lastDocs    []vector.Document
	lastQuery   string
	lastK       int
}

func (m *mockCollection) Add(ctx context.Context, docs []vector.Document) error {
	m.addCalls++
	m.lastDocs = docs
	return m.addErr
}

func (m *mockCollection) Search(ctx context.Context, query string, k int) ([]vector.Result, error) {
	m.searchCalls++
	m.lastQuery = query
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

// mockCorpus implements Corpus for testing
type mockCorpus struct {
	docs            []vector.StoredDocument
	listErr         error
	deleteByIDN     int64
	deleteByIDErr   error
	deleteCollN     int64
	deleteCollErr   error
	lastDeletedID   string
	lastDeletedColl string
	deleteByIDCalls int
	deleteCollCalls int
}

func (m *mockCorpus) List(ctx context.Context) ([]vector.StoredDocument, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.docs, nil
}

func (m *mockCorpus) DeleteByID(ctx context.Context, id string) (int64, error) {
	m.deleteByIDCalls++
	m.lastDeletedID = id
	return m.deleteByIDN, m.deleteByIDErr
}

func (m *mockCorpus) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	m.deleteCollCalls++
	m.lastDeletedColl = collection
	return m.deleteCollN, m.deleteCollErr
}

func newTestStore(opts ...StoreOption) (*Store, *mockCollection, *mockCollection, *mockCollection, *mockCorpus) {
	sqlColl := &mockCollection{}
	ddlColl := &mockCollection{}
	docColl := &mockCollection{}
	corpus := &mockCorpus{}
	store := NewStore(sqlColl, ddlColl, docColl, corpus, nil, opts...)
	return store, sqlColl, ddlColl, docColl, corpus
}

func sqlResult(question, sqlText string) vector.Result {
	payload, _ := json.Marshal(questionSQLPayload{Question: question, SQL: sqlText})
	id := DeterministicID(string(payload)) + "-sql"
	return vector.Result{
		Document:   vector.Document{ID: id, Content: string(payload)},
		Similarity: 0.9,
	}
}

// ============================================================================
// Add operations
// ============================================================================

func TestStore_AddQuestionSQL(t *testing.T) {
	store, sqlColl, _, _, _ := newTestStore()
	ctx := context.Background()

	id, err := store.AddQuestionSQL(ctx, "How many orders?", "SELECT COUNT(*) FROM orders")
	if err != nil {
		t.Fatalf("AddQuestionSQL() error = %v", err)
	}
	if !strings.HasSuffix(id, "-sql") {
		t.Errorf("id %q should carry the -sql suffix", id)
	}
	if sqlColl.addCalls != 1 {
		t.Fatalf("expected 1 Add call, got %d", sqlColl.addCalls)
	}

	// The stored document carries the JSON payload, keyed by the derived id.
	doc := sqlColl.lastDocs[0]
	if doc.ID != id {
		t.Errorf("document id %q != returned id %q", doc.ID, id)
	}
	var payload questionSQLPayload
	if err := json.Unmarshal([]byte(doc.Content), &payload); err != nil {
		t.Fatalf("stored payload is not valid JSON: %v", err)
	}
	if payload.Question != "How many orders?" || payload.SQL != "SELECT COUNT(*) FROM orders" {
		t.Errorf("payload round-trip mismatch: %+v", payload)
	}
}

func TestStore_AddQuestionSQL_Idempotent(t *testing.T) {
	store, sqlColl, _, _, _ := newTestStore()
	ctx := context.Background()

	first, err := store.AddQuestionSQL(ctx, "q", "SELECT 1")
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := store.AddQuestionSQL(ctx, "q", "SELECT 1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if first != second {
		t.Errorf("identical pair produced different ids: %q vs %q", first, second)
	}
	if sqlColl.addCalls != 2 {
		t.Errorf("expected both adds to reach the collection, got %d calls", sqlColl.addCalls)
	}
}

func TestStore_AddDDL(t *testing.T) {
	store, _, ddlColl, _, _ := newTestStore()

	id, err := store.AddDDL(context.Background(), "CREATE TABLE orders (id INT)")
	if err != nil {
		t.Fatalf("AddDDL() error = %v", err)
	}
	if !strings.HasSuffix(id, "-ddl") {
		t.Errorf("id %q should carry the -ddl suffix", id)
	}
	if ddlColl.addCalls != 1 {
		t.Errorf("expected 1 Add call, got %d", ddlColl.addCalls)
	}
	if ddlColl.lastDocs[0].Content != "CREATE TABLE orders (id INT)" {
		t.Errorf("ddl stored verbatim mismatch: %q", ddlColl.lastDocs[0].Content)
	}
}

func TestStore_AddDocumentation(t *testing.T) {
	store, _, _, docColl, _ := newTestStore()

	id, err := store.AddDocumentation(context.Background(), "orders are created at checkout")
	if err != nil {
		t.Fatalf("AddDocumentation() error = %v", err)
	}
	if !strings.HasSuffix(id, "-doc") {
		t.Errorf("id %q should carry the -doc suffix", id)
	}
	if docColl.addCalls != 1 {
		t.Errorf("expected 1 Add call, got %d", docColl.addCalls)
	}
}

func TestStore_Add_PropagatesError(t *testing.T) {
	store, _, ddlColl, _, _ := newTestStore()
	ddlColl.addErr = errors.New("connection refused")

	if _, err := store.AddDDL(context.Background(), "CREATE TABLE t (id INT)"); err == nil {
		t.Error("expected error from failing collection")
	}
}

// ============================================================================
// Similarity search
// ============================================================================

func TestStore_SimilaritySearch_InvalidCollection(t *testing.T) {
	store, _, _, _, _ := newTestStore()

	_, err := store.SimilaritySearch(context.Background(), "embeddings", "query", 5)
	if !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("expected ErrInvalidCollection, got %v", err)
	}
}

func TestStore_SimilaritySearch_DefaultK(t *testing.T) {
	tests := []struct {
		name  string
		opts  []StoreOption
		k     int
		wantK int
	}{
		{name: "explicit k", k: 3, wantK: 3},
		{name: "zero k uses default", k: 0, wantK: DefaultNResults},
		{name: "negative k uses default", k: -1, wantK: DefaultNResults},
		{name: "configured default", opts: []StoreOption{WithNResults(25)}, k: 0, wantK: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, ddlColl, _, _ := newTestStore(tt.opts...)

			if _, err := store.SimilaritySearch(context.Background(), "ddl", "orders", tt.k); err != nil {
				t.Fatalf("SimilaritySearch() error = %v", err)
			}
			if ddlColl.lastK != tt.wantK {
				t.Errorf("k = %d, want %d", ddlColl.lastK, tt.wantK)
			}
		})
	}
}

func TestStore_SimilaritySearch_DecodesSQLPayload(t *testing.T) {
	store, sqlColl, _, _, _ := newTestStore()
	sqlColl.results = []vector.Result{sqlResult("How many orders?", "SELECT COUNT(*) FROM orders")}

	records, err := store.SimilaritySearch(context.Background(), "sql", "order count", 5)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Question != "How many orders?" {
		t.Errorf("question = %q", records[0].Question)
	}
	if records[0].Content != "SELECT COUNT(*) FROM orders" {
		t.Errorf("content = %q", records[0].Content)
	}
}

func TestStore_SimilaritySearch_MalformedPayloadFails(t *testing.T) {
	// Live retrieval is strict: a malformed sql payload fails the query
	// instead of handing garbage to the generation pipeline.
	store, sqlColl, _, _, _ := newTestStore()
	sqlColl.results = []vector.Result{{
		Document: vector.Document{ID: "bad-sql", Content: "{not json"},
	}}

	if _, err := store.SimilaritySearch(context.Background(), "sql", "q", 5); err == nil {
		t.Error("expected decode error for malformed payload")
	}
}

func TestStore_RetrievalFacade(t *testing.T) {
	store, sqlColl, ddlColl, docColl, _ := newTestStore()
	sqlColl.results = []vector.Result{sqlResult("q1", "SELECT 1")}
	ddlColl.results = []vector.Result{{Document: vector.Document{ID: "a-ddl", Content: "CREATE TABLE t (id INT)"}}}
	docColl.results = []vector.Result{{Document: vector.Document{ID: "a-doc", Content: "notes"}}}
	ctx := context.Background()

	pairs, err := store.GetSimilarQuestionSQL(ctx, "question")
	if err != nil {
		t.Fatalf("GetSimilarQuestionSQL() error = %v", err)
	}
	if len(pairs) != 1 || pairs[0].Question != "q1" || pairs[0].SQL != "SELECT 1" {
		t.Errorf("unexpected pairs: %+v", pairs)
	}

	ddl, err := store.GetRelatedDDL(ctx, "question")
	if err != nil {
		t.Fatalf("GetRelatedDDL() error = %v", err)
	}
	if len(ddl) != 1 || ddl[0] != "CREATE TABLE t (id INT)" {
		t.Errorf("unexpected ddl: %v", ddl)
	}

	docs, err := store.GetRelatedDocumentation(ctx, "question")
	if err != nil {
		t.Fatalf("GetRelatedDocumentation() error = %v", err)
	}
	if len(docs) != 1 || docs[0] != "notes" {
		t.Errorf("unexpected docs: %v", docs)
	}
}

// ============================================================================
// Export
// ============================================================================

func TestStore_GetTrainingData(t *testing.T) {
	payload, _ := json.Marshal(questionSQLPayload{Question: "q", SQL: "SELECT 1"})
	store, _, _, _, corpus := newTestStore()
	corpus.docs = []vector.StoredDocument{
		{ID: "a-sql", Collection: "sql", Content: string(payload)},
		{ID: "b-ddl", Collection: "ddl", Content: "CREATE TABLE t (id INT)"},
		{ID: "c-doc", Collection: "documentation", Content: "notes"},
	}

	rows, err := store.GetTrainingData(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingData() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].Type != CollectionSQL || rows[0].Question == nil || *rows[0].Question != "q" || rows[0].Content != "SELECT 1" {
		t.Errorf("unexpected sql row: %+v", rows[0])
	}
	if rows[1].Type != CollectionDDL || rows[1].Question != nil {
		t.Errorf("unexpected ddl row: %+v", rows[1])
	}
	if rows[2].Type != CollectionDocumentation || rows[2].Content != "notes" {
		t.Errorf("unexpected documentation row: %+v", rows[2])
	}
}

func TestStore_GetTrainingData_LegacySuffixFallback(t *testing.T) {
	// Rows written before the collection tag existed classify by id suffix.
	store, _, _, _, corpus := newTestStore()
	corpus.docs = []vector.StoredDocument{
		{ID: "legacy-ddl", Content: "CREATE TABLE t (id INT)"},
	}

	rows, err := store.GetTrainingData(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingData() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Type != CollectionDDL {
		t.Errorf("expected one ddl row, got %+v", rows)
	}
}

func TestStore_GetTrainingData_SkipsBadRows(t *testing.T) {
	store, _, _, _, corpus := newTestStore()
	corpus.docs = []vector.StoredDocument{
		{ID: "a-sql", Collection: "sql", Content: "{not json"},
		{ID: "mystery", Content: "no suffix, no tag"},
		{ID: "b-doc", Collection: "documentation", Content: "kept"},
	}

	rows, err := store.GetTrainingData(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingData() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "b-doc" {
		t.Errorf("expected only the good row to survive, got %+v", rows)
	}
}

func TestStore_GetTrainingData_DecodeFail(t *testing.T) {
	tests := []struct {
		name string
		doc  vector.StoredDocument
	}{
		{name: "undecodable payload", doc: vector.StoredDocument{ID: "a-sql", Collection: "sql", Content: "{not json"}},
		{name: "unclassifiable row", doc: vector.StoredDocument{ID: "xy", Content: "??"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _, _, corpus := newTestStore(WithDecodePolicy(DecodeFail))
			corpus.docs = []vector.StoredDocument{tt.doc}

			if _, err := store.GetTrainingData(context.Background()); err == nil {
				t.Error("expected error under DecodeFail policy")
			}
		})
	}
}

func TestStore_GetTrainingData_ListError(t *testing.T) {
	store, _, _, _, corpus := newTestStore()
	corpus.listErr = errors.New("connection refused")

	if _, err := store.GetTrainingData(context.Background()); err == nil {
		t.Error("expected list error to propagate")
	}
}

// ============================================================================
// Removal
// ============================================================================

func TestStore_RemoveTrainingData(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		err  error
		want bool
	}{
		{name: "row removed", n: 1, want: true},
		{name: "no match", n: 0, want: false},
		{name: "delete fails", err: errors.New("deadlock detected"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _, _, corpus := newTestStore()
			corpus.deleteByIDN = tt.n
			corpus.deleteByIDErr = tt.err

			got := store.RemoveTrainingData(context.Background(), "some-id-sql")
			if got != tt.want {
				t.Errorf("RemoveTrainingData() = %v, want %v", got, tt.want)
			}
			if corpus.lastDeletedID != "some-id-sql" {
				t.Errorf("deleted id = %q", corpus.lastDeletedID)
			}
		})
	}
}

func TestStore_RemoveCollection(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		n          int64
		err        error
		want       bool
		wantCalls  int
	}{
		{name: "rows removed", collection: "ddl", n: 4, want: true, wantCalls: 1},
		{name: "empty collection", collection: "sql", n: 0, want: false, wantCalls: 1},
		{name: "delete fails", collection: "documentation", err: errors.New("timeout"), want: false, wantCalls: 1},
		{name: "unknown collection never reaches storage", collection: "embeddings", want: false, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _, _, corpus := newTestStore()
			corpus.deleteCollN = tt.n
			corpus.deleteCollErr = tt.err

			got := store.RemoveCollection(context.Background(), tt.collection)
			if got != tt.want {
				t.Errorf("RemoveCollection() = %v, want %v", got, tt.want)
			}
			if corpus.deleteCollCalls != tt.wantCalls {
				t.Errorf("delete calls = %d, want %d", corpus.deleteCollCalls, tt.wantCalls)
			}
		})
	}
}

func TestStore_Collection(t *testing.T) {
	store, sqlColl, _, _, _ := newTestStore()

	coll, err := store.Collection("sql")
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	if coll != Collection(sqlColl) {
		t.Error("expected the sql partition")
	}

	if _, err := store.Collection("nope"); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("expected ErrInvalidCollection, got %v", err)
	}
}
