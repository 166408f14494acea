package vector_test

import (
	"context"
	"os"
	"testing"

	"github.com/sqlmint/sqlmint/internal/testutil"
	"github.com/sqlmint/sqlmint/internal/vector"
)

// TestIntegration_RealEmbedderRoundTrip runs the store against a live Gemini
// embedding model and a pgvector container, so the pinned output
// dimensionality is verified against the actual column type. Requires both
// SQLMINT_INTEGRATION and GEMINI_API_KEY.
func TestIntegration_RealEmbedderRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	if os.Getenv("SQLMINT_INTEGRATION") == "" {
		t.Skip("SQLMINT_INTEGRATION not set - skipping container-backed test")
	}
	setup := testutil.SetupEmbedder(t)

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := vector.New(
		vector.NewQueries(tdb.Pool, "public"),
		tdb.Pool,
		"public",
		setup.Embedder,
		testutil.DiscardLogger(),
	)
	if err != nil {
		t.Fatalf("creating vector store: %v", err)
	}

	ctx := context.Background()
	coll := store.Collection("documentation")
	docs := []vector.Document{
		{ID: "orders-doc", Content: "the orders table records one row per completed checkout"},
		{ID: "refunds-doc", Content: "refunds are tracked separately from the payments ledger"},
	}
	if err := coll.Add(ctx, docs); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := coll.Search(ctx, "where are completed checkout orders recorded?", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "orders-doc" {
		t.Errorf("nearest neighbor = %q, want the orders documentation", results[0].Document.ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("results not ordered by similarity: %v then %v",
			results[0].Similarity, results[1].Similarity)
	}
}
