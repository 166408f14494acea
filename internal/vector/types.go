package vector

// Document is a single entry to embed and persist.
// Metadata is stored alongside the content as JSONB.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a single similarity-search hit.
type Result struct {
	Document   Document
	Similarity float64 // Cosine similarity (0-1), descending in search output
}

// StoredDocument is a raw corpus row as returned by a full scan,
// before any typed reconstruction.
type StoredDocument struct {
	ID         string
	Collection string
	Content    string
}
