package training

// CollectionName identifies one of the three corpus partitions.
// The set is closed; Resolve rejects anything else.
type CollectionName string

const (
	// CollectionSQL holds question/SQL pairs serialized as a JSON payload.
	CollectionSQL CollectionName = "sql"

	// CollectionDDL holds raw DDL statements.
	CollectionDDL CollectionName = "ddl"

	// CollectionDocumentation holds free-text documentation.
	CollectionDocumentation CollectionName = "documentation"
)

// idSuffixes maps each collection to the suffix appended to derived ids.
// The suffix is the legacy-compatible id format; storage tags rows with the
// collection name directly, so nothing needs to sniff suffixes at runtime.
var idSuffixes = map[CollectionName]string{
	CollectionSQL:           "-sql",
	CollectionDDL:           "-ddl",
	CollectionDocumentation: "-doc",
}

// collectionsBySuffix is the inverse of idSuffixes, used to reclassify
// rows written by older tooling that predates the collection column.
var collectionsBySuffix = map[string]CollectionName{
	"sql": CollectionSQL,
	"ddl": CollectionDDL,
	"doc": CollectionDocumentation,
}

// ResolveCollection validates a collection name. Unknown names return
// ErrInvalidCollection; callers should check with errors.Is().
func ResolveCollection(name string) (CollectionName, error) {
	cn := CollectionName(name)
	if _, ok := idSuffixes[cn]; !ok {
		return "", ErrInvalidCollection
	}
	return cn, nil
}

// questionSQLPayload is the wire form of a question/SQL pair inside the
// sql collection's document column.
type questionSQLPayload struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// QuestionSQL is a stored question/SQL pair reconstructed from the sql
// collection.
type QuestionSQL struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// Record is a single similarity-search hit, reclassified into its typed form.
// Question is empty for ddl and documentation records.
type Record struct {
	ID         string
	Collection CollectionName
	Question   string
	Content    string
}

// DataRow is one row of the unified training-data export.
// Question is nil for ddl and documentation rows.
type DataRow struct {
	ID       string
	Question *string
	Content  string
	Type     CollectionName
}

// Training plan item types, matching the values emitted by upstream
// schema-introspection tooling.
const (
	ItemTypeDDL = "ddl"
	ItemTypeIS  = "is" // information schema, stored as documentation
	ItemTypeSQL = "sql"
)

// TrainingPlanItem is one typed instruction in a training plan.
// Name carries the question for sql items; it is unused otherwise.
type TrainingPlanItem struct {
	Type  string `json:"item_type"`
	Name  string `json:"item_name"`
	Value string `json:"item_value"`
}

// TrainingPlan is an ordered batch of training instructions produced by an
// external schema-introspection step. It is consumed once by
// Trainer.ApplyPlan and discarded; only its effects are persisted.
type TrainingPlan struct {
	Items []TrainingPlanItem `json:"items"`
}
