package vectorstore

// Metadata keys shared by all store backends.
const (
	// MetaCategoryID labels an example with its complaint category.
	MetaCategoryID = "category_id"

	// MetaIsUrgent marks examples of emergency complaints.
	MetaIsUrgent = "is_urgent"
)

// Example is a labeled complaint text stored in the index.
type Example struct {
	// ID is the unique identifier. Auto-generated when empty.
	ID string

	// Text is the complaint text in Ukrainian.
	Text string

	// CategoryID is the complaint category label (e.g. "roads", "water_supply").
	CategoryID string

	// IsUrgent marks emergency complaints (gas leaks, burst pipes).
	IsUrgent bool

	// Metadata carries additional key-value pairs (source, district).
	Metadata map[string]interface{}
}

// Neighbor is a search result: an indexed example with its similarity
// score against the query.
type Neighbor struct {
	Example

	// Score is the cosine similarity (higher = more similar).
	Score float32
}
