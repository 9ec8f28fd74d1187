package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from content hashing.
// It is used for fingerprint digests and internal keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is an immutable unit of retrievable corpus content, typically a
// fragment of a GraphQL schema or a documentation passage.
// Chunks are produced externally and loaded read-only at startup.
type Chunk struct {
	Id         string    // Unique path/identifier within the corpus
	Content    string    // Raw chunk text
	Category   string    // Optional grouping, e.g. the source subdirectory
	Vector     []float32 // Embedding vector for semantic search (populated by ingestion)
	InsertedAt time.Time // When the chunk was inserted into the store
	UpdatedAt  time.Time // When the chunk was last updated
}

// Vocabulary is the typed vocabulary derived from a single pass over the
// chunk corpus. Every entry is a pure function of the corpus; rebuilding from
// the same corpus produces identical contents. Slice values are kept sorted
// so serialization and comparison are deterministic.
type Vocabulary struct {
	Types      map[string]bool
	Inputs     map[string]bool
	Enums      map[string]bool
	Interfaces map[string]bool
	Unions     map[string]bool
	Mutations  map[string]bool
	Queries    map[string]bool
	Fields     map[string]bool

	FieldOwners map[string][]string // field name -> types that declare it
	Related     map[string][]string // type -> structurally related types
	Validations map[string][]string // field name -> validation snippets
	Clusters    map[string][]string // concept -> semantically related terms
}

// NewVocabulary returns an empty vocabulary with all sets and maps allocated.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		Types:       make(map[string]bool),
		Inputs:      make(map[string]bool),
		Enums:       make(map[string]bool),
		Interfaces:  make(map[string]bool),
		Unions:      make(map[string]bool),
		Mutations:   make(map[string]bool),
		Queries:     make(map[string]bool),
		Fields:      make(map[string]bool),
		FieldOwners: make(map[string][]string),
		Related:     make(map[string][]string),
		Validations: make(map[string][]string),
		Clusters:    make(map[string][]string),
	}
}

// IsEmpty reports whether the vocabulary carries no extracted entries.
func (v *Vocabulary) IsEmpty() bool {
	if v == nil {
		return true
	}
	return len(v.Types) == 0 && len(v.Inputs) == 0 && len(v.Enums) == 0 &&
		len(v.Interfaces) == 0 && len(v.Unions) == 0 && len(v.Mutations) == 0 &&
		len(v.Queries) == 0 && len(v.Fields) == 0
}

// Summary returns per-set entry counts keyed by set name.
func (v *Vocabulary) Summary() map[string]int {
	if v == nil {
		return map[string]int{}
	}
	return map[string]int{
		"types":      len(v.Types),
		"inputs":     len(v.Inputs),
		"enums":      len(v.Enums),
		"interfaces": len(v.Interfaces),
		"unions":     len(v.Unions),
		"mutations":  len(v.Mutations),
		"queries":    len(v.Queries),
		"fields":     len(v.Fields),
		"clusters":   len(v.Clusters),
	}
}

// Intent is a coarse classification of a query's purpose, used to bias
// thresholding and relevance scoring.
type Intent int

const (
	// IntentGeneral is the default when no other intent matches.
	IntentGeneral Intent = iota
	// IntentValidation covers questions about constraints, formats and rules.
	IntentValidation
	// IntentCreation covers questions about creating or mutating entities.
	IntentCreation
	// IntentInformation covers descriptive "what is / explain" questions.
	IntentInformation
	// IntentField covers questions about specific fields and attributes.
	IntentField
)

// String returns the canonical name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentValidation:
		return "validation_inquiry"
	case IntentCreation:
		return "creation_inquiry"
	case IntentInformation:
		return "information_inquiry"
	case IntentField:
		return "field_inquiry"
	default:
		return "general_inquiry"
	}
}

// QueryTerms is the per-query value object produced by preprocessing.
type QueryTerms struct {
	DirectTerms    []string // Tokenized lowercase words
	CompoundTerms  []string // Detected multi-word / long-token concepts
	TechnicalTerms []string // Identifiers matched against the vocabulary
	Intent         Intent
}

// AllTerms returns direct and compound terms as one slice.
func (qt QueryTerms) AllTerms() []string {
	out := make([]string, 0, len(qt.DirectTerms)+len(qt.CompoundTerms))
	out = append(out, qt.DirectTerms...)
	out = append(out, qt.CompoundTerms...)
	return out
}

// Origin identifies which retrieval stage produced a candidate.
type Origin int

const (
	// OriginSemantic marks candidates from the vector index.
	OriginSemantic Origin = iota
	// OriginKeyword marks candidates from keyword/fuzzy matching.
	OriginKeyword
	// OriginRelated marks candidates pulled in by cross-reference expansion.
	OriginRelated
)

// String returns the canonical name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginKeyword:
		return "keyword"
	case OriginRelated:
		return "related"
	default:
		return "semantic"
	}
}

// ScoredCandidate is a chunk with a stage-local score. Scores from different
// origins are not directly comparable until the merge stage establishes a
// unified ordering.
type ScoredCandidate struct {
	ChunkID string
	Content string
	Score   float64
	Origin  Origin
}

// Hit is one entry of a final, merged search result.
type Hit struct {
	ChunkID string
	Content string
	Score   float64
}

/// SearchResult is the ordered output of a retrieval: distinct by chunk id,
// length bounded by the requested topK.
type SearchResult struct {
	Hits []Hit
}

// Stats summarizes the state of a retrieval engine.
type Stats struct {
	Status      string
	TotalChunks int
	Vocabulary  map[string]int
}
