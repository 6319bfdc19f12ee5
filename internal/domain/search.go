package domain

import (
	"strings"
	"time"
)

// DefaultTopK is the result cap applied when a search request has none.
const DefaultTopK = 10

// MaxTopK bounds the result cap a caller may request.
const MaxTopK = 100

// SearchRequest describes a similarity query over indexed chunks. Absent
// filters impose no constraint; multiple filters combine with AND.
type SearchRequest struct {
	Query          string     `json:"query"`
	TopK           int        `json:"top_k"`
	Languages      []Language `json:"languages,omitempty"`
	NodeTypes      []NodeType `json:"node_types,omitempty"`
	FilePathPrefix string     `json:"file_path_prefix,omitempty"`

	// IncludeContent defaults to true at the HTTP and CLI surfaces; the
	// zero value here means content is stripped from results.
	IncludeContent   bool `json:"include_content"`
	IncludeEmbedding bool `json:"include_embedding"`
}

// Normalize applies defaults and bounds to the request in place.
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
}

// SearchFilters narrows a similarity query. Zero-valued fields impose no
// constraint; populated fields combine with AND.
type SearchFilters struct {
	Languages      []Language
	NodeTypes      []NodeType
	FilePathPrefix string
}

// Filters extracts the filter set from a request.
func (r *SearchRequest) Filters() SearchFilters {
	return SearchFilters{
		Languages:      r.Languages,
		NodeTypes:      r.NodeTypes,
		FilePathPrefix: r.FilePathPrefix,
	}
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Chunk           Chunk   `json:"chunk"`
	SimilarityScore float32 `json:"similarity_score"` // clamped to [0, 1]
	Rank            int     `json:"rank"`             // 1-based, in store order
}

// SearchResponse is the ranked output of one search request.
type SearchResponse struct {
	Query      string         `json:"query"`
	Results    []SearchResult `json:"results"`
	TotalFound int            `json:"total_found"`
	Duration   time.Duration  `json:"-"`
}

// SchemaStatus reports whether the chunk table and its vector column exist
// in the store.
type SchemaStatus struct {
	Exists       bool     `json:"exists"`
	Table        string   `json:"table,omitempty"`
	HasEmbedding bool     `json:"has_embedding"`
	Indexes      []string `json:"indexes,omitempty"`
}

// IndexStats summarizes the current contents of the index.
type IndexStats struct {
	TotalChunks int64            `json:"total_chunks"`
	ByLanguage  map[string]int64 `json:"by_language"`
	ByNodeType  map[string]int64 `json:"by_node_type"`
}
