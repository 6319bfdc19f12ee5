package domain

import "time"

// IndexRequest describes one indexing run.
type IndexRequest struct {
	SourcePath  string     `json:"source_path"`
	Languages   []Language `json:"languages"`
	Incremental bool       `json:"incremental"`
	DryRun      bool       `json:"dry_run"`
}

// IndexResponse reports the outcome of an indexing run. Per-file failures are
// collected in Errors; they never abort the run.
type IndexResponse struct {
	TotalFiles    int           `json:"total_files"`
	TotalChunks   int           `json:"total_chunks"`
	IndexedChunks int           `json:"indexed_chunks"`
	UpdatedChunks int           `json:"updated_chunks"`
	DeletedChunks int           `json:"deleted_chunks"`
	Errors        []string      `json:"errors"`
	Duration      time.Duration `json:"-"`
}

// DurationSeconds is exposed for JSON consumers.
func (r *IndexResponse) DurationSeconds() float64 {
	return r.Duration.Seconds()
}
