// Package service holds the business logic between the HTTP/CLI surfaces and
// the repository layer.
package service

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/codelens/internal/domain"
	"github.com/cloo-solutions/codelens/internal/telemetry"
)

// ChunkRepositoryInterface defines the repository surface retrieval depends on.
type ChunkRepositoryInterface interface {
	Search(ctx context.Context, embedding []float32, topK int, filters domain.SearchFilters) ([]domain.Chunk, error)
	Stats(ctx context.Context) (*domain.IndexStats, error)
	CheckSchema(ctx context.Context) (*domain.SchemaStatus, error)
	DeleteAll(ctx context.Context) (int, error)
	Ping(ctx context.Context) bool
}

// QueryEmbedder turns query text into an embedding vector.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// HealthStatus reports liveness of the service and its store.
type HealthStatus struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Embedder bool   `json:"embedder"`
	Ready    bool   `json:"ready"`
}

// RetrievalService answers similarity queries over the chunk index.
type RetrievalService struct {
	repo     ChunkRepositoryInterface
	embedder QueryEmbedder
}

// NewRetrievalService creates a new RetrievalService instance.
func NewRetrievalService(repo ChunkRepositoryInterface, embedder QueryEmbedder) *RetrievalService {
	return &RetrievalService{repo: repo, embedder: embedder}
}

// Ready reports whether both the store and the embedder are wired.
func (s *RetrievalService) Ready() bool {
	return s.repo != nil && s.embedder != nil
}

// Search embeds the query once, runs the filtered nearest-neighbor lookup,
// and ranks the hits. Content and embeddings are stripped from results unless
// the request opts in. A failing store yields an empty response, not an
// error; only embedding failures and invalid requests surface to the caller.
func (s *RetrievalService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		Query: req.Query,
	})
	defer span.End()

	start := time.Now()

	if !s.Ready() {
		return nil, domain.ErrServiceNotReady
	}

	req.Normalize()
	if req.Query == "" {
		return nil, domain.ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to embed query", err)
	}

	// A store failure on the read path degrades to an empty result set so
	// callers keep getting well-formed responses while the store recovers.
	chunks, err := s.repo.Search(ctx, embedding, req.TopK, req.Filters())
	if err != nil {
		log.Printf("search: store unavailable: %v", err)
		span.SetError(err)
		telemetry.CaptureError(ctx, err)
		chunks = nil
	}

	results := make([]domain.SearchResult, len(chunks))
	for i, chunk := range chunks {
		if !req.IncludeContent {
			chunk.Content = ""
		}
		if !req.IncludeEmbedding {
			chunk.Embedding = nil
		}
		results[i] = domain.SearchResult{
			Chunk:           chunk,
			SimilarityScore: chunk.SimilarityScore,
			Rank:            i + 1,
		}
	}

	return &domain.SearchResponse{
		Query:      req.Query,
		Results:    results,
		TotalFound: len(results),
		Duration:   time.Since(start),
	}, nil
}

// Health never fails; an unreachable store is reported, not returned as an
// error.
func (s *RetrievalService) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Status: "ok", Embedder: s.embedder != nil, Ready: s.Ready()}
	if s.repo != nil {
		status.Database = s.repo.Ping(ctx)
	}
	if !status.Database || !status.Ready {
		status.Status = "degraded"
	}
	return status
}

// Schema reports the current store schema state.
func (s *RetrievalService) Schema(ctx context.Context) (*domain.SchemaStatus, error) {
	if s.repo == nil {
		return nil, domain.ErrServiceNotReady
	}
	return s.repo.CheckSchema(ctx)
}

// Stats returns index statistics. A store failure degrades to empty stats so
// dashboards keep rendering.
func (s *RetrievalService) Stats(ctx context.Context) *domain.IndexStats {
	empty := &domain.IndexStats{
		ByLanguage: map[string]int64{},
		ByNodeType: map[string]int64{},
	}
	if s.repo == nil {
		return empty
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.Printf("stats: store unavailable: %v", err)
		telemetry.CaptureError(ctx, err)
		return empty
	}
	return stats
}

// Reset removes every chunk from the index and returns how many were deleted.
func (s *RetrievalService) Reset(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, domain.ErrServiceNotReady
	}
	return s.repo.DeleteAll(ctx)
}
