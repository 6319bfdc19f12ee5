package jobs

import (
	"context"
	"log"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// IndexRunner executes one indexing pass.
type IndexRunner interface {
	Run(ctx context.Context, req *domain.IndexRequest) (*domain.IndexResponse, error)
}

// ReindexWorker keeps a watched source tree indexed. Each poll runs an
// incremental pass, so an unchanged tree costs one git invocation.
type ReindexWorker struct {
	runner    IndexRunner
	watchPath string
	languages []domain.Language
}

// NewReindexWorker creates a processor that re-indexes watchPath on each poll.
func NewReindexWorker(runner IndexRunner, watchPath string, languages []domain.Language) *ReindexWorker {
	return &ReindexWorker{
		runner:    runner,
		watchPath: watchPath,
		languages: languages,
	}
}

// ProcessJobs implements JobProcessor.
func (w *ReindexWorker) ProcessJobs(ctx context.Context) error {
	resp, err := w.runner.Run(ctx, &domain.IndexRequest{
		SourcePath:  w.watchPath,
		Languages:   w.languages,
		Incremental: true,
	})
	if err != nil {
		return err
	}

	if resp.TotalFiles > 0 || resp.DeletedChunks > 0 {
		log.Printf("watch: indexed %d files (%d new, %d updated, %d deleted chunks)",
			resp.TotalFiles, resp.IndexedChunks, resp.UpdatedChunks, resp.DeletedChunks)
	}
	for _, msg := range resp.Errors {
		log.Printf("watch: %s", msg)
	}
	return nil
}
