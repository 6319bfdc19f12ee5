// Package indexer orchestrates indexing runs: file discovery, chunk
// extraction, embedding, and persistence.
package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/codelens/internal/chunker"
	"github.com/cloo-solutions/codelens/internal/domain"
	"github.com/cloo-solutions/codelens/internal/gitdiff"
)

const (
	// DefaultBatchSize is how many files are processed per batch.
	DefaultBatchSize = 50

	// DefaultWorkers bounds concurrent file processing within a batch.
	DefaultWorkers = 8
)

// Embedder produces embedding vectors for chunk contents.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ChunkStore is the persistence surface the indexer writes through.
type ChunkStore interface {
	Upsert(ctx context.Context, chunk *domain.Chunk) (string, bool, error)
	DeleteByFile(ctx context.Context, filePath string) (int, error)
	DeleteMissing(ctx context.Context, filePath string, keep []string) (int, error)
	CreateSchema(ctx context.Context, dimensions int) error
}

// Indexer runs indexing passes over a source tree.
type Indexer struct {
	registry  *chunker.Registry
	extractor *chunker.Extractor
	embedder  Embedder
	store     ChunkStore
	batchSize int
	workers   int
}

// Options tune batch size and worker count; zero values take defaults.
type Options struct {
	BatchSize int
	Workers   int
}

// New creates an indexer over the given registry, embedder, and store.
func New(registry *chunker.Registry, embedder Embedder, store ChunkStore, opts Options) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Indexer{
		registry:  registry,
		extractor: chunker.NewExtractor(registry),
		embedder:  embedder,
		store:     store,
		batchSize: opts.BatchSize,
		workers:   opts.Workers,
	}
}

// EnsureSchema makes sure the store can hold embeddings of the embedder's
// dimension. Safe to call on every run.
func (ix *Indexer) EnsureSchema(ctx context.Context) error {
	return ix.store.CreateSchema(ctx, ix.embedder.Dimensions())
}

// Run executes one indexing pass. Per-file failures are collected in the
// response's Errors and never abort the run; only setup failures (schema,
// canceled context) return a Go error. A dry run discovers and extracts but
// performs no store writes and no embedding calls.
func (ix *Indexer) Run(ctx context.Context, req *domain.IndexRequest) (*domain.IndexResponse, error) {
	start := time.Now()
	resp := &domain.IndexResponse{}
	defer func() { resp.Duration = time.Since(start) }()

	root, err := filepath.Abs(req.SourcePath)
	if err != nil {
		resp.Errors = append(resp.Errors, fmt.Sprintf("resolve source path: %v", err))
		return resp, nil
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		resp.Errors = append(resp.Errors, fmt.Sprintf("source path not found: %s", req.SourcePath))
		return resp, nil
	}

	languages := req.Languages
	if len(languages) == 0 {
		languages = domain.Languages()
	}
	extensions := ix.registry.Extensions(languages...)

	changes, deletions, err := ix.discover(root, extensions, req.Incremental)
	if err != nil {
		resp.Errors = append(resp.Errors, fmt.Sprintf("discover files: %v", err))
		return resp, nil
	}
	resp.TotalFiles = len(changes)

	if !req.DryRun {
		if err := ix.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	var (
		totalChunks   atomic.Int64
		indexedChunks atomic.Int64
		updatedChunks atomic.Int64
		deletedChunks atomic.Int64

		errMu sync.Mutex
	)
	addError := func(format string, args ...any) {
		errMu.Lock()
		resp.Errors = append(resp.Errors, fmt.Sprintf(format, args...))
		errMu.Unlock()
	}

	for offset := 0; offset < len(changes); offset += ix.batchSize {
		end := offset + ix.batchSize
		if end > len(changes) {
			end = len(changes)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(ix.workers)
		for _, change := range changes[offset:end] {
			g.Go(func() error {
				total, indexed, updated, deleted, err := ix.processFile(gctx, change, req.DryRun)
				if err != nil {
					addError("%s: %v", change.Path, err)
					return nil
				}
				totalChunks.Add(int64(total))
				indexedChunks.Add(int64(indexed))
				updatedChunks.Add(int64(updated))
				deletedChunks.Add(int64(deleted))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		log.Printf("indexer: processed %d/%d files", end, len(changes))
	}

	if !req.DryRun {
		for _, path := range deletions {
			deleted, err := ix.store.DeleteByFile(ctx, path)
			if err != nil {
				addError("delete %s: %v", path, err)
				continue
			}
			resp.DeletedChunks += deleted
		}
	}

	resp.TotalChunks = int(totalChunks.Load())
	resp.IndexedChunks = int(indexedChunks.Load())
	resp.UpdatedChunks = int(updatedChunks.Load())
	resp.DeletedChunks += int(deletedChunks.Load())
	return resp, nil
}

// discover lists the files to index and the paths whose chunks must be
// removed. Incremental mode requires a git repository; without one the run
// degrades to a full scan.
func (ix *Indexer) discover(root string, extensions map[string]domain.Language, incremental bool) ([]gitdiff.Change, []string, error) {
	detector := gitdiff.NewDetector(root, extensions)
	if incremental && gitdiff.HasRepository(root) {
		return detector.ChangedSince()
	}
	return detector.FullScan()
}

func (ix *Indexer) processFile(ctx context.Context, change gitdiff.Change, dryRun bool) (total, indexed, updated, deleted int, err error) {
	src, err := os.ReadFile(change.AbsPath)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("read: %w", err)
	}
	info, err := os.Stat(change.AbsPath)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("stat: %w", err)
	}

	chunks, err := ix.extractor.Extract(ctx, src, change.Language, change.Path)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("extract: %w", err)
	}

	if dryRun {
		return len(chunks), 0, 0, 0, nil
	}

	// A file that parses to zero chunks still purges whatever it held before.
	if len(chunks) == 0 {
		deleted, err = ix.store.DeleteByFile(ctx, change.Path)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("store: %w", err)
		}
		return 0, 0, 0, deleted, nil
	}

	modified := info.ModTime().UTC()
	for i := range chunks {
		chunks[i].LastModified = modified
		chunks[i].TokenCount = estimateTokens(chunks[i].Content)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, 0, 0, 0, fmt.Errorf("embed: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	keep := make([]string, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		keep[i] = chunks[i].FullyQualifiedName
		_, wasUpdate, err := ix.store.Upsert(ctx, &chunks[i])
		if err != nil {
			return len(chunks), indexed, updated, 0, fmt.Errorf("store: %w", err)
		}
		if wasUpdate {
			updated++
		} else {
			indexed++
		}
	}

	// Drop records for nodes the re-parse no longer produced.
	deleted, err = ix.store.DeleteMissing(ctx, change.Path, keep)
	if err != nil {
		return len(chunks), indexed, updated, 0, fmt.Errorf("store: %w", err)
	}
	return len(chunks), indexed, updated, deleted, nil
}

// estimateTokens approximates embedding token usage at four characters per
// token, which is close enough for budgeting without a tokenizer dependency.
func estimateTokens(content string) int {
	n := len(content) / 4
	if n == 0 && content != "" {
		n = 1
	}
	return n
}
