package cli

import (
	"context"
	"fmt"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/codelens/internal/chunker"
	"github.com/cloo-solutions/codelens/internal/config"
	"github.com/cloo-solutions/codelens/internal/database"
	"github.com/cloo-solutions/codelens/internal/domain"
	"github.com/cloo-solutions/codelens/internal/indexer"
	"github.com/cloo-solutions/codelens/internal/openai"
	"github.com/cloo-solutions/codelens/internal/repository"
	"github.com/cloo-solutions/codelens/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// runtime wires the shared dependencies every command needs: config,
// database pool, repository, embedder, indexer, and retrieval service.
type runtime struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	repo      *repository.ChunkRepository
	registry  *chunker.Registry
	embedder  *openai.Client
	indexer   *indexer.Indexer
	retrieval *service.RetrievalService
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPoolFromURL(ctx, cfg.DatabaseURL, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := repository.NewChunkRepository(pool)
	registry := chunker.NewRegistry()

	var embedder *openai.Client
	if cfg.HasOpenAI() {
		embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.EmbeddingBaseURL,
			EmbeddingModel:      openaisdk.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	}

	rt := &runtime{
		cfg:      cfg,
		pool:     pool,
		repo:     repo,
		registry: registry,
		embedder: embedder,
	}

	// The indexer always exists so dry runs work without an API key; the
	// embedding-dependent paths are guarded by requireEmbedder.
	var indexEmbedder indexer.Embedder = noEmbedder{dimensions: cfg.EmbeddingDimensions}
	if embedder != nil {
		indexEmbedder = embedder
		rt.retrieval = service.NewRetrievalService(repo, embedder)
	} else {
		rt.retrieval = service.NewRetrievalService(repo, nil)
	}
	rt.indexer = indexer.New(registry, indexEmbedder, repo, indexer.Options{
		BatchSize: cfg.IndexBatchSize,
		Workers:   cfg.IndexWorkers,
	})
	return rt, nil
}

// noEmbedder stands in when no API key is configured. Any attempt to embed
// fails, which keeps dry runs working and everything else guarded.
type noEmbedder struct {
	dimensions int
}

func (e noEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, openai.ErrNoAPIKey
}

func (e noEmbedder) Dimensions() int { return e.dimensions }

// requireEmbedder guards commands that cannot run without an embedding key.
func (rt *runtime) requireEmbedder() error {
	if rt.embedder == nil {
		return fmt.Errorf("CODELENS_OPENAI_API_KEY is required for this command")
	}
	return nil
}

func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
}

// parseLanguages converts --language flag values, defaulting to every
// supported language when none are given.
func parseLanguages(raw []string) ([]domain.Language, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	langs := make([]domain.Language, 0, len(raw))
	for _, s := range raw {
		lang, err := domain.ParseLanguage(s)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}
