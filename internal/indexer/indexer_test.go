package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/codelens/internal/chunker"
	"github.com/cloo-solutions/codelens/internal/domain"
)

type fakeEmbedder struct {
	mu         sync.Mutex
	calls      int
	texts      int
	dimensions int
	err        error
	shortBatch bool
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts += len(texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.shortBatch && n > 0 {
		n--
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		embeddings[i] = make([]float32, f.dimensions)
	}
	return embeddings, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return f.dimensions
}

type fakeStore struct {
	mu        sync.Mutex
	chunks    map[string]domain.Chunk
	schemaDim int
	schemaErr error
	upserts   int
	deletes   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{chunks: make(map[string]domain.Chunk)}
}

func (f *fakeStore) Upsert(ctx context.Context, chunk *domain.Chunk) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := chunk.IdentityKey()
	_, exists := f.chunks[key]
	f.chunks[key] = *chunk
	return key, exists, nil
}

func (f *fakeStore) DeleteByFile(ctx context.Context, filePath string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, filePath)
	deleted := 0
	for key, c := range f.chunks {
		if c.FilePath == filePath {
			delete(f.chunks, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteMissing(ctx context.Context, filePath string, keep []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		keepSet[name] = true
	}
	deleted := 0
	for key, c := range f.chunks {
		if c.FilePath == filePath && !keepSet[c.FullyQualifiedName] {
			delete(f.chunks, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) CreateSchema(ctx context.Context, dimensions int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.schemaErr != nil {
		return f.schemaErr
	}
	f.schemaDim = dimensions
	return nil
}

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const pythonSource = `class Greeter:
    def greet(self, name):
        return f"hello {name}"

def shout(text):
    return text.upper()
`

const goSource = `package calc

func Add(a, b int) int {
	return a + b
}
`

func newTestIndexer(embedder *fakeEmbedder, store *fakeStore) *Indexer {
	return New(chunker.NewRegistry(), embedder, store, Options{BatchSize: 2, Workers: 2})
}

func TestIndexer_Run(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)
	writeSource(t, dir, "calc/calc.go", goSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)

	assert.Empty(t, resp.Errors)
	assert.Equal(t, 2, resp.TotalFiles)
	assert.Equal(t, 4, resp.TotalChunks)
	assert.Equal(t, 4, resp.IndexedChunks)
	assert.Equal(t, 0, resp.UpdatedChunks)
	assert.Equal(t, 4, store.upserts)
	assert.Equal(t, 4, store.schemaDim)

	for _, c := range store.chunks {
		assert.Len(t, c.Embedding, 4)
		assert.False(t, c.LastModified.IsZero())
		assert.Greater(t, c.TokenCount, 0)
	}
}

func TestIndexer_Run_SecondRunUpdates(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	first, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)
	require.Greater(t, first.IndexedChunks, 0)

	second, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, second.IndexedChunks)
	assert.Equal(t, first.IndexedChunks, second.UpdatedChunks)
}

func TestIndexer_Run_RemovesVanishedChunks(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	first, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)
	require.Equal(t, 3, first.IndexedChunks)

	// Greeter and its method are gone; only shout survives the rewrite.
	writeSource(t, dir, "app.py", "def shout(text):\n    return text.upper()\n")

	second, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, second.DeletedChunks)
	assert.Equal(t, 1, second.UpdatedChunks)
	require.Len(t, store.chunks, 1)
	for _, c := range store.chunks {
		assert.Equal(t, "shout", c.FullyQualifiedName)
	}
}

func TestIndexer_Run_EmptiedFilePurgesStoredChunks(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	_, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)
	require.Len(t, store.chunks, 3)

	writeSource(t, dir, "app.py", "# nothing extractable\n")

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.DeletedChunks)
	assert.Empty(t, store.chunks)
}

func TestIndexer_Run_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalFiles)
	assert.Greater(t, resp.TotalChunks, 0)
	assert.Equal(t, 0, resp.IndexedChunks)
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, store.upserts)
	assert.Equal(t, 0, store.schemaDim)
}

func TestIndexer_Run_LanguageFilter(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)
	writeSource(t, dir, "calc.go", goSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{
		SourcePath: dir,
		Languages:  []domain.Language{domain.LanguageGo},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalFiles)
	for _, c := range store.chunks {
		assert.Equal(t, domain.LanguageGo, c.Language)
	}
}

func TestIndexer_Run_MissingSourcePath(t *testing.T) {
	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: "/does/not/exist"})
	require.NoError(t, err)

	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "source path not found")
	assert.Equal(t, 0, resp.TotalFiles)
	assert.Equal(t, 0, store.upserts)
}

func TestIndexer_Run_EmbedFailureCollected(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4, err: errors.New("quota exceeded")}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)

	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "quota exceeded")
	assert.Equal(t, 0, resp.IndexedChunks)
	assert.Equal(t, 0, store.upserts)
}

func TestIndexer_Run_EmbedCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4, shortBatch: true}
	store := newFakeStore()
	ix := newTestIndexer(embedder, store)

	resp, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.NoError(t, err)

	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "vectors")
	assert.Equal(t, 0, store.upserts)
}

func TestIndexer_Run_SchemaFailure(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.py", pythonSource)

	embedder := &fakeEmbedder{dimensions: 4}
	store := newFakeStore()
	store.schemaErr = errors.New("connection refused")
	ix := newTestIndexer(embedder, store)

	_, err := ix.Run(context.Background(), &domain.IndexRequest{SourcePath: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure schema")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("ab"))
	assert.Equal(t, 3, estimateTokens("abcdefghijkl"))
}
