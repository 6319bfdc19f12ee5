package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// similarityExpr converts the store's cosine distance (range [0, 2]) into a
// similarity in (0, 1]. This is the single normalization policy for the
// whole system; callers never recompute scores from distances themselves.
const similarityExpr = "1.0 / (1.0 + (embedding <=> $1))"

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository persists chunks in Postgres with a pgvector column and
// answers filtered nearest-neighbor queries over it.
type ChunkRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewChunkRepository creates a repository backed by a pgx pool.
func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool, pool: pool}
}

// Ping reports whether the store is reachable.
func (r *ChunkRepository) Ping(ctx context.Context) bool {
	if r.pool == nil {
		return false
	}
	return r.pool.Ping(ctx) == nil
}

// Upsert inserts the chunk or, when its identity key (file_path,
// fully_qualified_name) already exists, updates the mutable fields in place.
// Returns the store record ID and whether an existing record was updated.
func (r *ChunkRepository) Upsert(ctx context.Context, chunk *domain.Chunk) (string, bool, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM code_chunks WHERE file_path = $1 AND fully_qualified_name = $2`,
		chunk.FilePath, chunk.FullyQualifiedName,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = r.db.Exec(ctx,
			`UPDATE code_chunks SET
				content = $1,
				start_line = $2,
				end_line = $3,
				embedding = $4,
				last_modified = $5,
				token_count = $6,
				char_count = $7,
				updated_at = $8
			 WHERE id = $9`,
			chunk.Content,
			chunk.StartLine,
			chunk.EndLine,
			embeddingValue(chunk.Embedding),
			chunk.LastModified.UTC(),
			chunk.TokenCount,
			chunk.CharCount,
			time.Now().UTC(),
			id,
		)
		if err != nil {
			return "", false, fmt.Errorf("update chunk %s: %w", chunk.IdentityKey(), err)
		}
		return id, true, nil

	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.NewString()
		now := time.Now().UTC()
		_, err = r.db.Exec(ctx,
			`INSERT INTO code_chunks
				(id, file_path, fully_qualified_name, node_type, language, content,
				 start_line, end_line, embedding, last_modified, token_count, char_count,
				 created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			id,
			chunk.FilePath,
			chunk.FullyQualifiedName,
			string(chunk.NodeType),
			string(chunk.Language),
			chunk.Content,
			chunk.StartLine,
			chunk.EndLine,
			embeddingValue(chunk.Embedding),
			chunk.LastModified.UTC(),
			chunk.TokenCount,
			chunk.CharCount,
			now,
			now,
		)
		if err != nil {
			return "", false, fmt.Errorf("insert chunk %s: %w", chunk.IdentityKey(), err)
		}
		return id, false, nil

	default:
		return "", false, fmt.Errorf("lookup chunk %s: %w", chunk.IdentityKey(), err)
	}
}

// DeleteByFile removes every chunk stored under the given file path and
// returns how many were removed.
func (r *ChunkRepository) DeleteByFile(ctx context.Context, filePath string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM code_chunks WHERE file_path = $1`, filePath)
	if err != nil {
		return 0, fmt.Errorf("delete chunks for %s: %w", filePath, err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteMissing removes chunks under filePath whose fully qualified name is
// not in keep. Run after re-indexing a file so records for syntax nodes that
// no longer exist do not linger in search results.
func (r *ChunkRepository) DeleteMissing(ctx context.Context, filePath string, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM code_chunks WHERE file_path = $1 AND fully_qualified_name != ALL($2)`,
		filePath, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale chunks for %s: %w", filePath, err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteAll purges the index and returns the number of removed chunks.
func (r *ChunkRepository) DeleteAll(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM code_chunks`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Search runs a filtered nearest-neighbor query and returns chunks ordered by
// ascending distance, each carrying its similarity score clamped to [0, 1].
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, topK int, filters domain.SearchFilters) ([]domain.Chunk, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	query, args := buildSearchQuery(embedding, topK, filters)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var emb pgvector.Vector
		var score float64
		err := rows.Scan(
			&c.ID, &c.FilePath, &c.FullyQualifiedName, &c.NodeType, &c.Language,
			&c.Content, &c.StartLine, &c.EndLine, &emb, &c.LastModified,
			&c.TokenCount, &c.CharCount, &score,
		)
		if err != nil {
			return nil, err
		}
		c.Embedding = emb.Slice()
		c.SimilarityScore = clampScore(score)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// buildSearchQuery assembles the similarity query. Filters are additive: each
// present filter contributes one AND condition; absent filters add nothing.
func buildSearchQuery(embedding []float32, topK int, filters domain.SearchFilters) (string, []any) {
	args := []any{pgvector.NewVector(embedding)}
	conditions := []string{"embedding IS NOT NULL"}

	if len(filters.Languages) > 0 {
		langs := make([]string, len(filters.Languages))
		for i, l := range filters.Languages {
			langs[i] = string(l)
		}
		args = append(args, langs)
		conditions = append(conditions, fmt.Sprintf("language = ANY($%d)", len(args)))
	}

	if len(filters.NodeTypes) > 0 {
		types := make([]string, len(filters.NodeTypes))
		for i, t := range filters.NodeTypes {
			types[i] = string(t)
		}
		args = append(args, types)
		conditions = append(conditions, fmt.Sprintf("node_type = ANY($%d)", len(args)))
	}

	if filters.FilePathPrefix != "" {
		args = append(args, filters.FilePathPrefix)
		conditions = append(conditions, fmt.Sprintf("starts_with(file_path, $%d)", len(args)))
	}

	args = append(args, topK)
	query := fmt.Sprintf(`
		SELECT id, file_path, fully_qualified_name, node_type, language, content,
		       start_line, end_line, embedding, last_modified, token_count, char_count,
		       %s AS score
		FROM code_chunks
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d`,
		similarityExpr, strings.Join(conditions, " AND "), len(args))

	return query, args
}

// Stats returns chunk totals grouped by language and node type.
func (r *ChunkRepository) Stats(ctx context.Context) (*domain.IndexStats, error) {
	stats := &domain.IndexStats{
		ByLanguage: make(map[string]int64),
		ByNodeType: make(map[string]int64),
	}

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM code_chunks`).Scan(&stats.TotalChunks)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT language, COUNT(*) FROM code_chunks GROUP BY language`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var count int64
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, err
		}
		stats.ByLanguage[lang] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `SELECT node_type, COUNT(*) FROM code_chunks GROUP BY node_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var nodeType string
		var count int64
		if err := rows.Scan(&nodeType, &count); err != nil {
			return nil, err
		}
		stats.ByNodeType[nodeType] = count
	}
	return stats, rows.Err()
}

// embeddingValue converts an optional embedding into a query argument.
func embeddingValue(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func clampScore(score float64) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return float32(score)
}
