package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// CheckSchema inspects the live database and reports whether the chunk table
// and its embedding column exist, along with the index names present on it.
func (r *ChunkRepository) CheckSchema(ctx context.Context) (*domain.SchemaStatus, error) {
	status := &domain.SchemaStatus{Table: "code_chunks"}

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'code_chunks'
		)`,
	).Scan(&status.Exists)
	if err != nil {
		return nil, fmt.Errorf("check table: %w", err)
	}
	if !status.Exists {
		return status, nil
	}

	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = 'public'
			  AND table_name = 'code_chunks'
			  AND column_name = 'embedding'
		)`,
	).Scan(&status.HasEmbedding)
	if err != nil {
		return nil, fmt.Errorf("check embedding column: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT indexname FROM pg_indexes
		 WHERE schemaname = 'public' AND tablename = 'code_chunks'
		 ORDER BY indexname`,
	)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		status.Indexes = append(status.Indexes, name)
	}
	return status, rows.Err()
}

// CreateSchema adds the embedding column and its ANN index for the configured
// vector dimension. The base table is created by migrations; the vector
// column lives here because its dimension is only known at runtime. DDL does
// not accept bind parameters, so the dimension is formatted in after
// validation.
func (r *ChunkRepository) CreateSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: fmt.Sprintf("invalid embedding dimensions: %d", dimensions),
		}
	}

	_, err := r.db.Exec(ctx, fmt.Sprintf(
		`ALTER TABLE code_chunks ADD COLUMN IF NOT EXISTS embedding vector(%d)`,
		dimensions,
	))
	if err != nil {
		return fmt.Errorf("add embedding column: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_code_chunks_embedding
		 ON code_chunks USING hnsw (embedding vector_cosine_ops)`,
	)
	if err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}
