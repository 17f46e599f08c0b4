package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/btlportal/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type uploadLogRepository struct {
	pool *pgxpool.Pool
}

// NewUploadLogRepository wires a repository backed by pgxpool.
func NewUploadLogRepository(pool *pgxpool.Pool) UploadLogRepository {
	return &uploadLogRepository{pool: pool}
}

func (r *uploadLogRepository) Record(ctx context.Context, entry domain.UploadLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("upload log repository not initialized")
	}

	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO upload_logs (batch_id, file_name, row_number, error_message)
		 VALUES ($1, $2, $3, $4)`,
		entry.BatchID,
		entry.FileName,
		rowNumber,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload log: %w", err)
	}

	return nil
}

func (r *uploadLogRepository) List(ctx context.Context, batchID uuid.UUID, limit int, offset int) ([]domain.UploadLogEntry, error) {
	return r.list(
		ctx,
		`SELECT id, batch_id, file_name, row_number, error_message, created_at
		 FROM upload_logs
		 WHERE batch_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		batchID, clampLimit(limit), clampOffset(offset),
	)
}

func (r *uploadLogRepository) ListRecent(ctx context.Context, limit int, offset int) ([]domain.UploadLogEntry, error) {
	return r.list(
		ctx,
		`SELECT id, batch_id, file_name, row_number, error_message, created_at
		 FROM upload_logs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		clampLimit(limit), clampOffset(offset),
	)
}

func (r *uploadLogRepository) list(ctx context.Context, query string, args ...any) ([]domain.UploadLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("upload log repository not initialized")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.UploadLogEntry{}
	for rows.Next() {
		var (
			entry     domain.UploadLogEntry
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.BatchID,
			&entry.FileName,
			&rowNumber,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan upload log: %w", scanErr)
		}

		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate upload logs: %w", rowsErr)
	}

	return logs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
