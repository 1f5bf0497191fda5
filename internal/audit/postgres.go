package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps attempts in the submission_attempts table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an open pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert writes one attempt
func (s *PostgresStore) Insert(ctx context.Context, a Attempt) error {
	var errorKind *string
	if a.ErrorKind != "" {
		errorKind = &a.ErrorKind
	}
	var statusCode *int32
	if a.StatusCode != 0 {
		code := int32(a.StatusCode)
		statusCode = &code
	}

	query := `
		INSERT INTO submission_attempts
			(id, submission_id, outcome, error_kind, status_code, fallback_used, latency_ms, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID,
		int64(a.SubmissionID),
		a.Outcome,
		errorKind,
		statusCode,
		a.FallbackUsed,
		a.Latency.Milliseconds(),
		a.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Recent returns the newest attempts first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	query := `
		SELECT id, submission_id, outcome, error_kind, status_code, fallback_used, latency_ms, recorded_at
		FROM submission_attempts
		ORDER BY recorded_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []Attempt{}
	for rows.Next() {
		var (
			a            Attempt
			submissionID int64
			errorKind    *string
			statusCode   *int32
			latencyMS    int64
		)
		if err := rows.Scan(&a.ID, &submissionID, &a.Outcome, &errorKind, &statusCode, &a.FallbackUsed, &latencyMS, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.SubmissionID = uint64(submissionID)
		if errorKind != nil {
			a.ErrorKind = *errorKind
		}
		if statusCode != nil {
			a.StatusCode = int(*statusCode)
		}
		a.Latency = time.Duration(latencyMS) * time.Millisecond
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
