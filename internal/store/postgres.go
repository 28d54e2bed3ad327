package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig controls the connection pool for the jobs table.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists jobs in Postgres. The schema:
//
//	CREATE TABLE jobs (
//	    id UUID PRIMARY KEY,
//	    url TEXT NOT NULL,
//	    title TEXT NOT NULL,
//	    company TEXT NOT NULL,
//	    location TEXT NOT NULL DEFAULT '',
//	    salary TEXT NOT NULL DEFAULT '',
//	    description TEXT NOT NULL DEFAULT '',
//	    status TEXT NOT NULL DEFAULT 'saved',
//	    source TEXT NOT NULL DEFAULT '',
//	    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    blob_uri TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool querier
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool querier) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const jobColumns = `id, url, title, company, location, salary, description, status, source, confidence, blob_uri, created_at, updated_at`

func scanJob(row pgx.Row) (Job, error) {
	var job Job
	err := row.Scan(
		&job.ID,
		&job.URL,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.Salary,
		&job.Description,
		&job.Status,
		&job.Source,
		&job.Confidence,
		&job.BlobURI,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	return job, err
}

// Create inserts the job, assigning an id and timestamps.
func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = StatusSaved
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := s.pool.Exec(ctx, query,
		job.ID,
		job.URL,
		job.Title,
		job.Company,
		job.Location,
		job.Salary,
		job.Description,
		job.Status,
		job.Source,
		job.Confidence,
		job.BlobURI,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get returns a job by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// List returns jobs newest first, optionally filtered by status.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Job, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		rows pgx.Rows
		err  error
	)
	if filter.Status != "" {
		query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = s.pool.Query(ctx, query, filter.Status, limit, filter.Offset)
	} else {
		query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = s.pool.Query(ctx, query, limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Update patches the non-nil fields and returns the updated row.
func (s *PostgresStore) Update(ctx context.Context, id string, update JobUpdate) (Job, error) {
	if err := update.Validate(); err != nil {
		return Job{}, err
	}
	query := `
UPDATE jobs SET
	title = COALESCE($2, title),
	company = COALESCE($3, company),
	location = COALESCE($4, location),
	salary = COALESCE($5, salary),
	status = COALESCE($6, status),
	updated_at = $7
WHERE id = $1
RETURNING ` + jobColumns

	job, err := scanJob(s.pool.QueryRow(ctx, query,
		id,
		update.Title,
		update.Company,
		update.Location,
		update.Salary,
		update.Status,
		time.Now().UTC(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// Delete removes a job by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
