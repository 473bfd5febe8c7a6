package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/google/uuid"
)

// jobColumns is the canonical column list for scanning job rows.
const jobColumns = `id, type, status, payload, result, error, organization_id,
	created_at, started_at, completed_at, last_heartbeat, next_attempt_at, retry_count`

// PostgresJobStore implements the job.Store interface using PostgreSQL.
type PostgresJobStore struct {
	db store.DBTX
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{
		db: db,
	}
}

// Enqueue inserts a new job row in status queued.
func (s *PostgresJobStore) Enqueue(ctx context.Context, j *job.Job) error {
	log := logger.FromContext(ctx)

	if err := j.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO jobs (id, type, status, payload, organization_id, created_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		j.ID,
		j.Type,
		j.Status,
		[]byte(j.Payload),
		j.OrganizationID,
		j.CreatedAt,
		j.RetryCount,
	)
	if err != nil {
		log.Error("failed to enqueue job",
			"job_id", j.ID,
			"job_type", j.Type,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetJob retrieves a job by ID.
func (s *PostgresJobStore) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return j, nil
}

// Claim atomically transitions the oldest eligible queued job of one of the
// given types to processing and returns it. The inner SELECT uses FOR UPDATE
// SKIP LOCKED so concurrent claimers skip rows another transaction already
// holds instead of blocking on them, and the outer UPDATE re-checks the
// status so a lost race surfaces as zero rows rather than a double claim.
func (s *PostgresJobStore) Claim(ctx context.Context, now time.Time, types []string) (*job.Job, error) {
	log := logger.FromContext(ctx)

	if len(types) == 0 {
		return nil, store.ErrNoJobAvailable
	}

	query := `
		UPDATE jobs
		SET status = $1, started_at = $2, last_heartbeat = $2
		WHERE id = (
			SELECT id
			FROM jobs
			WHERE status = $3
			  AND type = ANY($4)
			  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		AND status = $3
		RETURNING ` + jobColumns

	j, err := scanJob(s.db.QueryRowContext(ctx, query,
		job.StatusProcessing,
		now,
		job.StatusQueued,
		types,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoJobAvailable
		}
		log.Error("failed to claim job", "error", err)
		return nil, fmt.Errorf("failed to claim job: %w", MapError(err))
	}

	return j, nil
}

// MarkDone transitions a processing job to done with its result.
func (s *PostgresJobStore) MarkDone(ctx context.Context, id uuid.UUID, result json.RawMessage, now time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, result = $2, completed_at = $3, error = NULL
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusDone,
		[]byte(result),
		now,
		id,
		job.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job done: %w", MapError(err))
	}
	return checkStatusGuard(res)
}

// MarkFailed transitions a processing job to failed, recording the error
// verbatim, incrementing retry_count, and persisting the next eligible
// attempt time. A nil nextAttemptAt marks the failure fatal.
func (s *PostgresJobStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, nextAttemptAt *time.Time, now time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, error = $2, completed_at = $3,
		    next_attempt_at = $4, retry_count = retry_count + 1
		WHERE id = $5 AND status = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusFailed,
		errMsg,
		now,
		nextAttemptAt,
		id,
		job.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", MapError(err))
	}
	return checkStatusGuard(res)
}

// Requeue re-queues a yielded processing job at the back of the FIFO order:
// payload replaced, created_at rewritten to now, and started_at,
// last_heartbeat and next_attempt_at reset to null.
func (s *PostgresJobStore) Requeue(ctx context.Context, id uuid.UUID, payload json.RawMessage, now time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, payload = $2, created_at = $3,
		    started_at = NULL, last_heartbeat = NULL, next_attempt_at = NULL
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusQueued,
		[]byte(payload),
		now,
		id,
		job.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to requeue job: %w", MapError(err))
	}
	return checkStatusGuard(res)
}

// Heartbeat refreshes last_heartbeat on a processing job. A row that is no
// longer processing is a no-op, not an error: the executor may legitimately
// finish between ticks.
func (s *PostgresJobStore) Heartbeat(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE jobs
		SET last_heartbeat = $1
		WHERE id = $2 AND status = $3
	`
	_, err := s.db.ExecContext(ctx, query, now, id, job.StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", MapError(err))
	}
	return nil
}

// ListProcessing returns all jobs currently in processing, oldest first.
func (s *PostgresJobStore) ListProcessing(ctx context.Context) ([]*job.Job, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, job.StatusProcessing)
	if err != nil {
		log.Error("failed to list processing jobs", "error", err)
		return nil, fmt.Errorf("failed to list processing jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// FailIfStale transitions a processing job to failed only if its latest
// liveness signal is still before cutoff at the moment of the update. The
// staleness recheck lives inside the UPDATE itself, so a worker heartbeating
// between the reconciler's read and this write makes the guard miss.
func (s *PostgresJobStore) FailIfStale(ctx context.Context, id uuid.UUID, cutoff time.Time, errMsg string, now time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1, error = $2, completed_at = $3, retry_count = retry_count + 1
		WHERE id = $4 AND status = $5
		  AND GREATEST(
			COALESCE(last_heartbeat, 'epoch'::timestamptz),
			COALESCE(started_at, 'epoch'::timestamptz),
			created_at
		  ) < $6
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusFailed,
		errMsg,
		now,
		id,
		job.StatusProcessing,
		cutoff,
	)
	if err != nil {
		return false, fmt.Errorf("failed to fail stale job: %w", MapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CompleteFromArtifact transitions a processing job to done with the given
// reconstructed result. Returns false when the row is no longer processing.
func (s *PostgresJobStore) CompleteFromArtifact(ctx context.Context, id uuid.UUID, result json.RawMessage, now time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1, result = $2, completed_at = $3, error = NULL
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusDone,
		[]byte(result),
		now,
		id,
		job.StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete job from artifact: %w", MapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJob scans one job row into a job.Job, converting nullable columns.
func scanJob(row rowScanner) (*job.Job, error) {
	var (
		j             job.Job
		payload       []byte
		result        []byte
		errMsg        sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		lastHeartbeat sql.NullTime
		nextAttemptAt sql.NullTime
	)

	err := row.Scan(
		&j.ID,
		&j.Type,
		&j.Status,
		&payload,
		&result,
		&errMsg,
		&j.OrganizationID,
		&j.CreatedAt,
		&startedAt,
		&completedAt,
		&lastHeartbeat,
		&nextAttemptAt,
		&j.RetryCount,
	)
	if err != nil {
		return nil, err
	}

	j.Payload = json.RawMessage(payload)
	if result != nil {
		j.Result = json.RawMessage(result)
	}
	j.Error = errMsg.String
	j.StartedAt = nullableTime(startedAt)
	j.CompletedAt = nullableTime(completedAt)
	j.LastHeartbeat = nullableTime(lastHeartbeat)
	j.NextAttemptAt = nullableTime(nextAttemptAt)

	return &j, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Compile-time check that PostgresJobStore satisfies job.Store.
var _ job.Store = (*PostgresJobStore)(nil)
