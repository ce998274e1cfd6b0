package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nx-media/playcore/internal/domain"
)

// Jobs persists a record of each transcode job the Manager has started, for
// observability and crash forensics (spec §6 "Persistence"). The live LRU
// job cache in the transcode package remains authoritative for in-process
// decisions (an encoder process does not survive a restart regardless of
// what this table says); this repository exists so a job's outcome can be
// inspected after the fact rather than to drive playback behavior.
type Jobs struct {
	db *sql.DB
}

func NewJobs(db *sql.DB) (*Jobs, error) {
	j := &Jobs{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("store: jobs migrate: %w", err)
	}
	return j, nil
}

func (j *Jobs) migrate() error {
	_, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS transcode_jobs (
		id                    TEXT PRIMARY KEY,
		session_id            TEXT NOT NULL DEFAULT '',
		part_id               TEXT NOT NULL,
		variant_key           TEXT NOT NULL,
		protocol              TEXT NOT NULL,
		state                 TEXT NOT NULL,
		output_dir            TEXT NOT NULL DEFAULT '',
		last_ping_at          TEXT NOT NULL,
		error                 TEXT NOT NULL DEFAULT '',
		current_segment_index INTEGER NOT NULL DEFAULT -1
	);
	CREATE INDEX IF NOT EXISTS idx_transcode_jobs_part ON transcode_jobs(part_id);
	`)
	return err
}

func (j *Jobs) Save(ctx context.Context, job domain.TranscodeJob) error {
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO transcode_jobs (id, session_id, part_id, variant_key, protocol, state, output_dir, last_ping_at, error, current_segment_index)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		session_id = excluded.session_id,
		state = excluded.state,
		last_ping_at = excluded.last_ping_at,
		error = excluded.error,
		current_segment_index = excluded.current_segment_index`,
		job.ID, job.SessionID, job.PartID, string(job.VariantKey), string(job.Protocol), string(job.State),
		job.OutputDir, nullTime(job.LastPingAt), job.Error, job.CurrentSegmentIndex,
	)
	return err
}

func (j *Jobs) Get(ctx context.Context, id string) (domain.TranscodeJob, error) {
	row := j.db.QueryRowContext(ctx, `
	SELECT id, session_id, part_id, variant_key, protocol, state, output_dir, last_ping_at, error, current_segment_index
	FROM transcode_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TranscodeJob{}, domain.NotFound("store: job not found")
	}
	return job, err
}

// Stale returns every job record whose last ping predates asOf, for
// reconciling the table against jobs the in-process cache already reaped.
func (j *Jobs) Stale(ctx context.Context, asOf time.Time) ([]domain.TranscodeJob, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT id, session_id, part_id, variant_key, protocol, state, output_dir, last_ping_at, error, current_segment_index
	FROM transcode_jobs WHERE last_ping_at <= ?`, nullTime(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TranscodeJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (j *Jobs) Delete(ctx context.Context, id string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM transcode_jobs WHERE id = ?`, id)
	return err
}

func scanJob(scanner interface{ Scan(...any) error }) (domain.TranscodeJob, error) {
	var job domain.TranscodeJob
	var variantKey, protocol, state, lastPingAt string
	if err := scanner.Scan(&job.ID, &job.SessionID, &job.PartID, &variantKey, &protocol, &state,
		&job.OutputDir, &lastPingAt, &job.Error, &job.CurrentSegmentIndex); err != nil {
		return domain.TranscodeJob{}, err
	}
	job.VariantKey = domain.VariantKey(variantKey)
	job.Protocol = domain.Protocol(protocol)
	job.State = domain.JobState(state)
	job.LastPingAt = parseNullTime(sql.NullString{String: lastPingAt, Valid: lastPingAt != ""})
	return job, nil
}
