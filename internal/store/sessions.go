package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nx-media/playcore/internal/domain"
)

// Sessions persists PlaybackSession records (spec §3, §6 "Persistence").
// The last computed plan is stored alongside so a resume() before the next
// heartbeat can answer without re-planning, and so the sweeper can report
// what a session was doing when it expired.
type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) (*Sessions, error) {
	s := &Sessions{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: sessions migrate: %w", err)
	}
	return s, nil
}

func (s *Sessions) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS playback_sessions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		device_id        TEXT NOT NULL DEFAULT '',
		item_id          TEXT NOT NULL,
		part_id          TEXT NOT NULL DEFAULT '',
		generator_id     TEXT NOT NULL DEFAULT '',
		state            TEXT NOT NULL,
		playhead_ms      INTEGER NOT NULL DEFAULT 0,
		last_heartbeat   TEXT NOT NULL,
		expires_at       TEXT NOT NULL,
		originator       TEXT NOT NULL DEFAULT '',
		context          TEXT NOT NULL DEFAULT '',
		last_plan_json   TEXT NOT NULL DEFAULT '',
		transcode_job_id TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_playback_sessions_expires ON playback_sessions(expires_at);
	`)
	return err
}

func (s *Sessions) Save(ctx context.Context, sess domain.PlaybackSession) error {
	var planBody string
	if sess.LastPlan != nil {
		body, err := json.Marshal(sess.LastPlan)
		if err != nil {
			return fmt.Errorf("store: marshal plan: %w", err)
		}
		planBody = string(body)
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO playback_sessions (id, user_id, device_id, item_id, part_id, generator_id, state, playhead_ms, last_heartbeat, expires_at, originator, context, last_plan_json, transcode_job_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		item_id = excluded.item_id,
		part_id = excluded.part_id,
		state = excluded.state,
		playhead_ms = excluded.playhead_ms,
		last_heartbeat = excluded.last_heartbeat,
		expires_at = excluded.expires_at,
		last_plan_json = excluded.last_plan_json,
		transcode_job_id = excluded.transcode_job_id`,
		sess.ID, sess.UserID, sess.DeviceID, sess.ItemID, sess.PartID, sess.GeneratorID, string(sess.State),
		sess.PlayheadMs, nullTime(sess.LastHeartbeat), nullTime(sess.ExpiresAt), sess.Originator, sess.Context,
		planBody, sess.TranscodeJobID,
	)
	return err
}

func (s *Sessions) Get(ctx context.Context, id string) (domain.PlaybackSession, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, user_id, device_id, item_id, part_id, generator_id, state, playhead_ms, last_heartbeat, expires_at, originator, context, last_plan_json, transcode_job_id
	FROM playback_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlaybackSession{}, domain.NotFound("store: session not found")
	}
	return sess, err
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM playback_sessions WHERE id = ?`, id)
	return err
}

// Expired returns every session whose expiry is at or before asOf, for the
// sweeper (spec §7 "a single sweeper task").
func (s *Sessions) Expired(ctx context.Context, asOf time.Time) ([]domain.PlaybackSession, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, device_id, item_id, part_id, generator_id, state, playhead_ms, last_heartbeat, expires_at, originator, context, last_plan_json, transcode_job_id
	FROM playback_sessions WHERE expires_at <= ?`, nullTime(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlaybackSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(scanner interface{ Scan(...any) error }) (domain.PlaybackSession, error) {
	var sess domain.PlaybackSession
	var state, lastHeartbeat, expiresAt, planBody string
	if err := scanner.Scan(&sess.ID, &sess.UserID, &sess.DeviceID, &sess.ItemID, &sess.PartID, &sess.GeneratorID,
		&state, &sess.PlayheadMs, &lastHeartbeat, &expiresAt, &sess.Originator, &sess.Context, &planBody, &sess.TranscodeJobID); err != nil {
		return domain.PlaybackSession{}, err
	}
	sess.State = domain.SessionState(state)
	sess.LastHeartbeat = parseNullTime(sql.NullString{String: lastHeartbeat, Valid: lastHeartbeat != ""})
	sess.ExpiresAt = parseNullTime(sql.NullString{String: expiresAt, Valid: expiresAt != ""})
	if planBody != "" {
		var plan domain.StreamPlan
		if err := json.Unmarshal([]byte(planBody), &plan); err != nil {
			return domain.PlaybackSession{}, fmt.Errorf("store: unmarshal plan: %w", err)
		}
		sess.LastPlan = &plan
	}
	return sess, nil
}
