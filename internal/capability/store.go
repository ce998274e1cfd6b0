// Package capability implements the versioned per-session capability
// record: Component A of the playback core. A session's effective profile
// is always the highest version declared for it; declarations that repeat
// the current head are no-ops so debugging history only grows on real
// change.
package capability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/nx-media/playcore/internal/domain"
)

// Store is the Capability Store's public surface (spec component A).
type Store struct {
	db *sql.DB

	// locks holds one mutex per session (the map itself guarded by
	// locksMu); it serializes upsertCapability per session so version
	// numbers stay gapless and monotonic under concurrent declarations
	// (spec §4.A). mu is not used.
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// New opens (and migrates) the capability store against db, which the
// caller owns and must also pass to the other repositories sharing the
// same sqlite file.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db, locks: make(map[string]*sync.Mutex)}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("capability: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS capability_profiles (
		session_id    TEXT NOT NULL,
		version       INTEGER NOT NULL,
		device_id     TEXT NOT NULL DEFAULT '',
		device_name   TEXT NOT NULL DEFAULT '',
		capabilities_json TEXT NOT NULL,
		declared_at   TEXT NOT NULL,
		PRIMARY KEY (session_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_capability_profiles_session ON capability_profiles(session_id, version DESC);
	`)
	return err
}

func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// UpsertResult is the outcome of a capability declaration (spec §4.A).
type UpsertResult struct {
	EffectiveVersion int
	Mismatch         bool
}

// UpsertCapability records a client's capability declaration. If the
// declared body differs from the current head (deep equality), a new
// version is appended; otherwise the head is returned unchanged.
// declaredVersion, if non-nil, is compared against the resulting
// effective version to flag a stale client view.
func (s *Store) UpsertCapability(ctx context.Context, sessionID string, declaration domain.Capabilities, declaredVersion *int) (UpsertResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	head, ok, err := s.headLocked(ctx, sessionID)
	if err != nil {
		return UpsertResult{}, err
	}

	var effective int
	switch {
	case !ok:
		effective = 1
		if err := s.insert(ctx, sessionID, effective, "", "", declaration, time.Now()); err != nil {
			return UpsertResult{}, err
		}
	case capabilitiesEqual(head.Capabilities, declaration):
		effective = head.Version
	default:
		effective = head.Version + 1
		if err := s.insert(ctx, sessionID, effective, head.DeviceID, head.DeviceName, declaration, time.Now()); err != nil {
			return UpsertResult{}, err
		}
	}

	mismatch := declaredVersion != nil && *declaredVersion != effective
	return UpsertResult{EffectiveVersion: effective, Mismatch: mismatch}, nil
}

// DeclareDevice is like UpsertCapability but also records/refreshes the
// declaring device's id and name on the new (or existing) head version.
func (s *Store) DeclareDevice(ctx context.Context, sessionID, deviceID, deviceName string, declaration domain.Capabilities, declaredVersion *int) (UpsertResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	head, ok, err := s.headLocked(ctx, sessionID)
	if err != nil {
		return UpsertResult{}, err
	}

	var effective int
	switch {
	case !ok:
		effective = 1
	case capabilitiesEqual(head.Capabilities, declaration):
		effective = head.Version
	default:
		effective = head.Version + 1
	}
	if !ok || effective != head.Version {
		if err := s.insert(ctx, sessionID, effective, deviceID, deviceName, declaration, time.Now()); err != nil {
			return UpsertResult{}, err
		}
	}

	mismatch := declaredVersion != nil && *declaredVersion != effective
	return UpsertResult{EffectiveVersion: effective, Mismatch: mismatch}, nil
}

// GetEffective returns the head-of-chain profile for sessionID, or the
// synthesized default from domain.DefaultCapabilities when the session has
// never declared one (spec §4.A "Failure semantics").
func (s *Store) GetEffective(ctx context.Context, sessionID string) (domain.CapabilityProfile, error) {
	head, ok, err := s.headLocked(ctx, sessionID)
	if err != nil {
		return domain.CapabilityProfile{}, err
	}
	if !ok {
		return domain.CapabilityProfile{
			SessionID:    sessionID,
			Version:      0,
			Capabilities: domain.DefaultCapabilities(),
			DeclaredAt:   time.Time{},
		}, nil
	}
	return head, nil
}

// History returns every declared version for sessionID, oldest first, for
// debugging (spec §3 "old versions retained for debugging").
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.CapabilityProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT session_id, version, device_id, device_name, capabilities_json, declared_at
	FROM capability_profiles WHERE session_id = ? ORDER BY version ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CapabilityProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) headLocked(ctx context.Context, sessionID string) (domain.CapabilityProfile, bool, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT session_id, version, device_id, device_name, capabilities_json, declared_at
	FROM capability_profiles WHERE session_id = ? ORDER BY version DESC LIMIT 1`, sessionID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CapabilityProfile{}, false, nil
	}
	if err != nil {
		return domain.CapabilityProfile{}, false, err
	}
	return p, true, nil
}

func (s *Store) insert(ctx context.Context, sessionID string, version int, deviceID, deviceName string, caps domain.Capabilities, declaredAt time.Time) error {
	body, err := json.Marshal(caps)
	if err != nil {
		return fmt.Errorf("capability: marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO capability_profiles (session_id, version, device_id, device_name, capabilities_json, declared_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, version, deviceID, deviceName, string(body), declaredAt.UTC().Format(time.RFC3339Nano))
	return err
}

func scanProfile(scanner interface{ Scan(...any) error }) (domain.CapabilityProfile, error) {
	var p domain.CapabilityProfile
	var body, declaredAt string
	if err := scanner.Scan(&p.SessionID, &p.Version, &p.DeviceID, &p.DeviceName, &body, &declaredAt); err != nil {
		return domain.CapabilityProfile{}, err
	}
	if err := json.Unmarshal([]byte(body), &p.Capabilities); err != nil {
		return domain.CapabilityProfile{}, fmt.Errorf("capability: unmarshal: %w", err)
	}
	p.DeclaredAt, _ = time.Parse(time.RFC3339Nano, declaredAt)
	return p, nil
}

// capabilitiesEqual is the deep-equality check spec §4.A calls for between
// a declaration and the current head body.
func capabilitiesEqual(a, b domain.Capabilities) bool {
	return reflect.DeepEqual(a, b)
}
