package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nx-media/playcore/internal/domain"
)

// Generators persists the PlaylistGenerator record (spec §3, §6
// "Persistence": "Generators store their seed as JSON; shuffle
// permutations as a compact state blob"). The materialized item window
// itself is never persisted — it's re-resolved from the catalog on demand,
// since the seed is a deterministic snapshot descriptor (spec §4.D
// "Resolution").
type Generators struct {
	db *sql.DB
}

func NewGenerators(db *sql.DB) (*Generators, error) {
	g := &Generators{db: db}
	if err := g.migrate(); err != nil {
		return nil, fmt.Errorf("store: generators migrate: %w", err)
	}
	return g, nil
}

func (g *Generators) migrate() error {
	_, err := g.db.Exec(`
	CREATE TABLE IF NOT EXISTS playlist_generators (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		seed_json        TEXT NOT NULL,
		cursor           INTEGER NOT NULL,
		total_count      INTEGER NOT NULL,
		chunk_size       INTEGER NOT NULL,
		shuffle          INTEGER NOT NULL,
		repeat           INTEGER NOT NULL,
		permutation_seed INTEGER NOT NULL,
		expires_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_playlist_generators_session ON playlist_generators(session_id);
	`)
	return err
}

func (g *Generators) Save(ctx context.Context, gen domain.PlaylistGenerator) error {
	seedBody, err := json.Marshal(gen.Seed)
	if err != nil {
		return fmt.Errorf("store: marshal seed: %w", err)
	}
	_, err = g.db.ExecContext(ctx, `
	INSERT INTO playlist_generators (id, session_id, seed_json, cursor, total_count, chunk_size, shuffle, repeat, permutation_seed, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		cursor = excluded.cursor,
		total_count = excluded.total_count,
		shuffle = excluded.shuffle,
		repeat = excluded.repeat,
		expires_at = excluded.expires_at`,
		gen.ID, gen.SessionID, string(seedBody), gen.Cursor, gen.TotalCount, gen.ChunkSize,
		boolToInt(gen.Shuffle), boolToInt(gen.Repeat), gen.PermutationSeed, nullTime(gen.ExpiresAt),
	)
	return err
}

func (g *Generators) Get(ctx context.Context, id string) (domain.PlaylistGenerator, error) {
	row := g.db.QueryRowContext(ctx, `
	SELECT id, session_id, seed_json, cursor, total_count, chunk_size, shuffle, repeat, permutation_seed, expires_at
	FROM playlist_generators WHERE id = ?`, id)
	gen, err := scanGenerator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlaylistGenerator{}, domain.NotFound("store: generator not found")
	}
	return gen, err
}

func (g *Generators) GetBySession(ctx context.Context, sessionID string) (domain.PlaylistGenerator, error) {
	row := g.db.QueryRowContext(ctx, `
	SELECT id, session_id, seed_json, cursor, total_count, chunk_size, shuffle, repeat, permutation_seed, expires_at
	FROM playlist_generators WHERE session_id = ? ORDER BY rowid DESC LIMIT 1`, sessionID)
	gen, err := scanGenerator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlaylistGenerator{}, domain.NotFound("store: generator not found for session")
	}
	return gen, err
}

func (g *Generators) Delete(ctx context.Context, id string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM playlist_generators WHERE id = ?`, id)
	return err
}

func scanGenerator(scanner interface{ Scan(...any) error }) (domain.PlaylistGenerator, error) {
	var gen domain.PlaylistGenerator
	var seedBody string
	var shuffle, repeat int
	var expiresAt sql.NullString
	if err := scanner.Scan(&gen.ID, &gen.SessionID, &seedBody, &gen.Cursor, &gen.TotalCount, &gen.ChunkSize, &shuffle, &repeat, &gen.PermutationSeed, &expiresAt); err != nil {
		return domain.PlaylistGenerator{}, err
	}
	if err := json.Unmarshal([]byte(seedBody), &gen.Seed); err != nil {
		return domain.PlaylistGenerator{}, fmt.Errorf("store: unmarshal seed: %w", err)
	}
	gen.Shuffle = shuffle != 0
	gen.Repeat = repeat != 0
	gen.ExpiresAt = parseNullTime(expiresAt)
	return gen, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
