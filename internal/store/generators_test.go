package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nx-media/playcore/internal/domain"
)

func TestGeneratorsSaveAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	generators, err := NewGenerators(db)
	require.NoError(t, err)

	gen := domain.PlaylistGenerator{
		ID:              "gen-1",
		SessionID:       "sess-1",
		Seed:            domain.Seed{Type: domain.SeedLibrary, LibrarySection: "lib-1", Repeat: true},
		Cursor:          3,
		TotalCount:      10,
		ChunkSize:       domain.DefaultChunkSize,
		PermutationSeed: 99,
		ExpiresAt:       time.Now().Add(time.Hour),
	}
	require.NoError(t, generators.Save(ctx, gen))

	got, err := generators.Get(ctx, "gen-1")
	require.NoError(t, err)
	require.Equal(t, gen.SessionID, got.SessionID)
	require.Equal(t, gen.Seed.Type, got.Seed.Type)
	require.Equal(t, gen.Seed.LibrarySection, got.Seed.LibrarySection)
	require.Equal(t, gen.Cursor, got.Cursor)
	require.Equal(t, gen.TotalCount, got.TotalCount)
	require.Equal(t, gen.Repeat, got.Repeat)
	require.Equal(t, gen.PermutationSeed, got.PermutationSeed)

	gen.Cursor = 7
	require.NoError(t, generators.Save(ctx, gen))
	got, err = generators.Get(ctx, "gen-1")
	require.NoError(t, err)
	require.Equal(t, 7, got.Cursor)

	bySession, err := generators.GetBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "gen-1", bySession.ID)
}

func TestGeneratorsGetNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	generators, err := NewGenerators(db)
	require.NoError(t, err)

	_, err = generators.Get(ctx, "missing")
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
