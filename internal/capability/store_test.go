package capability

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertCapabilityVersionMonotonicity(t *testing.T) {
	ctx := context.Background()
	s, err := New(openTestDB(t))
	require.NoError(t, err)

	first := domain.Capabilities{MaxStreamingBitrate: 1_000_000, SupportsDash: true}
	res, err := s.UpsertCapability(ctx, "sess-1", first, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.EffectiveVersion)

	// Duplicate body: no version bump (spec §8 "Capability version
	// monotonicity").
	res, err = s.UpsertCapability(ctx, "sess-1", first, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.EffectiveVersion)

	second := first
	second.MaxStreamingBitrate = 2_000_000
	res, err = s.UpsertCapability(ctx, "sess-1", second, nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.EffectiveVersion)

	effective, err := s.GetEffective(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 2, effective.Version)
	require.Equal(t, int64(2_000_000), effective.Capabilities.MaxStreamingBitrate)
}

func TestUpsertCapabilityMismatchFlag(t *testing.T) {
	ctx := context.Background()
	s, err := New(openTestDB(t))
	require.NoError(t, err)

	caps := domain.Capabilities{SupportsDash: true}
	_, err = s.UpsertCapability(ctx, "sess-1", caps, nil)
	require.NoError(t, err)
	caps.MaxStreamingBitrate = 5
	_, err = s.UpsertCapability(ctx, "sess-1", caps, nil)
	require.NoError(t, err)
	caps.MaxStreamingBitrate = 6
	_, err = s.UpsertCapability(ctx, "sess-1", caps, nil)
	require.NoError(t, err)

	// Head is now version 3; a heartbeat declaring version 2 should report a
	// mismatch without bumping the head (spec §8 scenario 7).
	stale := 2
	res, err := s.UpsertCapability(ctx, "sess-1", caps, &stale)
	require.NoError(t, err)
	require.Equal(t, 3, res.EffectiveVersion)
	require.True(t, res.Mismatch)
}

func TestGetEffectiveSynthesizesDefault(t *testing.T) {
	ctx := context.Background()
	s, err := New(openTestDB(t))
	require.NoError(t, err)

	effective, err := s.GetEffective(ctx, "never-declared")
	require.NoError(t, err)
	require.Equal(t, 0, effective.Version)
	require.True(t, effective.Capabilities.SupportsDash)
	require.Empty(t, effective.Capabilities.TranscodingProfiles)
}
