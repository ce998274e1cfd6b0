package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nx-media/playcore/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionsSaveAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions, err := NewSessions(db)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sess := domain.PlaybackSession{
		ID:            "sess-1",
		UserID:        "user-1",
		ItemID:        "item-1",
		State:         domain.SessionPlaying,
		PlayheadMs:    1500,
		LastHeartbeat: now,
		ExpiresAt:     now.Add(domain.InactivityWindow),
		LastPlan:      &domain.StreamPlan{Mode: domain.ModeDirectPlay, CopyVideo: true, CopyAudio: true},
	}
	require.NoError(t, sessions.Save(ctx, sess))

	got, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
	require.Equal(t, sess.State, got.State)
	require.Equal(t, sess.PlayheadMs, got.PlayheadMs)
	require.NotNil(t, got.LastPlan)
	require.Equal(t, domain.ModeDirectPlay, got.LastPlan.Mode)
}

func TestSessionsExpired(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions, err := NewSessions(db)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	require.NoError(t, sessions.Save(ctx, domain.PlaybackSession{ID: "old", UserID: "u", ItemID: "i", State: domain.SessionPlaying, LastHeartbeat: past, ExpiresAt: past}))
	require.NoError(t, sessions.Save(ctx, domain.PlaybackSession{ID: "fresh", UserID: "u", ItemID: "i", State: domain.SessionPlaying, LastHeartbeat: future, ExpiresAt: future}))

	expired, err := sessions.Expired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "old", expired[0].ID)
}

func TestSessionsGetNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions, err := NewSessions(db)
	require.NoError(t, err)

	_, err = sessions.Get(ctx, "missing")
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
