package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, *DB) {
	t.Helper()
	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), db
}

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := NewDB("mysql", "whatever")
	require.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "history.db")
	db, err := NewDB(DriverSQLite, path)
	require.NoError(err)
	require.NoError(db.Close())

	db, err = NewDB(DriverSQLite, path)
	require.NoError(err)
	defer db.Close()

	var n int
	require.NoError(db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	require.Equal(1, n)
}

func TestInsertAndGet(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := &Record{
		SourceName: "IMG_0001.JPG",
		SourceSize: 2_400_000,
		Digest:     "abcd",
		SplitPoint: 1_800_000,
		Outcome:    OutcomeOK,
		Strategy:   "box_walk",
		PhotoMIME:  "image/jpeg",
		Cached:     true,
		Duration:   1500 * time.Microsecond,
	}
	require.NoError(repo.Insert(ctx, rec))
	require.NotEmpty(rec.ID)
	require.False(rec.CreatedAt.IsZero())

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(err)
	require.Equal(rec.SourceName, got.SourceName)
	require.Equal(rec.SplitPoint, got.SplitPoint)
	require.Equal(rec.Duration, got.Duration)
	require.True(got.Cached)
	require.True(got.OK())
	require.Equal(rec.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(err, ErrRecordNotFound)
}

func TestRecentAndCounts(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	outcomes := []string{OutcomeOK, "no_container_found", OutcomeOK, "invalid_container"}
	for i, o := range outcomes {
		require.NoError(repo.Insert(ctx, &Record{
			SourceName: "f",
			SplitPoint: -1,
			Outcome:    o,
			Strategy:   "none",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(err)
	require.Len(recent, 2)
	require.Equal("invalid_container", recent[0].Outcome)
	require.Equal(OutcomeOK, recent[1].Outcome)

	counts, err := repo.CountByOutcome(ctx)
	require.NoError(err)
	require.Equal(int64(2), counts[OutcomeOK])
	require.Equal(int64(1), counts["no_container_found"])

	n, err := repo.DeleteBefore(ctx, base.Add(90*time.Second))
	require.NoError(err)
	require.Equal(int64(2), n)

	all, err := repo.Recent(ctx, 0)
	require.NoError(err)
	require.Len(all, 2)
}
