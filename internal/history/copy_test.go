package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	srcRepo, src := newTestRepo(t)
	dst, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(err)
	defer dst.Close()

	for i := 0; i < 3; i++ {
		require.NoError(srcRepo.Insert(ctx, &Record{
			SourceName: "f.jpg",
			SplitPoint: int64(100 * i),
			Outcome:    OutcomeOK,
			Strategy:   "box_walk",
			Cached:     i == 1,
			Duration:   time.Millisecond,
		}))
	}

	n, err := Copy(ctx, src, dst)
	require.NoError(err)
	require.Equal(int64(3), n)

	// re-running skips existing rows
	n, err = Copy(ctx, src, dst)
	require.NoError(err)
	require.Equal(int64(0), n)

	recs, err := NewRepository(dst).Recent(ctx, 10)
	require.NoError(err)
	require.Len(recs, 3)

	cached := 0
	for _, r := range recs {
		if r.Cached {
			cached++
		}
	}
	require.Equal(1, cached)
}
