package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccepts(t *testing.T) {
	t.Parallel()
	w := New(t.TempDir(), time.Millisecond, nil, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"IMG_0001.JPG", true},
		{"a/b/photo.heic", true},
		{"clip.mp4", false},
		{".IMG_0001.JPG.tmp", false},
		{".hidden.jpg", false},
		{"noext", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, w.Accepts(tc.path), tc.path)
	}
}

func TestRunDebouncesWrites(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dir := t.TempDir()

	var (
		mu    sync.Mutex
		calls = map[string]int{}
	)
	w := New(dir, 100*time.Millisecond, []string{".jpg"}, func(_ context.Context, path string) error {
		mu.Lock()
		calls[filepath.Base(path)]++
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	f, err := os.Create(filepath.Join(dir, "live.jpg"))
	require.NoError(err)
	for i := 0; i < 5; i++ {
		_, err = f.Write([]byte("chunk"))
		require.NoError(err)
	}
	require.NoError(f.Close())
	require.NoError(os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	require.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls["live.jpg"] >= 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(1, calls["live.jpg"])
	require.NotContains(calls, "ignored.txt")
}

func TestRunMissingDir(t *testing.T) {
	t.Parallel()
	w := New(filepath.Join(t.TempDir(), "absent"), time.Millisecond, nil, nil)

	err := w.Run(context.Background())
	require.Error(t, err)
}
