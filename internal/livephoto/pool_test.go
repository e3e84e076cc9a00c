package livephoto

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoolSplits(t *testing.T) {
	t.Parallel()
	p := NewPool(NewSplitter(), 4)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(photoLen int) {
			defer wg.Done()
			o := <-p.Submit(context.Background(), NewSourceAsset(makeLivePhoto(photoLen)))
			if o.Err != nil {
				t.Errorf("photo %d: outcome error = %v", photoLen, o.Err)
				return
			}
			if o.Result.SplitPoint != photoLen {
				t.Errorf("photo %d: SplitPoint = %d", photoLen, o.Result.SplitPoint)
			}
		}(100 + i*37)
	}
	wg.Wait()
}

func TestPoolReportsFailures(t *testing.T) {
	t.Parallel()
	p := NewPool(nil, 1)
	defer p.Close()

	_, err := p.Split(context.Background(), NewSourceAsset(makePhoto(200)))
	if !errors.Is(err, ErrNoContainerFound) {
		t.Errorf("Split() error = %v, want ErrNoContainerFound", err)
	}
}

func TestPoolCancelledBeforeStart(t *testing.T) {
	t.Parallel()
	p := NewPool(NewSplitter(), 2)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case o := <-p.Submit(ctx, NewSourceAsset(makeLivePhoto(64))):
		if o.Result != nil {
			t.Error("cancelled job returned a partial result")
		}
		if !errors.Is(o.Err, ErrCancelled) {
			t.Errorf("outcome error = %v, want ErrCancelled", o.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome for cancelled job")
	}
}

func TestPoolCancelMidScan(t *testing.T) {
	t.Parallel()
	// A large buffer with no signature keeps the scan busy long enough for
	// the cancellation to land while it runs.
	p := NewPool(NewSplitter(WithCheckInterval(64)), 1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	reply := p.Submit(ctx, NewSourceAsset(make([]byte, 64<<20)))
	cancel()

	select {
	case o := <-reply:
		// The scan may finish before noticing; it must never report success.
		if o.Result != nil {
			t.Fatal("buffer without ftyp produced a result")
		}
		if !errors.Is(o.Err, ErrCancelled) && !errors.Is(o.Err, ErrNoContainerFound) {
			t.Errorf("outcome error = %v", o.Err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no outcome after cancel")
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	t.Parallel()
	p := NewPool(NewSplitter(), 1)
	p.Close()
	p.Close()

	o := <-p.Submit(context.Background(), NewSourceAsset(makeLivePhoto(10)))
	if !errors.Is(o.Err, ErrCancelled) || !errors.Is(o.Err, ErrPoolClosed) {
		t.Errorf("outcome error = %v, want ErrCancelled wrapping ErrPoolClosed", o.Err)
	}
}
