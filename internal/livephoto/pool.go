package livephoto

import (
	"context"
	"sync"
)

// Outcome is the single reply to a submitted job: either Result or Err is
// set, never both.
type Outcome struct {
	Result *ExtractionResult
	Err    error
}

type job struct {
	ctx   context.Context
	asset *SourceAsset
	reply chan Outcome
}

// Pool runs splits on a fixed set of background goroutines. Jobs are
// exchanged by message: Submit hands over the asset and a context that acts
// as the cancellation token, and the returned channel receives exactly one
// Outcome.
type Pool struct {
	splitter *Splitter
	jobs     chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines splitting with s. workers < 1 is
// treated as 1.
func NewPool(s *Splitter, workers int) *Pool {
	if s == nil {
		s = defaultSplitter
	}
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		splitter: s,
		jobs:     make(chan job),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.reply <- Outcome{Err: cancelled(err)}
			continue
		}
		res, err := p.splitter.Split(j.ctx, j.asset)
		j.reply <- Outcome{Result: res, Err: err}
	}
}

// Submit transfers asset to the pool. The caller must not modify the asset's
// buffer afterwards. If ctx is done before a worker accepts the job, or the
// pool is closed, the reply is a KindCancelled failure.
func (p *Pool) Submit(ctx context.Context, asset *SourceAsset) <-chan Outcome {
	if asset == nil {
		panic("livephoto: Submit called with nil asset")
	}

	reply := make(chan Outcome, 1)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		reply <- Outcome{Err: cancelled(ErrPoolClosed)}
		return reply
	}

	select {
	case p.jobs <- job{ctx: ctx, asset: asset, reply: reply}:
	case <-ctx.Done():
		reply <- Outcome{Err: cancelled(ctx.Err())}
	}
	return reply
}

// Split submits asset and waits for its outcome or for ctx to finish,
// whichever comes first.
func (p *Pool) Split(ctx context.Context, asset *SourceAsset) (*ExtractionResult, error) {
	select {
	case o := <-p.Submit(ctx, asset):
		return o.Result, o.Err
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	}
}

// Close stops accepting jobs and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
