// Package handle tracks segments that have been handed out to clients.
//
// Every extraction served over HTTP produces two handles (photo and video)
// sharing a group ID. A handle keeps its segment, and so the whole source
// buffer, alive until it is released, either explicitly or by the idle sweep.
package handle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IceyWu/live-photo/internal/livephoto"
)

// Handle is a registered segment.
type Handle struct {
	ID        string
	Group     string
	Filename  string
	Segment   livephoto.Segment
	CreatedAt time.Time
}

type entry struct {
	h          *Handle
	lastAccess time.Time
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Open     int            `json:"open"`
	Groups   int            `json:"groups"`
	Bytes    int64          `json:"bytes"`
	ByMIME   map[string]int `json:"by_mime"`
	Released uint64         `json:"released"`
	Swept    uint64         `json:"swept"`
}

// Registry tracks segment handles and releases the ones nobody has touched
// for idleTimeout.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*entry
	groups  map[string][]string // group -> handle IDs

	released uint64
	swept    uint64

	idleTimeout   time.Duration
	checkInterval time.Duration
	now           func() time.Time

	stopChan chan struct{}
	stopped  bool
	log      *slog.Logger
}

// NewRegistry creates a registry. idleTimeout <= 0 disables the sweep.
func NewRegistry(idleTimeout, checkInterval time.Duration) *Registry {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	return &Registry{
		handles:       make(map[string]*entry),
		groups:        make(map[string][]string),
		idleTimeout:   idleTimeout,
		checkInterval: checkInterval,
		now:           time.Now,
		stopChan:      make(chan struct{}),
		log:           slog.With("component", "handle-registry"),
	}
}

// Register issues a handle for each segment under a fresh group ID. The
// handles are returned in argument order.
func (r *Registry) Register(filenames []string, segments ...livephoto.Segment) (string, []*Handle) {
	group := uuid.NewString()
	now := r.now()

	out := make([]*Handle, len(segments))
	ids := make([]string, len(segments))
	for i, seg := range segments {
		h := &Handle{
			ID:        uuid.NewString(),
			Group:     group,
			Segment:   seg,
			CreatedAt: now,
		}
		if i < len(filenames) {
			h.Filename = filenames[i]
		}
		out[i] = h
		ids[i] = h.ID
	}

	r.mu.Lock()
	for _, h := range out {
		r.handles[h.ID] = &entry{h: h, lastAccess: now}
	}
	r.groups[group] = ids
	r.mu.Unlock()

	r.log.Debug("registered handles", "group", group, "count", len(out))
	return group, out
}

// Get returns the handle and resets its idle timer.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = r.now()
	return e.h, true
}

// Release drops one handle. It reports whether the handle existed; releasing
// twice is harmless.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(id) {
		return false
	}
	r.released++
	return true
}

// ReleaseAll drops every handle of group and returns how many were open.
func (r *Registry) ReleaseAll(group string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range append([]string(nil), r.groups[group]...) {
		if r.removeLocked(id) {
			n++
		}
	}
	r.released += uint64(n)
	if n > 0 {
		r.log.Debug("released group", "group", group, "count", n)
	}
	return n
}

func (r *Registry) removeLocked(id string) bool {
	e, ok := r.handles[id]
	if !ok {
		return false
	}
	delete(r.handles, id)

	group := e.h.Group
	ids := r.groups[group]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.groups, group)
	} else {
		r.groups[group] = ids
	}
	return true
}

// Start begins the background idle sweep goroutine.
func (r *Registry) Start() {
	if r.idleTimeout <= 0 {
		r.log.Info("idle sweep disabled")
		return
	}
	r.log.Info("handle registry started",
		"idle_timeout_seconds", r.idleTimeout.Seconds(),
		"check_interval_seconds", r.checkInterval.Seconds(),
	)
	go r.sweepLoop()
}

// Stop halts the background sweep goroutine.
func (r *Registry) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopChan)
	r.log.Info("handle registry stopped")
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.sweepIdle()
		}
	}
}

// sweepIdle releases handles idle for at least idleTimeout. Candidates are
// collected under the read lock so Get is not blocked during the scan.
func (r *Registry) sweepIdle() int {
	r.mu.RLock()
	now := r.now()
	var candidates []string
	for id, e := range r.handles {
		if now.Sub(e.lastAccess) >= r.idleTimeout {
			candidates = append(candidates, id)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range candidates {
		e, ok := r.handles[id]
		// Re-check: the handle may have been read since collection
		if !ok || r.now().Sub(e.lastAccess) < r.idleTimeout {
			continue
		}
		r.removeLocked(id)
		n++
	}
	r.swept += uint64(n)
	if n > 0 {
		r.log.Info("swept idle handles", "count", n)
	}
	return n
}

// Stats returns registry statistics for monitoring.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Open:     len(r.handles),
		Groups:   len(r.groups),
		ByMIME:   make(map[string]int),
		Released: r.released,
		Swept:    r.swept,
	}
	for _, e := range r.handles {
		s.Bytes += int64(e.h.Segment.Len())
		s.ByMIME[e.h.Segment.MIME]++
	}
	return s
}
