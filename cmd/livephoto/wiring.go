package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IceyWu/live-photo/internal/cache"
	"github.com/IceyWu/live-photo/internal/config"
	"github.com/IceyWu/live-photo/internal/handle"
	"github.com/IceyWu/live-photo/internal/history"
	"github.com/IceyWu/live-photo/internal/livephoto"
	"github.com/IceyWu/live-photo/internal/metrics"
	"github.com/IceyWu/live-photo/internal/service"
	"github.com/IceyWu/live-photo/internal/sink"
)

// components holds everything a command may need. Close releases it in
// reverse order of construction.
type components struct {
	service *service.ExtractService
	pool    *livephoto.Pool
	cache   *cache.Store
	db      *history.DB
	history *history.Repository
	handles *handle.Registry
	sink    sink.Sink
	closers []func() error
}

type buildOptions struct {
	handles bool
	sink    bool
	sinkDir string // overrides cfg.Sink.Dir for the local sink
	workers int    // overrides cfg.Splitter.Workers when > 0
	metrics *metrics.Metrics
}

func build(ctx context.Context, cfg *config.Config, opts buildOptions) (*components, error) {
	comp := &components{}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	splitter := livephoto.NewSplitter(
		livephoto.WithLookahead(cfg.Splitter.LookaheadBytes),
		livephoto.WithCheckInterval(cfg.Splitter.CheckInterval),
	)

	workers := cfg.Splitter.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	comp.pool = livephoto.NewPool(splitter, workers)
	comp.closers = append(comp.closers, func() error { comp.pool.Close(); return nil })

	if cfg.Cache.Enabled {
		// Badger holds a directory lock, so a second process (a CLI run next
		// to the server) carries on without the cache.
		store, err := cache.Open(cfg.Cache.Path, cfg.CacheTTL())
		if err != nil {
			slog.Warn("Split cache unavailable, continuing without it", "path", cfg.Cache.Path, "error", err)
		} else {
			comp.cache = store
			comp.closers = append(comp.closers, store.Close)
			slog.Info("Split cache initialized", "path", cfg.Cache.Path)
		}
	}

	db, err := history.NewDB(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		comp.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	comp.db = db
	comp.history = history.NewRepository(db)
	comp.closers = append(comp.closers, db.Close)
	slog.Info("History initialized", "driver", cfg.History.Driver)

	if opts.handles {
		comp.handles = handle.NewRegistry(cfg.HandleIdleTimeout(), cfg.HandleSweepInterval())
		comp.handles.Start()
		comp.closers = append(comp.closers, func() error { comp.handles.Stop(); return nil })
	}

	if opts.sink {
		sinkCfg := cfg.Sink
		if opts.sinkDir != "" {
			sinkCfg.Kind = "local"
			sinkCfg.Dir = opts.sinkDir
		}
		s, err := sink.New(ctx, sinkCfg)
		if err != nil {
			comp.Close()
			return nil, fmt.Errorf("open sink: %w", err)
		}
		comp.sink = s
	}

	comp.service = service.NewExtractService(service.Options{
		Splitter: splitter,
		Pool:     comp.pool,
		Cache:    comp.cache,
		History:  comp.history,
		Handles:  comp.handles,
		Metrics:  opts.metrics,
		Sink:     comp.sink,
	})

	return comp, nil
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
