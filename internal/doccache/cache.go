package doccache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jcdickinson/docview/internal/model"
	"golang.org/x/sync/singleflight"
)

// ErrBuildFatal wraps source failures that leave the cache empty.
var ErrBuildFatal = errors.New("documentation model unavailable")

// Source produces the whole documentation model. Per-class failures are
// returned alongside the classes that did load.
type Source interface {
	LoadClasses(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error)

func (f SourceFunc) LoadClasses(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
	return f(ctx)
}

// PartialError reports classes that were left out of an otherwise usable snapshot.
type PartialError struct {
	Failures []model.ClassFailure
}

func (e *PartialError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("1 class failed to load: %v", e.Failures[0])
	}
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("%d classes failed to load: %s", len(e.Failures), strings.Join(names, ", "))
}

// Cache holds the current snapshot. At most one build runs at a time; callers
// that arrive while a build is in flight wait for it and share its result.
type Cache struct {
	src Source
	log *slog.Logger

	group   singleflight.Group
	buildMu sync.Mutex

	mu      sync.Mutex
	snap    *model.Snapshot
	gen     uint64
	version uint64

	builds atomic.Int64
}

type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

func New(src Source, opts ...Option) *Cache {
	c := &Cache{src: src, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the initial build in the background.
func (c *Cache) Start() {
	go func() {
		if _, err := c.Generate(); err != nil {
			c.log.Warn("background doc build", "error", err)
		}
	}()
}

// Generate ensures a snapshot exists, building it if absent. Concurrent callers
// coalesce into one build. A *PartialError is returned together with the
// snapshot to the callers that shared the build that produced it.
func (c *Cache) Generate() (*model.Snapshot, error) {
	c.mu.Lock()
	if c.snap != nil {
		snap := c.snap
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return c.build(gen)
	})
	snap, _ := v.(*model.Snapshot)
	return snap, err
}

// Get returns the current snapshot, waiting for an in-flight build. With no
// snapshot and no build running it re-attempts the build, so fatal failures
// are never cached.
func (c *Cache) Get() (*model.Snapshot, error) {
	return c.Generate()
}

// Peek returns the current snapshot without waiting, or nil.
func (c *Cache) Peek() *model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Invalidate drops the snapshot. A build already in flight still completes for
// its waiters but its result is not installed.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.gen++
	c.mu.Unlock()
	c.log.Debug("doc cache invalidated")
}

// Builds returns how many times the source has been asked to load.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

func (c *Cache) build(gen uint64) (*model.Snapshot, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	// A racing caller may have missed the snapshot installed by the build
	// that just finished under the same generation.
	c.mu.Lock()
	if c.gen == gen && c.snap != nil {
		snap := c.snap
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	c.builds.Add(1)
	c.log.Debug("building doc snapshot", "generation", gen)

	records, failures, err := c.src.LoadClasses(context.Background())
	if err != nil {
		c.log.Error("doc build failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrBuildFatal, err)
	}

	c.mu.Lock()
	c.version++
	snap := model.NewSnapshot(c.version, records)
	snap.Diagnostics = append(append([]model.ClassFailure(nil), failures...), snap.Diagnostics...)
	if c.gen == gen {
		c.snap = snap
	}
	c.mu.Unlock()

	c.log.Info("doc snapshot built", "version", snap.Version, "classes", snap.Len(), "failures", len(snap.Diagnostics))

	if len(snap.Diagnostics) > 0 {
		for _, f := range snap.Diagnostics {
			c.log.Warn("class omitted from snapshot", "class", f.Name, "error", f.Err)
		}
		return snap, &PartialError{Failures: snap.Diagnostics}
	}
	return snap, nil
}
