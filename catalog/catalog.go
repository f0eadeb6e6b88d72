// Package catalog resolves production path codes to the ordered operation
// types they expand to. Reads are served from an in-memory snapshot of the
// active paths that is refreshed lazily once it is older than the TTL.
//
// A stale snapshot is returned immediately while a single background refresh
// runs. Only a cold catalog (no snapshot yet) waits for a refresh, and if
// that fails it falls back to the mirror and finally to an empty snapshot.
// A failed refresh never replaces the last good snapshot.
package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"prodflow/errs"
)

// GenericOperation is what an unknown or inactive path code expands to.
const GenericOperation = "generic"

const (
	defaultTTL     = 60 * time.Second
	refreshTimeout = 10 * time.Second
	maxBackoff     = 5 * time.Second
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...any)

// Path is the catalog view of an active production path.
type Path struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Version    int      `json:"version"`
	Operations []string `json:"operations"`
}

// Source loads the currently active paths.
type Source interface {
	ListActivePaths(ctx context.Context) ([]Path, error)
}

// Mirror keeps a copy of the last good snapshot outside the process.
type Mirror interface {
	SavePaths(ctx context.Context, paths []Path) error
	LoadPaths(ctx context.Context) ([]Path, error)
}

type snapshot struct {
	paths    map[string]Path
	loadedAt time.Time
}

type Catalog struct {
	src      Source
	mirror   Mirror
	ttl      time.Duration
	now      func() time.Time
	logFn    LogFunc
	observer func(result string, elapsed time.Duration)

	mu          sync.RWMutex
	snap        *snapshot
	nextAttempt time.Time

	group singleflight.Group
}

type Option func(*Catalog)

func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

func WithMirror(m Mirror) Option {
	return func(c *Catalog) { c.mirror = m }
}

func WithLogFunc(fn LogFunc) Option {
	return func(c *Catalog) { c.logFn = fn }
}

// WithObserver receives the outcome ("ok", "error", "mirror") and duration of every refresh.
func WithObserver(fn func(result string, elapsed time.Duration)) Option {
	return func(c *Catalog) { c.observer = fn }
}

func New(src Source, opts ...Option) *Catalog {
	c := &Catalog{
		src:   src,
		ttl:   defaultTTL,
		now:   time.Now,
		logFn: log.Printf,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the operation types for a path code. The result is never empty.
func (c *Catalog) Resolve(ctx context.Context, code string) []string {
	p, ok := c.Lookup(ctx, code)
	if !ok || len(p.Operations) == 0 {
		return []string{GenericOperation}
	}
	return append([]string(nil), p.Operations...)
}

// Lookup returns the active path for a code.
func (c *Catalog) Lookup(ctx context.Context, code string) (Path, bool) {
	s := c.current(ctx)
	p, ok := s.paths[strings.TrimSpace(code)]
	return p, ok
}

// Paths returns every active path sorted by code.
func (c *Catalog) Paths(ctx context.Context) []Path {
	s := c.current(ctx)
	out := make([]Path, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Refresh reloads the snapshot now, joining a refresh already in flight.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.load(ctx)
	})
	return err
}

// Invalidate marks the snapshot stale so the next read triggers a refresh.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		c.snap = &snapshot{paths: c.snap.paths}
	}
	c.nextAttempt = time.Time{}
}

func (c *Catalog) current(ctx context.Context) *snapshot {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()

	if s == nil {
		return c.cold(ctx)
	}
	if c.now().Sub(s.loadedAt) >= c.ttl {
		c.refreshAsync()
	}
	return s
}

func (c *Catalog) cold(ctx context.Context) *snapshot {
	if err := c.Refresh(ctx); err == nil {
		c.mu.RLock()
		s := c.snap
		c.mu.RUnlock()
		if s != nil {
			return s
		}
	}

	if c.mirror != nil {
		paths, err := c.mirror.LoadPaths(ctx)
		if err != nil {
			c.logFn("catalog: mirror load: %v", err)
		} else if paths != nil {
			c.observe("mirror", 0)
			return c.install(paths, time.Time{}, false)
		}
	}
	return c.install(nil, time.Time{}, false)
}

// install stores a snapshot unless a real one appeared in the meantime.
// A zero loadedAt leaves it stale so the next read retries the source.
func (c *Catalog) install(paths []Path, loadedAt time.Time, replace bool) *snapshot {
	s := &snapshot{paths: make(map[string]Path, len(paths)), loadedAt: loadedAt}
	for _, p := range paths {
		code := strings.TrimSpace(p.Code)
		if code == "" {
			continue
		}
		p.Code = code
		s.paths[code] = p
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !replace && c.snap != nil {
		return c.snap
	}
	c.snap = s
	return s
}

func (c *Catalog) refreshAsync() {
	c.mu.Lock()
	if c.now().Before(c.nextAttempt) {
		c.mu.Unlock()
		return
	}
	c.nextAttempt = c.now().Add(c.backoff())
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		c.Refresh(ctx)
	}()
}

func (c *Catalog) backoff() time.Duration {
	if c.ttl < maxBackoff {
		return c.ttl
	}
	return maxBackoff
}

func (c *Catalog) load(ctx context.Context) error {
	start := c.now()
	paths, err := c.src.ListActivePaths(ctx)
	if err != nil {
		c.observe("error", c.now().Sub(start))
		c.logFn("catalog: refresh failed, keeping last snapshot: %v", err)
		return errs.NewDependencyError("path catalog", err)
	}
	c.install(paths, c.now(), true)
	c.observe("ok", c.now().Sub(start))

	if c.mirror != nil {
		if err := c.mirror.SavePaths(ctx, paths); err != nil {
			c.logFn("catalog: mirror save: %v", err)
		}
	}
	return nil
}

func (c *Catalog) observe(result string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(result, elapsed)
	}
}
