// Package objectcache materializes remote objects into a size-bounded local
// directory. Each object key is fetched at most once at a time; concurrent
// requests for the same key share the in-flight fetch.
package objectcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gatedfm/core/errs"
	"gatedfm/logger"
	"gatedfm/metrics"
	"gatedfm/model"
	"gatedfm/storage"

	"github.com/cenkalti/backoff/v5"
)

// Options configures a Cache.
type Options struct {
	Dir            string
	MaxBytes       int64
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	FetchTimeout   time.Duration
	Metrics        *metrics.Metrics
	Now            func() time.Time
}

// Cache is the shared object cache. Lookups of Ready entries are lock-free;
// mu serializes fetch registration and eviction.
type Cache struct {
	opts    Options
	backend storage.Backend

	entries sync.Map // object key -> *entry
	mu      sync.Mutex
	total   atomic.Int64 // bytes held by Ready entries; written under mu
}

// New prepares the cache directory, removes partial files left by an
// interrupted process and indexes the complete ones so they count against
// MaxBytes. backend may be nil when no object storage is configured.
func New(backend storage.Backend, opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %v", errs.ErrInternalCache, err)
	}
	files, _, err := ScanDir(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan cache directory: %v", errs.ErrInternalCache, err)
	}

	c := &Cache{opts: opts, backend: backend}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range files {
		path := filepath.Join(opts.Dir, f.Name)
		if f.Partial {
			os.Remove(path)
			continue
		}
		c.indexLeftover(path, f)
	}
	if len(files) > 0 {
		logger.Info("cache directory indexed",
			logger.String("dir", opts.Dir),
			logger.Int64("totalBytes", c.total.Load()),
			logger.Int64("maxBytes", opts.MaxBytes))
	}
	c.evictLocked()
	return c, nil
}

// leftoverKey indexes a file from an earlier run whose object key is unknown.
// The NUL prefix keeps it apart from real object keys.
func leftoverKey(name string) string { return "\x00" + name }

// indexLeftover registers a complete file as an idle Ready entry, aged by its
// modification time, so it is evictable before it is ever requested.
func (c *Cache) indexLeftover(path string, f FileInfo) {
	e := newEntry(leftoverKey(f.Name), path)
	e.leftover = true
	e.size = f.Size
	e.lastAccess.Store(f.ModTime.UnixNano())
	e.setState(StateReady)
	close(e.done)
	c.entries.Store(e.key, e)
	c.total.Add(f.Size)
}

// claimLeftover drops the leftover entry for path, if any, so the fetch that
// adopts the file indexes it under its real key without counting it twice.
func (c *Cache) claimLeftover(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Load(leftoverKey(filepath.Base(path)))
	if !ok {
		return
	}
	e := v.(*entry)
	if e.tryEvict() && c.entries.CompareAndDelete(e.key, e) {
		e.setState(StateMissing)
		c.total.Add(-e.size)
	}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.opts.Dir }

// Handle is a reader reference on a materialized asset. The file at Path is
// guaranteed not to be evicted until Release is called.
type Handle struct {
	Path string

	once    sync.Once
	release func()
}

// Release drops the reference. It is safe to call more than once.
func (h *Handle) Release() {
	if h == nil || h.release == nil {
		return
	}
	h.once.Do(h.release)
}

// Materialize returns a local path for src. Local sources pass through
// unchanged; remote sources are fetched into the cache on first use.
func (c *Cache) Materialize(ctx context.Context, src model.Source) (*Handle, error) {
	switch src.Kind {
	case model.SourceLocal:
		if _, err := os.Stat(src.Locator); err != nil {
			return nil, fmt.Errorf("local asset %s: %w", src.Locator, errs.ErrSourceUnavailable)
		}
		return &Handle{Path: src.Locator}, nil
	case model.SourceRemote:
		return c.materializeRemote(ctx, src.Locator)
	default:
		return nil, fmt.Errorf("unknown source kind %q: %w", src.Kind, errs.ErrNotFound)
	}
}

func (c *Cache) materializeRemote(ctx context.Context, key string) (*Handle, error) {
	if !storage.Available(c.backend) {
		return nil, fmt.Errorf("object %s: %w: %w", key, errs.ErrSourceUnavailable, errs.ErrBackendDisabled)
	}

	for {
		if v, ok := c.entries.Load(key); ok {
			e := v.(*entry)
			if e.State() == StateReady && e.acquire() {
				e.touch(c.opts.Now())
				c.opts.Metrics.CacheLookup("hit")
				return c.handle(e), nil
			}
		}

		c.mu.Lock()
		var e *entry
		if v, ok := c.entries.Load(key); ok {
			e = v.(*entry)
		}
		switch {
		case e != nil && e.State() == StateReady:
			// Raced with the fast path; retry the lock-free acquire.
			c.mu.Unlock()
			continue
		case e != nil && e.State() == StateFetching:
			// Take the reference now so the entry can't be evicted between the
			// fetch completing and this waiter waking up.
			e.refs.Add(1)
			c.mu.Unlock()
			c.opts.Metrics.CacheLookup("wait")
			return c.wait(ctx, e)
		default:
			e = newEntry(key, Path(c.opts.Dir, key))
			e.refs.Store(1)
			c.entries.Store(key, e)
			c.mu.Unlock()
			c.opts.Metrics.CacheLookup("miss")
			go c.fetch(e)
			return c.wait(ctx, e)
		}
	}
}

// wait blocks until e's fetch completes. The caller already holds a reference.
func (c *Cache) wait(ctx context.Context, e *entry) (*Handle, error) {
	select {
	case <-e.done:
		if e.State() == StateReady {
			e.touch(c.opts.Now())
			return c.handle(e), nil
		}
		c.releaseEntry(e)
		return nil, e.err
	case <-ctx.Done():
		c.releaseEntry(e)
		return nil, ctx.Err()
	}
}

func (c *Cache) handle(e *entry) *Handle {
	return &Handle{Path: e.path, release: func() { c.releaseEntry(e) }}
}

func (c *Cache) releaseEntry(e *entry) {
	e.refs.Add(-1)
	if c.total.Load() > c.opts.MaxBytes {
		c.mu.Lock()
		c.evictLocked()
		c.mu.Unlock()
	}
}

// fetch runs detached from any single request so that a disconnecting client
// does not fail the fetch for the others waiting on it.
func (c *Cache) fetch(e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	defer cancel()

	// A complete file from a previous run is adopted without refetching.
	c.claimLeftover(e.path)
	if fi, err := os.Stat(e.path); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
		c.opts.Metrics.CacheFetch("adopted")
		c.finish(e, fi.Size(), nil)
		return
	}

	b := backoff.NewExponentialBackOff()
	if c.opts.InitialBackoff > 0 {
		b.InitialInterval = c.opts.InitialBackoff
	}
	if c.opts.MaxBackoff > 0 {
		b.MaxInterval = c.opts.MaxBackoff
	}

	start := c.opts.Now()
	attempt := 0
	size, err := backoff.Retry(ctx, func() (int64, error) {
		attempt++
		return c.download(ctx, e.key)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.opts.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("object fetch failed, retrying",
				logger.String("key", e.key),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", next),
				logger.ErrorField(err))
		}),
	)
	if err != nil {
		c.opts.Metrics.CacheFetch("failed")
		logger.Error("object fetch gave up",
			logger.String("key", e.key),
			logger.Int("attempts", attempt),
			logger.ErrorField(err))
	} else {
		c.opts.Metrics.CacheFetch("ok")
		logger.Info("object cached",
			logger.String("key", e.key),
			logger.Int64("size", size),
			logger.Duration("elapsed", c.opts.Now().Sub(start)))
	}
	c.finish(e, size, err)
}

// diskError marks failures writing the cache file, which retrying won't fix.
type diskError struct{ err error }

func (d *diskError) Error() string { return d.err.Error() }
func (d *diskError) Unwrap() error { return d.err }

type cacheWriter struct{ f *os.File }

func (w cacheWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		err = &diskError{err: err}
	}
	return n, err
}

// download copies the whole object to a partial file and renames it into place.
func (c *Cache) download(ctx context.Context, key string) (int64, error) {
	rc, err := c.backend.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}
	defer rc.Close()

	partial := PartialPath(c.opts.Dir, key)
	f, err := os.Create(partial)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("%w: %v", errs.ErrInternalCache, err))
	}
	n, copyErr := io.Copy(cacheWriter{f: f}, rc)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(partial)
		var de *diskError
		if errors.As(copyErr, &de) {
			return 0, backoff.Permanent(fmt.Errorf("%w: %v", errs.ErrInternalCache, de.err))
		}
		return 0, copyErr
	}
	if closeErr != nil {
		os.Remove(partial)
		return 0, backoff.Permanent(fmt.Errorf("%w: %v", errs.ErrInternalCache, closeErr))
	}
	if err := os.Rename(partial, Path(c.opts.Dir, key)); err != nil {
		os.Remove(partial)
		return 0, backoff.Permanent(fmt.Errorf("%w: %v", errs.ErrInternalCache, err))
	}
	return n, nil
}

func (c *Cache) finish(e *entry, size int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, errs.ErrInternalCache) {
			e.err = fmt.Errorf("cache %s: %w", e.key, err)
		} else {
			e.err = fmt.Errorf("fetch %s: %w: %w", e.key, errs.ErrSourceUnavailable, err)
		}
		e.setState(StateFailed)
		close(e.done)
		return
	}

	e.size = size
	e.touch(c.opts.Now())
	e.setState(StateReady)
	c.total.Add(size)
	close(e.done)
	c.evictLocked()
}

// evictLocked removes idle Ready entries, least recently accessed first, until
// the cache is under its cap. Entries with readers are skipped.
func (c *Cache) evictLocked() {
	if c.total.Load() <= c.opts.MaxBytes {
		c.opts.Metrics.SetCacheBytes(c.total.Load())
		return
	}

	var ready []*entry
	c.entries.Range(func(_, v any) bool {
		if e := v.(*entry); e.State() == StateReady {
			ready = append(ready, e)
		}
		return true
	})
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].lastAccess.Load() < ready[j].lastAccess.Load()
	})

	for _, e := range ready {
		if c.total.Load() <= c.opts.MaxBytes {
			break
		}
		if !e.tryEvict() {
			continue
		}
		c.entries.CompareAndDelete(e.key, e)
		e.setState(StateMissing)
		c.total.Add(-e.size)
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to remove evicted cache file",
				logger.String("path", e.path),
				logger.ErrorField(err))
		}
		c.opts.Metrics.CacheEvicted()
		logger.Info("cache entry evicted",
			logger.String("key", e.displayKey()),
			logger.String("path", e.path),
			logger.Int64("size", e.size),
			logger.Int64("totalBytes", c.total.Load()))
	}
	c.opts.Metrics.SetCacheBytes(c.total.Load())
}

// forget drops the index entry whose file disappeared from disk outside the
// cache's control. Readers that already hold the file open are unaffected.
func (c *Cache) forget(path string) {
	if strings.HasSuffix(path, partialSuffix) {
		return
	}
	if _, err := os.Stat(path); err == nil {
		// Recreated by a later fetch; the event is stale.
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		if e.path != path || e.State() != StateReady {
			return true
		}
		if c.entries.CompareAndDelete(e.key, e) {
			e.setState(StateMissing)
			c.total.Add(-e.size)
			logger.Warn("cache file removed externally, entry dropped",
				logger.String("key", e.displayKey()),
				logger.String("path", path))
		}
		return false
	})
	c.opts.Metrics.SetCacheBytes(c.total.Load())
}

// Snapshot returns the current entries sorted by key.
func (c *Cache) Snapshot() Stats {
	st := Stats{TotalBytes: c.total.Load(), MaxBytes: c.opts.MaxBytes}
	c.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		info := EntryInfo{
			Key:      e.displayKey(),
			Path:     e.path,
			State:    e.State().String(),
			Readers:  max(e.refs.Load(), 0),
			Leftover: e.leftover,
		}
		if e.State() == StateReady {
			info.Size = e.size
			info.LastAccess = e.LastAccess()
		}
		st.Entries = append(st.Entries, info)
		return true
	})
	sort.Slice(st.Entries, func(i, j int) bool { return st.Entries[i].Key < st.Entries[j].Key })
	return st
}
