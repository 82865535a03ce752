package objectcache

import (
	"path/filepath"
	"sync/atomic"
	"time"
)

// State is the lifecycle of a cache entry: Missing -> Fetching -> Ready|Failed.
type State int32

const (
	StateMissing State = iota
	StateFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "missing"
	}
}

// entry tracks one object key. state, lastAccess and refs are read without the
// cache mutex on the Ready fast path; size and err are written before done is
// closed and never change afterwards.
type entry struct {
	key  string
	path string

	state      atomic.Int32
	lastAccess atomic.Int64 // unix nanos
	refs       atomic.Int64 // active readers; -1 once evicted

	size     int64
	err      error
	done     chan struct{}
	leftover bool // found on disk at startup, object key unknown
}

func newEntry(key, path string) *entry {
	e := &entry{key: key, path: path, done: make(chan struct{})}
	e.state.Store(int32(StateFetching))
	return e
}

// displayKey is the object key, or the file name for a leftover entry.
func (e *entry) displayKey() string {
	if e.leftover {
		return filepath.Base(e.path)
	}
	return e.key
}

func (e *entry) State() State { return State(e.state.Load()) }

func (e *entry) setState(s State) { e.state.Store(int32(s)) }

func (e *entry) touch(now time.Time) { e.lastAccess.Store(now.UnixNano()) }

func (e *entry) LastAccess() time.Time { return time.Unix(0, e.lastAccess.Load()) }

// acquire takes a reader reference unless the entry was already evicted.
func (e *entry) acquire() bool {
	for {
		r := e.refs.Load()
		if r < 0 {
			return false
		}
		if e.refs.CompareAndSwap(r, r+1) {
			return true
		}
	}
}

// tryEvict claims an idle entry for removal; it fails while readers hold it.
func (e *entry) tryEvict() bool {
	return e.refs.CompareAndSwap(0, -1)
}

// EntryInfo is a point-in-time view of an entry.
type EntryInfo struct {
	Key        string    `json:"key"`
	Path       string    `json:"path"`
	State      string    `json:"state"`
	Size       int64     `json:"size"`
	LastAccess time.Time `json:"lastAccess"`
	Readers    int64     `json:"readers"`
	Leftover   bool      `json:"leftover,omitempty"`
}

// Stats summarises the cache.
type Stats struct {
	Entries    []EntryInfo `json:"entries"`
	TotalBytes int64       `json:"totalBytes"`
	MaxBytes   int64       `json:"maxBytes"`
}
