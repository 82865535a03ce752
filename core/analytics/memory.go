package analytics

import (
	"context"
	"sync"
	"time"

	"gatedfm/logger"
	"gatedfm/model"
)

type dedupRecord struct {
	mu      sync.Mutex
	last    time.Time
	counted bool
	dead    bool // removed by Sweep; callers must look the key up again
}

type productCounter struct {
	mu     sync.Mutex
	total  int64
	tracks map[int]int64
}

// MemoryStore keeps plays in process. Each key has its own lock, so calls
// for different listeners or tracks never contend.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[Key]*dedupRecord
	products map[string]*productCounter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[Key]*dedupRecord),
		products: make(map[string]*productCounter),
	}
}

func (s *MemoryStore) record(key Key) *dedupRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		rec = &dedupRecord{}
		s.records[key] = rec
	}
	return rec
}

func (s *MemoryStore) counter(productID string) *productCounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.products[productID]
	if !ok {
		pc = &productCounter{tracks: make(map[int]int64)}
		s.products[productID] = pc
	}
	return pc
}

func (s *MemoryStore) CountIfNew(_ context.Context, key Key, now time.Time, window time.Duration) (bool, error) {
	for {
		rec := s.record(key)
		rec.mu.Lock()
		if rec.dead {
			rec.mu.Unlock()
			continue
		}
		if rec.counted && now.Sub(rec.last) < window {
			rec.mu.Unlock()
			return false, nil
		}
		rec.last = now
		rec.counted = true

		pc := s.counter(key.ProductID)
		pc.mu.Lock()
		pc.total++
		pc.tracks[key.TrackIndex]++
		pc.mu.Unlock()

		rec.mu.Unlock()
		return true, nil
	}
}

func (s *MemoryStore) Counts(_ context.Context, productID string) (*model.PlayCounts, error) {
	out := &model.PlayCounts{ProductID: productID, Tracks: make(map[int]int64)}
	s.mu.Lock()
	pc, ok := s.products[productID]
	s.mu.Unlock()
	if !ok {
		return out, nil
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	out.Total = pc.total
	for idx, n := range pc.tracks {
		out.Tracks[idx] = n
	}
	return out, nil
}

// Sweep drops dedup records whose last play is at least window old. Such
// records no longer suppress anything. Records busy in CountIfNew are kept.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, rec := range s.records {
		if !rec.mu.TryLock() {
			continue
		}
		if now.Sub(rec.last) >= window {
			rec.dead = true
			delete(s.records, key)
			removed++
		}
		rec.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, window); n > 0 {
				logger.Debug("swept play dedup records", logger.Int("removed", n))
			}
		}
	}
}
