// Package analytics counts plays. A play signal for the same (product, track,
// session) counts at most once per dedup window; the check and the increment
// happen atomically inside the Store.
package analytics

import (
	"context"
	"fmt"
	"time"

	"gatedfm/logger"
	"gatedfm/metrics"
	"gatedfm/model"
)

// Key identifies a listener's plays of one track.
type Key struct {
	ProductID  string
	TrackIndex int
	SessionID  string
}

// Store holds dedup state and aggregate counters.
type Store interface {
	// CountIfNew increments the counters for key unless a play was already
	// counted less than window before now. It reports whether it counted.
	CountIfNew(ctx context.Context, key Key, now time.Time, window time.Duration) (bool, error)
	Counts(ctx context.Context, productID string) (*model.PlayCounts, error)
}

// EventSink receives every counted play for external reporting.
type EventSink interface {
	AppendPlay(ctx context.Context, event *model.PlayEvent) error
}

// Recorder is the PlayAnalytics entry point.
type Recorder struct {
	store   Store
	sink    EventSink
	window  time.Duration
	metrics *metrics.Metrics
}

// NewRecorder returns a Recorder. sink may be nil.
func NewRecorder(store Store, sink EventSink, window time.Duration, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, sink: sink, window: window, metrics: m}
}

// Window returns the dedup window.
func (r *Recorder) Window() time.Duration { return r.window }

// RecordPlay counts a play unless the same session played the same track
// within the window. The counter is authoritative; a failure to append the
// event to the sink is returned but does not undo the count.
func (r *Recorder) RecordPlay(ctx context.Context, productID string, trackIndex int, sessionID string, now time.Time) (bool, error) {
	key := Key{ProductID: productID, TrackIndex: trackIndex, SessionID: sessionID}
	counted, err := r.store.CountIfNew(ctx, key, now, r.window)
	if err != nil {
		r.metrics.Play("error")
		return false, fmt.Errorf("count play %s/%d: %w", productID, trackIndex, err)
	}
	if !counted {
		r.metrics.Play("deduplicated")
		return false, nil
	}
	r.metrics.Play("counted")
	logger.Debug("play counted",
		logger.String("productId", productID),
		logger.Int("trackIndex", trackIndex),
		logger.String("sessionId", sessionID))

	if r.sink != nil {
		event := &model.PlayEvent{
			ProductID:  productID,
			TrackIndex: trackIndex,
			SessionID:  sessionID,
			PlayedAt:   now.UTC(),
		}
		if err := r.sink.AppendPlay(ctx, event); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Counts returns the aggregate play counts of a product.
func (r *Recorder) Counts(ctx context.Context, productID string) (*model.PlayCounts, error) {
	return r.store.Counts(ctx, productID)
}
