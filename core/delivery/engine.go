// Package delivery wires the pipeline for one stream request: locate the
// track, decide entitlement, materialize the asset and compute the window
// the client may read.
package delivery

import (
	"context"
	"fmt"
	"os"

	"gatedfm/core/entitlement"
	"gatedfm/core/errs"
	"gatedfm/core/locator"
	"gatedfm/core/objectcache"
	"gatedfm/core/stream"
	"gatedfm/core/truncation"
	"gatedfm/logger"
	"gatedfm/model"
)

// Request names the track and who is asking for it.
type Request struct {
	ProductID  string
	TrackIndex int
	Requester  model.Requester
}

// Delivery is an open asset ready to be streamed. Close must be called once
// the response is done; it releases the cache reference.
type Delivery struct {
	Track       *model.Track
	Entitlement model.Entitlement
	Window      model.ByteRange
	ContentType string

	file   *os.File
	handle *objectcache.Handle
}

// Resource returns the stream input for this delivery.
func (d *Delivery) Resource() stream.Resource {
	return stream.Resource{Content: d.file, Window: d.Window, ContentType: d.ContentType}
}

func (d *Delivery) Close() error {
	err := d.file.Close()
	d.handle.Release()
	return err
}

// Engine runs the delivery pipeline. It keeps no per-request state.
type Engine struct {
	locator    *locator.Locator
	resolver   *entitlement.Resolver
	cache      *objectcache.Cache
	truncation *truncation.Engine
}

func New(loc *locator.Locator, res *entitlement.Resolver, cache *objectcache.Cache, trunc *truncation.Engine) *Engine {
	return &Engine{locator: loc, resolver: res, cache: cache, truncation: trunc}
}

// Prepare resolves req into an open Delivery. Errors wrap the sentinels in
// core/errs.
func (e *Engine) Prepare(ctx context.Context, req Request) (*Delivery, error) {
	track, err := e.locator.Locate(ctx, req.ProductID, req.TrackIndex)
	if err != nil {
		return nil, err
	}
	if track.Blocked {
		return nil, fmt.Errorf("track %s/%d: %w", req.ProductID, req.TrackIndex, errs.ErrForbidden)
	}

	ent := e.resolver.Resolve(ctx, req.Requester, track)

	handle, err := e.cache.Materialize(ctx, track.Source())
	if err != nil {
		return nil, err
	}
	f, err := os.Open(handle.Path)
	if err != nil {
		handle.Release()
		return nil, fmt.Errorf("open %s: %w: %w", handle.Path, errs.ErrInternalCache, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		handle.Release()
		return nil, fmt.Errorf("stat %s: %w: %w", handle.Path, errs.ErrInternalCache, err)
	}

	// The bytes on disk are authoritative for the window; metadata may be
	// missing the size or describe an older upload.
	sized := *track
	if sized.Size != fi.Size() {
		if sized.Size > 0 {
			logger.Warn("track size differs from asset",
				logger.String("productId", req.ProductID),
				logger.Int("trackIndex", req.TrackIndex),
				logger.Int64("metadataSize", sized.Size),
				logger.Int64("assetSize", fi.Size()))
		}
		sized.Size = fi.Size()
	}

	window := e.truncation.Window(ent, &sized)

	contentType := track.ContentType
	if contentType == "" {
		contentType = detectContentType(f, handle.Path)
	}

	return &Delivery{
		Track:       track,
		Entitlement: ent,
		Window:      window,
		ContentType: contentType,
		file:        f,
		handle:      handle,
	}, nil
}
