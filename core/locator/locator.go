// Package locator resolves a (product, track index) pair to the track's
// source descriptor and static metadata.
package locator

import (
	"context"
	"errors"
	"fmt"

	"gatedfm/core/errs"
	"gatedfm/model"
)

// ContentHost is the catalog collaborator that owns product and track metadata.
type ContentHost interface {
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	GetTrack(ctx context.Context, productID string, index int) (*model.Track, error)
}

// Locator performs pure metadata lookups; it never touches asset bytes.
type Locator struct {
	host ContentHost
}

func New(host ContentHost) *Locator {
	return &Locator{host: host}
}

// Locate returns the track at trackIndex of productID, or an error wrapping
// errs.ErrNotFound when the product is unknown or the index is out of range.
func (l *Locator) Locate(ctx context.Context, productID string, trackIndex int) (*model.Track, error) {
	if productID == "" || trackIndex < 0 {
		return nil, fmt.Errorf("track %q/%d: %w", productID, trackIndex, errs.ErrNotFound)
	}
	track, err := l.host.GetTrack(ctx, productID, trackIndex)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("locate %s/%d: %w", productID, trackIndex, err)
	}
	if track == nil {
		return nil, fmt.Errorf("track %s/%d: %w", productID, trackIndex, errs.ErrNotFound)
	}
	if track.SourceKind != model.SourceLocal && track.SourceKind != model.SourceRemote {
		return nil, fmt.Errorf("track %s/%d has unknown source kind %q", productID, trackIndex, track.SourceKind)
	}
	return track, nil
}

// MemoryHost is a ContentHost over an in-memory product list, used by tests
// and by tooling that loads a catalog snapshot.
type MemoryHost struct {
	products map[string]*model.Product
}

func NewMemoryHost(products ...*model.Product) *MemoryHost {
	h := &MemoryHost{products: make(map[string]*model.Product, len(products))}
	for _, p := range products {
		h.products[p.ID] = p
	}
	return h
}

func (h *MemoryHost) GetProduct(_ context.Context, productID string) (*model.Product, error) {
	p, ok := h.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}
	return p, nil
}

func (h *MemoryHost) GetTrack(ctx context.Context, productID string, index int) (*model.Track, error) {
	p, err := h.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Tracks) {
		return nil, fmt.Errorf("track %s/%d: %w", productID, index, errs.ErrNotFound)
	}
	t := p.Tracks[index]
	t.ProductID = productID
	t.Index = index
	return &t, nil
}
