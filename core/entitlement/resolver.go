// Package entitlement decides per request whether a requester gets the full
// asset or a preview.
package entitlement

import (
	"context"
	"time"

	"gatedfm/logger"
	"gatedfm/metrics"
	"gatedfm/model"
)

// CommercePlatform answers purchase lookups.
type CommercePlatform interface {
	HasEntitlement(ctx context.Context, requesterID, productID string) (bool, error)
}

// Resolver applies the access policy. Results are never cached across
// requests so grants take effect on the next request.
type Resolver struct {
	commerce CommercePlatform
	timeout  time.Duration
	metrics  *metrics.Metrics
}

func NewResolver(commerce CommercePlatform, timeout time.Duration, m *metrics.Metrics) *Resolver {
	return &Resolver{commerce: commerce, timeout: timeout, metrics: m}
}

// Resolve returns EntitlementFull when the track is marked always-full, the
// requester is an administrator, or the commerce platform reports a purchase.
// A failed or timed-out lookup degrades to EntitlementPreview.
func (r *Resolver) Resolve(ctx context.Context, requester model.Requester, track *model.Track) model.Entitlement {
	ent := r.resolve(ctx, requester, track)
	r.metrics.Decision(ent.String())
	return ent
}

func (r *Resolver) resolve(ctx context.Context, requester model.Requester, track *model.Track) model.Entitlement {
	if track.AlwaysFull || requester.Admin {
		return model.EntitlementFull
	}
	if requester.ID == "" || r.commerce == nil {
		return model.EntitlementPreview
	}

	lookupCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ok, err := r.commerce.HasEntitlement(lookupCtx, requester.ID, track.ProductID)
	if err != nil {
		logger.Warn("entitlement lookup failed, serving preview",
			logger.String("requesterId", requester.ID),
			logger.String("productId", track.ProductID),
			logger.ErrorField(err))
		r.metrics.Degraded()
		return model.EntitlementPreview
	}
	if ok {
		return model.EntitlementFull
	}
	return model.EntitlementPreview
}
