package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatedfm/metrics"
	"gatedfm/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeCommerce struct {
	owned map[string]bool
	err   error
	delay time.Duration
	calls int
}

func (f *fakeCommerce) HasEntitlement(ctx context.Context, requesterID, productID string) (bool, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if f.err != nil {
		return false, f.err
	}
	return f.owned[requesterID+"/"+productID], nil
}

func TestResolve(t *testing.T) {
	commerce := &fakeCommerce{owned: map[string]bool{"alice/album-1": true}}
	r := NewResolver(commerce, time.Second, nil)
	track := &model.Track{ProductID: "album-1"}

	tests := []struct {
		name      string
		requester model.Requester
		track     *model.Track
		want      model.Entitlement
	}{
		{"purchased", model.Requester{ID: "alice"}, track, model.EntitlementFull},
		{"not purchased", model.Requester{ID: "bob"}, track, model.EntitlementPreview},
		{"anonymous", model.Requester{}, track, model.EntitlementPreview},
		{"admin", model.Requester{ID: "root", Admin: true}, track, model.EntitlementFull},
		{"always full override", model.Requester{}, &model.Track{ProductID: "album-1", AlwaysFull: true}, model.EntitlementFull},
		{"other product", model.Requester{ID: "alice"}, &model.Track{ProductID: "album-2"}, model.EntitlementPreview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(context.Background(), tt.requester, tt.track); got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveFailsSafe(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	track := &model.Track{ProductID: "album-1"}

	failing := NewResolver(&fakeCommerce{err: errors.New("commerce down")}, time.Second, m)
	if got := failing.Resolve(context.Background(), model.Requester{ID: "alice"}, track); got != model.EntitlementPreview {
		t.Errorf("failing lookup = %v, want preview", got)
	}

	slow := NewResolver(&fakeCommerce{owned: map[string]bool{"alice/album-1": true}, delay: time.Second}, 10*time.Millisecond, m)
	if got := slow.Resolve(context.Background(), model.Requester{ID: "alice"}, track); got != model.EntitlementPreview {
		t.Errorf("timed out lookup = %v, want preview", got)
	}

	if got := testutil.ToFloat64(m.EntitlementDegraded); got != 2 {
		t.Errorf("degraded events = %v, want 2", got)
	}
}

func TestResolveSkipsLookupForOverrides(t *testing.T) {
	commerce := &fakeCommerce{}
	r := NewResolver(commerce, time.Second, nil)
	r.Resolve(context.Background(), model.Requester{ID: "x", Admin: true}, &model.Track{ProductID: "p"})
	r.Resolve(context.Background(), model.Requester{}, &model.Track{ProductID: "p"})
	if commerce.calls != 0 {
		t.Errorf("commerce calls = %d, want 0", commerce.calls)
	}
}
