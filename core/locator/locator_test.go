package locator

import (
	"context"
	"errors"
	"testing"

	"gatedfm/core/errs"
	"gatedfm/model"
)

type failingHost struct{ err error }

func (f failingHost) GetProduct(context.Context, string) (*model.Product, error) { return nil, f.err }
func (f failingHost) GetTrack(context.Context, string, int) (*model.Track, error) {
	return nil, f.err
}

func TestLocate(t *testing.T) {
	host := NewMemoryHost(&model.Product{
		ID: "album-1",
		Tracks: []model.Track{
			{SourceKind: model.SourceLocal, Locator: "/music/a.mp3", Duration: 180, Size: 1000},
			{SourceKind: model.SourceRemote, Locator: "albums/1/b.mp3", Duration: 200, Size: 2000},
		},
	})
	l := New(host)

	tests := []struct {
		name    string
		product string
		index   int
		want    model.Source
		wantErr error
	}{
		{"local track", "album-1", 0, model.Source{Kind: model.SourceLocal, Locator: "/music/a.mp3"}, nil},
		{"remote track", "album-1", 1, model.Source{Kind: model.SourceRemote, Locator: "albums/1/b.mp3"}, nil},
		{"index out of range", "album-1", 2, model.Source{}, errs.ErrNotFound},
		{"negative index", "album-1", -1, model.Source{}, errs.ErrNotFound},
		{"unknown product", "album-9", 0, model.Source{}, errs.ErrNotFound},
		{"empty product", "", 0, model.Source{}, errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := l.Locate(context.Background(), tt.product, tt.index)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if got := track.Source(); got != tt.want {
				t.Errorf("Source() = %+v, want %+v", got, tt.want)
			}
			if track.Index != tt.index || track.ProductID != tt.product {
				t.Errorf("track identity = %s/%d", track.ProductID, track.Index)
			}
		})
	}
}

func TestLocateHostFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := New(failingHost{err: boom}).Locate(context.Background(), "p", 0)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, errs.ErrNotFound) {
		t.Error("host failure must not look like NotFound")
	}
}
