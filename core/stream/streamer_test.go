package stream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"gatedfm/core/errs"
	"gatedfm/model"
)

func asset(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header  string
		size    int64
		want    *Range
		wantErr bool
	}{
		{"", 1000, nil, false},
		{"bytes=100-199", 1000, &Range{100, 199}, false},
		{"bytes=900-", 1000, &Range{900, 999}, false},
		{"bytes=0-0", 1000, &Range{0, 0}, false},
		{"bytes=500-5000", 1000, &Range{500, 999}, false},
		{"bytes=-100", 1000, &Range{900, 999}, false},
		{"bytes=-5000", 1000, &Range{0, 999}, false},
		{"bytes=1000-", 1000, nil, true},
		{"bytes=1500-1600", 1000, nil, true},
		{"bytes=200-100", 1000, nil, true},
		{"bytes=5--3", 1000, nil, true},
		{"bytes=-0", 1000, nil, true},
		{"bytes=0-", 0, nil, true},
		{"bytes=0-10,20-30", 1000, nil, false},
		{"items=0-10", 1000, nil, false},
		{"bytes=abc-10", 1000, nil, false},
		{"bytes=10", 1000, nil, false},
		{"bytes=-5-10", 1000, nil, true},
		{"bytes=-5-", 1000, nil, true},
		{"bytes=+5-10", 1000, nil, false},
		{"bytes=5-+10", 1000, nil, false},
		{"bytes= 5 - 10 ", 1000, &Range{5, 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrRangeNotSatisfiable) {
					t.Fatalf("err = %v, want ErrRangeNotSatisfiable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("ParseRange = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServe(t *testing.T) {
	data := asset(1000)
	tests := []struct {
		name         string
		window       model.ByteRange
		rangeHeader  string
		wantStatus   int
		wantLength   int64
		wantRange    string
		wantBodyFrom int64 // offset into data
	}{
		{"full no range", model.ByteRange{Start: 0, End: 1000}, "", 200, 1000, "", 0},
		{"explicit range", model.ByteRange{Start: 0, End: 1000}, "bytes=100-199", 206, 100, "bytes 100-199/1000", 100},
		{"open ended", model.ByteRange{Start: 0, End: 1000}, "bytes=900-", 206, 100, "bytes 900-999/1000", 900},
		{"preview no range", model.ByteRange{Start: 0, End: 300}, "", 200, 300, "", 0},
		{"preview end clamped", model.ByteRange{Start: 0, End: 300}, "bytes=250-999", 206, 50, "bytes 250-299/300", 250},
		{"preview suffix", model.ByteRange{Start: 0, End: 300}, "bytes=-20", 206, 20, "bytes 280-299/300", 280},
		{"preview past window", model.ByteRange{Start: 0, End: 300}, "bytes=500-600", 416, -1, "bytes */300", 0},
		{"preview at window end", model.ByteRange{Start: 0, End: 300}, "bytes=300-", 416, -1, "bytes */300", 0},
		{"inverted", model.ByteRange{Start: 0, End: 1000}, "bytes=10-5", 416, -1, "bytes */1000", 0},
		{"multi range ignored", model.ByteRange{Start: 0, End: 300}, "bytes=0-1,5-6", 200, 300, "", 0},
		{"offset window", model.ByteRange{Start: 128, End: 628}, "bytes=0-9", 206, 10, "bytes 0-9/500", 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/stream/p/0", nil)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			rec := httptest.NewRecorder()
			s := New(64, nil)
			started := 0
			err := s.Serve(rec, req, Resource{
				Content:     bytes.NewReader(data),
				Window:      tt.window,
				ContentType: "audio/mpeg",
			}, func() { started++ })
			if err != nil {
				t.Fatalf("Serve: %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q", got)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			if tt.wantStatus == http.StatusRequestedRangeNotSatisfiable {
				if started != 0 || rec.Body.Len() != 0 {
					t.Errorf("416 wrote body or started play (started=%d)", started)
				}
				return
			}
			if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
				t.Errorf("Accept-Ranges = %q", got)
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.FormatInt(tt.wantLength, 10) {
				t.Errorf("Content-Length = %s, want %d", got, tt.wantLength)
			}
			want := data[tt.wantBodyFrom : tt.wantBodyFrom+tt.wantLength]
			if !bytes.Equal(rec.Body.Bytes(), want) {
				t.Errorf("body mismatch: got %d bytes, want %d", rec.Body.Len(), len(want))
			}
			if started != 1 {
				t.Errorf("onStart ran %d times, want 1", started)
			}
		})
	}
}

func TestServeHead(t *testing.T) {
	req := httptest.NewRequest(http.MethodHead, "/stream/p/0", nil)
	req.Header.Set("Range", "bytes=10-19")
	rec := httptest.NewRecorder()
	started := false
	err := New(0, nil).Serve(rec, req, Resource{
		Content: bytes.NewReader(asset(100)),
		Window:  model.ByteRange{Start: 0, End: 100},
	}, func() { started = true })
	if err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusPartialContent || rec.Header().Get("Content-Length") != "10" {
		t.Errorf("status=%d length=%s", rec.Code, rec.Header().Get("Content-Length"))
	}
	if rec.Body.Len() != 0 || started {
		t.Errorf("HEAD wrote %d body bytes, started=%v", rec.Body.Len(), started)
	}
}

func TestServeStopsOnCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/stream/p/0", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	err := New(16, nil).Serve(rec, req, Resource{
		Content: bytes.NewReader(asset(1000)),
		Window:  model.ByteRange{Start: 0, End: 1000},
	}, nil)
	if err != nil {
		t.Fatalf("disconnect reported as error: %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("wrote %d bytes after cancellation", rec.Body.Len())
	}
}

type countingWriter struct {
	*httptest.ResponseRecorder
	writes int
	limit  int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	if len(p) > c.limit {
		c.limit = len(p)
	}
	return c.ResponseRecorder.Write(p)
}

func TestServeWritesBoundedChunks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stream/p/0", nil)
	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	if err := New(100, nil).Serve(w, req, Resource{
		Content: bytes.NewReader(asset(1000)),
		Window:  model.ByteRange{Start: 0, End: 1000},
	}, nil); err != nil {
		t.Fatal(err)
	}
	if w.writes != 10 || w.limit != 100 {
		t.Errorf("writes=%d largest=%d, want 10 writes of at most 100 bytes", w.writes, w.limit)
	}
}
