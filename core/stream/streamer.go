// Package stream serves a byte window of an asset under HTTP range semantics.
// The window is the only part of the file a client can address: lengths,
// Content-Range totals and 416 checks are all computed against it.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gatedfm/core/errs"
	"gatedfm/logger"
	"gatedfm/metrics"
	"gatedfm/model"
)

const defaultChunkSize = 32 << 10

// Resource is what a single response may expose.
type Resource struct {
	Content     io.ReadSeeker
	Window      model.ByteRange // allowed bytes of Content
	ContentType string
}

// Streamer writes Resources to HTTP responses in bounded chunks.
type Streamer struct {
	ChunkSize int
	Metrics   *metrics.Metrics
}

// New returns a Streamer that copies chunkSize bytes at a time.
func New(chunkSize int, m *metrics.Metrics) *Streamer {
	return &Streamer{ChunkSize: chunkSize, Metrics: m}
}

// Serve answers r from res. onStart, if set, runs once the status line of a
// GET response is committed and before any body byte is written.
//
// A non-nil error with nothing written means the caller still owns the
// response. Once headers are out, copy failures (usually a client that went
// away) end the stream early and are only logged.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, res Resource, onStart func()) error {
	size := res.Window.Len()

	h := w.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("Accept-Ranges", "bytes")

	rng, err := ParseRange(r.Header.Get("Range"), size)
	if err != nil {
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		s.Metrics.Response(http.StatusRequestedRangeNotSatisfiable, 0)
		return nil
	}

	status := http.StatusOK
	offset, length := int64(0), size
	if rng != nil {
		status = http.StatusPartialContent
		offset, length = rng.Start, rng.Len()
	}

	if length > 0 && r.Method != http.MethodHead {
		if _, err := res.Content.Seek(res.Window.Start+offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek to %d: %w: %w", res.Window.Start+offset, errs.ErrInternalCache, err)
		}
	}

	if rng != nil {
		h.Set("Content-Range", rng.ContentRange(size))
	}
	if res.ContentType != "" {
		h.Set("Content-Type", res.ContentType)
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		s.Metrics.Response(status, 0)
		return nil
	}
	if onStart != nil {
		onStart()
	}

	written, err := s.copyChunks(r, w, res.Content, length)
	s.Metrics.Response(status, written)
	if err != nil {
		logger.Debug("stream ended early",
			logger.String("path", r.URL.Path),
			logger.Int64("written", written),
			logger.Int64("want", length),
			logger.ErrorField(err))
	}
	return nil
}

// copyChunks copies n bytes, checking for cancellation between chunks so a
// disconnected client stops the read loop within one chunk.
func (s *Streamer) copyChunks(r *http.Request, w io.Writer, src io.Reader, n int64) (int64, error) {
	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	buf := make([]byte, min(int64(chunk), max(n, 1)))
	ctx := r.Context()

	var written int64
	for written < n {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		want := min(int64(len(buf)), n-written)
		nr, rerr := io.ReadFull(src, buf[:want])
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				rerr = io.ErrUnexpectedEOF
			}
			return written, rerr
		}
	}
	return written, nil
}
