// Package truncation computes the byte window an unentitled requester may
// receive for a track.
package truncation

import (
	"math"

	"gatedfm/model"
)

// PreviewPolicy bounds the preview length: clamp(Percent*duration, MinSeconds, MaxSeconds),
// never longer than the track itself.
type PreviewPolicy struct {
	Percent    float64
	MinSeconds float64
	MaxSeconds float64
}

// PreviewSeconds returns the preview length for a track of the given duration.
func (p PreviewPolicy) PreviewSeconds(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	secs := p.Percent * duration
	if secs < p.MinSeconds {
		secs = p.MinSeconds
	}
	if p.MaxSeconds > 0 && secs > p.MaxSeconds {
		secs = p.MaxSeconds
	}
	return math.Min(secs, duration)
}

// Engine converts a preview duration into a byte window.
type Engine struct {
	policy PreviewPolicy
}

func New(policy PreviewPolicy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() PreviewPolicy { return e.policy }

// PreviewWindow returns [0, offset) where offset approximates the byte position
// of the preview end assuming a constant bitrate. If the track declares a fixed
// frame size the offset is rounded down to a frame boundary after HeaderBytes.
// Tracks shorter than the preview are returned whole.
func (e *Engine) PreviewWindow(t *model.Track) model.ByteRange {
	size := t.Size
	if size <= 0 {
		return model.ByteRange{}
	}

	var offset int64
	if t.Duration <= 0 {
		// No timing information: apply the percentage to bytes.
		offset = int64(math.Floor(e.policy.Percent * float64(size)))
	} else {
		secs := e.policy.PreviewSeconds(t.Duration)
		if secs >= t.Duration {
			return model.ByteRange{Start: 0, End: size}
		}
		offset = int64(math.Floor(secs / t.Duration * float64(size)))
	}

	if t.FrameBytes > 0 && offset > t.HeaderBytes {
		frames := (offset - t.HeaderBytes) / t.FrameBytes
		offset = t.HeaderBytes + frames*t.FrameBytes
	}
	if offset > size {
		offset = size
	}
	if offset < 0 {
		offset = 0
	}
	return model.ByteRange{Start: 0, End: offset}
}

// Window returns the effective range for an entitlement decision. Full access
// bypasses truncation entirely.
func (e *Engine) Window(ent model.Entitlement, t *model.Track) model.ByteRange {
	if ent == model.EntitlementFull {
		return model.ByteRange{Start: 0, End: max(t.Size, 0)}
	}
	return e.PreviewWindow(t)
}
