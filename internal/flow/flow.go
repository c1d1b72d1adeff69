// Per-channel admission control. Frames that exceed the configured rate or
// size limits are dropped, never queued, so the capture callback is never
// blocked by a slow consumer.

package flow

import (
	"errors"
)

// Rate limit bounds, in frames per second.
const (
	MinRateLimit = 1
	MaxRateLimit = 60

	// Rate applied to a channel that was never configured.
	DefaultRateLimit = 30
)

// ErrInvalidArgument is returned for a rate limit outside [1, 60]. The
// previous limit is left unchanged.
var ErrInvalidArgument = errors.New("rate limit out of range [1, 60]")

// A Throttle holds one channel's admission state.
//
// The limit fields are read by the producer goroutine and written by the
// consumer-facing goroutine (manual configuration, adaptive backoff) with
// no lock in between. Stale reads only make a throttling decision with an
// old limit; they never corrupt the decode/dispatch path.
type Throttle struct {
	rateLimitFps   uint32 // 1..60
	sizeLimitBytes uint32 // 0 = unlimited
	lastEmitTimeMs uint64

	stats Stats
}

// Stats counts admission outcomes. Updated only by the producer goroutine.
type Stats struct {
	Emitted     uint64
	DroppedRate uint64
	DroppedSize uint64
}

func New() *Throttle {
	return &Throttle{rateLimitFps: DefaultRateLimit}
}

// ShouldEmit decides whether a frame of the given size is emitted at nowMs.
// The rate check runs first so that a dropped frame costs no size math, and
// lastEmitTimeMs advances only on acceptance.
func (t *Throttle) ShouldEmit(frameSizeBytes uint32, nowMs uint64) bool {
	if fps := t.rateLimitFps; fps > 0 {
		minIntervalMs := uint64(1000 / fps)
		if nowMs-t.lastEmitTimeMs < minIntervalMs {
			t.stats.DroppedRate++
			return false
		}
	}
	if limit := t.sizeLimitBytes; limit > 0 && frameSizeBytes > limit {
		t.stats.DroppedSize++
		return false
	}
	t.lastEmitTimeMs = nowMs
	t.stats.Emitted++
	return true
}

func (t *Throttle) SetRateLimit(fps int) error {
	if fps < MinRateLimit || fps > MaxRateLimit {
		return ErrInvalidArgument
	}
	t.rateLimitFps = uint32(fps)
	return nil
}

func (t *Throttle) RateLimit() int {
	return int(t.rateLimitFps)
}

// SetSizeLimit accepts any size; zero disables the size check.
func (t *Throttle) SetSizeLimit(bytes uint32) {
	t.sizeLimitBytes = bytes
}

func (t *Throttle) SizeLimit() uint32 {
	return t.sizeLimitBytes
}

// ResetEmitTime clears the throttling history, so the next frame is judged
// against an emit time of zero. Called on (re)subscription.
func (t *Throttle) ResetEmitTime() {
	t.lastEmitTimeMs = 0
}

func (t *Throttle) Stats() Stats {
	return t.stats
}
