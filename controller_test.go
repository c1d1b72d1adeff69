package camstream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"camstream/internal/event"
	"camstream/internal/state"
)

// recorder collects everything the dispatcher delivers. Reads are only
// performed after Close or Sync, which order them after the deliveries.
type recorder struct {
	mu      sync.Mutex
	video   []*event.VideoFrame
	audio   []*event.VideoFrame
	preview []*event.PreviewFrame
	states  []string
	pstates []string
	ticks   []*event.RecordingTick
	errors  []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnVideoFrame: func(f *event.VideoFrame) {
			r.mu.Lock()
			r.video = append(r.video, f)
			r.mu.Unlock()
		},
		OnAudioFrame: func(f *event.VideoFrame) {
			r.mu.Lock()
			r.audio = append(r.audio, f)
			r.mu.Unlock()
		},
		OnPreviewFrame: func(f *event.PreviewFrame) {
			r.mu.Lock()
			r.preview = append(r.preview, f)
			r.mu.Unlock()
		},
		OnStateChange: func(s *event.StateChange) {
			r.mu.Lock()
			r.states = append(r.states, s.State)
			r.mu.Unlock()
		},
		OnPreviewState: func(s *event.StateChange) {
			r.mu.Lock()
			r.pstates = append(r.pstates, s.State)
			r.mu.Unlock()
		},
		OnRecordingTick: func(t *event.RecordingTick) {
			r.mu.Lock()
			r.ticks = append(r.ticks, t)
			r.mu.Unlock()
		},
	}
}

// newTestController returns a controller with a manually advanced clock.
func newTestController(r *recorder) (*Controller, *uint64) {
	c := New(Config{
		Callbacks: r.callbacks(),
		OnTransportError: func(id ChannelID, message string) {
			r.mu.Lock()
			r.errors = append(r.errors, message)
			r.mu.Unlock()
		},
	})
	clock := new(uint64)
	*clock = 1500000000000
	c.now = func() uint64 { return *clock }
	return c, clock
}

func TestSubscribeWindowEvents(t *testing.T) {
	r := new(recorder)
	c, clock := newTestController(r)

	// Frames pushed before subscription never surface.
	c.PushVideoFrame(event.TagH264, []byte{1}, 0)

	c.Channel(Primary).Subscribe()
	*clock += 100
	c.PushVideoFrame(event.TagH264, []byte{2}, 1)
	c.Channel(Primary).Unsubscribe()

	// Nor do frames pushed after unsubscription.
	*clock += 100
	c.PushVideoFrame(event.TagH264, []byte{3}, 2)

	c.Close()

	assert.Equal(t, []string{"VIDEO_STREAM_STARTED", "VIDEO_STREAM_STOPPED"}, r.states)
	if assert.Len(t, r.video, 1) {
		assert.Equal(t, []byte{2}, r.video[0].Payload)
	}
}

func TestStartStopStreamIdempotent(t *testing.T) {
	r := new(recorder)
	c, _ := newTestController(r)

	ch := c.Channel(Primary)
	ch.Subscribe()
	ch.StartStream() // repeat: no second STARTED
	ch.StartStream()
	ch.StopStream()
	ch.StopStream()
	c.Close()

	assert.Equal(t, []string{"VIDEO_STREAM_STARTED", "VIDEO_STREAM_STOPPED"}, r.states)
}

func TestVideoAndAudioRouting(t *testing.T) {
	r := new(recorder)
	c, clock := newTestController(r)

	c.Channel(Primary).Subscribe()
	*clock += 100
	c.PushVideoFrame(event.TagH264, []byte{0xe0}, 10)
	*clock += 100
	c.PushVideoFrame(event.TagAAC, []byte{0xa0}, 11)
	c.Close()

	if assert.Len(t, r.video, 1) {
		assert.EqualValues(t, 10, r.video[0].TimestampMs)
	}
	if assert.Len(t, r.audio, 1) {
		assert.EqualValues(t, 11, r.audio[0].TimestampMs)
	}
}

func TestDriverBufferIsCopied(t *testing.T) {
	r := new(recorder)
	c, clock := newTestController(r)

	c.Channel(Preview).Subscribe()
	*clock += 100

	// The driver reuses its buffer right after the callback returns.
	buf := []byte{1, 2, 3, 4}
	c.PushPreviewFrame(buf, 2, 2, 0)
	for i := range buf {
		buf[i] = 0xff
	}
	c.Close()

	if assert.Len(t, r.preview, 1) {
		assert.Equal(t, []byte{1, 2, 3, 4}, r.preview[0].Payload)
		assert.EqualValues(t, 4, r.preview[0].SizeBytes)
	}
}

func TestSizeLimitThroughController(t *testing.T) {
	r := new(recorder)
	c, clock := newTestController(r)

	ch := c.Channel(Primary)
	ch.Subscribe()
	ch.SetSizeLimit(1000)

	for _, size := range []int{500, 1500, 900} {
		*clock += 1000
		c.PushVideoFrame(event.TagH264, make([]byte, size), 0)
	}
	stats := ch.Stats()
	c.Close()

	assert.Len(t, r.video, 2)
	assert.EqualValues(t, 1, stats.DroppedSize)
}

func TestRateLimitValidation(t *testing.T) {
	r := new(recorder)
	c, _ := newTestController(r)
	defer c.Close()

	ch := c.Channel(Preview)
	assert.Equal(t, ErrInvalidArgument, ch.SetRateLimit(0))
	assert.Equal(t, ErrInvalidArgument, ch.SetRateLimit(61))
	assert.Equal(t, 30, ch.RateLimit())

	assert.NoError(t, ch.SetRateLimit(60))
	assert.Equal(t, 60, ch.RateLimit())
}

func TestStateRoutingAndTracking(t *testing.T) {
	r := new(recorder)
	c, _ := newTestController(r)

	c.Channel(Primary).Subscribe()
	c.Channel(Preview).Subscribe()

	c.PushState("CAMERA_OPENED")
	c.PushState("PREVIEW_FRAME_READY")
	c.PushState("CAMERA_ERROR device lost")

	c.Channel(Primary).Unsubscribe()
	c.Channel(Preview).Unsubscribe()
	c.dispatcher.Sync()

	camera := c.CameraState()
	c.Close()

	assert.Contains(t, r.states, "CAMERA_OPENED")
	assert.Contains(t, r.pstates, "PREVIEW_FRAME_READY")
	assert.Equal(t, state.Failed, camera.Phase)
	assert.Equal(t, "CAMERA_ERROR device lost", camera.Message)
}

func TestRecordingTickPipeline(t *testing.T) {
	r := new(recorder)
	c, _ := newTestController(r)

	c.Channel(Primary).Subscribe()
	c.PushState("VIDEO_RECORDING_STARTED")
	c.PushState("RECORDING_TIME 61000")

	c.Channel(Primary).Unsubscribe()
	c.dispatcher.Sync()
	session := c.RecordingSession()
	c.Close()

	if assert.Len(t, r.ticks, 1) {
		assert.EqualValues(t, 61000, r.ticks[0].ElapsedMs)
		assert.Equal(t, "00:01:01", r.ticks[0].Formatted)
	}
	assert.Equal(t, "00:01:01", session.Formatted)
	// RECORDING_TIME never reaches the generic state callback.
	assert.NotContains(t, r.states, "RECORDING_TIME 61000")
}

func TestStateReadsDuringDelivery(t *testing.T) {
	// CameraState and RecordingSession may be polled while the dispatch
	// worker is applying state events. Run under -race.
	r := new(recorder)
	c, _ := newTestController(r)

	c.Channel(Primary).Subscribe()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				c.CameraState()
				c.RecordingSession()
			}
		}
	}()

	for i := 0; i < 500; i++ {
		c.PushState("CAMERA_OPENED")
		c.dispatcher.Sync()
	}
	close(stop)
	<-done

	camera := c.CameraState()
	c.Close()
	assert.Equal(t, state.Opened, camera.Phase)
}

func TestCloseResetsState(t *testing.T) {
	r := new(recorder)
	c, _ := newTestController(r)

	c.Channel(Primary).Subscribe()
	c.PushState("CAMERA_OPENED")
	c.Close()

	assert.Equal(t, state.Closed, c.CameraState().Phase)
	assert.EqualValues(t, 0, c.RecordingSession().ElapsedMs)
}
