// Event streaming pipeline between a camera capture subsystem and a
// consuming application.
//
// The capture driver pushes frames and state strings on its own callback
// goroutine; admission control and encoding happen right there, before the
// event crosses into a per-channel subscriber queue. A receive loop per
// subscription decodes records and hands them to the dispatcher, whose
// single worker serializes delivery to the application callbacks.
//
//	driver -> throttle -> encode -> channel queue -> decode -> dispatch
//
// Frames that fail admission are dropped on the spot; nothing in the
// pipeline queues toward the driver or blocks its callback.

package camstream

import (
	"time"

	"camstream/internal/dispatch"
	"camstream/internal/event"
	"camstream/internal/flow"
	"camstream/internal/logging"
	"camstream/internal/state"
	"camstream/internal/transport"
)

var log = logging.DefaultLogger.WithTag("camstream")

// ChannelID selects one of the two streaming lanes.
type ChannelID = transport.ChannelID

const (
	// Compressed audio/video events.
	Primary = transport.Primary
	// Raw NV21 preview events.
	Preview = transport.Preview
)

// Controller owns one camera session's event pipeline: two transport
// channels with their throttles, the state tracker, and the dispatcher.
type Controller struct {
	config Config

	tracker    *state.Tracker
	dispatcher *dispatch.Dispatcher
	channels   [2]*ChannelContext

	// Millisecond clock for admission control. Overridden in tests.
	now func() uint64
}

func New(config Config) *Controller {
	config.setDefaults()

	c := &Controller{
		config:  config,
		tracker: state.NewTracker(),
		now:     nowMs,
	}
	c.dispatcher = dispatch.NewDispatcher(c.tracker, config.Callbacks)
	for _, id := range []ChannelID{Primary, Preview} {
		c.channels[id] = &ChannelContext{
			id:        id,
			ctrl:      c,
			throttle:  flow.New(),
			transport: transport.NewChannel(id, c.handleTransportError),
		}
	}
	return c
}

// Channel returns the context object for one streaming lane. Subscription
// and configuration are methods on the returned context.
func (c *Controller) Channel(id ChannelID) *ChannelContext {
	return c.channels[id]
}

// CameraState returns the tracked camera lifecycle state.
func (c *Controller) CameraState() state.CameraState {
	return c.tracker.Camera()
}

// RecordingSession returns the elapsed time of the active recording.
func (c *Controller) RecordingSession() state.RecordingSession {
	return c.tracker.Session()
}

// PushVideoFrame accepts one compressed frame from the capture driver, on
// the driver's callback goroutine. codec is event.TagH264 or event.TagAAC.
// The payload may be reused by the driver as soon as the call returns.
func (c *Controller) PushVideoFrame(codec string, payload []byte, timestampMs uint64) {
	c.channels[Primary].pushFrame(
		event.NewVideoFrame(codec, payload, timestampMs))
}

// PushPreviewFrame accepts one raw NV21 frame from the capture driver.
func (c *Controller) PushPreviewFrame(payload []byte, width, height uint32, timestampMs uint64) {
	c.channels[Preview].pushFrame(
		event.NewPreviewFrame(payload, width, height, timestampMs))
}

// PushState accepts a driver-reported state string. Preview-specific
// states travel the preview channel, everything else the primary channel.
// State events are not throttled.
func (c *Controller) PushState(s string) {
	id := Primary
	if state.IsPreviewState(s) {
		id = Preview
	}
	c.channels[id].pushState(s)
}

// Close tears down both subscriptions, stops the dispatcher after it has
// delivered everything already queued, and resets the camera state to
// Closed. The controller must not be used afterwards.
func (c *Controller) Close() error {
	for _, ch := range c.channels {
		ch.Unsubscribe()
	}
	c.dispatcher.Sync()
	c.dispatcher.Close()
	c.tracker.Reset()
	return nil
}

func nowMs() uint64 {
	return uint64(time.Now().UnixNano() / int64(time.Millisecond))
}
