package camstream

import (
	"sync"

	"camstream/internal/event"
	"camstream/internal/flow"
	"camstream/internal/transport"
)

// ChannelContext is the per-channel handle exposed to the application:
// subscription, flow-control configuration and statistics for one lane.
// There is no global registration API; everything mutable hangs off this
// context.
type ChannelContext struct {
	id   ChannelID
	ctrl *Controller

	throttle  *flow.Throttle
	transport *transport.Channel

	mu       sync.Mutex
	recvDone chan struct{}
	started  bool
}

// ID returns the lane this context configures.
func (ch *ChannelContext) ID() ChannelID {
	return ch.id
}

// Subscribe starts event delivery for this channel, replacing any previous
// subscription. Throttling history is cleared, so the first frame after a
// (re)subscription is always accepted. Emits a "..._STARTED" state change
// unless the stream is already started.
func (ch *ChannelContext) Subscribe() {
	ch.mu.Lock()

	sub := ch.transport.Subscribe(ch.ctrl.config.QueueCapacity)
	ch.throttle.ResetEmitTime()

	prev := ch.recvDone
	done := make(chan struct{})
	ch.recvDone = done
	go ch.receiveLoop(sub, done)
	ch.mu.Unlock()

	// The replaced loop exits once it has drained its closed queue.
	if prev != nil {
		<-prev
	}

	ch.StartStream()
}

// Unsubscribe emits a "..._STOPPED" state change, clears the subscriber,
// and waits for the receive loop to finish delivering what was already
// queued. Dispatches in flight still run to completion. Safe to call when
// not subscribed.
func (ch *ChannelContext) Unsubscribe() {
	ch.StopStream()

	ch.mu.Lock()
	ch.transport.Unsubscribe()
	done := ch.recvDone
	ch.recvDone = nil
	ch.mu.Unlock()

	if done != nil {
		<-done
	}
}

// SubscribeRecords starts delivery of raw encoded records instead of the
// decode/dispatch loop, taking the channel's single subscriber slot. Used
// by record-level consumers such as WebsocketSink.
func (ch *ChannelContext) SubscribeRecords() <-chan []byte {
	ch.mu.Lock()

	sub := ch.transport.Subscribe(ch.ctrl.config.QueueCapacity)
	ch.throttle.ResetEmitTime()

	prev := ch.recvDone
	ch.recvDone = nil
	ch.mu.Unlock()

	if prev != nil {
		<-prev
	}

	ch.StartStream()
	return sub
}

// Subscribed reports whether the channel has a live subscriber.
func (ch *ChannelContext) Subscribed() bool {
	return ch.transport.Subscribed()
}

// StartStream emits the channel's "..._STARTED" state change. Idempotent:
// repeat calls are no-ops until StopStream.
func (ch *ChannelContext) StartStream() {
	ch.mu.Lock()
	if ch.started {
		ch.mu.Unlock()
		return
	}
	ch.started = true
	ch.mu.Unlock()

	ch.pushState(ch.streamName() + "_STARTED")
}

// StopStream emits the channel's "..._STOPPED" state change. Idempotent.
func (ch *ChannelContext) StopStream() {
	ch.mu.Lock()
	if !ch.started {
		ch.mu.Unlock()
		return
	}
	ch.started = false
	ch.mu.Unlock()

	ch.pushState(ch.streamName() + "_STOPPED")
}

// SetRateLimit configures the frame rate limit, 1..60 fps. Out-of-range
// values fail with ErrInvalidArgument and leave the previous limit intact.
func (ch *ChannelContext) SetRateLimit(fps int) error {
	if err := ch.throttle.SetRateLimit(fps); err != nil {
		return err
	}
	log.Debug("%s: rate limit %d fps", ch.id, fps)
	return nil
}

// RateLimit returns the current frame rate limit.
func (ch *ChannelContext) RateLimit() int {
	return ch.throttle.RateLimit()
}

// SetSizeLimit configures the frame size limit in bytes; 0 is unlimited.
func (ch *ChannelContext) SetSizeLimit(bytes uint32) {
	ch.throttle.SetSizeLimit(bytes)
	log.Debug("%s: size limit %d bytes", ch.id, bytes)
}

// SizeLimit returns the current frame size limit.
func (ch *ChannelContext) SizeLimit() uint32 {
	return ch.throttle.SizeLimit()
}

// Stats returns this channel's admission counters.
func (ch *ChannelContext) Stats() flow.Stats {
	return ch.throttle.Stats()
}

// pushFrame runs on the driver's callback goroutine. Admission runs before
// any copying, so a dropped frame costs nothing; for an accepted frame the
// encoder writes the payload into a fresh record, which is the
// independently owned copy that crosses the goroutine boundary. The
// driver's buffer is never retained.
func (ch *ChannelContext) pushFrame(e event.Event) {
	if !ch.transport.Subscribed() {
		// Discarded at the transport boundary, before flow control.
		return
	}

	var size uint32
	switch e := e.(type) {
	case *event.VideoFrame:
		size = e.SizeBytes
	case *event.PreviewFrame:
		size = e.SizeBytes
	}
	if !ch.throttle.ShouldEmit(size, ch.ctrl.now()) {
		return
	}

	record, err := event.Encode(e)
	if err != nil {
		log.Error("%s: %v", ch.id, err)
		return
	}
	ch.transport.Publish(record)
}

// pushState bypasses flow control; state changes are never throttled.
func (ch *ChannelContext) pushState(s string) {
	if !ch.transport.Subscribed() {
		return
	}
	record, err := event.Encode(&event.StateChange{State: s, TimestampMs: ch.ctrl.now()})
	if err != nil {
		log.Error("%s: %v", ch.id, err)
		return
	}
	ch.transport.Publish(record)
}

// receiveLoop is the channel's half of the consumer side: it decodes each
// record in arrival order and defers delivery to the dispatcher, so slow
// consumer code never holds up decoding.
func (ch *ChannelContext) receiveLoop(sub <-chan []byte, done chan struct{}) {
	defer close(done)
	for record := range sub {
		e, err := event.Decode(record)
		if err != nil {
			// Recoverable: drop the record, keep listening.
			log.Warn("%s: %v", ch.id, err)
			continue
		}
		ch.ctrl.dispatcher.Dispatch(e)
	}
}

func (ch *ChannelContext) streamName() string {
	if ch.id == Preview {
		return "PREVIEW_STREAM"
	}
	return "VIDEO_STREAM"
}
