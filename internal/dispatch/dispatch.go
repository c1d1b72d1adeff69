// Ordered asynchronous delivery of decoded events to consumer callbacks.
//
// All callbacks run on a single worker goroutine draining an unbounded FIFO
// queue, so events enqueued from one channel's receive loop are observed by
// the application in arrival order, and enqueueing never blocks the
// goroutine driving transport delivery. Nothing waits for a callback to
// finish, and a panicking callback is caught here and never propagates
// upstream.

package dispatch

import (
	"strings"
	"sync"

	"camstream/internal/event"
	"camstream/internal/logging"
	"camstream/internal/state"
)

var log = logging.DefaultLogger.WithTag("dispatch")

// Callbacks are the per-variant consumer hooks. A nil hook drops its
// events silently.
type Callbacks struct {
	OnVideoFrame    func(*event.VideoFrame)   // H264 frames
	OnAudioFrame    func(*event.VideoFrame)   // AAC frames
	OnPreviewFrame  func(*event.PreviewFrame) // NV21 frames
	OnRecordingTick func(*event.RecordingTick)
	OnStateChange   func(*event.StateChange)
	OnPreviewState  func(*event.StateChange) // PREVIEW_* states
}

// Dispatcher owns the consumer-facing worker goroutine.
type Dispatcher struct {
	callbacks Callbacks

	// Camera/recording state lives with the dispatcher because state
	// strings are interpreted in delivery order.
	tracker *state.Tracker

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []interface{} // event.Event or syncMarker
	closed bool

	done chan struct{}
}

type syncMarker struct {
	delivered chan struct{}
}

func NewDispatcher(tracker *state.Tracker, callbacks Callbacks) *Dispatcher {
	d := &Dispatcher{
		callbacks: callbacks,
		tracker:   tracker,
		done:      make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.drain()
	return d
}

// Dispatch appends an event to the queue and returns immediately. Events
// dispatched after Close are dropped.
func (d *Dispatcher) Dispatch(e event.Event) {
	d.enqueue(e)
}

// Sync blocks until every event dispatched before the call has been
// delivered.
func (d *Dispatcher) Sync() {
	delivered := make(chan struct{})
	if !d.enqueue(syncMarker{delivered}) {
		return
	}
	<-delivered
}

func (d *Dispatcher) enqueue(item interface{}) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, item)
	d.mu.Unlock()
	d.cond.Signal()
	return true
}

// Close stops the worker. Events already queued are still delivered;
// nothing is cancellable mid-flight.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Signal()
	<-d.done
	return nil
}

func (d *Dispatcher) drain() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		item := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.deliver(item)
	}
}

func (d *Dispatcher) deliver(item interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Consumer callback panicked: %v", r)
		}
	}()

	switch e := item.(type) {
	case *event.VideoFrame:
		switch e.Codec {
		case event.TagH264:
			if cb := d.callbacks.OnVideoFrame; cb != nil {
				cb(e)
			}
		case event.TagAAC:
			if cb := d.callbacks.OnAudioFrame; cb != nil {
				cb(e)
			}
		default:
			log.Warn("Dropping frame with unknown codec %q", e.Codec)
		}
	case *event.PreviewFrame:
		if cb := d.callbacks.OnPreviewFrame; cb != nil {
			cb(e)
		}
	case *event.StateChange:
		d.deliverState(e)
	case *event.RecordingTick:
		if cb := d.callbacks.OnRecordingTick; cb != nil {
			cb(e)
		}
	case syncMarker:
		close(e.delivered)
	}
}

func (d *Dispatcher) deliverState(s *event.StateChange) {
	tick, err := d.tracker.Observe(s.State)
	if err != nil {
		// Recoverable, same as a decode error: drop and keep going.
		log.Warn("Dropping state event: %v", err)
		return
	}
	if tick != nil {
		if cb := d.callbacks.OnRecordingTick; cb != nil {
			cb(tick)
		}
		return
	}
	if strings.HasPrefix(s.State, state.PreviewPrefix) {
		if cb := d.callbacks.OnPreviewState; cb != nil {
			cb(s)
		}
	} else {
		if cb := d.callbacks.OnStateChange; cb != nil {
			cb(s)
		}
	}
}
