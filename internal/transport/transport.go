// Single-producer, single-subscriber broadcast channels carrying encoded
// tagged records across the producer/consumer boundary. Publishing never
// blocks: when the subscriber queue is full the record is discarded and the
// failure is surfaced through the error callback as free text.

package transport

import (
	"sync"

	"camstream/internal/logging"
)

var log = logging.DefaultLogger.WithTag("transport")

// ChannelID identifies one of the two independent streaming lanes.
type ChannelID int

const (
	// Compressed audio/video stream.
	Primary ChannelID = iota
	// Raw NV21 preview stream.
	Preview
)

func (id ChannelID) String() string {
	switch id {
	case Primary:
		return "primary"
	case Preview:
		return "preview"
	default:
		return "unknown"
	}
}

// Free-text message reported when the subscriber queue cannot accept a
// record. Matched (by substring) by the adaptive backoff classifier.
const errBufferInaccessible = "event buffer is inaccessible"

// ErrorFunc receives transport-level delivery failures. There is no
// structured code, only the message.
type ErrorFunc func(id ChannelID, message string)

// A Channel delivers encoded records from the producer goroutine to at most
// one live subscriber.
type Channel struct {
	id      ChannelID
	onError ErrorFunc

	mu  sync.Mutex
	sub chan []byte
}

func NewChannel(id ChannelID, onError ErrorFunc) *Channel {
	return &Channel{id: id, onError: onError}
}

func (c *Channel) ID() ChannelID {
	return c.id
}

// Subscribe replaces any previous subscriber, buffering up to capacity
// records. The previous subscriber's channel is closed; records already
// queued on it remain readable so nothing in flight is lost.
func (c *Channel) Subscribe(capacity int) <-chan []byte {
	if capacity < 1 {
		panic("transport: subscriber capacity must be nonzero")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		c.closeSubLocked()
		log.Debug("%s: subscriber replaced", c.id)
	}
	c.sub = make(chan []byte, capacity)
	return c.sub
}

// Unsubscribe clears the subscriber. Records produced afterwards are
// discarded at this boundary. Safe to call when not subscribed.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeSubLocked()
}

func (c *Channel) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}

// Publish hands a record to the subscriber without blocking. Returns false
// if there is no subscriber or the record was discarded.
func (c *Channel) Publish(record []byte) bool {
	c.mu.Lock()
	if c.sub == nil {
		c.mu.Unlock()
		return false
	}
	select {
	case c.sub <- record:
		c.mu.Unlock()
		return true
	default:
	}
	c.mu.Unlock()

	// Subscriber backlogged. Drop the record and report upstream so the
	// backoff policy can slow the producer down. The callback runs outside
	// the lock; it may call back into this channel.
	log.Warn("%s: %s", c.id, errBufferInaccessible)
	if c.onError != nil {
		c.onError(c.id, errBufferInaccessible)
	}
	return false
}

// Close tears the subscription down for good.
func (c *Channel) Close() error {
	c.Unsubscribe()
	return nil
}

func (c *Channel) closeSubLocked() {
	if c.sub == nil {
		return
	}
	// Close without draining: the receive loop is entitled to everything
	// published before the unsubscribe.
	close(c.sub)
	c.sub = nil
}
