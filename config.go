package camstream

import (
	"camstream/internal/dispatch"
)

// Callbacks re-exports the per-variant consumer hooks.
type Callbacks = dispatch.Callbacks

// Config carries the construction-time settings for a Controller.
type Config struct {
	// Capacity of each channel's subscriber queue, in encoded records.
	// When a queue is full, new records are discarded and the loss is
	// reported through OnTransportError.
	QueueCapacity int

	// Per-variant consumer callbacks. Nil hooks drop their events.
	Callbacks Callbacks

	// OnTransportError receives transport delivery failures as free-text
	// messages, after the adaptive backoff has seen them. May be nil.
	OnTransportError func(channel ChannelID, message string)
}

const defaultQueueCapacity = 16

func (c *Config) setDefaults() {
	if c.QueueCapacity < 1 {
		c.QueueCapacity = defaultQueueCapacity
	}
}
