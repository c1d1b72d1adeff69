package camstream

import (
	"math"
	"strings"
)

// Adaptive backoff: when the transport reports that a channel's subscriber
// queue ran out of room, the channel's rate limit is lowered by 20%, down
// to a floor of 15 fps. Each qualifying error applies the reduction once;
// the only state is the channel's current rate limit.

const (
	// Substring that marks a delivery error as resource exhaustion. The
	// error surface is free text, so classification is a narrow string
	// match at this boundary.
	exhaustionPattern = "buffer is inaccessible"

	backoffFloorFps = 15
	backoffFactor   = 0.8
)

func isResourceExhaustion(message string) bool {
	return strings.Contains(message, exhaustionPattern)
}

// handleTransportError runs for every transport delivery failure. It
// applies the backoff policy, then forwards the message to the
// application's error callback.
func (c *Controller) handleTransportError(id ChannelID, message string) {
	if isResourceExhaustion(message) {
		c.backOff(c.channels[id])
	}
	if c.config.OnTransportError != nil {
		c.config.OnTransportError(id, message)
	}
}

func (c *Controller) backOff(ch *ChannelContext) {
	current := ch.RateLimit()
	if current <= backoffFloorFps {
		return
	}
	next := int(math.Round(float64(current) * backoffFactor))
	if err := ch.SetRateLimit(next); err != nil {
		log.Error("%s: backoff to %d fps rejected: %v", ch.id, next, err)
		return
	}
	log.Warn("%s: backing off %d -> %d fps", ch.id, current, next)
}
