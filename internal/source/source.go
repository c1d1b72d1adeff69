// Frame sources stand in for the capture driver. A source invokes the
// frame callback once per frame from its own read goroutine; the payload
// slice may be reused by the source as soon as the callback returns,
// exactly like driver-owned memory.

package source

import (
	"camstream/internal/logging"
)

var log = logging.DefaultLogger.WithTag("source")

// FrameFunc receives one frame per invocation. The payload is only valid
// for the duration of the call; the receiver must copy it before crossing
// a goroutine boundary.
type FrameFunc func(payload []byte, timestampMs uint64)

type Source interface {
	// Start begins the read loop, delivering frames to sink until Stop.
	Start(sink FrameFunc) error

	// Stop terminates the read loop and waits for it to exit.
	Stop() error

	// Free up any resources associated with the source.
	Close() error
}
