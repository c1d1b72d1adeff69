// A clockwork frame generator, useful for demos and tests when no real
// media is at hand. The payload is a fixed-size buffer reused between
// callbacks, which mimics a capture driver recycling its buffers.
// Example source spec: "synthetic:25" (frames per second)

package source

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const syntheticFrameSize = 4096

type syntheticSource struct {
	interval time.Duration

	quit       chan struct{}
	terminated chan struct{}
}

func openSynthetic(path string) (Source, error) {
	fps := 30
	if path != "" {
		n, err := strconv.Atoi(path)
		if err != nil || n < 1 {
			return nil, errors.Errorf("bad synthetic frame rate %q", path)
		}
		fps = n
	}
	return &syntheticSource{interval: time.Second / time.Duration(fps)}, nil
}

func (src *syntheticSource) Start(sink FrameFunc) error {
	if src.quit != nil {
		return errAlreadyStarted
	}
	src.quit = make(chan struct{})
	src.terminated = make(chan struct{})

	go func() {
		defer close(src.terminated)

		payload := make([]byte, syntheticFrameSize)
		ticker := time.NewTicker(src.interval)
		defer ticker.Stop()

		start := time.Now()
		var n byte
		for {
			select {
			case <-src.quit:
				return
			case <-ticker.C:
				// Scribble over the reused buffer so a consumer holding on
				// to it without copying would notice.
				for i := range payload {
					payload[i] = n
				}
				n++
				sink(payload, uint64(time.Since(start)/time.Millisecond))
			}
		}
	}()
	return nil
}

func (src *syntheticSource) Stop() error {
	if src.quit == nil {
		return nil
	}
	close(src.quit)
	<-src.terminated
	src.quit = nil
	src.terminated = nil
	return nil
}

func (src *syntheticSource) Close() error {
	return src.Stop()
}

func init() {
	Register("synthetic", openSynthetic)
}
