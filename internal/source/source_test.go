package source

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenUnknownTag(t *testing.T) {
	_, err := Open("gstreamer:whatever")
	assert.Error(t, err)
}

func TestOpenBadSyntheticRate(t *testing.T) {
	_, err := Open("synthetic:fast")
	assert.Error(t, err)
}

func TestSyntheticSourceDeliversFrames(t *testing.T) {
	src, err := Open("synthetic:100")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var mu sync.Mutex
	var count int
	var lastTs uint64
	monotonic := true

	err = src.Start(func(payload []byte, timestampMs uint64) {
		mu.Lock()
		count++
		if timestampMs < lastTs {
			monotonic = false
		}
		lastTs = timestampMs
		mu.Unlock()
		assert.Len(t, payload, syntheticFrameSize)
	})
	if err != nil {
		t.Fatal(err)
	}

	// Starting twice is rejected.
	assert.Error(t, src.Start(func([]byte, uint64) {}))

	time.Sleep(100 * time.Millisecond)
	src.Stop()

	mu.Lock()
	assert.True(t, count > 0, "no frames delivered")
	assert.True(t, monotonic, "timestamps went backwards")
	final := count
	mu.Unlock()

	// No more deliveries after Stop.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, final, count)
	mu.Unlock()
}
