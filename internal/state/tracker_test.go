package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleTransitions(t *testing.T) {
	tk := NewTracker()
	assert.Equal(t, Closed, tk.Camera().Phase)

	tk.Observe(CameraOpened)
	assert.Equal(t, Opened, tk.Camera().Phase)

	tk.Observe(CameraClosed)
	assert.Equal(t, Closed, tk.Camera().Phase)
}

func TestErrorStateIsSticky(t *testing.T) {
	tk := NewTracker()
	tk.Observe(CameraOpened)

	tk.Observe("CAMERA_ERROR device busy")
	assert.Equal(t, Failed, tk.Camera().Phase)
	assert.Equal(t, "CAMERA_ERROR device busy", tk.Camera().Message)

	// Unrecognized states do not clear the error.
	tk.Observe("SOMETHING_ELSE")
	assert.Equal(t, Failed, tk.Camera().Phase)

	// An explicit open does.
	tk.Observe(CameraOpened)
	assert.Equal(t, Opened, tk.Camera().Phase)
	assert.Equal(t, "", tk.Camera().Message)
}

func TestUnrecognizedStateIgnored(t *testing.T) {
	tk := NewTracker()
	tk.Observe("VIDEO_STREAM_STARTED")
	assert.Equal(t, Closed, tk.Camera().Phase)
}

func TestRecordingTick(t *testing.T) {
	tk := NewTracker()

	tick, err := tk.Observe("RECORDING_TIME 61000")
	if err != nil {
		t.Fatal(err)
	}
	if assert.NotNil(t, tick) {
		assert.EqualValues(t, 61000, tick.ElapsedMs)
		assert.Equal(t, "00:01:01", tick.Formatted)
	}
	assert.EqualValues(t, 61000, tk.Session().ElapsedMs)
	assert.Equal(t, "00:01:01", tk.Session().Formatted)
}

func TestRecordingSessionResetOnNewCapture(t *testing.T) {
	tk := NewTracker()
	tk.Observe("RECORDING_TIME 5000")
	assert.EqualValues(t, 5000, tk.Session().ElapsedMs)

	tk.Observe(VideoRecordingStarted)
	assert.EqualValues(t, 0, tk.Session().ElapsedMs)
	assert.Equal(t, "00:00:00", tk.Session().Formatted)
}

func TestMalformedRecordingTime(t *testing.T) {
	tk := NewTracker()

	for _, state := range []string{"RECORDING_TIME", "RECORDING_TIME abc", "RECORDING_TIME 1 2"} {
		tick, err := tk.Observe(state)
		assert.Error(t, err, state)
		assert.Nil(t, tick, state)
	}
	// Session untouched by malformed ticks.
	assert.EqualValues(t, 0, tk.Session().ElapsedMs)
}

func TestConcurrentObserveAndRead(t *testing.T) {
	// Observe runs on the dispatch goroutine; Camera and Session are read
	// from the application's goroutine at the same time. Run under -race.
	tk := NewTracker()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tk.Observe(CameraOpened)
			tk.Observe(fmt.Sprintf("RECORDING_TIME %d", i*1000))
			tk.Observe("CAMERA_ERROR device busy")
		}
	}()
	for i := 0; i < 1000; i++ {
		tk.Camera()
		tk.Session()
	}
	wg.Wait()

	assert.Equal(t, Failed, tk.Camera().Phase)
	assert.EqualValues(t, 999000, tk.Session().ElapsedMs)
}

func TestFormatElapsed(t *testing.T) {
	cases := map[uint64]string{
		0:        "00:00:00",
		999:      "00:00:00",
		1000:     "00:00:01",
		59999:    "00:00:59",
		60000:    "00:01:00",
		3599000:  "00:59:59",
		3600000:  "01:00:00",
		86399000: "23:59:59",
		90000000: "25:00:00",
	}
	for ms, want := range cases {
		assert.Equal(t, want, FormatElapsed(ms), "%d ms", ms)
	}
}
