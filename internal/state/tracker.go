// Camera lifecycle tracking and recording-session time derivation, driven
// entirely by driver-reported state strings.

package state

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	errors "golang.org/x/xerrors"

	"camstream/internal/event"
	"camstream/internal/logging"
)

var log = logging.DefaultLogger.WithTag("state")

// Well-known state strings reported by the capture subsystem.
const (
	CameraOpened  = "CAMERA_OPENED"
	CameraClosed  = "CAMERA_CLOSED"
	RecordingTime = "RECORDING_TIME"

	VideoRecordingStarted = "VIDEO_RECORDING_STARTED"

	// Preview-specific states route to the preview-state callback.
	PreviewPrefix = "PREVIEW_"
)

// IsPreviewState reports whether a state string is preview-specific and
// belongs on the preview channel.
func IsPreviewState(state string) bool {
	return strings.HasPrefix(state, PreviewPrefix)
}

// Phase of the camera lifecycle.
type Phase int

const (
	Closed Phase = iota
	Opened
	Failed
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Opened:
		return "opened"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CameraState pairs the lifecycle phase with the raw error message when the
// phase is Failed.
type CameraState struct {
	Phase   Phase
	Message string
}

// RecordingSession is the elapsed time of an in-progress video capture,
// updated only by recording ticks.
type RecordingSession struct {
	ElapsedMs uint64
	Formatted string // "HH:MM:SS"
}

// Tracker maintains camera state and the active recording session. State
// strings are observed on the dispatch goroutine while the accessors serve
// reads from the application's goroutine, so the fields are mutex guarded.
type Tracker struct {
	mu      sync.Mutex
	camera  CameraState
	session RecordingSession
}

func NewTracker() *Tracker {
	t := new(Tracker)
	t.session = RecordingSession{0, "00:00:00"}
	return t
}

func (t *Tracker) Camera() CameraState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.camera
}

func (t *Tracker) Session() RecordingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Observe applies one driver-reported state string.
//
// A RECORDING_TIME state carries the elapsed milliseconds as its payload
// ("RECORDING_TIME <ms>") and yields a derived RecordingTick; every other
// state yields nil. An error state (any string containing "ERROR") is
// sticky until an explicit CAMERA_OPENED or CAMERA_CLOSED is observed.
// Unrecognized states leave the camera state untouched.
func (t *Tracker) Observe(state string) (*event.RecordingTick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case state == CameraOpened:
		t.camera = CameraState{Phase: Opened}
	case state == CameraClosed:
		t.camera = CameraState{Phase: Closed}
	case strings.Contains(state, "ERROR"):
		// Raw state string doubles as the error message.
		t.camera = CameraState{Phase: Failed, Message: state}
	case state == VideoRecordingStarted:
		// A new capture begins: the session restarts from zero.
		t.session = RecordingSession{0, "00:00:00"}
	case strings.HasPrefix(state, RecordingTime):
		elapsedMs, err := parseElapsed(state)
		if err != nil {
			return nil, err
		}
		tick := &event.RecordingTick{
			ElapsedMs: elapsedMs,
			Formatted: FormatElapsed(elapsedMs),
		}
		t.session = RecordingSession{tick.ElapsedMs, tick.Formatted}
		return tick, nil
	default:
		log.Debug("Ignoring state %q", state)
	}
	return nil, nil
}

// Reset restores the initial Closed camera state and a zero session, e.g.
// on controller disposal.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.camera = CameraState{}
	t.session = RecordingSession{0, "00:00:00"}
}

func parseElapsed(state string) (uint64, error) {
	fields := strings.Fields(state)
	if len(fields) != 2 {
		return 0, errors.Errorf("malformed %s state %q", RecordingTime, state)
	}
	elapsedMs, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, errors.Errorf("bad elapsed time in %q: %v", state, err)
	}
	return elapsedMs, nil
}

// FormatElapsed renders elapsed milliseconds as "HH:MM:SS".
func FormatElapsed(elapsedMs uint64) string {
	seconds := elapsedMs / 1000
	return fmt.Sprintf("%02d:%02d:%02d",
		seconds/3600, seconds/60%60, seconds%60)
}
