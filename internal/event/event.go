// Tagged event variants exchanged between the capture side and the
// consuming application. Every variant that crosses the transport carries
// an explicit wire discriminant; see codec.go for the record layout.

package event

// Wire discriminants. The tag is carried explicitly in each encoded
// record, never inferred from record shape.
const (
	TagH264  = "H264"
	TagAAC   = "AAC"
	TagNV21  = "NV21"
	TagState = "STATE"
)

// Event is the closed set of pipeline event variants.
type Event interface {
	// The discriminant written to the wire, or "" for derived variants
	// that are never transmitted.
	wireTag() string
}

// VideoFrame is a compressed audio/video frame on the primary channel.
type VideoFrame struct {
	Codec       string // TagH264 or TagAAC
	Payload     []byte
	TimestampMs uint64
	SizeBytes   uint32
}

// PreviewFrame is a raw NV21 frame on the preview channel.
type PreviewFrame struct {
	Payload     []byte
	Width       uint32
	Height      uint32
	TimestampMs uint64
	SizeBytes   uint32
}

// StateChange reports a capture subsystem state string.
type StateChange struct {
	State       string
	TimestampMs uint64
}

// RecordingTick is derived from a RECORDING_TIME state change. It is never
// transmitted; the state tracker produces it on the consumer side.
type RecordingTick struct {
	ElapsedMs uint64
	Formatted string // "HH:MM:SS"
}

func (f *VideoFrame) wireTag() string    { return f.Codec }
func (f *PreviewFrame) wireTag() string  { return TagNV21 }
func (s *StateChange) wireTag() string   { return TagState }
func (t *RecordingTick) wireTag() string { return "" }

// NewVideoFrame builds a VideoFrame with SizeBytes set from the payload.
func NewVideoFrame(codec string, payload []byte, timestampMs uint64) *VideoFrame {
	return &VideoFrame{
		Codec:       codec,
		Payload:     payload,
		TimestampMs: timestampMs,
		SizeBytes:   uint32(len(payload)),
	}
}

// NewPreviewFrame builds a PreviewFrame with SizeBytes set from the payload.
func NewPreviewFrame(payload []byte, width, height uint32, timestampMs uint64) *PreviewFrame {
	return &PreviewFrame{
		Payload:     payload,
		Width:       width,
		Height:      height,
		TimestampMs: timestampMs,
		SizeBytes:   uint32(len(payload)),
	}
}
