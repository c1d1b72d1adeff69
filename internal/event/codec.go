package event

import (
	errors "golang.org/x/xerrors"

	"camstream/internal/packet"
)

// Record layout, big-endian:
//
//	+--------+-----+------------------------------+
//	| taglen | tag | fields (per discriminant)    |
//	| u8     | ... |                              |
//	+--------+-----+------------------------------+
//
//	H264/AAC: timestampMs(u64) sizeBytes(u32) payload
//	NV21:     width(u32) height(u32) timestampMs(u64) sizeBytes(u32) payload
//	STATE:    timestampMs(u64) length(u32) state
//
// sizeBytes doubles as the payload length prefix, so an encoded record is
// self-delimiting and a short record is detectable at every field.

// Encode serializes an event into a tagged record. Derived variants
// (RecordingTick) and unknown codec strings are rejected.
func Encode(e Event) ([]byte, error) {
	tag := e.wireTag()
	switch tag {
	case TagH264, TagAAC, TagNV21, TagState:
	case "":
		return nil, errors.Errorf("event %T is derived and never encoded", e)
	default:
		return nil, errors.Errorf("unknown discriminant %q", tag)
	}

	w := packet.NewWriterSize(1 + len(tag) + fieldSize(e))
	w.WriteByte(byte(len(tag)))
	w.WriteString(tag)

	switch e := e.(type) {
	case *VideoFrame:
		w.WriteUint64(e.TimestampMs)
		w.WriteUint32(uint32(len(e.Payload)))
		w.WriteSlice(e.Payload)
	case *PreviewFrame:
		w.WriteUint32(e.Width)
		w.WriteUint32(e.Height)
		w.WriteUint64(e.TimestampMs)
		w.WriteUint32(uint32(len(e.Payload)))
		w.WriteSlice(e.Payload)
	case *StateChange:
		w.WriteUint64(e.TimestampMs)
		w.WriteUint32(uint32(len(e.State)))
		w.WriteString(e.State)
	}

	return w.Bytes(), nil
}

func fieldSize(e Event) int {
	switch e := e.(type) {
	case *VideoFrame:
		return 8 + 4 + len(e.Payload)
	case *PreviewFrame:
		return 4 + 4 + 8 + 4 + len(e.Payload)
	case *StateChange:
		return 8 + 4 + len(e.State)
	}
	return 0
}

// Decode parses a tagged record back into its typed variant. Any failure
// (unrecognized discriminant, missing fields, trailing bytes) is a
// *DecodeError; the caller drops the record and keeps listening.
func Decode(record []byte) (Event, error) {
	r := packet.NewReader(record)

	if err := r.CheckRemaining(1); err != nil {
		return nil, decodeErrorf("empty record")
	}
	n := int(r.ReadByte())
	if err := r.CheckRemaining(n); err != nil {
		return nil, decodeErrorf("truncated discriminant: %v", err)
	}
	tag := r.ReadString(n)

	var e Event
	var err error
	switch tag {
	case TagH264, TagAAC:
		e, err = decodeVideoFrame(tag, r)
	case TagNV21:
		e, err = decodePreviewFrame(r)
	case TagState:
		e, err = decodeStateChange(r)
	default:
		return nil, decodeErrorf("unrecognized discriminant %q", tag)
	}
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, decodeErrorf("%s record has %d trailing bytes", tag, r.Remaining())
	}
	return e, nil
}

func decodeVideoFrame(codec string, r *packet.Reader) (*VideoFrame, error) {
	if err := r.CheckRemaining(8 + 4); err != nil {
		return nil, decodeErrorf("short %s record: %v", codec, err)
	}
	f := &VideoFrame{Codec: codec}
	f.TimestampMs = r.ReadUint64()
	f.SizeBytes = r.ReadUint32()
	if err := r.CheckRemaining(int(f.SizeBytes)); err != nil {
		return nil, decodeErrorf("short %s payload: %v", codec, err)
	}
	f.Payload = r.ReadSlice(int(f.SizeBytes))
	return f, nil
}

func decodePreviewFrame(r *packet.Reader) (*PreviewFrame, error) {
	if err := r.CheckRemaining(4 + 4 + 8 + 4); err != nil {
		return nil, decodeErrorf("short NV21 record: %v", err)
	}
	f := new(PreviewFrame)
	f.Width = r.ReadUint32()
	f.Height = r.ReadUint32()
	f.TimestampMs = r.ReadUint64()
	f.SizeBytes = r.ReadUint32()
	if err := r.CheckRemaining(int(f.SizeBytes)); err != nil {
		return nil, decodeErrorf("short NV21 payload: %v", err)
	}
	f.Payload = r.ReadSlice(int(f.SizeBytes))
	return f, nil
}

func decodeStateChange(r *packet.Reader) (*StateChange, error) {
	if err := r.CheckRemaining(8 + 4); err != nil {
		return nil, decodeErrorf("short STATE record: %v", err)
	}
	s := new(StateChange)
	s.TimestampMs = r.ReadUint64()
	n := r.ReadUint32()
	if err := r.CheckRemaining(int(n)); err != nil {
		return nil, decodeErrorf("short STATE string: %v", err)
	}
	s.State = r.ReadString(int(n))
	return s, nil
}
