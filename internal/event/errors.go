package event

import "fmt"

// DecodeError marks a malformed or unrecognized tagged record. It is
// recoverable: the record is dropped and the subscription keeps listening.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}

func decodeErrorf(format string, a ...interface{}) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, a...)}
}
