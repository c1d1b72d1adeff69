package source

import "errors"

var (
	errAlreadyStarted = errors.New("Already started")
)
