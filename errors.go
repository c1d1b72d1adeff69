package camstream

import (
	"camstream/internal/flow"
)

// ErrInvalidArgument rejects configuration values outside their documented
// range, before any channel state is touched.
var ErrInvalidArgument = flow.ErrInvalidArgument
