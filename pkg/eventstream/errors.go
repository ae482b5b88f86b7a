package eventstream

import "errors"

// ErrNilPostEvent indicates a nil post event payload was provided to a publisher.
var ErrNilPostEvent = errors.New("nil post event")
