package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors, used by callers that treat a failed
// observation as reportable rather than fatal.
var (
	ErrObserveFailed = errors.New("metrics observe failed")
)
