package safe

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

// Try executes fn synchronously with panic recovery
//
// Behavior:
//   - Returns fn's result and true when fn succeeds
//   - Returns the zero value and false when fn returns an error or panics
//   - Errors and panics are logged at debug level and never propagated
//
// Printers run against memory of another process that may be unmapped or
// half-initialised, so a failure must degrade to "nothing to show".
func Try[T any](ctx context.Context, fn func() (T, error)) (result T, ok bool) {
	logger := logging.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Debug("panic recovered",
				"recover", r,
				"stack", string(debug.Stack()))
			var zero T
			result, ok = zero, false
		}
	}()

	v, err := fn()
	if err != nil {
		logger.Debug("suppressed error", "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// Recover converts a panic into an error assigned to *errp. It must be called
// with defer.
func Recover(errp *error) {
	if r := recover(); r != nil {
		*errp = goerr.New("panic recovered",
			goerr.V("recover", r),
			goerr.V("stack", string(debug.Stack())))
	}
}
