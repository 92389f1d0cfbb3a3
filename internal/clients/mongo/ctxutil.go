package mongo

import (
	"context"
	"time"
)

// OpTimeout bounds a single repository call.
const OpTimeout = 5 * time.Second

func noop() {}

// WithRepoTimeout returns ctx bounded by d. A ctx that is already done, or
// whose own deadline falls within d, is returned untouched with a no-op cancel.
func WithRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	switch dl, has := ctx.Deadline(); {
	case ctx.Err() != nil:
		return ctx, noop
	case has && time.Until(dl) <= d:
		return ctx, noop
	default:
		return context.WithTimeout(ctx, d)
	}
}
