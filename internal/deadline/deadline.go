// Package deadline runs blocking operations under a wall-clock budget.
package deadline

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// StageBudget is the default budget for each of the build and publish stages.
const StageBudget = 450 * time.Minute

type result[T any] struct {
	value T
	err   error
}

// Run races op against d. If op settles first its value and error are
// returned unchanged. If d elapses first Run returns a timeout error carrying
// msg and cancels the context op was given, so the operation can release its
// resources; Run does not wait for it to do so. If ctx is canceled first Run
// returns a canceled error.
func Run[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error), msg string) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := op(opCtx)
		done <- result[T]{value: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		// An op that gave up because its context ended is reported as the
		// timeout or cancellation, not as its own error.
		if r.err != nil && opCtx.Err() != nil {
			return zero, expired(ctx, d, msg)
		}
		return r.value, r.err
	case <-opCtx.Done():
		return zero, expired(ctx, d, msg)
	}
}

func expired(parent context.Context, d time.Duration, msg string) error {
	if parent.Err() != nil {
		return ferrors.WrapError(parent.Err(), ferrors.CategoryCanceled, msg).Build()
	}
	return ferrors.TimeoutError(msg).
		WithContext("deadline", d.String()).
		Build()
}
