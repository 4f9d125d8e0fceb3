package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// supervise runs one pipeline step in a fresh scope. A panic raised by the
// step, such as a transport fault surfacing from inside an SDK call, is
// recovered and returned as a *domain.FaultError so the caller can run its
// cleanup and report it like any other failure.
func supervise(ctx context.Context, step string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.FaultError{Step: step, Value: r}
		}
	}()
	return fn(ctx)
}

// step is one named stage of a pipeline.
type step struct {
	name string
	fn   func(context.Context) error
}

// runSteps executes steps in order under supervise, stopping at the first
// failure.
func runSteps(ctx context.Context, logger Logger, db string, steps []step) error {
	for _, s := range steps {
		if err := supervise(ctx, s.name, s.fn); err != nil {
			var fault *domain.FaultError
			if errors.As(err, &fault) {
				logger.Errorf("[%s] Recovered fault during %s: %v", db, s.name, fault.Value)
			}
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
