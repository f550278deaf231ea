package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/protoform/pkg/observability"
)

// PanicError is returned by Recover when fn panicked
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and turns a panic into a *PanicError
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// SafeGo executes fn in a goroutine with a timeout derived from parentCtx.
// Panics are recovered and logged at error level; returned errors are logged
// at debug level. The returned channel is closed once fn has finished and
// its outcome was logged. A zero timeout means no timeout.
//
//	async.SafeGo(ctx, logger, 0, "schema load", func(ctx context.Context) error {
//		parsed, err := session.Load(ticket)
//		results <- result{ticket, parsed, err}
//		return err
//	})
func SafeGo(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if logger == nil {
		logger = observability.NopLogger()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		err := Recover(func() error { return fn(ctx) })
		if err == nil {
			return
		}

		log := logger.WithField("task", taskName).WithError(err)
		if p, ok := err.(*PanicError); ok {
			log.WithField("stack", p.Stack).Error("task panicked")
			return
		}
		log.Debug("task failed")
	}()

	return done
}
