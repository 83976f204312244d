package conversion

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Background delivers jobs in-process on their own goroutine. It is the
// inline alternative to publishing jobs to the broker.
type Background struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewBackground(d *Dispatcher, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.L()
	}
	return &Background{dispatcher: d, logger: logger.Named("conversion_background")}
}

// PublishConversion returns immediately. The dispatch runs detached from
// ctx's cancellation so a finished HTTP request does not abort it.
func (b *Background) PublishConversion(ctx context.Context, job Job) error {
	ctx = context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("conversion dispatch panicked", zap.String("event_id", job.EventID), zap.Any("panic", r))
			}
		}()

		res := b.dispatcher.Dispatch(ctx, job)
		if res.Failed() {
			b.logger.Warn("conversion dispatch incomplete",
				zap.String("event_id", res.EventID),
				zap.Any("platforms", res.Platforms),
			)
		}
	}()
	return nil
}

// Wait blocks until every in-flight dispatch has returned. Called on
// shutdown and from tests.
func (b *Background) Wait() {
	b.wg.Wait()
}
