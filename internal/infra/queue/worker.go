package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, job conversion.Job) conversion.Result
}

type consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
}

type Worker struct {
	ch         consumer
	dispatcher Dispatcher
	logger     *zap.Logger
	jobTimeout time.Duration
	prefetch   int
}

func NewWorker(ch consumer, dispatcher Dispatcher, logger *zap.Logger, jobTimeout time.Duration, prefetch int) *Worker {
	if logger == nil {
		logger = zap.L()
	}
	if jobTimeout <= 0 {
		jobTimeout = conversion.DefaultTimeout
	}
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Worker{
		ch:         ch,
		dispatcher: dispatcher,
		logger:     logger.Named("conversion_worker"),
		jobTimeout: jobTimeout,
		prefetch:   prefetch,
	}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (w *Worker) Run(ctx context.Context, queueName string) error {
	if err := w.ch.Qos(w.prefetch, 0, false); err != nil {
		return eris.Wrap(err, "worker: set qos")
	}
	msgs, err := w.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return eris.Wrap(err, "worker: register consumer")
	}

	w.logger.Info("worker waiting for jobs", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return eris.New("worker: delivery channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks a job once every platform has accepted it. Anything
// else is nacked without requeue so it lands in the DLQ.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job conversion.Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.logger.Error("malformed job", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log := w.logger.With(
		zap.String("event_id", job.EventID),
		zap.String("kind", string(job.Kind)),
		zap.String("lead_id", job.Lead.ID),
	)

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	res := w.dispatcher.Dispatch(ctx, job)
	if res.Failed() {
		log.Warn("job dead-lettered", zap.Any("platforms", res.Platforms))
		_ = d.Nack(false, false)
		return
	}

	log.Info("job delivered")
	_ = d.Ack(false)
}
