package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
)

const defaultPublishTimeout = 5 * time.Second

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Producer publishes conversion jobs. An amqp channel must not be used for
// concurrent publishes, so calls are serialised.
type Producer struct {
	ch      publisher
	timeout time.Duration
	mu      sync.Mutex
}

func NewProducer(ch publisher) *Producer {
	return &Producer{ch: ch, timeout: defaultPublishTimeout}
}

func (p *Producer) PublishConversion(ctx context.Context, job conversion.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "queue: encode job")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.EventID,
			Type:         string(job.Kind),
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return eris.Wrapf(err, "queue: publish %s", job.EventID)
	}
	return nil
}
