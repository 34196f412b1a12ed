package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends order.paid events.  It dials the broker per publish,
// which keeps the request path free of connection state; checkouts are
// rare enough for this to be acceptable.
type Publisher struct {
	url   string
	queue string
	log   logrus.FieldLogger
}

func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = OrderPaidQueue
	}
	return &Publisher{url: url, queue: queue, log: log}
}

// PublishOrderPaid declares the durable queue and publishes ev as a
// persistent JSON message on the default exchange.
func (p *Publisher) PublishOrderPaid(ctx context.Context, ev OrderPaidEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Debug("rabbitmq: dial")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
