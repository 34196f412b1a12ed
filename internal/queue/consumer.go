package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// Notifier delivers the confirmation of a paid order to its customer.
type Notifier interface {
	NotifyOrderPaid(ev OrderPaidEvent) error
}

// Consumer reads order.paid events, appends each one to <LogDir>/orders.log
// and hands it to the Notifier.
type Consumer struct {
	url      string
	queue    string
	logDir   string
	notifier Notifier
	log      logrus.FieldLogger
}

// NewConsumer builds a consumer.  notifier may be nil, in which case events
// are only logged.
func NewConsumer(url, queue, logDir string, notifier Notifier, log logrus.FieldLogger) *Consumer {
	if queue == "" {
		queue = OrderPaidQueue
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, queue: queue, logDir: logDir, notifier: notifier, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are re-dialled with a doubling backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff).Warn("order consumer: dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("order consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("order consumer: set QoS")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "ticket-please-orders", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.log.WithField("queue", c.queue).Info("order consumer: listening")

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.WithError(err).Error("order consumer: handle message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage records one event.  A malformed body or an unwritable log
// is an error; a failed notification is only logged so the order line is
// not lost to a redelivery loop.
func (c *Consumer) handleMessage(body []byte) error {
	var ev OrderPaidEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if ev.OrderID == 0 {
		return errors.New("event without order id")
	}
	if err := c.appendOrderLine(ev); err != nil {
		return err
	}
	if c.notifier != nil && ev.Email != "" {
		if err := c.notifier.NotifyOrderPaid(ev); err != nil {
			c.log.WithError(err).WithField("order_id", ev.OrderID).Warn("order consumer: notify")
		}
	}
	return nil
}

func (c *Consumer) appendOrderLine(ev OrderPaidEvent) error {
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "orders.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open orders.log: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(FormatOrderLine(ev) + "\n")
	return err
}

// FormatOrderLine renders an event as a single human readable line.
func FormatOrderLine(ev OrderPaidEvent) string {
	return fmt.Sprintf("%s | order=%d user=%d show=%d program=%d | %s @ %s (%s) %s %s | seats=%s | total=%s",
		ev.PaidAt, ev.OrderID, ev.UserID, ev.ShowID, ev.ProgramID,
		ev.MovieName, ev.TheaterName, ev.ScreenName, ev.Day, ev.Hour,
		strings.Join(ev.Seats, ","), ev.Total)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
