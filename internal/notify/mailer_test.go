package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/queue"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func event() queue.OrderPaidEvent {
	return queue.OrderPaidEvent{
		OrderID: 9, Email: "ana@example.com", FullName: "Ana Pop",
		MovieName: "Arrival", TheaterName: "Odeon", ScreenName: "Hall 1",
		Day: "2024-05-02", Hour: "18:00", Seats: []string{"1,1"}, TicketCodes: []string{"abc"},
		Total: "10.00",
	}
}

func TestNewMailerDisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewMailer(config.MailConfig{}))
	assert.NotNil(t, NewMailer(config.MailConfig{Host: "smtp.local", Port: 25}))
}

func TestOrderMessage(t *testing.T) {
	msg := OrderMessage("tickets@localhost", event())
	assert.Equal(t, []string{"tickets@localhost"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Your tickets for Arrival (order #9)"}, msg.GetHeader("Subject"))
	require.Len(t, msg.GetHeader("To"), 1)
	assert.Contains(t, msg.GetHeader("To")[0], "ana@example.com")

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "seat 1,1")
	assert.Contains(t, buf.String(), "ticket abc")
}

func TestNotifyOrderPaid(t *testing.T) {
	s := &captureSender{}
	m := &Mailer{from: "x@y", dialer: s}
	require.NoError(t, m.NotifyOrderPaid(event()))
	assert.Len(t, s.sent, 1)

	s.err = errors.New("refused")
	err := m.NotifyOrderPaid(event())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order 9")
}
