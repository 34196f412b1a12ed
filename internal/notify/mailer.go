// Package notify mails order confirmations over SMTP.
package notify

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/queue"
)

// sender is the part of gomail.Dialer the mailer uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer implements queue.Notifier.
type Mailer struct {
	from   string
	dialer sender
}

// NewMailer returns nil when no SMTP host is configured.
func NewMailer(cfg config.MailConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *Mailer) NotifyOrderPaid(ev queue.OrderPaidEvent) error {
	if err := m.dialer.DialAndSend(OrderMessage(m.from, ev)); err != nil {
		return fmt.Errorf("send order %d confirmation: %w", ev.OrderID, err)
	}
	return nil
}

// OrderMessage builds the confirmation mail for ev.
func OrderMessage(from string, ev queue.OrderPaidEvent) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	if ev.FullName != "" {
		msg.SetAddressHeader("To", ev.Email, ev.FullName)
	} else {
		msg.SetHeader("To", ev.Email)
	}
	msg.SetHeader("Subject", fmt.Sprintf("Your tickets for %s (order #%d)", ev.MovieName, ev.OrderID))
	msg.SetBody("text/plain", orderBody(ev))
	return msg
}

func orderBody(ev queue.OrderPaidEvent) string {
	var b strings.Builder
	name := ev.FullName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your payment of %s for order #%d was received.\n\n", ev.Total, ev.OrderID)
	fmt.Fprintf(&b, "%s\n%s, %s\n%s at %s\n\n", ev.MovieName, ev.TheaterName, ev.ScreenName, ev.Day, ev.Hour)
	for i, seat := range ev.Seats {
		code := ""
		if i < len(ev.TicketCodes) {
			code = ev.TicketCodes[i]
		}
		fmt.Fprintf(&b, "  seat %s  ticket %s\n", seat, code)
	}
	b.WriteString("\nShow the QR code of each ticket at the entrance.\n")
	return b.String()
}
