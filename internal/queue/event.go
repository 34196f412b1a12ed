// Package queue carries the order.paid event over RabbitMQ: the payload,
// a publisher used by the booking flow and a background consumer that
// records paid orders and mails a confirmation.
package queue

// OrderPaidQueue is the default durable queue name.
const OrderPaidQueue = "order.paid"

// OrderPaidEvent is published after a checkout commits.  It holds enough
// for consumers to log and notify without querying the database.
type OrderPaidEvent struct {
	OrderID     uint64   `json:"order_id"`
	UserID      uint64   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	ShowID      uint64   `json:"show_id"`
	ProgramID   uint64   `json:"program_id"`
	MovieName   string   `json:"movie_name"`
	TheaterName string   `json:"theater_name"`
	ScreenName  string   `json:"screen_name"`
	Day         string   `json:"day"`
	Hour        string   `json:"hour"`
	Seats       []string `json:"seats"`
	TicketCodes []string `json:"ticket_codes"`
	Total       string   `json:"total"`
	PaidAt      string   `json:"paid_at"`
}
