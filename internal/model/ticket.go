package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is a user's claim on one seat for one show and program.  It is
// created unpaid during seat selection and becomes paid, linked to an
// order, at checkout.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – random UUID printed on the ticket QR code.
//  UserID    – owner of the ticket.
//  ShowID    – the show being attended.
//  SeatID    – the physical seat.
//  ProgramID – the time slot.
//  Paid      – true once an order covers the ticket.
//  OrderID   – order that paid for the ticket; nil while unpaid.
//  CreatedAt – when the seat was selected.
type Ticket struct {
	ID        uint64    `json:"id"`
	Code      string    `json:"code"`
	UserID    uint64    `json:"user_id"`
	ShowID    uint64    `json:"show_id"`
	SeatID    uint64    `json:"seat_id"`
	ProgramID uint64    `json:"program_id"`
	Paid      bool      `json:"paid"`
	OrderID   *uint64   `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetail is a ticket joined with what is printed on it.
type TicketDetail struct {
	Ticket
	MovieName   string          `json:"movie_name"`
	TheaterName string          `json:"theater_name"`
	ScreenName  string          `json:"screen_name"`
	Position    string          `json:"position"`
	Program     Program         `json:"program"`
	Price       decimal.Decimal `json:"price"`
}

// Payment records the card details accepted at checkout.  Only the last
// four digits of the card number are kept and the security code is never
// stored.
type Payment struct {
	ID         uint64    `json:"id"`
	Reference  string    `json:"reference"`
	CardBrand  string    `json:"card_brand"`
	CardLast4  string    `json:"card_last4"`
	CardExpiry string    `json:"card_expiry"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order aggregates the tickets paid in one checkout.
type Order struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	PaymentID uint64          `json:"payment_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Payment   *Payment        `json:"payment,omitempty"`
	Tickets   []TicketDetail  `json:"tickets,omitempty"`
}
