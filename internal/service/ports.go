// Package service holds the business rules of the booking system: screen
// and show materialization, the scheduling validator and the booking
// wizard.  Services depend on the narrow interfaces below; the MySQL
// repositories satisfy them in production.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/queue"
)

// TxRunner runs fn in a single database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type TheaterLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Theater, error)
}

type ScreenStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, sc *model.Screen) error
	UpdateCountsTx(ctx context.Context, tx *sql.Tx, id uint64, rows, cols, seats int) error
	GetByID(ctx context.Context, id uint64) (*model.Screen, error)
}

type SeatStore interface {
	CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error
	ListByScreenTx(ctx context.Context, tx *sql.Tx, screenID uint64) ([]model.Seat, error)
}

type MovieLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
}

type ProgramLookup interface {
	ListByIDs(ctx context.Context, ids []uint64) ([]model.Program, error)
}

type ShowStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error
	UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	ProgramIDsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]uint64, error)
	LinkProgramsTx(ctx context.Context, tx *sql.Tx, showID uint64, programIDs []uint64) error
	UnlinkProgramsTx(ctx context.Context, tx *sql.Tx, showID uint64, programIDs []uint64) error
	ListScheduledOnScreen(ctx context.Context, screenID uint64, days []time.Time, excludeShowID uint64) ([]model.ScheduledShow, error)
}

type ShowSeatWriter interface {
	CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.ShowSeat) error
}

// Booking side.

type BookingMovies interface {
	ListShowingBetween(ctx context.Context, from, to time.Time) ([]model.Movie, error)
}

type BookingTheaters interface {
	ListHostingMovie(ctx context.Context, movieID uint64, from, to time.Time) ([]model.Theater, error)
}

type BookingPrograms interface {
	ListForMovieAtTheater(ctx context.Context, movieID, theaterID uint64, from, to time.Time) ([]model.Program, error)
}

type BookingShows interface {
	FindForSelection(ctx context.Context, movieID, theaterID, programID uint64) (*model.Show, error)
}

type BookingScreens interface {
	GetByID(ctx context.Context, id uint64) (*model.Screen, error)
}

type BookingShowSeats interface {
	ListByShowProgram(ctx context.Context, showID, programID uint64) ([]model.ShowSeat, error)
	GetByPositionTx(ctx context.Context, tx *sql.Tx, showID, programID uint64, position string) (*model.ShowSeat, error)
	TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.SeatStatus) (bool, error)
	ReleaseTx(ctx context.Context, tx *sql.Tx, showID, programID, seatID uint64) error
}

type BookingTickets interface {
	CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error
	MarkPaidTx(ctx context.Context, tx *sql.Tx, userID, showID, programID, orderID uint64) (int64, error)
	ListPaid(ctx context.Context, userID, showID, programID uint64) ([]model.TicketDetail, error)
	ListStaleUnpaidTx(ctx context.Context, tx *sql.Tx, cutoff time.Time, limit int) ([]model.Ticket, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error)
}

type PaymentWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
}

type OrderWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error
	SetTotalTx(ctx context.Context, tx *sql.Tx, id uint64, total decimal.Decimal) error
}

// OrderPublisher announces paid orders.  Failures are logged by the caller
// and never undo a committed payment.
type OrderPublisher interface {
	PublishOrderPaid(ctx context.Context, ev queue.OrderPaidEvent) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}
