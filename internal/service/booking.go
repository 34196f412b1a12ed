package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/payment"
	"github.com/katmem/ticket-please/internal/queue"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/seating"
	"github.com/katmem/ticket-please/internal/wizard"
)

var (
	ErrNoSeatsSelected = errors.New("no seats selected")
	ErrSeatTaken       = errors.New("seat is no longer available")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrNothingToPay    = errors.New("no unpaid tickets for this selection")
	ErrNotEligible     = errors.New("selection is not bookable")
)

// NoSeatsFlash is queued when the seat step is submitted empty.
const NoSeatsFlash = "Please select at least one seat."

// BookingDeps bundles the stores the booking wizard reads and writes.
type BookingDeps struct {
	Tx        TxRunner
	Movies    BookingMovies
	Theaters  BookingTheaters
	Programs  BookingPrograms
	Shows     BookingShows
	Screens   BookingScreens
	ShowSeats BookingShowSeats
	Tickets   BookingTickets
	Payments  PaymentWriter
	Orders    OrderWriter
	Users     UserLookup
	Publisher OrderPublisher
}

// BookingService drives the booking wizard.  Every step takes the caller's
// wizard.State, checks the selections it depends on and mutates it; the
// caller persists the state afterwards.
type BookingService struct {
	d          BookingDeps
	windowDays int
	cards      *payment.Validator
	patterns   func(name string) (seating.Pattern, error)
	now        func() time.Time
	log        logrus.FieldLogger
}

func NewBookingService(d BookingDeps, windowDays int, cards *payment.Validator, log logrus.FieldLogger) *BookingService {
	return &BookingService{
		d:          d,
		windowDays: windowDays,
		cards:      cards,
		patterns:   seating.Lookup,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// window is [today, today+windowDays] in whole days.
func (b *BookingService) window() (time.Time, time.Time) {
	today := model.DayOf(b.now())
	return today, today.AddDate(0, 0, b.windowDays)
}

// MovieChoices lists the movies with a show program inside the window.
func (b *BookingService) MovieChoices(ctx context.Context) ([]model.Movie, error) {
	from, to := b.window()
	return b.d.Movies.ListShowingBetween(ctx, from, to)
}

func (b *BookingService) ChooseMovie(ctx context.Context, st *wizard.State, movieID uint64) error {
	movies, err := b.MovieChoices(ctx)
	if err != nil {
		return err
	}
	for _, m := range movies {
		if m.ID == movieID {
			st.ChooseMovie(movieID)
			return nil
		}
	}
	return fmt.Errorf("%w: movie %d", ErrNotEligible, movieID)
}

// TheaterChoices lists the theaters hosting the chosen movie in the window.
func (b *BookingService) TheaterChoices(ctx context.Context, st *wizard.State) ([]model.Theater, error) {
	if err := st.Require(wizard.StageMovieChosen); err != nil {
		return nil, err
	}
	from, to := b.window()
	return b.d.Theaters.ListHostingMovie(ctx, st.MovieID, from, to)
}

func (b *BookingService) ChooseTheater(ctx context.Context, st *wizard.State, theaterID uint64) error {
	theaters, err := b.TheaterChoices(ctx, st)
	if err != nil {
		return err
	}
	for _, t := range theaters {
		if t.ID == theaterID {
			return st.ChooseTheater(theaterID)
		}
	}
	return fmt.Errorf("%w: theater %d", ErrNotEligible, theaterID)
}

// DateChoices lists the programs of the (movie, theater) shows in the
// window, ordered by day then hour.
func (b *BookingService) DateChoices(ctx context.Context, st *wizard.State) ([]model.Program, error) {
	if err := st.Require(wizard.StageTheaterChosen); err != nil {
		return nil, err
	}
	from, to := b.window()
	return b.d.Programs.ListForMovieAtTheater(ctx, st.MovieID, st.TheaterID, from, to)
}

func (b *BookingService) ChooseDate(ctx context.Context, st *wizard.State, programID uint64) error {
	programs, err := b.DateChoices(ctx, st)
	if err != nil {
		return err
	}
	for _, p := range programs {
		if p.ID == programID {
			return st.ChooseDate(programID)
		}
	}
	return fmt.Errorf("%w: program %d", ErrNotEligible, programID)
}

// SeatCell is one cell of the seat map grid.  Cells without a seat only
// keep the layout.
type SeatCell struct {
	Position string           `json:"position,omitempty"`
	Seat     bool             `json:"seat"`
	Status   model.SeatStatus `json:"status,omitempty"`
	Bookable bool             `json:"bookable"`
}

// SeatMap is the seat step view of one screening.
type SeatMap struct {
	ShowID    uint64          `json:"show_id"`
	ProgramID uint64          `json:"program_id"`
	Screen    string          `json:"screen"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Rows      [][]SeatCell    `json:"rows"`
	Flash     string          `json:"flash,omitempty"`
}

// SeatMap lays the live show seat statuses over the screen's pattern and
// hands back any pending flash message, clearing it.
func (b *BookingService) SeatMap(ctx context.Context, st *wizard.State) (*SeatMap, error) {
	if err := st.Require(wizard.StageDateChosen); err != nil {
		return nil, err
	}
	show, err := b.d.Shows.FindForSelection(ctx, st.MovieID, st.TheaterID, st.ProgramID)
	if err != nil {
		return nil, err
	}
	screen, err := b.d.Screens.GetByID(ctx, show.ScreenID)
	if err != nil {
		return nil, err
	}
	pattern, err := b.patterns(screen.SeatingPattern)
	if err != nil {
		return nil, err
	}
	seats, err := b.d.ShowSeats.ListByShowProgram(ctx, show.ID, st.ProgramID)
	if err != nil {
		return nil, err
	}
	byPos := make(map[string]model.ShowSeat, len(seats))
	for _, ss := range seats {
		byPos[ss.Position] = ss
	}

	rows := make([][]SeatCell, len(pattern))
	for r, line := range pattern {
		rows[r] = make([]SeatCell, len(line))
		for c, isSeat := range line {
			if !isSeat {
				continue
			}
			pos := seating.Position(r, c)
			cell := SeatCell{Position: pos}
			if ss, ok := byPos[pos]; ok {
				cell.Seat = true
				cell.Status = ss.Status
				cell.Bookable = ss.Status.Bookable()
			}
			rows[r][c] = cell
		}
	}
	return &SeatMap{
		ShowID:    show.ID,
		ProgramID: st.ProgramID,
		Screen:    screen.Name,
		Price:     show.Price,
		Total:     st.Total,
		Rows:      rows,
		Flash:     st.PopFlash(),
	}, nil
}

// SeatSelection is the outcome of a seat step.
type SeatSelection struct {
	Tickets []model.Ticket  `json:"tickets"`
	Amount  decimal.Decimal `json:"amount"`
	Total   decimal.Decimal `json:"total"`
}

// ChooseSeats marks every position unavailable and creates one unpaid
// ticket per seat in a single transaction, then adds price times count to
// the session total.  An empty selection returns ErrNoSeatsSelected and
// leaves everything untouched; any taken or unknown seat rolls the whole
// selection back.
func (b *BookingService) ChooseSeats(ctx context.Context, st *wizard.State, positions []string) (*SeatSelection, error) {
	if err := st.Require(wizard.StageDateChosen); err != nil {
		return nil, err
	}
	positions = normalizePositions(positions)
	if len(positions) == 0 {
		return nil, ErrNoSeatsSelected
	}
	show, err := b.d.Shows.FindForSelection(ctx, st.MovieID, st.TheaterID, st.ProgramID)
	if err != nil {
		return nil, err
	}

	tickets := make([]model.Ticket, 0, len(positions))
	err = b.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		for _, pos := range positions {
			ss, err := b.d.ShowSeats.GetByPositionTx(ctx, tx, show.ID, st.ProgramID, pos)
			if errors.Is(err, repository.ErrShowSeatNotFound) {
				return fmt.Errorf("%w: %s", ErrSeatNotFound, pos)
			}
			if err != nil {
				return err
			}
			ok, err := b.d.ShowSeats.TransitionTx(ctx, tx, ss.ID, model.SeatAvailable, model.SeatUnavailable)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrSeatTaken, pos)
			}
			t := model.Ticket{
				Code:      uuid.NewString(),
				UserID:    st.UserID,
				ShowID:    show.ID,
				SeatID:    ss.SeatID,
				ProgramID: st.ProgramID,
			}
			if err := b.d.Tickets.CreateTx(ctx, tx, &t); err != nil {
				return fmt.Errorf("insert ticket: %w", err)
			}
			tickets = append(tickets, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	amount := show.Price.Mul(decimal.NewFromInt(int64(len(tickets))))
	if err := st.AddSeats(amount); err != nil {
		return nil, err
	}
	b.log.WithFields(logrus.Fields{
		"user_id": st.UserID, "show_id": show.ID, "program_id": st.ProgramID, "seats": len(tickets),
	}).Info("seats selected")
	return &SeatSelection{Tickets: tickets, Amount: amount, Total: st.Total}, nil
}

// Pay validates the card, then in one transaction records the masked
// payment, flips the user's unpaid tickets for the selection to paid and
// bills the order for exactly those tickets.  The order.paid event is
// published after the commit.
func (b *BookingService) Pay(ctx context.Context, st *wizard.State, card payment.Card) (*model.Order, error) {
	if err := st.Require(wizard.StageSeatsChosen); err != nil {
		return nil, err
	}
	if err := b.cards.Validate(&card); err != nil {
		return nil, err
	}
	show, err := b.d.Shows.FindForSelection(ctx, st.MovieID, st.TheaterID, st.ProgramID)
	if err != nil {
		return nil, err
	}

	pm := &model.Payment{
		Reference:  uuid.NewString(),
		CardBrand:  payment.Brand(card.Number),
		CardLast4:  payment.Last4(card.Number),
		CardExpiry: card.Expiry,
	}
	order := &model.Order{UserID: st.UserID, Total: st.Total}
	err = b.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := b.d.Payments.CreateTx(ctx, tx, pm); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		order.PaymentID = pm.ID
		if err := b.d.Orders.CreateTx(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		n, err := b.d.Tickets.MarkPaidTx(ctx, tx, st.UserID, show.ID, st.ProgramID, order.ID)
		if err != nil {
			return fmt.Errorf("mark tickets paid: %w", err)
		}
		if n == 0 {
			return ErrNothingToPay
		}
		order.Total = show.Price.Mul(decimal.NewFromInt(n))
		if err := b.d.Orders.SetTotalTx(ctx, tx, order.ID, order.Total); err != nil {
			return fmt.Errorf("set order total: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	paidAt := b.now()
	order.CreatedAt = paidAt
	pm.CreatedAt = paidAt
	order.Payment = pm
	if err := st.MarkPaid(); err != nil {
		return nil, err
	}

	paid, err := b.d.Tickets.ListPaid(ctx, st.UserID, show.ID, st.ProgramID)
	if err != nil {
		b.log.WithError(err).WithField("order_id", order.ID).Warn("load paid tickets")
	}
	for _, t := range paid {
		if t.OrderID != nil && *t.OrderID == order.ID {
			order.Tickets = append(order.Tickets, t)
		}
	}
	b.publish(ctx, order, show, st.ProgramID)
	b.log.WithFields(logrus.Fields{
		"user_id": st.UserID, "order_id": order.ID, "total": order.Total.StringFixed(2),
	}).Info("order paid")
	return order, nil
}

func (b *BookingService) publish(ctx context.Context, order *model.Order, show *model.Show, programID uint64) {
	if b.d.Publisher == nil {
		return
	}
	ev := queue.OrderPaidEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		ShowID:    show.ID,
		ProgramID: programID,
		Total:     order.Total.StringFixed(2),
		PaidAt:    order.CreatedAt.Format(time.RFC3339),
		Seats:     []string{},
	}
	for i, t := range order.Tickets {
		if i == 0 {
			ev.MovieName, ev.TheaterName, ev.ScreenName = t.MovieName, t.TheaterName, t.ScreenName
			ev.Day, ev.Hour = t.Program.Day.Format(model.DayLayout), t.Program.HourLabel()
		}
		ev.Seats = append(ev.Seats, t.Position)
		ev.TicketCodes = append(ev.TicketCodes, t.Code)
	}
	if b.d.Users != nil {
		if u, err := b.d.Users.GetByID(ctx, order.UserID); err == nil {
			ev.Email, ev.FullName = u.Email, u.FullName()
		} else {
			b.log.WithError(err).WithField("user_id", order.UserID).Warn("load user for order event")
		}
	}
	if err := b.d.Publisher.PublishOrderPaid(ctx, ev); err != nil {
		b.log.WithError(err).WithField("order_id", order.ID).Warn("publish order.paid")
	}
}

// MyTickets lists the user's paid tickets for the session's selection.
func (b *BookingService) MyTickets(ctx context.Context, st *wizard.State) ([]model.TicketDetail, error) {
	if err := st.Require(wizard.StageDateChosen); err != nil {
		return nil, err
	}
	show, err := b.d.Shows.FindForSelection(ctx, st.MovieID, st.TheaterID, st.ProgramID)
	if err != nil {
		return nil, err
	}
	return b.d.Tickets.ListPaid(ctx, st.UserID, show.ID, st.ProgramID)
}

// ReleaseStaleTickets deletes unpaid tickets older than maxAge and makes
// their seats available again.  It returns how many tickets were removed.
func (b *BookingService) ReleaseStaleTickets(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := b.now().Add(-maxAge)
	released := 0
	err := b.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		stale, err := b.d.Tickets.ListStaleUnpaidTx(ctx, tx, cutoff, limit)
		if err != nil {
			return err
		}
		ids := make([]uint64, 0, len(stale))
		for _, t := range stale {
			if err := b.d.ShowSeats.ReleaseTx(ctx, tx, t.ShowID, t.ProgramID, t.SeatID); err != nil {
				return fmt.Errorf("release seat %d: %w", t.SeatID, err)
			}
			ids = append(ids, t.ID)
		}
		n, err := b.d.Tickets.DeleteTx(ctx, tx, ids)
		released = int(n)
		return err
	})
	if err != nil {
		return 0, err
	}
	if released > 0 {
		b.log.WithField("tickets", released).Info("released stale unpaid tickets")
	}
	return released, nil
}

// normalizePositions canonicalizes "r,c" spellings to the stored "r, c"
// form, drops blanks and removes duplicates.
func normalizePositions(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if row, col, ok := strings.Cut(p, ","); ok {
			r, errR := strconv.Atoi(strings.TrimSpace(row))
			c, errC := strconv.Atoi(strings.TrimSpace(col))
			if errR == nil && errC == nil && r > 0 && c > 0 {
				p = seating.Position(r-1, c-1)
			}
		}
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
