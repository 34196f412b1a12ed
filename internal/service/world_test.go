package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/payment"
	"github.com/katmem/ticket-please/internal/seating"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// tinyPattern is the 2x2 grid with the top-right cell empty.
var tinyPattern = seating.Pattern{{true, false}, {true, true}}

func testPatterns(name string) (seating.Pattern, error) {
	if name == "tiny" {
		return tinyPattern, nil
	}
	return seating.Lookup(name)
}

type world struct {
	db        *fakeDB
	catalog   *CatalogService
	booking   *BookingService
	publisher *mockPublisher
	hook      *test.Hook
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := newFakeDB(testNow)
	logger, hook := test.NewNullLogger()
	pub := &mockPublisher{}

	catalog := NewCatalogService(CatalogDeps{
		Tx:        fakeTx{db},
		Theaters:  fakeTheaters{db},
		Screens:   fakeScreens{db},
		Seats:     fakeSeats{db},
		Movies:    fakeMovies{db},
		Programs:  fakePrograms{db},
		Shows:     fakeShows{db},
		ShowSeats: fakeShowSeats{db},
	}, decimal.NewFromInt(15), logger)
	catalog.patterns = testPatterns

	booking := NewBookingService(BookingDeps{
		Tx:        fakeTx{db},
		Movies:    fakeMovies{db},
		Theaters:  fakeTheaters{db},
		Programs:  fakePrograms{db},
		Shows:     fakeShows{db},
		Screens:   fakeScreens{db},
		ShowSeats: fakeShowSeats{db},
		Tickets:   fakeTickets{db},
		Payments:  fakePayments{db},
		Orders:    fakeOrders{db},
		Users:     fakeUsers{db},
		Publisher: pub,
	}, 7, payment.NewValidator(func() time.Time { return testNow }), logger)
	booking.patterns = testPatterns
	booking.now = func() time.Time { return testNow }

	return &world{db: db, catalog: catalog, booking: booking, publisher: pub, hook: hook}
}

func (w *world) theater(name string) uint64 {
	id := w.db.id()
	w.db.theaters[id] = model.Theater{ID: id, Name: name, City: "Leeds"}
	return id
}

func (w *world) movie(name string, minutes int) uint64 {
	id := w.db.id()
	w.db.movies[id] = model.Movie{ID: id, Name: name, DurationMin: minutes}
	return id
}

func (w *world) program(daysFromNow int, hour time.Duration) uint64 {
	id := w.db.id()
	w.db.programs[id] = model.Program{ID: id, Day: model.DayOf(testNow).AddDate(0, 0, daysFromNow), Hour: hour}
	return id
}

func (w *world) user(email string) uint64 {
	id := w.db.id()
	w.db.users[id] = model.User{ID: id, Email: email, Username: "viewer", FirstName: "Ada", LastName: "Byron"}
	return id
}

func (w *world) screen(t *testing.T, theaterID uint64, pattern string) *model.Screen {
	t.Helper()
	sc, err := w.catalog.CreateScreen(context.Background(), NewScreen{TheaterID: theaterID, Name: "Screen 1", SeatingPattern: pattern})
	require.NoError(t, err)
	return sc
}

func (w *world) show(t *testing.T, movieID, theaterID, screenID uint64, price string, programs ...uint64) *model.Show {
	t.Helper()
	s, err := w.catalog.CreateShow(context.Background(), ShowDraft{
		MovieID: movieID, TheaterID: theaterID, ScreenID: screenID,
		Price: decimal.RequireFromString(price), ProgramIDs: programs,
	})
	require.NoError(t, err)
	return s
}
