package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/queue"
	"github.com/katmem/ticket-please/internal/repository"
)

// fakeDB is an in-memory stand-in for the MySQL schema.  fakeTx snapshots
// it before a transaction and restores the snapshot on error.
type fakeDB struct {
	theaters  map[uint64]model.Theater
	screens   map[uint64]model.Screen
	seats     []model.Seat
	movies    map[uint64]model.Movie
	programs  map[uint64]model.Program
	shows     map[uint64]model.Show
	links     map[uint64][]uint64
	showSeats []model.ShowSeat
	tickets   []model.Ticket
	payments  []model.Payment
	orders    []model.Order
	users     map[uint64]model.User
	nextID    uint64
	now       time.Time
}

func newFakeDB(now time.Time) *fakeDB {
	return &fakeDB{
		theaters: map[uint64]model.Theater{},
		screens:  map[uint64]model.Screen{},
		movies:   map[uint64]model.Movie{},
		programs: map[uint64]model.Program{},
		shows:    map[uint64]model.Show{},
		links:    map[uint64][]uint64{},
		users:    map[uint64]model.User{},
		now:      now,
	}
}

func (f *fakeDB) id() uint64 { f.nextID++; return f.nextID }

func (f *fakeDB) clone() fakeDB {
	c := *f
	c.theaters = cloneMap(f.theaters)
	c.screens = cloneMap(f.screens)
	c.movies = cloneMap(f.movies)
	c.programs = cloneMap(f.programs)
	c.shows = cloneMap(f.shows)
	c.users = cloneMap(f.users)
	c.links = map[uint64][]uint64{}
	for k, v := range f.links {
		c.links[k] = append([]uint64(nil), v...)
	}
	c.seats = append([]model.Seat(nil), f.seats...)
	c.showSeats = append([]model.ShowSeat(nil), f.showSeats...)
	c.tickets = append([]model.Ticket(nil), f.tickets...)
	c.payments = append([]model.Payment(nil), f.payments...)
	c.orders = append([]model.Order(nil), f.orders...)
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeDB) linked(showID, programID uint64) bool {
	for _, id := range f.links[showID] {
		if id == programID {
			return true
		}
	}
	return false
}

func inWindow(d, from, to time.Time) bool { return !d.Before(from) && !d.After(to) }

type fakeTx struct{ db *fakeDB }

func (t fakeTx) WithinTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	snap := t.db.clone()
	if err := fn(nil); err != nil {
		*t.db = snap
		return err
	}
	return nil
}

type fakeTheaters struct{ *fakeDB }

func (f fakeTheaters) GetByID(_ context.Context, id uint64) (*model.Theater, error) {
	t, ok := f.theaters[id]
	if !ok {
		return nil, repository.ErrTheaterNotFound
	}
	return &t, nil
}

func (f fakeTheaters) ListHostingMovie(_ context.Context, movieID uint64, from, to time.Time) ([]model.Theater, error) {
	seen := map[uint64]bool{}
	var out []model.Theater
	for _, s := range f.shows {
		if s.MovieID != movieID || seen[s.TheaterID] {
			continue
		}
		for _, pid := range f.links[s.ID] {
			if inWindow(f.programs[pid].Day, from, to) {
				seen[s.TheaterID] = true
				out = append(out, f.theaters[s.TheaterID])
				break
			}
		}
	}
	return out, nil
}

type fakeScreens struct{ *fakeDB }

func (f fakeScreens) CreateTx(_ context.Context, _ *sql.Tx, sc *model.Screen) error {
	sc.ID = f.id()
	f.screens[sc.ID] = *sc
	return nil
}

func (f fakeScreens) UpdateCountsTx(_ context.Context, _ *sql.Tx, id uint64, rows, cols, seats int) error {
	sc, ok := f.screens[id]
	if !ok {
		return repository.ErrScreenNotFound
	}
	sc.NoRows, sc.NoCols, sc.NoSeats = rows, cols, seats
	f.screens[id] = sc
	return nil
}

func (f fakeScreens) GetByID(_ context.Context, id uint64) (*model.Screen, error) {
	sc, ok := f.screens[id]
	if !ok {
		return nil, repository.ErrScreenNotFound
	}
	return &sc, nil
}

type fakeSeats struct{ *fakeDB }

func (f fakeSeats) CreateBulkTx(_ context.Context, _ *sql.Tx, seats []model.Seat) error {
	for _, s := range seats {
		s.ID = f.id()
		f.fakeDB.seats = append(f.fakeDB.seats, s)
	}
	return nil
}

func (f fakeSeats) ListByScreenTx(_ context.Context, _ *sql.Tx, screenID uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, s := range f.fakeDB.seats {
		if s.ScreenID == screenID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMovies struct{ *fakeDB }

func (f fakeMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &m, nil
}

func (f fakeMovies) ListShowingBetween(_ context.Context, from, to time.Time) ([]model.Movie, error) {
	seen := map[uint64]bool{}
	var out []model.Movie
	for _, s := range f.shows {
		if seen[s.MovieID] {
			continue
		}
		for _, pid := range f.links[s.ID] {
			if inWindow(f.programs[pid].Day, from, to) {
				seen[s.MovieID] = true
				out = append(out, f.movies[s.MovieID])
				break
			}
		}
	}
	return out, nil
}

type fakePrograms struct{ *fakeDB }

func (f fakePrograms) ListByIDs(_ context.Context, ids []uint64) ([]model.Program, error) {
	var out []model.Program
	for _, id := range ids {
		if p, ok := f.programs[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePrograms) ListForMovieAtTheater(_ context.Context, movieID, theaterID uint64, from, to time.Time) ([]model.Program, error) {
	seen := map[uint64]bool{}
	var out []model.Program
	for _, s := range f.shows {
		if s.MovieID != movieID || s.TheaterID != theaterID {
			continue
		}
		for _, pid := range f.links[s.ID] {
			p := f.programs[pid]
			if !seen[pid] && inWindow(p.Day, from, to) {
				seen[pid] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt().Before(out[j].StartsAt()) })
	return out, nil
}

type fakeShows struct{ *fakeDB }

func (f fakeShows) CreateTx(_ context.Context, _ *sql.Tx, s *model.Show) error {
	s.ID = f.id()
	f.shows[s.ID] = *s
	return nil
}

func (f fakeShows) UpdateTx(_ context.Context, _ *sql.Tx, s *model.Show) error {
	if _, ok := f.shows[s.ID]; !ok {
		return repository.ErrShowNotFound
	}
	f.shows[s.ID] = *s
	return nil
}

func (f fakeShows) GetByID(_ context.Context, id uint64) (*model.Show, error) {
	s, ok := f.shows[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	return &s, nil
}

func (f fakeShows) ProgramIDsTx(_ context.Context, _ *sql.Tx, showID uint64) ([]uint64, error) {
	return append([]uint64(nil), f.links[showID]...), nil
}

func (f fakeShows) LinkProgramsTx(_ context.Context, _ *sql.Tx, showID uint64, ids []uint64) error {
	f.links[showID] = append(f.links[showID], ids...)
	return nil
}

func (f fakeShows) UnlinkProgramsTx(_ context.Context, _ *sql.Tx, showID uint64, ids []uint64) error {
	f.links[showID] = minus(f.links[showID], ids)
	return nil
}

func (f fakeShows) ListScheduledOnScreen(_ context.Context, screenID uint64, days []time.Time, exclude uint64) ([]model.ScheduledShow, error) {
	var out []model.ScheduledShow
	for _, s := range f.shows {
		if s.ScreenID != screenID || s.ID == exclude {
			continue
		}
		ss := model.ScheduledShow{ShowID: s.ID, DurationMin: f.movies[s.MovieID].DurationMin}
		for _, pid := range f.links[s.ID] {
			p := f.programs[pid]
			for _, d := range days {
				if p.Day.Equal(d) {
					ss.Programs = append(ss.Programs, p)
				}
			}
		}
		if len(ss.Programs) > 0 {
			out = append(out, ss)
		}
	}
	return out, nil
}

func (f fakeShows) FindForSelection(_ context.Context, movieID, theaterID, programID uint64) (*model.Show, error) {
	var best *model.Show
	for _, s := range f.shows {
		if s.MovieID == movieID && s.TheaterID == theaterID && f.linked(s.ID, programID) {
			if best == nil || s.ID < best.ID {
				s := s
				best = &s
			}
		}
	}
	if best == nil {
		return nil, repository.ErrShowNotFound
	}
	return best, nil
}

type fakeShowSeats struct{ *fakeDB }

// CreateBulkTx skips existing (show, program, seat) rows like INSERT IGNORE.
func (f fakeShowSeats) CreateBulkTx(_ context.Context, _ *sql.Tx, seats []model.ShowSeat) error {
	for _, ss := range seats {
		if f.find(ss.ShowID, ss.ProgramID, func(x model.ShowSeat) bool { return x.SeatID == ss.SeatID }) >= 0 {
			continue
		}
		ss.ID = f.id()
		f.showSeats = append(f.showSeats, ss)
	}
	return nil
}

func (f fakeShowSeats) find(showID, programID uint64, match func(model.ShowSeat) bool) int {
	for i, x := range f.showSeats {
		if x.ShowID == showID && x.ProgramID == programID && match(x) {
			return i
		}
	}
	return -1
}

func (f fakeShowSeats) ListByShowProgram(_ context.Context, showID, programID uint64) ([]model.ShowSeat, error) {
	var out []model.ShowSeat
	for _, x := range f.showSeats {
		if x.ShowID == showID && x.ProgramID == programID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f fakeShowSeats) GetByPositionTx(_ context.Context, _ *sql.Tx, showID, programID uint64, pos string) (*model.ShowSeat, error) {
	i := f.find(showID, programID, func(x model.ShowSeat) bool { return x.Position == pos })
	if i < 0 {
		return nil, repository.ErrShowSeatNotFound
	}
	ss := f.showSeats[i]
	return &ss, nil
}

func (f fakeShowSeats) TransitionTx(_ context.Context, _ *sql.Tx, id uint64, from, to model.SeatStatus) (bool, error) {
	for i := range f.showSeats {
		if f.showSeats[i].ID == id && f.showSeats[i].Status == from {
			f.showSeats[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f fakeShowSeats) ReleaseTx(_ context.Context, _ *sql.Tx, showID, programID, seatID uint64) error {
	i := f.find(showID, programID, func(x model.ShowSeat) bool { return x.SeatID == seatID })
	if i >= 0 && f.showSeats[i].Status == model.SeatUnavailable {
		f.showSeats[i].Status = model.SeatAvailable
	}
	return nil
}

func (f fakeShowSeats) status(showID, programID uint64, pos string) model.SeatStatus {
	i := f.find(showID, programID, func(x model.ShowSeat) bool { return x.Position == pos })
	if i < 0 {
		return 0
	}
	return f.showSeats[i].Status
}

type fakeTickets struct{ *fakeDB }

func (f fakeTickets) CreateTx(_ context.Context, _ *sql.Tx, t *model.Ticket) error {
	t.ID = f.id()
	t.CreatedAt = f.now
	f.tickets = append(f.tickets, *t)
	return nil
}

func (f fakeTickets) MarkPaidTx(_ context.Context, _ *sql.Tx, userID, showID, programID, orderID uint64) (int64, error) {
	var n int64
	for i := range f.tickets {
		t := &f.tickets[i]
		if t.UserID == userID && t.ShowID == showID && t.ProgramID == programID && !t.Paid {
			oid := orderID
			t.Paid, t.OrderID = true, &oid
			n++
		}
	}
	return n, nil
}

func (f fakeTickets) ListPaid(_ context.Context, userID, showID, programID uint64) ([]model.TicketDetail, error) {
	out := []model.TicketDetail{}
	for _, t := range f.tickets {
		if t.UserID != userID || t.ShowID != showID || t.ProgramID != programID || !t.Paid {
			continue
		}
		show := f.shows[t.ShowID]
		d := model.TicketDetail{
			Ticket:      t,
			MovieName:   f.movies[show.MovieID].Name,
			TheaterName: f.theaters[show.TheaterID].Name,
			ScreenName:  f.screens[show.ScreenID].Name,
			Program:     f.programs[t.ProgramID],
			Price:       show.Price,
		}
		for _, s := range f.fakeDB.seats {
			if s.ID == t.SeatID {
				d.Position = s.Position
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (f fakeTickets) ListStaleUnpaidTx(_ context.Context, _ *sql.Tx, cutoff time.Time, limit int) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range f.tickets {
		if !t.Paid && t.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTickets) DeleteTx(_ context.Context, _ *sql.Tx, ids []uint64) (int64, error) {
	drop := map[uint64]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.tickets[:0]
	var n int64
	for _, t := range f.tickets {
		if drop[t.ID] && !t.Paid {
			n++
			continue
		}
		kept = append(kept, t)
	}
	f.tickets = kept
	return n, nil
}

type fakePayments struct{ *fakeDB }

func (f fakePayments) CreateTx(_ context.Context, _ *sql.Tx, p *model.Payment) error {
	p.ID = f.id()
	f.payments = append(f.payments, *p)
	return nil
}

type fakeOrders struct{ *fakeDB }

func (f fakeOrders) CreateTx(_ context.Context, _ *sql.Tx, o *model.Order) error {
	o.ID = f.id()
	f.orders = append(f.orders, *o)
	return nil
}

func (f fakeOrders) SetTotalTx(_ context.Context, _ *sql.Tx, id uint64, total decimal.Decimal) error {
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Total = total
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

type fakeUsers struct{ *fakeDB }

func (f fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishOrderPaid(ctx context.Context, ev queue.OrderPaidEvent) error {
	return m.Called(ctx, ev).Error(0)
}
