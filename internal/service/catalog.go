package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/seating"
)

// CatalogDeps bundles the stores CatalogService writes through.
type CatalogDeps struct {
	Tx        TxRunner
	Theaters  TheaterLookup
	Screens   ScreenStore
	Seats     SeatStore
	Movies    MovieLookup
	Programs  ProgramLookup
	Shows     ShowStore
	ShowSeats ShowSeatWriter
}

// CatalogService materializes seats when screens are created and show
// seats when programs are attached to shows.  Both happen in the same
// transaction as the triggering write.
type CatalogService struct {
	d        CatalogDeps
	ceiling  decimal.Decimal
	patterns func(name string) (seating.Pattern, error)
	log      logrus.FieldLogger
}

func NewCatalogService(d CatalogDeps, priceCeiling decimal.Decimal, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{d: d, ceiling: priceCeiling, patterns: seating.Lookup, log: log}
}

// NewScreen is the input of CreateScreen.
type NewScreen struct {
	TheaterID      uint64
	Name           string
	SeatingPattern string
}

// CreateScreen inserts the screen, one seat per seat-bearing cell of its
// pattern, and the derived counts.  An unknown pattern persists nothing.
func (s *CatalogService) CreateScreen(ctx context.Context, in NewScreen) (*model.Screen, error) {
	if _, err := s.d.Theaters.GetByID(ctx, in.TheaterID); err != nil {
		return nil, err
	}
	pattern, err := s.patterns(in.SeatingPattern)
	if err != nil {
		return nil, err
	}

	sc := &model.Screen{TheaterID: in.TheaterID, Name: in.Name, SeatingPattern: in.SeatingPattern}
	err = s.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.d.Screens.CreateTx(ctx, tx, sc); err != nil {
			return fmt.Errorf("insert screen: %w", err)
		}
		cells := pattern.Cells()
		seats := make([]model.Seat, 0, len(cells))
		for _, c := range cells {
			seats = append(seats, model.Seat{ScreenID: sc.ID, Position: c.Position, Status: model.SeatAvailable})
		}
		if err := s.d.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
			return fmt.Errorf("insert seats: %w", err)
		}
		sc.NoRows, sc.NoCols, sc.NoSeats = pattern.Rows(), pattern.Cols(), len(seats)
		return s.d.Screens.UpdateCountsTx(ctx, tx, sc.ID, sc.NoRows, sc.NoCols, sc.NoSeats)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"screen_id": sc.ID, "pattern": sc.SeatingPattern, "seats": sc.NoSeats}).
		Info("screen created")
	return sc, nil
}

// CreateShow validates the draft against the screen's schedule and, when
// it passes, inserts the show and materializes its show seats.
func (s *CatalogService) CreateShow(ctx context.Context, d ShowDraft) (*model.Show, error) {
	d.ShowID = 0
	movie, screen, programs, err := s.loadDraft(ctx, d, d.ScreenID)
	if err != nil {
		return nil, err
	}
	existing, err := s.d.Shows.ListScheduledOnScreen(ctx, screen.ID, programDays(programs), 0)
	if err != nil {
		return nil, fmt.Errorf("load screen schedule: %w", err)
	}
	if err := ValidateShow(d, programs, movie, screen, existing, s.ceiling); err != nil {
		return nil, err
	}

	show := &model.Show{MovieID: d.MovieID, TheaterID: d.TheaterID, ScreenID: screen.ID, Price: d.Price}
	err = s.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.d.Shows.CreateTx(ctx, tx, show); err != nil {
			return fmt.Errorf("insert show: %w", err)
		}
		_, err := s.AttachPrograms(ctx, tx, show, programIDs(programs))
		return err
	})
	if err != nil {
		return nil, err
	}
	show.Programs = programs
	s.log.WithFields(logrus.Fields{"show_id": show.ID, "programs": len(programs)}).Info("show created")
	return show, nil
}

// UpdateShow revalidates and rewrites a show.  The screen cannot change;
// programs no longer listed are unlinked and new ones are attached.
func (s *CatalogService) UpdateShow(ctx context.Context, d ShowDraft) (*model.Show, error) {
	current, err := s.d.Shows.GetByID(ctx, d.ShowID)
	if err != nil {
		return nil, err
	}
	if d.ScreenID != 0 && d.ScreenID != current.ScreenID {
		return nil, reject(RuleScreenFixed, "The screen of an existing show cannot be changed.")
	}
	d.ScreenID = current.ScreenID
	movie, screen, programs, err := s.loadDraft(ctx, d, current.ScreenID)
	if err != nil {
		return nil, err
	}
	existing, err := s.d.Shows.ListScheduledOnScreen(ctx, screen.ID, programDays(programs), d.ShowID)
	if err != nil {
		return nil, fmt.Errorf("load screen schedule: %w", err)
	}
	if err := ValidateShow(d, programs, movie, screen, existing, s.ceiling); err != nil {
		return nil, err
	}

	show := &model.Show{ID: current.ID, MovieID: d.MovieID, TheaterID: d.TheaterID, ScreenID: current.ScreenID,
		Price: d.Price, CreatedAt: current.CreatedAt}
	wanted := programIDs(programs)
	err = s.d.Tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.d.Shows.UpdateTx(ctx, tx, show); err != nil {
			return fmt.Errorf("update show: %w", err)
		}
		linked, err := s.d.Shows.ProgramIDsTx(ctx, tx, show.ID)
		if err != nil {
			return err
		}
		if err := s.d.Shows.UnlinkProgramsTx(ctx, tx, show.ID, minus(linked, wanted)); err != nil {
			return fmt.Errorf("unlink programs: %w", err)
		}
		_, err = s.AttachPrograms(ctx, tx, show, wanted)
		return err
	})
	if err != nil {
		return nil, err
	}
	show.Programs = programs
	return show, nil
}

// AttachPrograms links the programs not yet linked to the show and creates
// one available show seat per current seat of the show's screen for each of
// them.  It returns the ids that were newly attached.
func (s *CatalogService) AttachPrograms(ctx context.Context, tx *sql.Tx, show *model.Show, ids []uint64) ([]uint64, error) {
	linked, err := s.d.Shows.ProgramIDsTx(ctx, tx, show.ID)
	if err != nil {
		return nil, fmt.Errorf("load linked programs: %w", err)
	}
	fresh := minus(dedupe(ids), linked)
	if len(fresh) == 0 {
		return nil, nil
	}
	if err := s.d.Shows.LinkProgramsTx(ctx, tx, show.ID, fresh); err != nil {
		return nil, fmt.Errorf("link programs: %w", err)
	}
	seats, err := s.d.Seats.ListByScreenTx(ctx, tx, show.ScreenID)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	showSeats := make([]model.ShowSeat, 0, len(seats)*len(fresh))
	for _, pid := range fresh {
		for _, seat := range seats {
			showSeats = append(showSeats, model.ShowSeat{
				SeatID:    seat.ID,
				ShowID:    show.ID,
				ProgramID: pid,
				Status:    model.SeatAvailable,
				Position:  seat.Position,
			})
		}
	}
	if err := s.d.ShowSeats.CreateBulkTx(ctx, tx, showSeats); err != nil {
		return nil, fmt.Errorf("insert show seats: %w", err)
	}
	return fresh, nil
}

func (s *CatalogService) loadDraft(ctx context.Context, d ShowDraft, screenID uint64) (*model.Movie, *model.Screen, []model.Program, error) {
	movie, err := s.d.Movies.GetByID(ctx, d.MovieID)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := s.d.Theaters.GetByID(ctx, d.TheaterID); err != nil {
		return nil, nil, nil, err
	}
	screen, err := s.d.Screens.GetByID(ctx, screenID)
	if err != nil {
		return nil, nil, nil, err
	}
	ids := dedupe(d.ProgramIDs)
	programs, err := s.d.Programs.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(programs) != len(ids) {
		return nil, nil, nil, repository.ErrProgramNotFound
	}
	return movie, screen, programs, nil
}

func programIDs(programs []model.Program) []uint64 {
	out := make([]uint64, len(programs))
	for i, p := range programs {
		out[i] = p.ID
	}
	return out
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// minus returns the ids of a that are not in b, keeping a's order.
func minus(a, b []uint64) []uint64 {
	drop := make(map[uint64]bool, len(b))
	for _, id := range b {
		drop[id] = true
	}
	var out []uint64
	for _, id := range a {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
