// Package wizard models the booking wizard as a typed state record kept
// server-side between requests.
package wizard

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is how far a session has progressed.
type Stage uint8

const (
	StageStart Stage = iota
	StageMovieChosen
	StageTheaterChosen
	StageDateChosen
	StageSeatsChosen
	StagePaid
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageMovieChosen:
		return "movie_chosen"
	case StageTheaterChosen:
		return "theater_chosen"
	case StageDateChosen:
		return "date_chosen"
	case StageSeatsChosen:
		return "seats_chosen"
	case StagePaid:
		return "paid"
	default:
		return "unknown"
	}
}

// MarshalText keeps the stage readable in stored JSON and responses.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a label written by MarshalText.
func (s *Stage) UnmarshalText(b []byte) error {
	for st := StageStart; st <= StagePaid; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return errors.New("wizard: unknown stage " + string(b))
}

// ErrStageOutOfOrder is returned when a step is entered before the
// selections it depends on exist.
var ErrStageOutOfOrder = errors.New("booking step out of order")

// State is one user's progress through the wizard.
type State struct {
	SessionID string          `json:"session_id"`
	UserID    uint64          `json:"user_id"`
	Stage     Stage           `json:"stage"`
	MovieID   uint64          `json:"movie_id,omitempty"`
	TheaterID uint64          `json:"theater_id,omitempty"`
	ProgramID uint64          `json:"program_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Flash     string          `json:"flash,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New starts a fresh session for userID.
func New(userID uint64) *State {
	return &State{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Stage:     StageStart,
		Total:     decimal.Zero,
	}
}

// Has reports whether the selections required to be at stage st are
// present.
func (s *State) Has(st Stage) bool {
	switch st {
	case StageStart:
		return true
	case StageMovieChosen:
		return s.MovieID != 0
	case StageTheaterChosen:
		return s.MovieID != 0 && s.TheaterID != 0
	case StageDateChosen:
		return s.MovieID != 0 && s.TheaterID != 0 && s.ProgramID != 0
	case StageSeatsChosen:
		return s.Has(StageDateChosen) && s.Stage == StageSeatsChosen
	case StagePaid:
		return s.Has(StageDateChosen) && s.Stage == StagePaid
	default:
		return false
	}
}

// Require returns ErrStageOutOfOrder unless Has(st).
func (s *State) Require(st Stage) error {
	if !s.Has(st) {
		return ErrStageOutOfOrder
	}
	return nil
}

// ChooseMovie records the movie and clears every later selection.
func (s *State) ChooseMovie(movieID uint64) {
	s.MovieID = movieID
	s.TheaterID = 0
	s.ProgramID = 0
	s.Total = decimal.Zero
	s.Stage = StageMovieChosen
}

// ChooseTheater records the theater and clears the date.
func (s *State) ChooseTheater(theaterID uint64) error {
	if err := s.Require(StageMovieChosen); err != nil {
		return err
	}
	s.TheaterID = theaterID
	s.ProgramID = 0
	s.Total = decimal.Zero
	s.Stage = StageTheaterChosen
	return nil
}

// ChooseDate records the program.
func (s *State) ChooseDate(programID uint64) error {
	if err := s.Require(StageTheaterChosen); err != nil {
		return err
	}
	s.ProgramID = programID
	s.Total = decimal.Zero
	s.Stage = StageDateChosen
	return nil
}

// AddSeats adds amount to the running total.  Repeated seat submissions
// for the same program accumulate.
func (s *State) AddSeats(amount decimal.Decimal) error {
	if err := s.Require(StageDateChosen); err != nil {
		return err
	}
	if s.Stage == StagePaid {
		s.Total = decimal.Zero
	}
	s.Total = s.Total.Add(amount)
	s.Stage = StageSeatsChosen
	return nil
}

// MarkPaid closes the checkout; the selections stay so the tickets can
// still be listed.
func (s *State) MarkPaid() error {
	if err := s.Require(StageSeatsChosen); err != nil {
		return err
	}
	s.Total = decimal.Zero
	s.Stage = StagePaid
	return nil
}

// PushFlash queues a one-shot message for the next read of the step.
func (s *State) PushFlash(msg string) { s.Flash = msg }

// PopFlash returns and clears the pending message.
func (s *State) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}
