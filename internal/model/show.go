package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Show ties a movie to a theater screen at a price and runs at one or
// more programs.  The screen always belongs to the theater.
type Show struct {
	ID        uint64          `json:"id"`         // shows.id
	MovieID   uint64          `json:"movie_id"`   // shows.movie_id
	TheaterID uint64          `json:"theater_id"` // shows.theater_id
	ScreenID  uint64          `json:"screen_id"`  // shows.screen_id
	Price     decimal.Decimal `json:"price"`      // shows.price
	Programs  []Program       `json:"programs"`   // show_programs
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ShowListing is a show joined with the names a browsing client needs.
type ShowListing struct {
	Show
	MovieName   string `json:"movie_name"`
	MovieSlug   string `json:"movie_slug"`
	TheaterName string `json:"theater_name"`
	City        string `json:"city"`
	ScreenName  string `json:"screen_name"`
}

// ScheduledShow is the slice of an existing show the scheduling rules look
// at: how long its movie runs and which programs it occupies.
type ScheduledShow struct {
	ShowID      uint64
	DurationMin int
	Programs    []Program
}
