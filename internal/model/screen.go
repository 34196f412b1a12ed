package model

import "time"

// Screen is an auditorium inside a theater.  Its seat counts are derived
// from the seating pattern when the screen is created and are never
// authored directly.
type Screen struct {
	ID             uint64    `json:"id"`
	TheaterID      uint64    `json:"theater_id"`
	Name           string    `json:"name"`
	SeatingPattern string    `json:"seating_pattern"`
	NoRows         int       `json:"no_rows"`
	NoCols         int       `json:"no_cols"`
	NoSeats        int       `json:"no_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
