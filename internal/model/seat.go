package model

import "time"

// Seat describes a physical seat on a screen.  Position is the
// "row, col" label of the pattern cell the seat was created from.
//
// Status is written as available when the seat is created and is not
// consulted afterwards; live availability is tracked per show on
// ShowSeat.
type Seat struct {
	ID        uint64     `json:"id"`       // seats.id
	ScreenID  uint64     `json:"screen_id"` // seats.screen_id
	Position  string     `json:"position"` // seats.position
	Status    SeatStatus `json:"status"`   // seats.status
	CreatedAt time.Time  `json:"created_at"`
}
