package model

// ShowSeat is the bookable unit: one seat for one show at one program.
// There is exactly one row per (seat, show, program), created when the
// program is attached to the show.
//
// Fields:
//  ID        – primary key identifier.
//  SeatID    – the physical seat.
//  ShowID    – the show this availability belongs to.
//  ProgramID – the time slot this availability belongs to.
//  Status    – live status, one of the SeatStatus values.
//  Position  – copy of the seat position for display.
type ShowSeat struct {
	ID        uint64     `json:"id"`         // show_seats.id
	SeatID    uint64     `json:"seat_id"`    // show_seats.seat_id
	ShowID    uint64     `json:"show_id"`    // show_seats.show_id
	ProgramID uint64     `json:"program_id"` // show_seats.program_id
	Status    SeatStatus `json:"status"`     // show_seats.status
	Position  string     `json:"position"`   // show_seats.position
}
