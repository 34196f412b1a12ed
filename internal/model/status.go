package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

// SeatStatus is the live state of a bookable seat.  The numeric values
// are persisted as-is in show_seats.status and must stay stable.
type SeatStatus uint8

const (
	SeatAvailable   SeatStatus = 1
	SeatReserved    SeatStatus = 2
	SeatUnavailable SeatStatus = 3
)

// ErrInvalidSeatStatus is returned when a value outside {1,2,3} is parsed.
var ErrInvalidSeatStatus = errors.New("invalid seat status")

// ParseSeatStatus converts a stored code into a SeatStatus.
func ParseSeatStatus(code int64) (SeatStatus, error) {
	switch s := SeatStatus(code); s {
	case SeatAvailable, SeatReserved, SeatUnavailable:
		return s, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidSeatStatus, code)
}

// String returns the lower-case label used in API responses.
func (s SeatStatus) String() string {
	switch s {
	case SeatAvailable:
		return "available"
	case SeatReserved:
		return "reserved"
	case SeatUnavailable:
		return "unavailable"
	default:
		return "SeatStatus(" + strconv.Itoa(int(s)) + ")"
	}
}

// Bookable reports whether a seat in this state may be selected.
func (s SeatStatus) Bookable() bool {
	switch s {
	case SeatAvailable:
		return true
	case SeatReserved, SeatUnavailable:
		return false
	default:
		return false
	}
}

// MarshalText renders the status as its label so JSON carries strings.
func (s SeatStatus) MarshalText() ([]byte, error) {
	switch s {
	case SeatAvailable, SeatReserved, SeatUnavailable:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeatStatus, uint8(s))
	}
}

// Value implements driver.Valuer.
func (s SeatStatus) Value() (driver.Value, error) {
	if _, err := ParseSeatStatus(int64(s)); err != nil {
		return nil, err
	}
	return int64(s), nil
}

// Scan implements sql.Scanner.  MySQL returns TINYINT as int64 or, for
// some column types, as a byte slice.
func (s *SeatStatus) Scan(src any) error {
	var code int64
	switch v := src.(type) {
	case int64:
		code = v
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSeatStatus, v)
		}
		code = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSeatStatus, v)
		}
		code = n
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidSeatStatus, src)
	}
	parsed, err := ParseSeatStatus(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
