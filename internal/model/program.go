package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DayLayout is the wire and storage format of Program.Day.
const DayLayout = "2006-01-02"

// ErrInvalidClock is returned when a time-of-day string cannot be parsed.
var ErrInvalidClock = errors.New("invalid time of day")

// Program is a reusable (day, hour) slot.  Day is midnight UTC of the
// calendar day and Hour is the offset from that midnight.
type Program struct {
	ID   uint64
	Day  time.Time
	Hour time.Duration
}

// StartsAt returns the absolute start of the slot.
func (p Program) StartsAt() time.Time { return p.Day.Add(p.Hour) }

// HourLabel formats Hour as HH:MM.
func (p Program) HourLabel() string { return FormatClock(p.Hour)[:5] }

// SameDay reports whether both programs fall on the same calendar day.
func (p Program) SameDay(o Program) bool {
	y1, m1, d1 := p.Day.Date()
	y2, m2, d2 := o.Day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// MarshalJSON renders the program as {"id","day","hour"}.
func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   uint64 `json:"id"`
		Day  string `json:"day"`
		Hour string `json:"hour"`
	}{p.ID, p.Day.Format(DayLayout), p.HourLabel()})
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	var t time.Time
	var err error
	switch len(s) {
	case 5:
		t, err = time.Parse("15:04", s)
	case 8:
		t, err = time.Parse("15:04:05", s)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// FormatClock renders an offset from midnight as HH:MM:SS, the format
// MySQL accepts for TIME columns.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// ParseDay parses a YYYY-MM-DD string into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

// DayOf truncates t to midnight UTC of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
