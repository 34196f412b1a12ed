package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/katmem/ticket-please/internal/model"
)

// ChangeoverBuffer is added after every screening before the screen is
// considered free again.
const ChangeoverBuffer = 30 * time.Minute

// Rule codes carried by RuleError.
const (
	RulePriceCeiling  = "price_ceiling"
	RuleScreenTheater = "screen_theater"
	RuleOverlap       = "overlap"
	RuleSameSlot      = "same_slot"
	RuleScreenFixed   = "screen_fixed"
)

// RuleError is a business-rule rejection with a message meant for the
// person editing the schedule.
type RuleError struct {
	Rule    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func reject(rule, msg string) *RuleError { return &RuleError{Rule: rule, Message: msg} }

// ShowDraft is a show as submitted for creation or update.  ShowID is zero
// for a new show.
type ShowDraft struct {
	ShowID     uint64
	MovieID    uint64
	TheaterID  uint64
	ScreenID   uint64
	Price      decimal.Decimal
	ProgramIDs []uint64
}

// ValidateShow applies the scheduling rules to a draft in order and
// returns the first violation as a *RuleError, or nil.  programs are the
// draft's programs; existing are the other shows on the screen with their
// programs on the affected days.
func ValidateShow(draft ShowDraft, programs []model.Program, movie *model.Movie, screen *model.Screen,
	existing []model.ScheduledShow, ceiling decimal.Decimal) error {

	if draft.Price.GreaterThan(ceiling) {
		return reject(RulePriceCeiling, "Price must not exceed "+ceiling.StringFixed(2)+".")
	}
	if screen.TheaterID != draft.TheaterID {
		return reject(RuleScreenTheater, "Screen does not belong to the selected theater.")
	}

	length := occupancy(movie.DurationMin)
	for _, p := range programs {
		for _, other := range existing {
			if other.ShowID == draft.ShowID && draft.ShowID != 0 {
				continue
			}
			otherLength := occupancy(other.DurationMin)
			for _, op := range other.Programs {
				if !p.SameDay(op) {
					continue
				}
				if overlaps(p.Hour, p.Hour+length, op.Hour, op.Hour+otherLength) {
					return reject(RuleOverlap, "Movie overlaps with another movie.")
				}
			}
		}
	}

	for _, p := range programs {
		for _, other := range existing {
			if other.ShowID == draft.ShowID && draft.ShowID != 0 {
				continue
			}
			for _, op := range other.Programs {
				if p.SameDay(op) && p.Hour == op.Hour {
					return reject(RuleSameSlot, "Screen is reserved for same day and same hour.")
				}
			}
		}
	}
	return nil
}

// occupancy is how long a screening keeps the screen busy.
func occupancy(durationMin int) time.Duration {
	return time.Duration(durationMin)*time.Minute + ChangeoverBuffer
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Duration) bool {
	return aStart < bEnd && bStart < aEnd
}

// programDays returns the distinct days of programs in first-seen order.
func programDays(programs []model.Program) []time.Time {
	seen := make(map[time.Time]bool, len(programs))
	var out []time.Time
	for _, p := range programs {
		d := model.DayOf(p.Day)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
