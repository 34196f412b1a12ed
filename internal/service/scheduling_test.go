package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/model"
)

func TestValidateShow(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	at := func(id uint64, d time.Time, hour time.Duration) model.Program {
		return model.Program{ID: id, Day: d, Hour: hour}
	}
	movie := &model.Movie{DurationMin: 120}
	screen := &model.Screen{ID: 2, TheaterID: 1}
	ceiling := decimal.NewFromInt(15)
	evening := []model.ScheduledShow{{ShowID: 9, DurationMin: 90, Programs: []model.Program{at(1, day, 18*time.Hour)}}}

	cases := []struct {
		name     string
		draft    ShowDraft
		programs []model.Program
		existing []model.ScheduledShow
		rule     string
		message  string
	}{
		{
			name:     "price above ceiling",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.RequireFromString("16.00")},
			programs: []model.Program{at(5, day, 10*time.Hour)},
			rule:     RulePriceCeiling,
			message:  "Price must not exceed 15.00.",
		},
		{
			name:     "price at ceiling",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.RequireFromString("15.00")},
			programs: []model.Program{at(5, day, 10*time.Hour)},
		},
		{
			name:     "screen in another theater",
			draft:    ShowDraft{TheaterID: 3, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day, 10*time.Hour)},
			rule:     RuleScreenTheater,
			message:  "Screen does not belong to the selected theater.",
		},
		{
			name:     "starts inside another screening plus buffer",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day, 19*time.Hour+59*time.Minute)},
			existing: evening,
			rule:     RuleOverlap,
			message:  "Movie overlaps with another movie.",
		},
		{
			name:     "runs into a later screening",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day, 16*time.Hour)},
			existing: evening,
			rule:     RuleOverlap,
		},
		{
			name:     "starts when the buffer ends",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day, 20*time.Hour)},
			existing: evening,
		},
		{
			name:     "ends when the other starts",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day, 15*time.Hour+30*time.Minute)},
			existing: evening,
		},
		{
			name:     "same hour another day",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(5, day.AddDate(0, 0, 1), 18*time.Hour)},
			existing: evening,
		},
		{
			name:     "exact slot taken reports the overlap first",
			draft:    ShowDraft{TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(1, day, 18*time.Hour)},
			existing: evening,
			rule:     RuleOverlap,
			message:  "Movie overlaps with another movie.",
		},
		{
			name:     "editing the show itself",
			draft:    ShowDraft{ShowID: 9, TheaterID: 1, Price: decimal.NewFromInt(10)},
			programs: []model.Program{at(1, day, 18*time.Hour)},
			existing: evening,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateShow(tc.draft, tc.programs, movie, screen, tc.existing, ceiling)
			if tc.rule == "" {
				assert.NoError(t, err)
				return
			}
			var re *RuleError
			require.True(t, errors.As(err, &re), "want RuleError, got %v", err)
			assert.Equal(t, tc.rule, re.Rule)
			if tc.message != "" {
				assert.Equal(t, tc.message, re.Message)
			}
		})
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	assert.False(t, overlaps(0, time.Hour, time.Hour, 2*time.Hour))
	assert.True(t, overlaps(0, time.Hour+time.Second, time.Hour, 2*time.Hour))
}
