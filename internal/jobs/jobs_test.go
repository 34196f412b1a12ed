package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/config"
)

type mockSweeper struct{ mock.Mock }

func (m *mockSweeper) ReleaseStaleTickets(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	args := m.Called(ctx, maxAge, limit)
	return args.Int(0), args.Error(1)
}

type mockPurger struct{ mock.Mock }

func (m *mockPurger) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func cfg() config.JobsConfig {
	return config.JobsConfig{SweepEnabled: true, SweepEvery: time.Hour, SweepAfter: 30 * time.Minute, TokenPurgeAt: "03:00"}
}

func TestSweepTickets(t *testing.T) {
	sw := new(mockSweeper)
	sw.On("ReleaseStaleTickets", mock.Anything, 30*time.Minute, sweepLimit).Return(3, nil).Once()
	log, hook := test.NewNullLogger()
	r := NewRunner(cfg(), sw, nil, log)

	r.SweepTickets(context.Background())
	sw.AssertExpectations(t)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 3, hook.LastEntry().Data["released"])
}

func TestSweepTicketsError(t *testing.T) {
	sw := new(mockSweeper)
	sw.On("ReleaseStaleTickets", mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("db gone"))
	log, hook := test.NewNullLogger()
	NewRunner(cfg(), sw, nil, log).SweepTickets(context.Background())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestPurgeTokensUsesNow(t *testing.T) {
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	p := new(mockPurger)
	p.On("PurgeExpired", mock.Anything, now).Return(int64(12), nil).Once()
	log, hook := test.NewNullLogger()
	r := NewRunner(cfg(), nil, p, log)
	r.now = func() time.Time { return now }

	r.PurgeTokens(context.Background())
	p.AssertExpectations(t)
	assert.Equal(t, int64(12), hook.LastEntry().Data["deleted"])
}

func TestParseAt(t *testing.T) {
	h, m, err := parseAt("03:30")
	require.NoError(t, err)
	assert.Equal(t, uint(3), h)
	assert.Equal(t, uint(30), m)
	_, _, err = parseAt("25:00")
	assert.Error(t, err)
}

func TestStartRejectsBadPurgeTime(t *testing.T) {
	c := cfg()
	c.TokenPurgeAt = "noon"
	log, _ := test.NewNullLogger()
	r := NewRunner(c, nil, new(mockPurger), log)
	assert.Error(t, r.Start(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := NewRunner(cfg(), new(mockSweeper), new(mockPurger), log)
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
}
