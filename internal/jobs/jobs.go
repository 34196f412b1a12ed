// Package jobs runs periodic housekeeping on a gocron scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/config"
)

// sweepLimit bounds how many stale tickets one sweep releases.
const sweepLimit = 500

// TicketSweeper releases seats held by unpaid tickets older than maxAge.
type TicketSweeper interface {
	ReleaseStaleTickets(ctx context.Context, maxAge time.Duration, limit int) (int, error)
}

// TokenPurger deletes expired or revoked refresh tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Runner struct {
	cfg     config.JobsConfig
	tickets TicketSweeper
	tokens  TokenPurger
	log     logrus.FieldLogger
	now     func() time.Time
	sched   gocron.Scheduler
}

func NewRunner(cfg config.JobsConfig, tickets TicketSweeper, tokens TokenPurger, log logrus.FieldLogger) *Runner {
	return &Runner{cfg: cfg, tickets: tickets, tokens: tokens, log: log, now: time.Now}
}

// Start registers the jobs and starts the scheduler.  Jobs run in UTC.
func (r *Runner) Start(ctx context.Context) error {
	h, m, err := parseAt(r.cfg.TokenPurgeAt)
	if err != nil {
		return err
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	if r.cfg.SweepEnabled && r.tickets != nil {
		_, err = s.NewJob(
			gocron.DurationJob(r.cfg.SweepEvery),
			gocron.NewTask(r.SweepTickets, ctx),
			gocron.WithName("ticket-sweep"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return fmt.Errorf("ticket sweep job: %w", err)
		}
	}
	if r.tokens != nil {
		_, err = s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(h, m, 0))),
			gocron.NewTask(r.PurgeTokens, ctx),
			gocron.WithName("token-purge"),
		)
		if err != nil {
			_ = s.Shutdown()
			return fmt.Errorf("token purge job: %w", err)
		}
	}
	r.sched = s
	s.Start()
	r.log.WithFields(logrus.Fields{
		"sweep":       r.cfg.SweepEnabled,
		"token_purge": r.cfg.TokenPurgeAt,
	}).Info("jobs scheduler started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (r *Runner) Stop() error {
	if r.sched == nil {
		return nil
	}
	return r.sched.Shutdown()
}

// SweepTickets is the body of the ticket sweep job.
func (r *Runner) SweepTickets(ctx context.Context) {
	n, err := r.tickets.ReleaseStaleTickets(ctx, r.cfg.SweepAfter, sweepLimit)
	if err != nil {
		r.log.WithError(err).Error("ticket sweep failed")
		return
	}
	if n > 0 {
		r.log.WithField("released", n).Info("released stale tickets")
	}
}

// PurgeTokens is the body of the daily refresh-token purge.
func (r *Runner) PurgeTokens(ctx context.Context) {
	n, err := r.tokens.PurgeExpired(ctx, r.now().UTC())
	if err != nil {
		r.log.WithError(err).Error("token purge failed")
		return
	}
	r.log.WithField("deleted", n).Info("purged refresh tokens")
}

func parseAt(s string) (uint, uint, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid purge time %q: %w", s, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}
