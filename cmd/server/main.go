package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/database"
	"github.com/katmem/ticket-please/internal/handler"
	"github.com/katmem/ticket-please/internal/jobs"
	"github.com/katmem/ticket-please/internal/logging"
	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/notify"
	"github.com/katmem/ticket-please/internal/payment"
	"github.com/katmem/ticket-please/internal/queue"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/router"
	"github.com/katmem/ticket-please/internal/service"
	"github.com/katmem/ticket-please/internal/wizard"
)

func main() {
	var failed bool
	defer func() {
		if failed {
			os.Exit(1)
		}
	}()

	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)
	booking := config.LoadBookingConfig()
	qcfg := config.LoadQueueConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database: open")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("database: migrate")
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	var sessions wizard.Store
	var redisPing handler.Pinger
	if rdb != nil {
		defer rdb.Close()
		sessions = wizard.NewRedisStore(rdb, booking.WizardPrefix, booking.WizardTTL)
		redisPing = redisPinger(rdb)
	} else {
		sessions = wizard.NewMemoryStore(booking.WizardTTL)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	theaters := repository.NewTheaterRepo(db)
	screens := repository.NewScreenRepo(db)
	seats := repository.NewSeatRepo(db)
	genres := repository.NewGenreRepo(db)
	movies := repository.NewMovieRepo(db)
	programs := repository.NewProgramRepo(db)
	shows := repository.NewShowRepo(db)
	showSeats := repository.NewShowSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	orders := repository.NewOrderRepo(db)
	txr := repository.NewTxRunner(db)

	catalog := service.NewCatalogService(service.CatalogDeps{
		Tx: txr, Theaters: theaters, Screens: screens, Seats: seats,
		Movies: movies, Programs: programs, Shows: shows, ShowSeats: showSeats,
	}, booking.PriceCeiling, log)

	bookings := service.NewBookingService(service.BookingDeps{
		Tx: txr, Movies: movies, Theaters: theaters, Programs: programs,
		Shows: shows, Screens: screens, ShowSeats: showSeats, Tickets: tickets,
		Payments: repository.NewPaymentRepo(db), Orders: orders, Users: users,
		Publisher: queue.NewPublisher(qcfg.URL, qcfg.OrderPaidQueue, log),
	}, booking.WindowDays, payment.NewValidator(nil), log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	router.Register(e, router.Handlers{
		Health:  handler.NewHealthHandler(db, redisPing),
		Auth:    handler.NewAuthHandler(cfg, users, tokens, log),
		Account: handler.NewAccountHandler(users, orders, tickets, cfg.BcryptCost, log),
		Public:  handler.NewPublicHandler(movies, theaters, shows, genres, screens, booking, log),
		Booking: handler.NewBookingHandler(bookings, sessions, router.SeatsPath, log),
		Admin: handler.NewAdminHandler(handler.AdminDeps{
			Theaters: theaters, Screens: screens, Genres: genres, Movies: movies,
			Programs: programs, Shows: shows, Tickets: tickets, Catalog: catalog,
		}, log),
	}, router.Middleware{
		Logger:    middleware.RequestLogger(log),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if qcfg.ConsumerEnabled {
		var notifier queue.Notifier
		if m := notify.NewMailer(config.LoadMailConfig()); m != nil {
			notifier = m
		}
		consumer := queue.NewConsumer(qcfg.URL, qcfg.OrderPaidQueue, qcfg.LogDir, notifier, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("order consumer stopped")
			}
		}()
	}

	runner := jobs.NewRunner(config.LoadJobsConfig(), bookings, tokens, log)
	if err := runner.Start(ctx); err != nil {
		log.WithError(err).Fatal("jobs: start")
	}
	defer runner.Stop()

	if err := serve(ctx, e, ":"+cfg.Port, log.WithField("env", cfg.Env)); err != nil {
		log.WithError(err).Error("server stopped")
		failed = true
		stop()
		return
	}
	log.Info("stopped")
}

func redisPinger(rdb *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
