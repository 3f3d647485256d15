package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domaincalendar "staybook/internal/domain/calendar"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/ical"
	"staybook/internal/infra/notify"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/payments"
	"staybook/internal/infra/schedule"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		ReadyCheck: app.readyCheck,
	}, app.handlers)

	fixturesPath := getenv("SEED_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if app.worker != nil {
		go func() {
			if err := app.worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if app.syncRunner != nil {
		if err := app.syncRunner.Start(); err != nil {
			logger.Error("sync runner failed to start", "error", err)
		} else {
			defer app.syncRunner.Stop()
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	worker     *infraoutbox.Worker
	syncRunner *schedule.SyncRunner
	readyCheck func(ctx context.Context) error
	seed       seedTargets
}

type seedTargets struct {
	listings  domainlistings.ListingRepository
	calendars domaincalendar.Repository
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory uow.UoWFactory
		seed       seedTargets
		readyCheck func(ctx context.Context) error
		calendars  domaincalendar.Repository
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		listingsRepo := mongostore.NewListingRepository(client.DB)
		availabilityRepo := mongostore.NewAvailabilityRepository(client.DB)
		bookingRepo := mongostore.NewBookingRepository(client.DB)
		calendarRepo := mongostore.NewCalendarRepository(client.DB)
		uowFactory = mongostore.Factory{
			DB:               client.DB,
			ListingsRepo:     listingsRepo,
			AvailabilityRepo: availabilityRepo,
			BookingRepo:      bookingRepo,
			CalendarRepo:     calendarRepo,
		}
		seed = seedTargets{listings: listingsRepo, calendars: calendarRepo}
		calendars = calendarRepo
		readyCheck = client.Ping
	default:
		listingsRepo := memory.NewListingRepository()
		availabilityRepo := memory.NewAvailabilityRepository()
		bookingRepo := memory.NewBookingRepository()
		calendarRepo := memory.NewCalendarRepository()
		uowFactory = memory.Factory{
			ListingsRepo:     listingsRepo,
			AvailabilityRepo: availabilityRepo,
			BookingRepo:      bookingRepo,
			CalendarRepo:     calendarRepo,
		}
		seed = seedTargets{listings: listingsRepo, calendars: calendarRepo}
		calendars = calendarRepo
		readyCheck = func(context.Context) error { return nil }
	}

	var paymentsPort policies.PaymentsPort
	switch cfg.PaymentsMode {
	case "gateway":
		paymentsPort = &payments.Gateway{
			Client:   &http.Client{Timeout: cfg.PaymentTimeout},
			Endpoint: cfg.PaymentGatewayURL,
			APIKey:   cfg.PaymentGatewayKey,
			Logger:   logger,
		}
	default:
		paymentsPort = payments.NewMemoryGateway()
	}

	notifier := &notify.LogNotifier{Logger: logger}
	feed := ical.NewFetcher(cfg.ICalFetchTimeout)
	pricingCalc := domainpricing.Calculator{Policy: domainpricing.FeePolicy{
		ServiceFeeBps: cfg.ServiceFeeBps,
		TaxBps:        cfg.TaxBps,
	}}

	eventStore := infraoutbox.NewMemoryStore()
	outboxBuffer := memory.NewOutbox().WithSink(eventStore.Enqueue)
	idStore := memory.NewIdempotencyStore().WithTTL(cfg.IdempotencyTTL)
	encoder := appoutbox.JSONEventEncoder{}

	var worker *infraoutbox.Worker
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		worker = &infraoutbox.Worker{
			Store:       eventStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Pricing:    pricingCalc,
		Payments:   paymentsPort,
		Notifier:   notifier,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: uowFactory,
		Payments:   paymentsPort,
		Notifier:   notifier,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.AcceptBookingCommand{}.Key(), &bookingapp.AcceptBookingHandler{
		UoWFactory: uowFactory,
		Notifier:   notifier,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeclineBookingCommand{}.Key(), &bookingapp.DeclineBookingHandler{
		UoWFactory: uowFactory,
		Payments:   paymentsPort,
		Notifier:   notifier,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Payments:   paymentsPort,
		Notifier:   notifier,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CheckInCommand{}.Key(), &bookingapp.CheckInHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CheckOutCommand{}.Key(), &bookingapp.CheckOutHandler{
		UoWFactory: uowFactory,
		Payments:   paymentsPort,
		Outbox:     outboxBuffer,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, availabilityapp.AddBlockCommand{}.Key(), &availabilityapp.AddBlockHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, availabilityapp.RemoveBlockCommand{}.Key(), &availabilityapp.RemoveBlockHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, availabilityapp.SetPriceOverrideCommand{}.Key(), &availabilityapp.SetPriceOverrideHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, availabilityapp.RemovePriceOverrideCommand{}.Key(), &availabilityapp.RemovePriceOverrideHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, calendarapp.SyncCalendarCommand{}.Key(), &calendarapp.SyncCalendarHandler{
		UoWFactory: uowFactory,
		Feed:       feed,
		Logger:     logger,
	})

	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, calendarapp.ExportCalendarQuery{}.Key(), &calendarapp.ExportCalendarHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxBuffer),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation())

	syncRunner := &schedule.SyncRunner{
		Bus:       commandBusWithMiddleware,
		Calendars: calendars,
		Logger:    logger,
		Interval:  cfg.CalendarSyncEvery,
	}

	return application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Availability: ginserver.AvailabilityHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Calendar: ginserver.CalendarHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
		},
		worker:     worker,
		syncRunner: syncRunner,
		readyCheck: readyCheck,
		seed:       seed,
	}, nil
}

func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures struct {
		Listings  []listingFixture  `json:"listings"`
		Calendars []calendarFixture `json:"calendars"`
	}
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	tokens := security.RandomTokenGenerator{}
	for _, fx := range fixtures.Listings {
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:                 domainlistings.ListingID(fx.ID),
			Host:               domainlistings.HostID(fx.Host),
			Title:              fx.Title,
			BasePriceCents:     fx.BasePriceCents,
			CleaningFeeCents:   fx.CleaningFeeCents,
			Currency:           fx.Currency,
			MinNights:          fx.MinNights,
			MaxNights:          fx.MaxNights,
			GuestsLimit:        fx.GuestsLimit,
			InstantBook:        fx.InstantBook,
			CancellationPolicy: fx.CancellationPolicy,
			Now:                now,
		})
		if err != nil {
			logger.Error("listing fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.seed.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		token, err := tokens.NewToken()
		if err != nil {
			return fmt.Errorf("export token: %w", err)
		}
		exportCal, err := domaincalendar.New(domaincalendar.CreateParams{
			ID:          domaincalendar.CalendarID("cal-" + fx.ID),
			ListingID:   listing.ID,
			Source:      domaincalendar.SourceInternal,
			ExportToken: token,
			Now:         now,
		})
		if err != nil {
			logger.Error("export calendar fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.seed.calendars.Save(ctx, exportCal); err != nil {
			logger.Error("cannot store export calendar", "listing_id", fx.ID, "error", err)
		}
	}
	for _, fx := range fixtures.Calendars {
		cal, err := domaincalendar.New(domaincalendar.CreateParams{
			ID:          domaincalendar.CalendarID(fx.ID),
			ListingID:   domainlistings.ListingID(fx.ListingID),
			Source:      domaincalendar.SourceICal,
			ICalURL:     fx.ICalURL,
			SyncEnabled: fx.SyncEnabled,
			Now:         now,
		})
		if err != nil {
			logger.Error("calendar fixture invalid", "calendar_id", fx.ID, "error", err)
			continue
		}
		if err := a.seed.calendars.Save(ctx, cal); err != nil {
			logger.Error("cannot store fixture calendar", "calendar_id", fx.ID, "error", err)
		}
	}
	return nil
}

type listingFixture struct {
	ID                 string `json:"id"`
	Host               string `json:"host"`
	Title              string `json:"title"`
	BasePriceCents     int64  `json:"base_price_cents"`
	CleaningFeeCents   int64  `json:"cleaning_fee_cents"`
	Currency           string `json:"currency"`
	MinNights          int    `json:"min_nights"`
	MaxNights          int    `json:"max_nights"`
	GuestsLimit        int    `json:"guests_limit"`
	InstantBook        bool   `json:"instant_book"`
	CancellationPolicy string `json:"cancellation_policy"`
}

type calendarFixture struct {
	ID          string `json:"id"`
	ListingID   string `json:"listing_id"`
	ICalURL     string `json:"ical_url"`
	SyncEnabled bool   `json:"sync_enabled"`
}

func defaultFixturesPath() string {
	return filepath.Join("data", "seed.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
