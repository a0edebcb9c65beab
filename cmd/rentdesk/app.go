package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	availabilityapp "rentdesk/internal/app/handlers/availability"
	propertiesapp "rentdesk/internal/app/handlers/properties"
	reservationsapp "rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/middleware"
	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/infra/broker/kafka"
	rediscache "rentdesk/internal/infra/cache/redis"
	"rentdesk/internal/infra/config"
	mongodb "rentdesk/internal/infra/db/mongo"
	"rentdesk/internal/infra/fixtures"
	ginserver "rentdesk/internal/infra/http/gin"
	"rentdesk/internal/infra/inbox"
	"rentdesk/internal/infra/obs"
	"rentdesk/internal/infra/outbox"
	"rentdesk/internal/infra/storage/memory"
)

const inboxRetention = 7 * 24 * time.Hour

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers

	worker   *outbox.Worker
	consumer *kafka.Consumer
	topics   []string

	closers []io.Closer
	wg      sync.WaitGroup
}

// storage is what a persistence mode contributes to the application.
type storage struct {
	factory     uow.UoWFactory
	props       properties.Repository
	res         reservations.Repository
	idempotency middleware.IdempotencyStore
	outbox      appoutbox.Outbox
	// claims is set when records are persisted and drained by the worker.
	claims outbox.ClaimStore
	inbox  kafka.Inbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Probes: map[string]obs.Probe{}, Timeout: 2 * time.Second}}

	store, err := app.openStorage(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}

	var calendars cache.CalendarCache = memory.NewCalendarCache(cfg.CalendarCacheTTL)
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		app.closers = append(app.closers, rdb)
		rc := rediscache.New(rdb, cfg.CalendarCacheTTL, "rentdesk:")
		app.health.Probes["redis"] = rc.Ping
		calendars = rc
	}

	if err := app.wireEvents(cfg, store, calendars, logger); err != nil {
		app.close(logger)
		return nil, err
	}

	if _, err := fixtures.Load(ctx, cfg.FixturesPath, store.props, store.res, logger, time.Now()); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	engine := availability.NewEngine(availability.Config{
		MinStay:           cfg.MinStay,
		BoundaryTolerance: cfg.BoundaryTolerance,
		Location:          cfg.Location,
	})
	validator := booking.NewValidator(engine, booking.Config{})
	clock := support.Clock{Now: time.Now, LeadDays: cfg.LeadDays, Location: cfg.Location}

	commandBus := commands.NewInMemoryBus()
	deps := reservationsapp.Deps{
		UoWFactory: store.factory,
		Validator:  validator,
		Clock:      clock,
		Outbox:     store.outbox,
		Encoder:    appoutbox.JSONEventEncoder{Source: "rentdesk"},
		Logger:     logger,
	}
	commands.RegisterHandler[reservationsapp.CreateCommand, *dto.Reservation](commandBus, reservationsapp.CreateKey, &reservationsapp.CreateHandler{Deps: deps})
	commands.RegisterHandler[reservationsapp.UpdateCommand, *dto.Reservation](commandBus, reservationsapp.UpdateKey, &reservationsapp.UpdateHandler{Deps: deps})
	commands.RegisterHandler[reservationsapp.CancelCommand, *dto.Reservation](commandBus, reservationsapp.CancelKey, &reservationsapp.CancelHandler{Deps: deps})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[propertiesapp.ListQuery, dto.PropertyCollection](queryBus, propertiesapp.ListKey, &propertiesapp.ListHandler{UoWFactory: store.factory})
	queries.RegisterHandler[propertiesapp.GetQuery, dto.Property](queryBus, propertiesapp.GetKey, &propertiesapp.GetHandler{UoWFactory: store.factory})
	availabilityDeps := availabilityapp.Deps{
		UoWFactory: store.factory,
		Engine:     engine,
		Clock:      clock,
		Cache:      calendars,
		Logger:     logger,
	}
	queries.RegisterHandler[availabilityapp.MonthQuery, dto.MonthCalendar](queryBus, availabilityapp.MonthKey, &availabilityapp.MonthHandler{Deps: availabilityDeps})
	queries.RegisterHandler[availabilityapp.DayQuery, dto.DayDetail](queryBus, availabilityapp.DayKey, &availabilityapp.DayHandler{Deps: availabilityDeps})
	queries.RegisterHandler[availabilityapp.FeasibilityQuery, dto.Feasibility](queryBus, availabilityapp.FeasibilityKey, &availabilityapp.FeasibilityHandler{Deps: availabilityDeps})
	queries.RegisterHandler[availabilityapp.CheckQuery, dto.DateCheck](queryBus, availabilityapp.CheckKey, &availabilityapp.CheckHandler{Deps: availabilityDeps})
	queries.RegisterHandler[reservationsapp.ListQuery, dto.ReservationCollection](queryBus, reservationsapp.ListKey, &reservationsapp.ListHandler{UoWFactory: store.factory})
	queries.RegisterHandler[reservationsapp.QuoteQuery, dto.Quote](queryBus, reservationsapp.QuoteKey, &reservationsapp.QuoteHandler{UoWFactory: store.factory, Validator: validator, Clock: clock})

	structValidator := middleware.NewStructValidator()
	commandsWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(structValidator),
		middleware.Idempotency(store.idempotency, nil, nil),
		middleware.Transaction(store.factory, nil),
		middleware.OutboxFlush(store.outbox),
	)
	queriesWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(structValidator),
	)

	app.handlers = ginserver.Handlers{
		Properties:   ginserver.PropertyHandler{Queries: queriesWithMiddleware, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: queriesWithMiddleware, Logger: logger},
		Reservations: ginserver.ReservationHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
	}
	if cfg.RateLimitRPS > 0 {
		app.handlers.RateLimit = ginserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger).Middleware()
	}
	return app, nil
}

func (a *application) openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		props := memory.NewPropertyRepository()
		res := memory.NewReservationRepository()
		return storage{
			factory:     memory.NewFactory(props, res),
			props:       props,
			res:         res,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			outbox:      memory.NewOutbox(logger),
			inbox:       memory.NewInbox(inboxRetention),
		}, nil
	}

	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, err
	}
	a.closers = append(a.closers, closerFunc(func() error { return client.Close(context.Background()) }))
	a.health.Probes["mongo"] = client.Ping

	props := mongodb.NewPropertyRepository(client.DB)
	res := mongodb.NewReservationRepository(client.DB)
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, fmt.Errorf("mongo: idempotency store: %w", err)
	}
	box, err := outbox.NewStore(ctx, client.DB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo: outbox store: %w", err)
	}
	seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID, inboxRetention)
	if err != nil {
		return storage{}, fmt.Errorf("mongo: inbox store: %w", err)
	}
	return storage{
		factory:     mongodb.Factory{DB: client.DB, PropertiesRepo: props, ReservationsRepo: res},
		props:       props,
		res:         res,
		idempotency: idem,
		outbox:      box,
		claims:      box,
		inbox:       seen,
	}, nil
}

// wireEvents routes committed reservation events to Kafka and to calendar eviction. When
// the consumer group runs, eviction happens there; otherwise the publisher evicts locally.
func (a *application) wireEvents(cfg config.Config, store storage, calendars cache.CalendarCache, logger *slog.Logger) error {
	evictor := outbox.CacheEvictor{Cache: calendars}
	var producer outbox.Producer = evictor

	if cfg.KafkaEnabled() {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka: producer: %w", err)
		}
		a.closers = append(a.closers, kp)
		producer = outbox.Fanout{kp, evictor}
		if cfg.ConsumeEvents {
			producer = kp
			handler := kafka.CalendarEviction{Cache: calendars, Inbox: store.inbox, Logger: logger}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
			if err != nil {
				return fmt.Errorf("kafka: consumer: %w", err)
			}
			a.closers = append(a.closers, consumer)
			a.consumer = consumer
			a.topics = []string{cfg.EventsTopic()}
		}
	}

	a.worker = &outbox.Worker{
		Store:       store.claims,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	if mem, ok := store.outbox.(*memory.Outbox); ok {
		// a broker outage must not fail a reservation that is already stored
		mem.Subscribe(func(ctx context.Context, rec appoutbox.EventRecord) error {
			if err := a.worker.PublishRecord(ctx, rec); err != nil {
				logger.WarnContext(ctx, "event delivery failed", "event_id", rec.ID, "event", rec.Name, "error", err)
			}
			return nil
		})
	}
	return nil
}

func (a *application) startWorkers(ctx context.Context, logger *slog.Logger) {
	if a.worker != nil && a.worker.Store != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.worker.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if a.consumer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.consumer.Run(ctx, a.topics); err != nil && ctx.Err() == nil {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	}
}

func (a *application) wait() {
	a.wg.Wait()
}

// close releases resources in reverse order of acquisition.
func (a *application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
