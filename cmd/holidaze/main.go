package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"holidaze/internal/api"
	"holidaze/internal/availability"
	"holidaze/internal/config"
	"holidaze/internal/database"
	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/export"
	"holidaze/internal/logging"
	"holidaze/internal/metrics"
	"holidaze/internal/models"
	"holidaze/internal/repository"
	"holidaze/internal/server"
	"holidaze/internal/service"
	"holidaze/internal/session"
	"holidaze/internal/worker"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	if command == "help" || command == "-h" || command == "--help" {
		usage(os.Stdout)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.dispatch(ctx, command, args)
}

// app holds everything one invocation needs. Each invocation is one page view.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	out    io.Writer

	closers []io.Closer
	db      *database.DB
	redis   *redis.Client

	bus       *events.EventBus
	forwarder *worker.EventForwarder
	session   *session.Store

	auth     *service.AuthService
	venues   *service.VenueService
	bookings *service.BookingService
	profile  *service.ProfileService
	manager  *service.ManagerService
	exporter *export.Exporter
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("HOLIDAZE_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "cli"), closer, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, out: os.Stdout}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	a.redis = initRedis(ctx, cfg, logger)

	repo, err := a.initSessionRepository()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.bus = events.NewEventBus()
	if cfg.Events.AMQPURL != "" {
		sink := worker.NewAMQPSink(cfg.Events, logging.Component(logger, "amqp"))
		a.closers = append(a.closers, sink)
		a.forwarder = worker.NewEventForwarder(sink, a.redis, worker.PolicyFromConfig(cfg.Events.Retry), logging.Component(logger, "forwarder"))
		a.forwarder.Attach(a.bus)
	}

	a.session = session.NewStore(repo, cfg.Session.Key, logging.Component(logger, "session"), session.WithPublisher(a.bus))
	if err := a.session.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("continuing with an empty session")
	}

	client := api.NewClient(cfg.API, logging.Component(logger, "api"))
	if a.redis != nil {
		client.UseRedisCache(a.redis, cfg.API.CacheTTL())
	}

	loc := cfg.Booking.Location()
	calc := availability.NewCalculator(availability.WithLocation(loc))

	a.auth = service.NewAuthService(client, a.session, logging.Component(logger, "auth"))
	a.venues = service.NewVenueService(client, client, a.session, calc, a.bus, logging.Component(logger, "venues"))
	a.bookings = service.NewBookingService(client, a.session, a.bus, logging.Component(logger, "bookings"))
	a.profile = service.NewProfileService(client, a.session, a.bus, logging.Component(logger, "profile"))
	a.manager = service.NewManagerService(client, a.session, a.bus, logging.Component(logger, "manager"))
	a.exporter = export.NewExporter(cfg.Exports, loc, logging.Component(logger, "export"))

	return a, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		if cfg.Session.Store == models.SessionStoreFailover {
			// failover still needs a client to probe for recovery
			return redisClient
		}
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func (a *app) initSessionRepository() (domain.SessionRepository, error) {
	switch a.cfg.Session.Store {
	case models.SessionStoreMemory:
		return repository.NewMemorySessionRepository(), nil
	case models.SessionStoreRedis:
		if a.redis == nil {
			return nil, fmt.Errorf("session store redis: redis at %s is unreachable", a.cfg.Redis.Address)
		}
		return repository.NewRedisSessionRepository(a.redis, 0), nil
	case models.SessionStoreFailover:
		var fallback domain.SessionRepository = repository.NewMemorySessionRepository()
		if a.cfg.Database.Path != "" {
			db, err := a.openDatabase()
			if err != nil {
				return nil, err
			}
			fallback = repository.NewSQLiteSessionRepository(db)
		}
		primary := repository.NewRedisSessionRepository(a.redis, 0)
		return repository.NewFailoverSessionRepository(primary, fallback, logging.Component(a.logger, "session-failover")), nil
	default:
		db, err := a.openDatabase()
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteSessionRepository(db), nil
	}
}

func (a *app) openDatabase() (*database.DB, error) {
	db, err := database.NewDB(a.cfg.Database.Path, logging.Component(a.logger, "database"))
	if err != nil {
		a.logger.Error().Err(err).Str("db_path", a.cfg.Database.Path).Msg("init database")
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db)
	return db, nil
}

// Close flushes pending events and releases resources in reverse order.
func (a *app) Close() {
	if a.forwarder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.forwarder.Flush(ctx)
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.forwarder != nil {
		go a.forwarder.Start(ctx)
	}

	if a.db != nil {
		backup := database.NewBackupService(a.db, a.cfg.Database.Backup, logging.Component(a.logger, "backup"))
		go backup.Start(ctx)
	}

	if a.cfg.Monitoring.PrometheusEnabled {
		port := a.cfg.Monitoring.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go startMetricsServer(ctx, port, a.logger)
	}

	httpServer := server.NewHTTPServer(a.cfg.Server, a.venues, a.readyChecks(), a.cfg.Booking.Location(), logging.Component(a.logger, "http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	a.logger.Info().Int("http_port", a.cfg.Server.Port).Msg("helper server started")

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if a.forwarder != nil {
		a.forwarder.Flush(shutdownCtx)
		a.forwarder.Wait()
	}
	a.logger.Info().Msg("helper server stopped")
	return nil
}

func (a *app) readyChecks() []server.ReadyCheck {
	var checks []server.ReadyCheck
	if a.db != nil {
		checks = append(checks, server.ReadyCheck{Name: "sqlite", Check: a.db.PingContext})
	}
	if a.redis != nil {
		checks = append(checks, server.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}})
	}
	return checks
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
