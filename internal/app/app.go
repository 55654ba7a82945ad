package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pinmap/internal/auth"
	"github.com/MrSnakeDoc/pinmap/internal/config"
	"github.com/MrSnakeDoc/pinmap/internal/database"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/index"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/notify"
	"github.com/MrSnakeDoc/pinmap/internal/redis"
	"github.com/MrSnakeDoc/pinmap/internal/scheduler"
	"github.com/MrSnakeDoc/pinmap/internal/store"
	redisstore "github.com/MrSnakeDoc/pinmap/internal/store/redis"
	sqlstore "github.com/MrSnakeDoc/pinmap/internal/store/sql"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
	"github.com/MrSnakeDoc/pinmap/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *database.DB
	redisClient *goredis.Client
	store       store.Store
	events      *notify.Dispatcher
	consumer    *notify.Consumer
	seeder      *scheduler.ConfigSeeder
	retention   *scheduler.ViewRetention
}

func New() (*App, error) {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout+cfg.RedisConnectTimeout)
	defer cancel()

	st, db, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	// Redis is optional; without it every read goes to the store.
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addr:         cfg.RedisAddr,
		User:         cfg.RedisUser,
		Password:     cfg.RedisPassword,
		RedisDB:      cfg.RedisDB,
		DialTimeout:  cfg.RedisDT,
		ReadTimeout:  cfg.RedisRT,
		WriteTimeout: cfg.RedisWT,
		PoolSize:     cfg.RedisPoolSize,
		Retry: utils.Backoff{
			Total:         cfg.RedisConnectTimeout,
			Initial:       cfg.RedisRetryInterval,
			MaxWait:       cfg.RedisMaxWait,
			PingTimeout:   cfg.RedisPingTimeout,
			WarnThreshold: cfg.RedisWarnThreshold,
		},
	}, loggerClient)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		loggerClient.Info("redis not configured, caching disabled")
	case err != nil:
		if db != nil {
			utils.Close(db)
		}
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	default:
		loggerClient.Info("Redis initialized successfully", logger.String("addr", cfg.RedisAddr))
	}
	cache := redisstore.NewCache(redisClient, cfg.StatsCacheTTL, cfg.ConfigCacheTTL)

	pingers := map[string]store.Pinger{"database": st}
	if cache.Enabled() {
		pingers["redis"] = cache
	}

	if !cfg.AdminConfigured() {
		loggerClient.Warn("admin password not configured, admin endpoints will reject every request")
	}

	a := &App{
		cfg:         cfg,
		logger:      loggerClient,
		db:          db,
		redisClient: redisClient,
		store:       st,
		seeder:      scheduler.NewConfigSeeder(st, cfg.SiteConfigFile, loggerClient),
		retention: scheduler.NewViewRetention(
			st,
			loggerClient,
			cfg.RetentionCron,
			cfg.ViewRetention,
			cfg.TimeZone,
		),
	}
	a.events = notify.NewDispatcher(a.notifier(), loggerClient, cfg.NotifyTimeout)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		Location:     cfg.TimeZone,
		SiteURL:      cfg.SiteURL,
		CORSOrigins:  cfg.CORSOrigins,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RateBurst:    cfg.RateBurst,
		RateRefill:   cfg.RateRefill,
		Store:        st,
		Cache:        cache,
		Auth: auth.New(auth.Options{
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
			Secret:       cfg.JWTSecret,
			TTL:          cfg.TokenTTL,
		}),
		Events:  a.events,
		Pingers: pingers,
	}
	a.server = httpserver.New(cfg, loggerClient, d)

	return a, nil
}

// openStore connects the configured backend. db is nil for the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, *database.DB, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return index.NewMemoryStore(), nil, nil
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, log); err != nil {
			utils.Close(db)
			return nil, nil, err
		}
	}
	return sqlstore.New(db), db, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.DB, error) {
	log.Infof("Connecting to %s", cfg.DBDriver)
	db, err := database.Open(ctx, database.Options{
		Driver:          database.Dialect(cfg.DBDriver),
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Retry: utils.Backoff{
			Total:         cfg.DBConnectTimeout,
			Initial:       cfg.RedisRetryInterval,
			MaxWait:       cfg.RedisMaxWait,
			PingTimeout:   cfg.RedisPingTimeout,
			WarnThreshold: cfg.RedisWarnThreshold,
		},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// notifier picks how event notifications leave the process:
// through RabbitMQ when configured, then SMTP, then the log.
func (a *App) notifier() notify.Notifier {
	cfg := a.cfg

	var mailer notify.Mailer = &notify.LogMailer{Log: a.logger}
	switch {
	case cfg.SMTPHost != "" && cfg.AdminEmail != "":
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		a.logger.Info("event notifications sent by mail",
			logger.String("smtp_host", cfg.SMTPHost),
			logger.String("to", cfg.AdminEmail))
	case cfg.SMTPHost != "":
		a.logger.Warn("PINMAP_SMTP_HOST set without PINMAP_ADMIN_EMAIL, notifications will only be logged")
	}
	mail := &notify.MailNotifier{Mailer: mailer, To: cfg.AdminEmail, Location: cfg.TimeZone}

	if cfg.AMQPURL == "" {
		return mail
	}

	a.consumer = notify.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, mail, a.logger, cfg.NotifyTimeout)
	a.logger.Info("event notifications queued on AMQP", logger.String("queue", cfg.AMQPQueue))
	return notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Pinmap v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Pinmap %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.seeder.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed site config: %w", err)
	}

	if err := a.retention.Start(ctx); err != nil {
		return fmt.Errorf("failed to start page view retention: %w", err)
	}

	consumerDone := make(chan struct{})
	if a.consumer != nil {
		go func() {
			defer close(consumerDone)
			a.consumer.Run(ctx)
		}()
	} else {
		close(consumerDone)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.retention.Stop(shutdownCtx)

	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Requests are drained; flush what they queued.
	if err := a.events.Close(shutdownCtx); err != nil {
		a.logger.Warn("event notifications dropped on shutdown", logger.Error(err))
	}

	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("event consumer did not stop in time")
	}

	if a.db != nil {
		utils.MustClose(a.db, a.cfg.DBDriver, a.logger)
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "Redis", a.logger)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Pinmap stopped cleanly")
	return nil
}

// Migrate applies the database schema and exits.
func Migrate() error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	if cfg.DBDriver == "memory" {
		log.Info("in-memory store has no schema, nothing to migrate")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	defer cancel()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer utils.MustClose(db, cfg.DBDriver, log)

	return db.Migrate(ctx, log)
}
