package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Backstage_Jobs/internal/config"
	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/repository/redis"
	"Backstage_Jobs/internal/router"
	"Backstage_Jobs/internal/service"
	"Backstage_Jobs/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig(os.Getenv("BACKSTAGE_CONFIG"))
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal("backstage-jobs stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("service", cfg.Telemetry.ServiceName))
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.CollectorURL != "" {
		shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorURL, logger)
		if err != nil {
			return err
		}
		defer shutdownTracer()
	}

	db, err := mysql.InitDB(cfg.MySQL.DSN, mysql.PoolConfig{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	if err := mysql.Migrate(db); err != nil {
		return err
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	postings := &mysql.PostingRepository{DB: db}
	categories := &mysql.CategoryRepository{DB: db}
	apps := &mysql.ApplicationRepository{DB: db}
	saved := &mysql.SavedRepository{DB: db}
	views := &mysql.ViewRepository{DB: db}
	users := &mysql.UserRepository{DB: db}
	tokens := redis.NewTokenRepository(rdb, cfg.JWT.AccessTTL)
	issuer := pkg.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	categorySvc := service.NewCategoryService(categories, redis.NewCategoryCacheRepository(rdb, cfg.Cache.CategoryTTL), logger)
	if cfg.MySQL.SeedCategories {
		if err := categorySvc.Seed(ctx); err != nil {
			return err
		}
	}

	tracker := service.NewViewTracker(views, cfg.Tracker.Workers, cfg.Tracker.QueueSize, logger)
	tracker.Start()
	defer tracker.Stop()

	sender, closeSinks, err := outboxSender(cfg, logger, postings)
	if err != nil {
		return err
	}
	defer closeSinks()
	relayer := service.NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, sender,
		redis.NewDistLock(rdb, "outbox-relayer", 30*time.Second), logger,
		cfg.Outbox.BatchSize, cfg.Outbox.Interval, cfg.Outbox.MaxRetry)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relayer.Run(relayCtx)
	}()
	defer func() {
		stopRelay()
		<-relayDone
	}()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.InitRouter(router.Deps{
		Logger:      logger,
		Issuer:      issuer,
		Tokens:      tokens,
		Users:       service.NewUserService(users, tokens, issuer, logger),
		Categories:  categorySvc,
		Postings:    service.NewPostingService(postings, categories, tracker, logger),
		Apps:        service.NewApplicationService(apps, postings, users, logger),
		Saved:       service.NewSavedService(saved, postings, redis.NewSavedCacheRepository(rdb, cfg.Cache.SavedSetTTL), logger),
		Analytics:   service.NewAnalyticsService(postings, views, apps, saved),
		Recommender: service.NewRecommendService(postings, apps, logger),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// outboxSender publishes to Kafka when brokers are configured and mails
// applicants when SMTP is configured. Without either it only logs.
func outboxSender(cfg *config.Config, logger *zap.Logger, postings *mysql.PostingRepository) (service.Sender, func(), error) {
	var senders []service.Sender
	closeFn := func() {}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, service.KafkaSender(producer))
		closeFn = func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close", zap.Error(err))
			}
		}
	} else {
		senders = append(senders, service.LogSender(logger))
	}
	if cfg.SMTP.Host != "" {
		mailer := pkg.NewMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		senders = append(senders, service.MailSender(mailer, postings))
	}
	return service.FanOut(senders...), closeFn, nil
}
