package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"butterfly/internal/api"
	"butterfly/internal/bot"
	"butterfly/internal/config"
	"butterfly/internal/database"
	"butterfly/internal/domain"
	"butterfly/internal/events"
	"butterfly/internal/google"
	"butterfly/internal/logging"
	"butterfly/internal/metrics"
	"butterfly/internal/notify"
	"butterfly/internal/repository"
	"butterfly/internal/seed"
	"butterfly/internal/service"
	"butterfly/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookingRepo, menuRepo, db, err := initStores(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
		startBackups(ctx, cfg, db, logger)
	}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	limiter := initLimiter(ctx, redisClient, logger)

	pool := worker.NewPool(cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.Notify.Timeout(), logging.Component(logger, "worker"))
	pool.Start()

	tg := initTelegram(cfg, logger)
	dispatcher := initDispatcher(cfg, tg, pool, logger)

	bus := events.NewEventBus(logging.Component(logger, "events"))
	bus.Subscribe(events.AllEvents, events.NewAuditLogger(logging.Component(logger, "audit")))
	initSheets(ctx, cfg, bus, pool, bookingRepo, logger)
	amqpCloser := initAMQP(cfg, bus, pool, logger)
	if amqpCloser != nil {
		defer func() { _ = amqpCloser.Close() }()
	}

	bookingService := service.NewBookingService(bookingRepo, dispatcher, bus, limiter, service.BookingPolicy{
		StrictTransitions: cfg.Bookings.StrictTransitions,
		SubmissionLimit:   cfg.Bookings.SubmissionLimit,
		SubmissionWindow:  cfg.Bookings.Window(),
	}, logging.Component(logger, "bookings"))

	menuService := service.NewMenuService(menuRepo, bus, logging.Component(logger, "menu"))
	if err := seedMenu(ctx, cfg, menuService, logger); err != nil {
		return err
	}

	managerBot := startManagerBot(ctx, cfg, tg, bookingService, menuService, logger)
	if managerBot != nil {
		defer managerBot.Stop()
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, bookingService, menuService, logging.Component(logger, "http"))

	startMetrics(ctx, cfg, logger)

	return serve(ctx, grpcServer, httpServer, pool, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
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

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// initStores picks sqlite when database.path is set and process memory otherwise.
func initStores(cfg *config.Config, logger *zerolog.Logger) (domain.BookingRepository, domain.MenuRepository, *database.DB, error) {
	if cfg.Database.Path == "" {
		logger.Info().Msg("using in-memory stores")
		return repository.NewMemoryBookingStore(), repository.NewMemoryMenuStore(), nil, nil
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, nil, nil, err
	}
	return db, db, db, nil
}

func startBackups(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) {
	if !cfg.Database.Backup.Enabled {
		return
	}
	backups := database.NewBackupService(db, cfg.Database.Backup, logging.Component(logger, "backup"))
	go backups.Start(ctx)
}

func seedMenu(ctx context.Context, cfg *config.Config, menu *service.MenuService, logger *zerolog.Logger) error {
	menuPath := os.Getenv("MENU_PATH")
	if menuPath == "" {
		menuPath = cfg.Menu.SeedPath
	}

	items, err := seed.LoadMenu(menuPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("menu_path", menuPath).Msg("menu seed not found, starting with an empty menu")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("menu_path", menuPath).Msg("load menu seed")
		return err
	}

	n, err := menu.Seed(ctx, items)
	if err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}
	logger.Info().Int("seeded", n).Str("menu_path", menuPath).Msg("menu ready")
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initLimiter prefers Redis for submission counters and falls back to memory.
func initLimiter(ctx context.Context, redisClient *redis.Client, logger *zerolog.Logger) domain.SubmissionLimiter {
	memory := repository.NewMemoryLimiter()
	go purgeLoop(ctx, memory, 10*time.Minute)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverLimiter(repository.NewRedisLimiter(redisClient), memory, logging.Component(logger, "limiter"))
}

func purgeLoop(ctx context.Context, limiter *repository.MemoryLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Purge()
		}
	}
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) *tgbotapi.BotAPI {
	if cfg.Telegram.BotToken == "" {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		return nil
	}
	bot.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram connected")
	return bot
}

func initDispatcher(cfg *config.Config, tg *tgbotapi.BotAPI, pool *worker.Pool, logger *zerolog.Logger) *notify.Dispatcher {
	opts := make([]notify.Option, 0, 3)

	httpClient := &http.Client{Timeout: cfg.Notify.Timeout()}
	if cfg.Notify.SMSWebhookURL != "" {
		opts = append(opts, notify.WithChannel("sms",
			notify.NewWebhookChannel("sms", cfg.Notify.SMSWebhookURL, cfg.Notify.WebhookToken, httpClient)))
	}
	if cfg.Notify.WhatsAppWebhookURL != "" {
		opts = append(opts, notify.WithChannel("whatsapp",
			notify.NewWebhookChannel("whatsapp", cfg.Notify.WhatsAppWebhookURL, cfg.Notify.WebhookToken, httpClient)))
	}

	if tg != nil && len(cfg.Telegram.ManagerChatIDs) > 0 {
		opts = append(opts, notify.WithManagerAlerts(notify.NewManagerAlerts(tg, cfg.Telegram.ManagerChatIDs)))
	}

	messages := notify.NewMessages(cfg.Notify.RestaurantName, cfg.Notify.ContactPhone)
	return notify.NewDispatcher(messages, pool, logging.Component(logger, "notify"), opts...)
}

func startManagerBot(
	ctx context.Context,
	cfg *config.Config,
	tg *tgbotapi.BotAPI,
	bookings domain.BookingService,
	menu domain.MenuService,
	logger *zerolog.Logger,
) *bot.Bot {
	if !cfg.Telegram.ManagerBot || tg == nil {
		return nil
	}

	managerBot := bot.NewBot(bot.NewWrapper(tg), bookings, menu, cfg.Telegram.ManagerChatIDs, logging.Component(logger, "bot"))
	go managerBot.Start(ctx)
	return managerBot
}

func initSheets(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	pool *worker.Pool,
	bookings domain.BookingRepository,
	logger *zerolog.Logger,
) {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return
	}

	sheetsLogger := logging.Component(logger, "sheets")
	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, sheetsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sheetsService.TestConnection(checkCtx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return
	}

	// стартовая синхронизация: лист повторяет текущее хранилище
	pool.Submit("sheets:resync", func(ctx context.Context) error {
		return sheetsService.Resync(ctx, bookings)
	})
	go sheetsService.StartCacheRefresh(ctx, time.Hour)

	bus.SubscribeAsync(events.EventBookingCreated, pool, "sheets", sheetsService.HandleEvent)
	bus.SubscribeAsync(events.EventBookingStatusChanged, pool, "sheets", sheetsService.HandleEvent)
	logger.Info().Msg("google sheets mirror enabled")
}

func initAMQP(cfg *config.Config, bus *events.EventBus, pool *worker.Pool, logger *zerolog.Logger) io.Closer {
	if cfg.Events.AMQPURL == "" {
		return nil
	}

	conn, ch, err := events.DialAMQP(cfg.Events.AMQPURL)
	if err != nil {
		logger.Warn().Err(err).Msg("amqp connection failed, events stay in-process")
		return nil
	}

	forwarder, err := events.NewAMQPForwarder(ch, cfg.Events.Exchange, cfg.App.Name, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("amqp exchange setup failed, events stay in-process")
		_ = ch.Close()
		_ = conn.Close()
		return nil
	}

	bus.SubscribeAsync(events.AllEvents, pool, "amqp", forwarder.Forward)
	logger.Info().Str("exchange", cfg.Events.Exchange).Msg("amqp event forwarding enabled")
	return conn
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	// дожидаемся отправки уведомлений, поставленных до остановки
	if err := pool.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Int("pending", pool.Pending()).Msg("worker pool did not drain")
	}

	logger.Info().Msg("API server stopped")
	return runErr
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
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
