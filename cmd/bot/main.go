// Package main contains the entrypoint for the video note Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/telesco/internal/analytics"
	"github.com/edgard/telesco/internal/analytics/amqp"
	"github.com/edgard/telesco/internal/analytics/mixpanel"
	"github.com/edgard/telesco/internal/bot"
	"github.com/edgard/telesco/internal/bot/handlers"
	"github.com/edgard/telesco/internal/bot/tasks"
	"github.com/edgard/telesco/internal/config"
	"github.com/edgard/telesco/internal/database"
	"github.com/edgard/telesco/internal/delivery"
	"github.com/edgard/telesco/internal/directory"
	"github.com/edgard/telesco/internal/logger"
	"github.com/edgard/telesco/internal/media"
	"github.com/edgard/telesco/internal/resilience"
	"github.com/edgard/telesco/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, event log,
// analytics, bot, scheduler), handles graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	var store database.Store
	if cfg.Analytics.StoreEvents {
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
			return 1
		}
		defer database.CloseDB(db)
		store = database.NewStore(db, log)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = store.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Error("Event log health check failed", "path", cfg.Database.Path, "error", err)
			return 1
		}
	}

	sinks, closeSinks, err := buildSinks(cfg, store, log)
	if err != nil {
		log.Error("Failed to initialize analytics sinks", "error", err)
		return 1
	}
	defer closeSinks()

	var tracker analytics.Tracker = analytics.Noop{}
	var flusher bot.Flusher
	if len(sinks) > 0 {
		client := analytics.NewClient(log, cfg.Analytics.Timeout, sinks...)
		tracker, flusher = client, client
		log.Info("Analytics enabled", "sinks", client.Sinks())
	} else {
		log.Info("Analytics disabled, no sinks configured")
	}

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		Tracker: tracker,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewTextHandler(hDeps)),
		tgbot.WithHTTPClient(cfg.Telegram.RequestTimeout, &http.Client{Timeout: cfg.Telegram.RequestTimeout}),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram client error", "error", err)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	platform := telegram.NewPlatform(tg, cfg.Telegram.DownloadTimeout, log)
	resolver := directory.NewResolver(
		directory.NewSource(cfg.Directory.URL, cfg.Directory.FetchTimeout, log),
		platform,
		cfg.Directory.TTL,
		cfg.Directory.TitleTTL,
		log,
		directory.WithFailureTTL(cfg.Directory.FailureTTL),
	)
	hDeps.Delivery = delivery.NewOrchestrator(delivery.Deps{
		Platform: platform,
		Limits: media.Limits{
			MaxDimension: cfg.Conversion.MaxDimension,
			MaxDuration:  cfg.Conversion.MaxDuration,
			MaxSize:      cfg.Conversion.MaxSize,
		},
		Resolver: resolver,
		Tracker:  tracker,
		Catalog:  cfg.Messages,
		Logger:   log,

		ActionInterval: cfg.Telegram.ActionInterval,
	})

	registered := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, registered); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.PublishCommands(ctx, tg, registered); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched, flusher)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// buildSinks creates every configured analytics sink. The returned func
// closes sinks that hold connections.
func buildSinks(cfg *config.Config, store database.Store, log *slog.Logger) ([]analytics.Sink, func(), error) {
	var sinks []analytics.Sink
	closeFn := func() {}

	if store != nil {
		sinks = append(sinks, database.NewEventSink(store))
	}

	if cfg.Analytics.MixpanelToken != "" {
		sinks = append(sinks, guard(mixpanel.New(cfg.Analytics.MixpanelToken, "", cfg.Analytics.Timeout), log))
	}

	if cfg.Analytics.AMQP.URL != "" {
		sink, err := amqp.Dial(amqp.Config{
			URL:        cfg.Analytics.AMQP.URL,
			Exchange:   cfg.Analytics.AMQP.Exchange,
			RoutingKey: cfg.Analytics.AMQP.RoutingKey,
			Producer:   cfg.Analytics.AMQP.Producer,
		}, log)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, guard(sink, log))
		closeFn = func() {
			if err := sink.Close(); err != nil {
				log.Warn("Error closing analytics broker connection", "error", err)
			}
		}
	}

	return sinks, closeFn, nil
}

// guard puts a remote sink behind its own circuit breaker.
func guard(sink analytics.Sink, log *slog.Logger) analytics.Sink {
	return analytics.Guard(sink, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: sink.Name()}, log))
}
