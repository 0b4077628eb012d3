// Package bot manages the lifecycle of the video note bot: the Telegram
// listener, the maintenance scheduler and the analytics pipeline.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// analyticsFlushTimeout bounds how long shutdown waits for in-flight events.
const analyticsFlushTimeout = 5 * time.Second

// Listener receives updates until its context is cancelled. *tgbot.Bot implements it.
type Listener interface {
	Start(ctx context.Context)
}

// Flusher drains buffered work on shutdown. *analytics.Client implements it.
type Flusher interface {
	Close(ctx context.Context) error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler *Scheduler
	analytics Flusher
}

// NewBot creates a new instance of the bot. analytics may be nil.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, analytics Flusher) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
		analytics: analytics,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on context cancellation.
// It returns an error if any component fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	b.flushAnalytics()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

func (b *Bot) flushAnalytics() {
	if b.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), analyticsFlushTimeout)
	defer cancel()

	if err := b.analytics.Close(ctx); err != nil {
		b.logger.Warn("Analytics events still in flight at shutdown", "error", err)
		return
	}
	b.logger.Info("Analytics flushed.")
}
