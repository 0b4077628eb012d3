// Package telegram handles the setup of the go-telegram bot, registration of
// update handlers, and the Platform adapter the delivery pipeline sends through.
package telegram

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command, content and callback handlers with the bot.
// Handlers with a MatchFunc are routed on it; the rest on pattern and match type.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	log.Info("Registering Telegram handlers...", "count", len(registeredHandlers))

	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}

		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)

		if regHandler.MatchFunc != nil {
			b.RegisterHandlerMatchFunc(regHandler.MatchFunc, finalHandler)
			log.Debug("Registered handler", "name", name, "match", "func", "middleware_count", len(regHandler.Middleware))
			continue
		}

		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler", "name", name, "pattern", regHandler.Pattern, "match_type", regHandler.MatchType, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(registeredHandlers))
	return nil
}

// PublishCommands sets the bot's command menu from the registered handlers
// that carry a description. Admin-only commands stay unlisted.
func PublishCommands(ctx context.Context, b *bot.Bot, registeredHandlers map[string]handlers.RegisteredHandler) error {
	var commands []models.BotCommand
	for _, h := range registeredHandlers {
		if h.Description == "" || h.HandlerType != bot.HandlerTypeMessageText {
			continue
		}
		commands = append(commands, models.BotCommand{Command: h.Pattern, Description: h.Description})
	}
	if len(commands) == 0 {
		return nil
	}
	slices.SortFunc(commands, func(a, b models.BotCommand) int { return cmp.Compare(a.Command, b.Command) })

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}
	return nil
}
