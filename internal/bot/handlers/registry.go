package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/telesco/internal/relay"
)

// RegisteredHandler represents an update handler with its routing and middleware.
// A non-nil MatchFunc takes precedence over HandlerType, Pattern and MatchType.
// Commands with a Description are listed in the client's command menu.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	MatchFunc   tgbot.MatchFunc
	Description string
}

// RegisterAllCommands initializes and returns a map of all routed handlers.
// Plain text is served by the default handler (NewTextHandler), not from here.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: "Start the bot",
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: "How to make a video note",
	}
	handlers["/stats"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "stats",
		Handler:     NewStatsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  []tgbot.Middleware{AdminOnly(deps)},
	}

	handlers["media"] = RegisteredHandler{
		Handler:   NewMediaHandler(deps),
		MatchFunc: IsMediaMessage,
	}
	handlers["video_note"] = RegisteredHandler{
		Handler:   NewVideoNoteHandler(deps),
		MatchFunc: IsVideoNoteMessage,
	}
	handlers["relay"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     relay.TokenPrefix,
		Handler:     NewRelayHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	deps.Logger.Debug("Prepared update handlers", "count", len(handlers))
	return handlers
}
