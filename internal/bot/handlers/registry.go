package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its registration
// parameters and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands. The default (non-command) message handler is registered
// separately as the bot's default handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))
	handlers["/activity"] = command("activity", NewActivityHandler(deps))
	handlers["/mentions"] = command("mentions", NewMentionsHandler(deps))
	handlers["/tasks"] = command("tasks", NewTasksHandler(deps))
	handlers["/topics"] = command("topics", NewTopicsHandler(deps))
	handlers["/temperature"] = command("temperature", NewTemperatureHandler(deps))
	handlers["/task_done"] = command("task_done", NewTaskDoneHandler(deps))

	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}
	handlers["/report"] = command("report", NewReportHandler(deps), adminMiddleware...)

	return handlers
}
