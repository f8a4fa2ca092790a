package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/chatpulse/chatpulse/internal/config"
	"github.com/chatpulse/chatpulse/internal/database"
	"github.com/chatpulse/chatpulse/internal/report"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Report *report.Engine
	TgBot  *tgbot.Bot
}
