package handlers

import (
	"log/slog"
	"time"

	"github.com/chatpulse/chatpulse/internal/config"
	"github.com/chatpulse/chatpulse/internal/database"
	"github.com/chatpulse/chatpulse/internal/ingest"
	"github.com/chatpulse/chatpulse/internal/report"
)

// HandlerDeps provides dependencies for Telegram command and message
// handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Gateway  *ingest.Gateway
	Report   *report.Engine
	Location *time.Location
}
