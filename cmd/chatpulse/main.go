// Package main contains the entrypoint for the ChatPulse bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/chatpulse/chatpulse/internal/bot"
	"github.com/chatpulse/chatpulse/internal/bot/handlers"
	"github.com/chatpulse/chatpulse/internal/bot/tasks"
	"github.com/chatpulse/chatpulse/internal/config"
	"github.com/chatpulse/chatpulse/internal/database"
	"github.com/chatpulse/chatpulse/internal/ingest"
	"github.com/chatpulse/chatpulse/internal/logger"
	"github.com/chatpulse/chatpulse/internal/report"
	"github.com/chatpulse/chatpulse/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components, blocks until shutdown, and
// returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	location, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		log.Error("Failed to load report timezone", "timezone", cfg.Report.Timezone, "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	pipeline := ingest.NewPipeline(store, log)
	gateway := ingest.NewGateway(pipeline, cfg.Ingest.DedupCacheSize, log)
	reportEngine := report.NewEngine(store, location, cfg.Report.WindowDays, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Gateway:  gateway,
		Report:   reportEngine,
		Location: location,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		Report: reportEngine,
		TgBot:  tg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, gateway, tg, sched)

	log.Info("Starting ChatPulse...")
	runErr := app.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
