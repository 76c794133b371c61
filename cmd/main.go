package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/bootstrap"
	"khpanel/internal/bot"
	"khpanel/internal/config"
	cronpkg "khpanel/internal/cron"
	"khpanel/internal/middleware"
	"khpanel/internal/panel"
	"khpanel/internal/payment"
	"khpanel/internal/provision"
	"khpanel/internal/repository"
	"khpanel/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db, cfg.Panel.AdminEmail, cfg.Panel.AdminPassword); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Panel adapter registry + orchestrator ---
	registry := panel.NewRegistry()
	orchestrator := provision.New(registry)

	// --- Payment gateways ---
	gateways := payment.Gateways{}
	if cfg.Payment.ZarinPal.Merchant != "" {
		gw := payment.NewZarinPalGateway(cfg.Payment.ZarinPal.Merchant, cfg.Payment.ZarinPal.Sandbox)
		gateways[gw.Name()] = gw
	}
	if cfg.Payment.Zibal.Merchant != "" {
		gw := payment.NewZibalGateway(cfg.Payment.Zibal.Merchant)
		gateways[gw.Name()] = gw
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	updateDeduper, dedupeErr := middleware.NewUpdateDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Bot (optional: runs only when a token is configured) ---
	var teleBot *bot.Bot
	if cfg.Bot.Token != "" {
		botRepos := &bot.BotRepos{
			Account: repository.NewAccountRepository(db),
			Server:  repository.NewServerRepository(db),
			Service: repository.NewServiceRepository(db),
			Invoice: repository.NewInvoiceRepository(db),
		}
		teleBot, err = bot.New(cfg, botRepos, orchestrator, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
	} else {
		logger.Info("BOT_TOKEN not set, Telegram bot disabled")
	}

	// --- Routes ---
	var webhookHandler http.Handler
	if teleBot != nil {
		webhookHandler = teleBot.WebhookHandler()
	}
	router.Setup(e, db, registry, gateways, logger, cfg.API.Key, cfg.Payment.CallbackURL, updateDeduper, webhookHandler)

	// --- Cron Scheduler ---
	cronRepos := &cronpkg.CronRepos{
		Account: repository.NewAccountRepository(db),
		Server:  repository.NewServerRepository(db),
		Plan:    repository.NewPlanRepository(db),
		Service: repository.NewServiceRepository(db),
		Invoice: repository.NewInvoiceRepository(db),
		Audit:   repository.NewAuditRepository(db),
	}
	var notifier cronpkg.Notifier
	if teleBot != nil {
		notifier = teleBot
	}
	scheduler := cronpkg.New(cronRepos, registry, orchestrator, notifier, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting panel server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	if teleBot != nil {
		go teleBot.Start()
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	if teleBot != nil {
		teleBot.Stop()
	}

	ctx := scheduler.Stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
