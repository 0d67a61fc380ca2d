// File: cmd/app/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/application"
	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	tele "telegram-storefront-bot/internal/infra/adapters/telegram"
	"telegram-storefront-bot/internal/infra/db"
	"telegram-storefront-bot/internal/infra/geocoding"
	httpapi "telegram-storefront-bot/internal/infra/http"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
	"telegram-storefront-bot/internal/infra/pending"
	red "telegram-storefront-bot/internal/infra/redis"
	"telegram-storefront-bot/internal/infra/sched"
	"telegram-storefront-bot/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Config & logging ----
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Store ----
	store, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("store")
	}
	defer store.Close()
	go store.ReportPoolStats(ctx, 15*time.Second)

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, store.Driver)

	var users repository.UserRepository = store.Users

	// ---- Geocoder ----
	nominatim, err := geocoding.NewNominatimGeocoder(cfg.Geocoder, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("geocoder")
	}
	var geo adapter.Geocoder = nominatim

	// ---- Redis (optional) ----
	var (
		locker      repository.JobLocker
		rateLimiter *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()

		users = red.NewUserRepoCacheDecorator(users, redisClient, cfg.Redis.TTL, logger)
		geo = red.NewGeocodeCache(geo, redisClient, cfg.Geocoder.CacheTTL)
		locker = red.NewLocker(redisClient)
		rateLimiter = red.NewRateLimiter(redisClient)
		logger.Info().Msg("redis enabled: registered cache, geocode cache, job locks, rate limiting")
	}

	// ---- Telegram ----
	bot, err := tele.NewRealTelegramBotAdapter(cfg.Bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	if rateLimiter != nil {
		bot.WithRateLimiter(rateLimiter, cfg.RateLimit.PerMinute, tr)
	}

	// ---- Use cases ----
	registry := pending.NewRegistry(clockwork.NewRealClock())
	regUC := usecase.NewRegistrationUseCase(users, registry, bot, tr, cfg.Bot.WebAppURL, cfg.Registration.LocationTimeout, logger)
	broadcastUC := usecase.NewBroadcastUseCase(users, bot, tr, locker, cfg.Broadcast.RatePerSecond, logger)
	exportUC := usecase.NewExportUseCase(users, geo, bot, tr, locker, usecase.ExportOptions{
		Dir:     cfg.Export.Dir,
		Workers: cfg.Geocoder.Workers,
	}, logger)
	orderUC := usecase.NewOrderUseCase(bot, tr, cfg.Bot.AdminID, logger)
	userUC := usecase.NewUserUseCase(users, bot, tr, logger)

	router := application.NewRouter(cfg.Bot.AdminID, regUC, broadcastUC, exportUC, orderUC, userUC, logger)

	statsWorker := sched.NewStatsWorker(time.Minute, userUC, registry, logger)
	go func() { _ = statsWorker.Run(ctx) }()

	// ---- Ops HTTP ----
	ops := httpapi.NewServer(cfg.HTTP, users, logger)
	go func() {
		if err := ops.Start(); err != nil {
			logger.Error().Err(err).Msg("ops http server stopped")
		}
	}()

	// ---- Polling ----
	logger.Info().
		Str("version", version).
		Str("store", store.Driver).
		Int("workers", cfg.Bot.Workers).
		Msg("bot started")
	if err := bot.StartPolling(ctx, router); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("telegram polling stopped")
	}

	// ---- Graceful shutdown ----
	logger.Info().Int("pending_registrations", registry.Len()).Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ops http shutdown")
	}
}
