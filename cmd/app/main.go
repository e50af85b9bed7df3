// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-marketplace-bot/internal/application"
	"telegram-marketplace-bot/internal/config"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	tele "telegram-marketplace-bot/internal/infra/adapters/telegram"
	pg "telegram-marketplace-bot/internal/infra/db/postgres"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
	red "telegram-marketplace-bot/internal/infra/redis"
	"telegram-marketplace-bot/internal/infra/sched"
	"telegram-marketplace-bot/internal/infra/web"
	"telegram-marketplace-bot/internal/infra/worker"
	"telegram-marketplace-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 30*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()
	sessions := red.NewSessionRepo(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	storeRepo := pg.NewPostgresStoreRepo(pool)
	offerRepo := pg.NewPostgresOfferRepo(pool)
	bookingRepo := pg.NewPostgresBookingRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Delivery workers ----
	wp := worker.NewPool(cfg.Bot.Workers, logger)
	wp.Start(ctx)
	defer wp.Stop()

	// ---- Telegram adapter ----
	var bot adapter.TelegramBotAdapter
	var realBot *tele.RealBotAdapter
	if cfg.Runtime.Dev {
		bot = tele.NewNoopBotAdapter(logger)
	} else {
		if strings.ToLower(cfg.Bot.Mode) != "polling" && cfg.Bot.Mode != "" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented, falling back to polling")
		}
		realBot, err = tele.NewRealBotAdapter(cfg.Bot.Token, cfg.Bot.Workers, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram adapter failed")
		}
		bot = realBot
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	storeUC := usecase.NewStoreUseCase(storeRepo, userRepo, tm, logger)
	offerUC := usecase.NewOfferUseCase(offerRepo, storeRepo, tm, logger)
	bookingUC := usecase.NewBookingUseCase(bookingRepo, offerRepo, storeRepo, tm, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, storeRepo, offerRepo, bookingRepo, logger)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, bot, wp, logger)

	// ---- Conversation orchestrator ----
	bundle, err := i18n.NewBundle(i18n.LocalesFS, model.LangRU, model.LangRU, model.LangUZ)
	if err != nil {
		logger.Fatal().Err(err).Msg("locale bundle failed")
	}
	orch := application.NewOrchestrator(
		flow.MustRegistry(),
		sessions,
		locker,
		limiter,
		bot,
		bundle,
		application.UseCases{
			Users:     userUC,
			Stores:    storeUC,
			Offers:    offerUC,
			Bookings:  bookingUC,
			Stats:     statsUC,
			Broadcast: broadcastUC,
		},
		cfg.Bot.AdminIDs,
		cfg.Bot.RateLimit,
		logger,
	)

	if realBot != nil {
		go func() {
			if err := realBot.StartPolling(ctx, orch); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	} else {
		logger.Info().Msg("dev mode: telegram polling disabled")
	}

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	srv := web.NewServer(statsUC, userUC, storeUC, offerUC, bookingUC, cfg.Admin.Username, cfg.Admin.Password, auth, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("admin api listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin api server error")
		}
	}()

	// ---- Offer expiry worker ----
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryCheckEvery, offerUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin api shutdown failed")
	}
}
