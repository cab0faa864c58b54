package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"popkiosk/internal/commons"
	"popkiosk/internal/config"
	"popkiosk/internal/infrastructure/logger"
	"popkiosk/internal/infrastructure/mysql"
	redisinfra "popkiosk/internal/infrastructure/redis"
	"popkiosk/internal/notify"
	"popkiosk/internal/order"
	"popkiosk/internal/pricing"
	"popkiosk/internal/product"
	"popkiosk/internal/server"
	"popkiosk/internal/settings"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	redisClient, err := redisinfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer redisClient.Close()
	zapLogger.Info("redis connected")

	var sender notify.Sender
	if cfg.Notify.BotToken != "" {
		sender = notify.NewTelegramSender(cfg.Notify.APIBaseURL, cfg.Notify.BotToken, cfg.Notify.ChatID)
	} else {
		zapLogger.Warn("no notify bot token configured, notifications disabled")
		sender = notify.NopSender{}
	}
	dispatcher := notify.NewDispatcher(sender, zapLogger, cfg.Notify.Retries, cfg.Notify.QueueSize)
	defer dispatcher.Close()

	settingsModule := settings.NewModule(db, cfg.Pricing.MarkupPercent, zapLogger)

	fetcher := pricing.NewCoinGeckoFetcher(cfg.Pricing.UpstreamURL, cfg.Pricing.FetchTimeout)
	priceProvider := pricing.NewProvider(fetcher, settingsModule.Markup, cfg.Pricing.CacheTTL, zapLogger)
	pricesController := pricing.NewController(priceProvider, zapLogger)

	productModule := product.NewModule(db, zapLogger)
	orderModule := order.NewModule(db, redisClient, productModule.Repository, priceProvider,
		dispatcher, cfg.Kiosk.MaxOrders, zapLogger)

	router := server.NewRouter(orderModule, productModule, settingsModule, pricesController,
		cfg.Admin.Token, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return commons.LoadConfig(path)
	}
	return config.Load()
}
