package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/efdarkside/whatsapi/internal/api"
	"github.com/efdarkside/whatsapi/internal/config"
	"github.com/efdarkside/whatsapi/internal/dedup"
	"github.com/efdarkside/whatsapi/internal/delivery"
	"github.com/efdarkside/whatsapi/internal/intent"
	"github.com/efdarkside/whatsapi/internal/logx"
	"github.com/efdarkside/whatsapi/internal/relay"
	"github.com/efdarkside/whatsapi/internal/webhook"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	logger, err := logx.New(cfg.App.Name, cfg.App.Env)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// duplicate guard
	var guard dedup.Guard
	switch cfg.Dedup.Backend {
	case config.DedupRedis:
		redisGuard := dedup.NewRedis(cfg.Redis.Addr, cfg.Redis.DB, cfg.Dedup.TTL)
		defer redisGuard.Close()
		guard = redisGuard
	default:
		guard = dedup.NewMemory(cfg.Dedup.Capacity, logger)
	}

	// outbound clients
	intentClient := intent.NewHTTP(intent.Config{
		Endpoint: cfg.Intent.Endpoint,
		Project:  cfg.Intent.Project,
		Language: cfg.Intent.Language,
		Timeout:  cfg.Intent.Timeout,
	}, logger)

	sender := delivery.NewHTTP(delivery.Config{
		Endpoint:      cfg.Delivery.Endpoint,
		PhoneNumberID: cfg.Delivery.PhoneNumberID,
		Token:         cfg.Delivery.Token,
		Timeout:       cfg.Delivery.Timeout,
	}, logger)

	dispatcher := relay.New(intentClient, sender, logger)
	normalizer := webhook.NewNormalizer(cfg.Webhook.OnEmptyText, logger)

	// HTTP server
	srv := api.NewServer(api.ServerCfg{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		VerifyToken:  cfg.Webhook.VerifyToken,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
	}, normalizer, guard, dispatcher, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	logger.Sync()
}
