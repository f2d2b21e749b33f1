package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/finance"
	apphttp "dompet/internal/http"
	applog "dompet/internal/log"
	"dompet/internal/parser"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	caches := cache.NewManager()
	var parserClient *parser.Client
	if cfg.ParserURL != "" {
		parserClient = parser.NewClient(cfg.ParserURL, cfg.ParserTimeout)
		caches.Register(parserClient.ResultCache())
		logger.Info("Parse service enabled", "url", cfg.ParserURL)
	} else {
		logger.Info("Parse service disabled - no PARSER_URL provided")
	}
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	manager := finance.NewManager(store, events)
	manager.SetRecentLimit(cfg.RecentLimit)

	// Warm the published state before accepting traffic.
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()
	if err := manager.Bootstrap(startCtx); err != nil {
		logger.Error("Failed to load initial state", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, manager, parserClient, store, logger.WithComponent(applog.ComponentHTTP))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting dompet server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
