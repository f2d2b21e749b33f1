package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the budget worker")
		os.Exit(1)
	}

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	budget := worker.NewBudgetWorker(store)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch anything that happened while the worker was down.
	if _, err := budget.SweepMonth(ctx, core.CurrentMonth()); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeTransactionEvents(gctx, func(ev *amqp.TransactionEvent) error {
			return budget.HandleTransactionEvent(gctx, ev)
		})
	})
	g.Go(func() error {
		return budget.Run(gctx, cfg.BudgetSweepInterval)
	})

	logger.Info("Budget worker started",
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.BudgetSweepInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
