package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"aytam/internal/amqp"
	"aytam/internal/config"
	"aytam/internal/export"
	gsink "aytam/internal/export/google"
	msink "aytam/internal/export/memory"
	"aytam/internal/log"
	"aytam/internal/report"
	"aytam/internal/services"
	"aytam/internal/storage"
	"aytam/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting aytam-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Choose the export sink
	var sink export.Sink
	switch cfg.ExportSink {
	case "sheets":
		client, err := gsink.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		sink = msink.New()
		logger.Info("Memory sink initialized")
	}

	directory := services.NewDirectory(repo)
	reporting := services.NewReporting(repo)
	builder := report.NewBuilder(directory, reporting, cfg.OrganizationName)
	exportWorker := worker.NewExportWorker(builder, sink)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Consume export requests
	g.Go(func() error {
		err := amqpClient.ConsumeReportExports(ctx, func(msg *amqp.ReportExportMessage) error {
			return exportWorker.HandleExportMessage(ctx, msg)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	})

	// Periodic monthly minors export, so the spreadsheet stays current
	// even when nobody requests it explicitly.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				msg := amqp.NewMonthlyMinorsMessage(cfg.ExportMonths)
				if err := exportWorker.HandleExportMessage(ctx, msg); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
