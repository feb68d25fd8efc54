package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"mintward/internal/amqp"
	"mintward/internal/budget"
	"mintward/internal/config"
	"mintward/internal/feed"
	"mintward/internal/log"
	"mintward/internal/services"
	"mintward/internal/sheets"
	gsheet "mintward/internal/sheets/google"
	mem "mintward/internal/sheets/memory"
	"mintward/internal/storage"
	"mintward/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting mintward-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	templates, err := newTemplateReader(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize template backend", "error", err, "backend", cfg.TemplateBackend)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	source := feed.DirSource{Dir: cfg.DownloadDir}
	svc := services.NewReportService(source, templates, repo, amqpClient)
	reportWorker := worker.NewReportWorker(svc, services.RunConfig{LookbackDays: cfg.LookbackDays}, cfg.ReportInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reportWorker.Run(gctx)
	})

	// Drain our own report queue and hand each message to the notifier. The
	// default notifier only logs the delivery; mail transport sits outside
	// this process.
	g.Go(func() error {
		return amqpClient.ConsumeReports(gctx, func(msg *amqp.ReportMessage) error {
			logger.Info("Report delivered",
				"run_id", msg.RunID,
				"subject", msg.Subject,
				"year", msg.Year,
				"month", msg.Month,
				"spent_cents", msg.SpentCents)
			return nil
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func newTemplateReader(cfg *config.Config, logger *log.Logger) (sheets.TemplateReader, error) {
	switch cfg.TemplateBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			return nil, err
		}
		logger.Info("Initialized Google Sheets template backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return cli, nil
	case "file":
		logger.Info("Initialized file template backend", "path", cfg.TemplatePath)
		return budget.Source{Path: cfg.TemplatePath}, nil
	default:
		logger.Info("Initialized memory template backend")
		return mem.NewDefault(), nil
	}
}
