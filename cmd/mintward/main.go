package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mintward/internal/amqp"
	"mintward/internal/budget"
	"mintward/internal/config"
	"mintward/internal/feed"
	apphttp "mintward/internal/http"
	"mintward/internal/log"
	"mintward/internal/services"
	"mintward/internal/sheets"
	gsheet "mintward/internal/sheets/google"
	mem "mintward/internal/sheets/memory"
	"mintward/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	source := feed.DirSource{Dir: cfg.DownloadDir}

	// Storage and AMQP are best effort for the server: without them the
	// summary endpoints still work, only history and notifications drop out.
	var (
		runStore  services.RunStore
		runReader apphttp.RunReader
	)
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Warn("SQLite unavailable, run history disabled", "error", err, "path", cfg.SQLiteDBPath)
	} else {
		defer repo.Close()
		runStore = repo
		runReader = repo
	}

	var publisher services.ReportPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, report notifications disabled", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	svc := services.NewReportService(source, templates, runStore, publisher)
	runCfg := services.RunConfig{LookbackDays: cfg.LookbackDays}

	srv := apphttp.NewServer(":"+cfg.Port, svc, runReader, runCfg)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting mintward server",
		"port", cfg.Port,
		"template_backend", cfg.TemplateBackend,
		"download_dir", cfg.DownloadDir,
		"lookback_days", cfg.LookbackDays)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// newTemplateReader picks the budget template source from configuration.
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
