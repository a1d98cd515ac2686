package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	donkiadapter "github.com/Ryan-ai-champ/data-sourcing-challenge/internal/adapter/donki"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/adapter/httpadapter"
	kafkaadapter "github.com/Ryan-ai-champ/data-sourcing-challenge/internal/adapter/kafka"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/config"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/export"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/observability"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/pipeline"
)

func main() {
	var (
		startFlag  = flag.String("start", "", "start date (YYYY-MM-DD), overrides config")
		endFlag    = flag.String("end", "", "end date (YYYY-MM-DD), overrides config")
		configFlag = flag.String("config", "", "path to a YAML config file")
		mockFlag   = flag.Bool("mock", false, "use built-in fixture data instead of the live API")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := applyDateFlags(cfg, *startFlag, *endFlag); err != nil {
		slog.Error("invalid date flag", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clk := clockwork.NewRealClock()

	var fetcher pipeline.Fetcher
	if *mockFlag {
		logger.Info("mock mode: serving built-in fixtures, no API key needed")
		fetcher = newMockFetcher()
	} else {
		if cfg.APIKey == "" {
			logger.Error("NASA_API_KEY is required; set it in the environment or a .env file")
			os.Exit(1)
		}
		fetcher = donkiadapter.NewClient(cfg, clk, logger, metrics)
	}

	exporter := export.New(logger, metrics)

	var publisher pipeline.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(fetcher, exporter, publisher, cfg, clk, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional metrics listener for long chunked backfills.
	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		os.Exit(1)
	}
}

func applyDateFlags(cfg *config.Config, start, end string) error {
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return err
		}
		cfg.StartDate = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return err
		}
		cfg.EndDate = t
	}
	return nil
}
