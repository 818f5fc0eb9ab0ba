package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ratiolens/database"
	"ratiolens/fetch"
	"ratiolens/ratio"
	"ratiolens/service"
	"ratiolens/shared"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

// run executes the analysis mode selected by the config. The terminal session
// is acquired up front and released on every exit path.
func run(ctx context.Context, cfg *Config, logger *zerolog.Logger) error {
	timeframe, err := shared.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		return err
	}

	presets, err := ratio.LoadPresets(cfg.PresetsPath)
	if err != nil {
		return err
	}

	clientLogger := logger.With().Str("component", "terminal").Logger()
	client, err := fetch.NewTerminalClient(&fetch.TerminalConfig{
		BaseURL:   cfg.GatewayURL,
		AuthToken: cfg.GatewayToken,
		Logger:    &clientLogger,
	})
	if err != nil {
		return fmt.Errorf("creating terminal client: %w", err)
	}

	err = client.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err := client.Close(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("releasing terminal session failed")
		}
	}()

	var storer database.SummaryStorer
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		storer = db
	}

	analyzerLogger := logger.With().Str("component", "analyzer").Logger()
	analyzer, err := service.NewAnalyzer(&service.AnalyzerConfig{
		Fetcher:   client,
		Storer:    storer,
		Presets:   presets,
		OutputDir: cfg.OutputDir,
		Output:    os.Stdout,
		Logger:    &analyzerLogger,
	})
	if err != nil {
		return fmt.Errorf("creating analyzer service: %w", err)
	}

	switch {
	case cfg.CheckAvailability:
		results, err := analyzer.CheckAvailability(ctx, service.DefaultSymbolGroups(), timeframe, cfg.Days)
		if err != nil {
			return err
		}
		service.WriteAvailabilityReport(os.Stdout, results)

	case cfg.ScheduleAt != "":
		return analyzer.RunScheduled(ctx, cfg.ScheduleAt, timeframe, cfg.Days)

	case cfg.Batch:
		batch, err := analyzer.RunBatch(ctx, timeframe, cfg.Days)
		if err != nil {
			return err
		}
		if len(batch.Completed) == 0 {
			return fmt.Errorf("no ratios completed")
		}

	case cfg.Ratio != "":
		_, err := analyzer.RunSingle(ctx, cfg.Ratio, timeframe, cfg.Days)
		if err != nil {
			return err
		}

	default:
		_, err := analyzer.RunInteractive(ctx, os.Stdin)
		if err != nil {
			return err
		}
	}

	return nil
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "ratiolens").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleTermination(ctx, cancel)

	err = run(ctx, &cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("analysis run failed")
		os.Exit(1)
	}
}
