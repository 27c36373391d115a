package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/cognicore/hanvocab/internal/logging"
	"github.com/cognicore/hanvocab/pkg/hanvocab"
	"github.com/cognicore/hanvocab/pkg/hanvocab/config"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store/sqlite"
)

const defaultConfigPath = "hanvocab.yaml"

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default: "+defaultConfigPath+" if present, else built-in defaults)")
		logLevel   = flag.String("log-level", "", "Log level override: debug, info, warn, error")
		logFormat  = flag.String("log-format", "", "Log format override: console or json")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads path, or hanvocab.yaml when it exists, or falls back to
// the built-in defaults.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, err
	}
	return config.Default(), nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var st store.Store
	if cfg.Reports.SQLite != "" {
		s, err := sqlite.OpenSQLite(ctx, cfg.Reports.SQLite)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer s.Close()
		st = s
	}

	curator, err := hanvocab.New(hanvocab.Options{
		Config: cfg,
		Logger: logger,
		Store:  st,
	})
	if err != nil {
		return err
	}

	res, err := curator.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("curated vocabulary",
		zap.String("run_id", res.RunID),
		zap.Int("vocabulary", res.VocabularySize),
		zap.Int("stopwords", res.StopwordCount),
		zap.Int("tokens", len(res.Rows)))
	return nil
}
