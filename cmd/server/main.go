// Package main is the entry point for the catalog API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vyrodovalexey/catalog-store/internal/config"
	"github.com/vyrodovalexey/catalog-store/internal/server"
	"github.com/vyrodovalexey/catalog-store/internal/store"
)

// Log file rotation limits.
const (
	logMaxSizeMB  = 64
	logMaxBackups = 7
	logMaxAgeDays = 7
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the root command with args and returns the exit code.
func execute(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCommand builds the server command. Flags override environment values.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catalog-server",
		Short:         "Product catalog and shop settings API",
		Long:          "Serves the product catalog and shop settings over HTTP, persisted to a single JSON file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				basicLogger, _ := zap.NewProduction()
				basicLogger.Error("failed to load configuration", zap.Error(err))
				return err
			}
			if code := run(cfg); code != 0 {
				return fmt.Errorf("server exited with code %d", code)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("port", config.DefaultServerPort, "HTTP listen port")
	flags.String("data-file", config.DefaultDataFile, "path of the JSON data file")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-file", "", "also write logs to this file, rotated")

	return cmd
}

// loadConfig loads the environment configuration and applies flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.ServerPort, _ = flags.GetInt("port")
	}
	if flags.Changed("data-file") {
		cfg.DataFile, _ = flags.GetString("data-file")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}

	return cfg, nil
}

func run(cfg *config.Config) int {
	logger, err := initLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("data_file", cfg.DataFile),
		zap.String("log_level", cfg.LogLevel),
		zap.String("log_file", cfg.LogFile),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("events_enabled", cfg.EventsEnabled),
		zap.Strings("cors_origins", cfg.CORSOrigins),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
	)

	docStore := store.NewFileStore(cfg.DataFile)

	srv := server.New(cfg, logger, docStore)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// encoderConfig is the JSON log layout shared by every output.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// initLogger initializes a zap logger with the specified log level.
// When logFile is set, entries are also written to a rotated file.
func initLogger(level, logFile string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if logFile == "" {
		return zapConfig.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(rotator),
		zapConfig.Level,
	)

	return zapConfig.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
