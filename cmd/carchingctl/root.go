package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"carching-assistant/internal/app"
	"carching-assistant/internal/bootstrap"
	"carching-assistant/internal/config"
	"carching-assistant/internal/platform/logging"
	redisClient "carching-assistant/internal/platform/redis"
)

type syncRunner interface {
	Sync(ctx context.Context, scope string) (*app.SyncResult, error)
}

type asker interface {
	Ping(ctx context.Context, question string) string
}

type templateSender interface {
	SendTemplate(ctx context.Context, to, name, languageCode string) error
}

// services is what the subcommands need from the core wiring.
type services struct {
	syncer syncRunner
	asker  asker
	sender templateSender
	close  func()
}

var rootCmd = &cobra.Command{
	Use:           "carchingctl",
	Short:         "Operate the carching assistant from the command line",
	SilenceUsage: true,
}

// newServices is replaced in tests.
var newServices = func(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := logging.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	closeFn := func() {}
	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("redis unavailable, sync runs without lock", "error", err)
		redisCli = nil
	} else {
		closeFn = func() { _ = redisCli.Close() }
	}

	core, err := bootstrap.NewCore(ctx, cfg, logger, redisCli)
	if err != nil {
		closeFn()
		return nil, err
	}
	return &services{
		syncer: core.Sync,
		asker:  core.Chat,
		sender: core.WhatsApp,
		close:  closeFn,
	}, nil
}
