package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/five82/swapp/internal/config"
	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/prefs"
	"github.com/five82/swapp/internal/session"
	"github.com/five82/swapp/internal/ui"
)

// Options configure the swapp application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/swapp/prefs.toml
}

// Run boots the swapp TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs failed", "error", err)
	}

	client, err := market.NewClient(cfg.APIURL, market.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("init marketplace client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	policy := gateway.NewImagePolicy(client.BaseURL(), cfg.TrustedImageHosts, logger)
	svc := session.NewService(&session.Store{}, client, logger)
	env := &ui.Env{
		Ctx:     ctx,
		Session: svc,
		Items:   gateway.NewItems(client, policy, logger),
		Offers:  gateway.NewOffers(client, logger),
		Profile: gateway.NewProfile(client, logger),
		Logger:  logger,
		LogFile: cfg.LogFile,
	}

	StartPoller(ctx, svc, cfg.PollInterval, logger)

	logger.Info("swapp starting", "api", cfg.APIURL, "poll", cfg.PollInterval)
	err = ui.Run(ctx, ui.Options{
		Env:       env,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		APIURL:    cfg.APIURL,
	})
	logger.Info("swapp stopped")
	return err
}

// openLog appends to path. The terminal belongs to the UI, so nothing is
// ever logged to stdout or stderr.
func openLog(path string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), file, nil
}
