package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-newsdesk/internal/app"
	"github.com/samvad-hq/samvad-newsdesk/internal/config"
	"github.com/samvad-hq/samvad-newsdesk/internal/logger"
	"github.com/samvad-hq/samvad-newsdesk/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newsdesk failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the UI; logs must go to a file.
	if cfg.LogFile == "" || cfg.LogFile == "stdout" || cfg.LogFile == "stderr" {
		cfg.LogFile = "./data/newsdesk.log"
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("newsdesk starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	desk, err := app.NewDesk(ctx, cfg, log, app.Options{})
	if err != nil {
		logger.ErrorObj("failed to initialize desk", "error", err)
		return err
	}
	defer func() {
		if err := desk.Close(); err != nil {
			logger.ErrorObj("desk close failed", "error", err)
		}
	}()

	program := tea.NewProgram(tui.NewModel(ctx, desk), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
