package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/app"
	"taskdeck/internal/billing"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	kv, err := store.NewKV(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer kv.Close()

	ctx := context.Background()
	tasks, err := store.NewTaskStore(ctx, kv)
	if err != nil {
		return fmt.Errorf("loading todos: %w", err)
	}
	sessions, err := store.NewSessionStore(ctx, kv)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	billingClient := billing.New(cfg.Billing.BaseURL)
	mailer := notify.NewMailer(cfg.Storage.OutboxDir)

	root := app.New(
		tasks,
		sessions,
		billingClient,
		mailer,
		cfg.AI.Model,
		cfg.AI.MaxTokens,
	)

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
