// ABOUTME: Entry point for the tutorchat terminal client
// ABOUTME: Wires config, storage, transport, the conversation core, and the TUI

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/2389/tutorchat/internal/config"
	"github.com/2389/tutorchat/internal/conversation"
	"github.com/2389/tutorchat/internal/store"
	"github.com/2389/tutorchat/internal/transport"
	"github.com/2389/tutorchat/internal/tui"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version)
		return
	}

	if err := run(ctx); err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logger, logClose, err := setupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logClose()

	logger.Info("starting tutorchat",
		"version", version,
		"config", configPath,
		"server_url", cfg.Server.URL,
		"database", cfg.Database.Path,
	)

	stor, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	defer stor.Close()

	client := transport.NewClient(transport.ClientConfig{
		URL:            cfg.Server.URL,
		ReconnectDelay: cfg.Server.ReconnectDelay,
		Logger:         logger,
	})

	core, err := conversation.New(ctx, conversation.Config{
		Store:   stor,
		Channel: client,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}
	defer core.Close()

	// The transport redials until ctx is cancelled; the controller is the
	// sole consumer of its event queue.
	go client.Run(ctx)
	go core.Run(ctx, client.Events())

	model := tui.New(ctx, tui.Options{
		Core:                 core,
		ConnStates:           client.States(),
		RecommendedQuestions: cfg.Questions.Recommended,
		ExportDir:            cfg.Export.Dir,
		Logger:               logger,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running interface: %w", err)
	}

	logger.Info("tutorchat stopped")
	return nil
}

// setupLogger opens the configured log file and builds the slog handler.
// Falls back to discarding logs when no file is configured.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = io.Discard
	closeFn := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), closeFn, nil
}
