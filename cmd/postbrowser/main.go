package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/postbrowser/internal/adapter"
	"github.com/mmcdole/postbrowser/internal/adapter/source"
	"github.com/mmcdole/postbrowser/internal/store"
	"github.com/mmcdole/postbrowser/internal/tui"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	fs := pflag.NewFlagSet("postbrowser", pflag.ContinueOnError)
	adapter.RegisterFlags(fs)
	showVersion := fs.BoolP("version", "v", false, "print version")
	initConfig := fs.Bool("init-config", false, "write the effective config to the config directory and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *showVersion {
		fmt.Printf("postbrowser %s\n", Version)
		return
	}

	if err := run(fs, *initConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet, initConfig bool) error {
	// Load configuration
	cfg, err := adapter.LoadConfig(fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if initConfig {
		path, err := adapter.SaveConfig(cfg, "")
		if err != nil {
			return err
		}
		fmt.Printf("✓ Configuration saved to %s\n", path)
		return nil
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting postbrowser", "version", Version, "url", cfg.Source.URL)

	client, err := source.NewClientFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create source client: %w", err)
	}

	if cfg.UI.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlain(os.Stdout, client, cfg, terminalWidth(), logger)
	}

	history, closeHistory := openHistory(cfg, logger)
	defer closeHistory()

	model := tui.NewModel(tui.Options{
		Repo:      client,
		History:   history,
		Logger:    logger,
		Mode:      cfg.Search.Mode,
		Query:     cfg.Search.Query,
		BodyLines: cfg.UI.BodyLines,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)

	logger.Info("starting TUI")

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Shutdown()
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// openHistory opens the query history store. A store that fails to open
// degrades to memory only rather than stopping the app.
func openHistory(cfg *adapter.Config, logger *slog.Logger) (tui.History, func()) {
	if !cfg.Search.History {
		return nil, func() {}
	}

	h, err := openHistoryFile(cfg.Search.HistoryFile, cfg.Search.HistorySize)
	if err != nil {
		logger.Warn("history unavailable, keeping it in memory", "path", cfg.Search.HistoryFile, "error", err)
		if h, err = store.NewHistoryStore("", cfg.Search.HistorySize); err != nil {
			return nil, func() {}
		}
	}
	return h, func() {
		if err := h.Close(); err != nil {
			logger.Error("failed to close history", "error", err)
		}
	}
}

func openHistoryFile(path string, size int) (*store.HistoryStore, error) {
	path, err := adapter.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return store.NewHistoryStore(path, size)
}

// terminalWidth returns the stdout width, or 0 when it is not a terminal
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
