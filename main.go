package main

import (
	"fmt"
	"log/slog"
	"os"

	app "github.com/rocketscienceinc/tictactoe-canvas/internal"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tictactoe-canvas: %v\n", err)
		os.Exit(1)
	}
}

// run loads the config, builds the logger and serves until a signal arrives.
// A panic during startup is reported as an error.
func run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	path, err := config.Path()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	conf := config.MustLoad(path)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     conf.Level(),
		AddSource: conf.Level() == slog.LevelDebug,
	})).With("service", "tictactoe-canvas")

	logger.Info("config loaded", "path", path, "log-level", conf.Level().String())

	if err = app.RunApp(logger, conf); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}
