package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/config"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/repository"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-canvas/transport/rest"
	"github.com/rocketscienceinc/tictactoe-canvas/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.NewRedis(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sprites, err := loadSprites(log, conf.Assets.Dir)
	if err != nil {
		return err
	}

	matchRepo := repository.NewMatchRepository(redisClient, conf.MatchHistory.TTL, conf.MatchHistory.Limit)
	gameManager := usecase.NewGameManager(logger.With("component", "registry"), sprites, matchRepo)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(logger, gameManager, matchRepo)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func loadSprites(log *slog.Logger, dir string) (*canvas.Sprites, error) {
	if dir == "" {
		log.Info("using built-in sprites")
		return canvas.DefaultSprites(), nil
	}

	sprites, err := canvas.LoadSprites(dir)
	if err != nil {
		return nil, fmt.Errorf("could not load sprites: %w", err)
	}

	log.Info("sprites loaded", "dir", dir)

	return sprites, nil
}
