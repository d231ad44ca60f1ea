package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string       `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string       `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string       `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis        Redis        `yaml:"redis"`
	MatchHistory MatchHistory `yaml:"match-history"`
	Assets       Assets       `yaml:"assets"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MatchHistory struct {
	TTL   time.Duration `yaml:"ttl" env:"MATCH_HISTORY_TTL" env-default:"168h"`
	Limit int           `yaml:"limit" env:"MATCH_HISTORY_LIMIT" env-default:"100"`
}

// Assets points at a directory with x.png, o.png and 1.png..4.png. Empty means the
// built-in sprites.
type Assets struct {
	Dir string `yaml:"dir" env:"ASSETS_DIR" env-default:""`
}

const (
	pathEnv     = "CONFIG_PATH"
	defaultFile = "config.yml"
)

// Path picks the config file: CONFIG_PATH when set, otherwise config.yml in the
// working directory.
func Path() (string, error) {
	if path := os.Getenv(pathEnv); path != "" {
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return filepath.Join(dir, defaultFile), nil
}

// MustLoad - load all configurations in config.yml file, environment wins.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Level maps log-level onto slog. Unknown values fall back to info.
func (that *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(that.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
