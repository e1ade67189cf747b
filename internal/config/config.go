package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultWorkerAddr      = ":8090"
	defaultStoreBackend    = "sqlite"
	defaultDBPath          = "radiosim.db"
	defaultRedisAddr       = "localhost:6379"
	defaultStoreURL        = "http://localhost:8080"
	defaultWorkerURL       = "http://localhost:8090"
	defaultAssetsDir       = "3d_models"
	defaultSolverURL       = "http://localhost:8100"
	defaultPollInterval    = 10 * time.Second
	defaultDispatchTimeout = 5 * time.Second

	envConfigFile      = "RADIOSIM_CONFIG"
	envListenAddr      = "RADIOSIM_LISTEN_ADDR"
	envWorkerAddr      = "RADIOSIM_WORKER_ADDR"
	envStoreBackend    = "RADIOSIM_STORE_BACKEND"
	envDBPath          = "RADIOSIM_DB_PATH"
	envRedisAddr       = "RADIOSIM_REDIS_ADDR"
	envStoreURL        = "RADIOSIM_STORE_URL"
	envWorkerURL       = "RADIOSIM_WORKER_URL"
	envAssetsDir       = "RADIOSIM_ASSETS_DIR"
	envSolverURL       = "RADIOSIM_SOLVER_URL"
	envPollInterval    = "RADIOSIM_POLL_INTERVAL"
	envDispatchTimeout = "RADIOSIM_DISPATCH_TIMEOUT"
	envLogLevel        = "RADIOSIM_LOG_LEVEL"
)

// Config holds application configuration. Values are loaded once at startup
// and handed to components explicitly; nothing reads the environment at call
// time.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	WorkerAddr      string        `yaml:"worker_addr"`
	StoreBackend    string        `yaml:"store_backend"`
	DBPath          string        `yaml:"db_path"`
	RedisAddr       string        `yaml:"redis_addr"`
	StoreURL        string        `yaml:"store_url"`
	WorkerURL       string        `yaml:"worker_url"`
	AssetsDir       string        `yaml:"assets_dir"`
	SolverURL       string        `yaml:"solver_url"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	LogLevel        slog.Level    `yaml:"-"`

	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration from an optional YAML file (RADIOSIM_CONFIG) and
// the environment, with environment variables taking precedence. A .env file
// in the working directory is honored if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:      defaultListenAddr,
		WorkerAddr:      defaultWorkerAddr,
		StoreBackend:    defaultStoreBackend,
		DBPath:          defaultDBPath,
		RedisAddr:       defaultRedisAddr,
		StoreURL:        defaultStoreURL,
		WorkerURL:       defaultWorkerURL,
		AssetsDir:       defaultAssetsDir,
		SolverURL:       defaultSolverURL,
		PollInterval:    defaultPollInterval,
		DispatchTimeout: defaultDispatchTimeout,
		LogLevel:        slog.LevelInfo,
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}

	if cfg.LogLevelName != "" {
		cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	}
	if cfg.StoreBackend != "sqlite" && cfg.StoreBackend != "redis" {
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(envListenAddr, &c.ListenAddr)
	setString(envWorkerAddr, &c.WorkerAddr)
	setString(envStoreBackend, &c.StoreBackend)
	setString(envDBPath, &c.DBPath)
	setString(envRedisAddr, &c.RedisAddr)
	setString(envStoreURL, &c.StoreURL)
	setString(envWorkerURL, &c.WorkerURL)
	setString(envAssetsDir, &c.AssetsDir)
	setString(envSolverURL, &c.SolverURL)
	setString(envLogLevel, &c.LogLevelName)

	if err := setDuration(envPollInterval, &c.PollInterval); err != nil {
		return err
	}
	return setDuration(envDispatchTimeout, &c.DispatchTimeout)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
