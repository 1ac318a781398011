package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/simple-job-queues/pkg/manager"
	"github.com/jdziat/simple-job-queues/pkg/queue"
	"github.com/jdziat/simple-job-queues/pkg/schedule"
	"github.com/jdziat/simple-job-queues/pkg/security"
	"github.com/jdziat/simple-job-queues/pkg/storage"
)

type Config struct {
	Logging LoggingConfig          `yaml:"logging"`
	History HistoryConfig          `yaml:"history"`
	Queues  map[string]QueueConfig `yaml:"queues"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// QueueConfig holds the declarative options of one queue. Interval and Cron
// are mutually exclusive.
type QueueConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Cron        string        `yaml:"cron"`
	FirstResult bool          `yaml:"first_result"`
	Piping      bool          `yaml:"piping"`
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "./data/history.db",
		},
		Queues: map[string]QueueConfig{},
	}
}

// Load reads configPath over the defaults. An empty path or a missing file
// yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := defaults()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Queues == nil {
		cfg.Queues = map[string]QueueConfig{}
	}

	return cfg, nil
}

// ApplyEnv overrides settings from QUEUES_LOG_LEVEL, QUEUES_LOG_FORMAT and
// QUEUES_HISTORY_PATH when they are set. Setting the history path also
// enables history.
func (c *Config) ApplyEnv() *Config {
	if v := os.Getenv("QUEUES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("QUEUES_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("QUEUES_HISTORY_PATH"); v != "" {
		c.History.Path = v
		c.History.Enabled = true
	}
	return c
}

func (c *Config) Validate() error {
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history path is required when history is enabled")
	}

	for name, qc := range c.Queues {
		if err := security.ValidateQueueName(name); err != nil {
			return fmt.Errorf("queue %q: %w", name, err)
		}
		if _, err := qc.Options(); err != nil {
			return fmt.Errorf("queue %q: %w", name, err)
		}
	}

	return nil
}

// Options converts the queue configuration into queue options. Flags left
// false are omitted so they do not override manager defaults.
func (qc QueueConfig) Options() ([]queue.Option, error) {
	if qc.Interval < 0 {
		return nil, fmt.Errorf("interval must be non-negative, got %s", qc.Interval)
	}
	if qc.Interval > 0 && qc.Cron != "" {
		return nil, fmt.Errorf("interval and cron are mutually exclusive")
	}

	var opts []queue.Option
	if qc.FirstResult {
		opts = append(opts, queue.FirstResult(true))
	}
	if qc.Piping {
		opts = append(opts, queue.Piping(true))
	}
	switch {
	case qc.Cron != "":
		sched, err := schedule.ParseCron(qc.Cron)
		if err != nil {
			return nil, err
		}
		opts = append(opts, queue.WithSchedule(sched))
	case qc.Interval > 0:
		opts = append(opts, queue.Interval(qc.Interval))
	}
	return opts, nil
}

// Apply creates every configured queue on m. Options passed to the queues
// come after the manager defaults, so the file wins.
func (c *Config) Apply(m *manager.Manager) error {
	for name, qc := range c.Queues {
		opts, err := qc.Options()
		if err != nil {
			return fmt.Errorf("queue %q: %w", name, err)
		}
		if _, err := m.Queue(name, opts...); err != nil {
			return err
		}
	}
	return nil
}

// NewLogger builds a slog logger writing to stderr.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", s)
	}
	return level, nil
}

// OpenHistory opens the sqlite run history described by h and migrates it.
// It returns nil when history is disabled.
func OpenHistory(ctx context.Context, h HistoryConfig) (*storage.GormStorage, error) {
	if !h.Enabled {
		return nil, nil
	}

	if dir := filepath.Dir(h.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(h.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	return newHistory(ctx, db)
}

// newHistory configures and migrates db. db is closed if either step fails.
func newHistory(ctx context.Context, db *gorm.DB) (history *storage.GormStorage, err error) {
	defer func() {
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
	}()

	history, err = storage.NewGormStorageWithPool(db, storage.WithPoolConfig(storage.SQLitePoolConfig()))
	if err != nil {
		return nil, err
	}
	if err := history.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return history, nil
}
