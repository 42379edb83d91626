package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rpitems/internal/channel"
	"rpitems/internal/dbsync"
	"rpitems/internal/status"
)

const DefaultFileName = "rpitems.yaml"

type ProjectConfig struct {
	Project   string          `yaml:"project"`
	Version   int             `yaml:"version"`
	Player    string          `yaml:"player"`
	Database  DatabaseConfig  `yaml:"database"`
	Transport TransportConfig `yaml:"transport"`
	Status    StatusConfig    `yaml:"status"`
	Receiver  ReceiverConfig  `yaml:"receiver"`
	Import    ImportConfig    `yaml:"import"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type TransportConfig struct {
	MaxMessageBytes int           `yaml:"max_message_bytes"`
	ChunkSize       int           `yaml:"chunk_size"`
	SendInterval    time.Duration `yaml:"send_interval"`
	RedisAddr       string        `yaml:"redis_addr"`
	Channel         string        `yaml:"channel"`
}

type StatusConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ReceiverConfig controls pruning of transfers that never completed. A zero
// StaleAfter keeps them for the life of the process.
type ReceiverConfig struct {
	StaleAfter time.Duration `yaml:"stale_after"`
}

type ImportConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.Transport.MaxMessageBytes == 0 {
		cfg.Transport.MaxMessageBytes = channel.DefaultMaxMessageBytes
	}
	if cfg.Transport.ChunkSize == 0 {
		cfg.Transport.ChunkSize = dbsync.DefaultChunkSize
	}
	if cfg.Transport.SendInterval == 0 {
		cfg.Transport.SendInterval = 100 * time.Millisecond
	}
	if cfg.Transport.RedisAddr == "" {
		cfg.Transport.RedisAddr = "localhost:6379"
	}
	if cfg.Transport.Channel == "" {
		cfg.Transport.Channel = "rpitems"
	}
	if cfg.Status.Timeout == 0 {
		cfg.Status.Timeout = status.DefaultTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Player) == "" {
		return fmt.Errorf("player name is required")
	}
	if strings.ContainsAny(cfg.Player, "^") {
		return fmt.Errorf("player name cannot contain ^")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if _, err := DatabaseDriver(cfg.Database.DSN); err != nil {
		return err
	}

	t := cfg.Transport
	if t.MaxMessageBytes < 0 {
		return fmt.Errorf("transport max_message_bytes must be positive: %d", t.MaxMessageBytes)
	}
	if t.ChunkSize < 0 {
		return fmt.Errorf("transport chunk_size must be positive: %d", t.ChunkSize)
	}
	if limit := dbsync.MaxChunkSize(t.MaxMessageBytes); t.ChunkSize > limit {
		return fmt.Errorf("transport chunk_size %d does not fit a %d byte message (max %d)", t.ChunkSize, t.MaxMessageBytes, limit)
	}
	if t.SendInterval < 0 {
		return fmt.Errorf("transport send_interval must not be negative")
	}
	if cfg.Status.Timeout < 0 {
		return fmt.Errorf("status timeout must not be negative")
	}
	if cfg.Receiver.StaleAfter < 0 {
		return fmt.Errorf("receiver stale_after must not be negative")
	}

	switch strings.ToUpper(cfg.Log.Level) {
	case "DEBUG", "INFO", "NOTICE", "WARNING", "ERROR", "CRITICAL":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}

	seen := make(map[string]struct{})
	for i, p := range cfg.Import.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("import path %d is empty", i)
		}
		if _, exists := seen[p]; exists {
			return fmt.Errorf("duplicate import path: %s", p)
		}
		seen[p] = struct{}{}
	}

	return nil
}

// DatabaseDriver returns "sqlite" or "postgres" for a DSN.
func DatabaseDriver(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
}

// Scaffold returns the contents of a new project file.
func Scaffold(project, player string) ([]byte, error) {
	cfg := ProjectConfig{
		Project:  project,
		Version:  1,
		Player:   player,
		Database: DatabaseConfig{DSN: "sqlite://.rpitems/rpitems.db"},
		Import:   ImportConfig{Paths: []string{"./items"}},
	}
	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("scaffolding project config: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("scaffolding project config: %w", err)
	}
	return data, nil
}
