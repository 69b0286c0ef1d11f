// Package daemon manages the SingMaster host lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/infra/logging"
)

var validate = validator.New()

// Config holds all host configuration.
type Config struct {
	API           APIConfig                 `toml:"api"`
	Storage       StorageConfig             `toml:"storage"`
	Progress      ProgressConfig            `toml:"progress"`
	Pitch         pitch.EngineConfig        `toml:"pitch"`
	Content       ContentConfig             `toml:"content"`
	Logging       logging.Config            `toml:"logging"`
	Telemetry     TelemetryConfig           `toml:"telemetry"`
	Notifications domain.NotificationPolicy `toml:"notifications"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host" validate:"required"`
	Port        int      `toml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig selects where progress snapshots live. Attempts and
// notifications always use the local SQLite database.
type StorageConfig struct {
	Backend       string `toml:"backend" validate:"oneof=sqlite redis"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"min=0"`
	RedisTTL      string `toml:"redis_ttl"`
}

// ProgressConfig tunes the progress ledger.
type ProgressConfig struct {
	LessonSeconds int64 `toml:"lesson_seconds" validate:"min=0"`
	DailyGoal     int   `toml:"daily_goal" validate:"min=1"`
}

// ContentConfig points at an alternative curriculum file.
type ContentConfig struct {
	Path string `toml:"path"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7410,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Progress: ProgressConfig{
			LessonSeconds: 300,
			DailyGoal:     5,
		},
		Pitch: pitch.DefaultEngineConfig(),
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
		Notifications: domain.DefaultNotificationPolicy(),
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: config: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// LoadConfig reads config from $SINGMASTER_HOME/config.toml, falling back
// to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(filepath.Join(singmasterHome(), "config.toml"))
}

// LoadConfigFrom reads config from path. A missing file yields defaults.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet: use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $SINGMASTER_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(singmasterHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// singmasterHome returns the SingMaster data directory.
func singmasterHome() string {
	if env := os.Getenv("SINGMASTER_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".singmaster")
}

// Home is exported for use by other packages.
func Home() string {
	return singmasterHome()
}
