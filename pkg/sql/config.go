package lsql

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	lconfig "github.com/splitpilot/splitpilot/pkg/config"
)

type Config struct {
	ConfigSecrets

	Engine         string        `env:"SQL_DB_ENGINE" envDefault:"postgres"`
	DatabaseName   string        `env:"SQL_DB_NAME"`
	Address        string        `env:"SQL_DB_ADDRESS" envDefault:""`
	Options        string        `env:"SQL_DB_OPTIONS" envDefault:""`
	MaxLifetime    time.Duration `env:"SQL_DB_MAX_LIFETIME" envDefault:"30m"`
	MaxIdleConns   int           `env:"SQL_DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns   int           `env:"SQL_DB_MAX_OPEN_CONNS" envDefault:"20"`
	ConfigLocation string        `env:"SQL_DB_CONFIG_LOCATION"`
}

type ConfigSecrets struct {
	Username string `env:"SQL_DB_USERNAME"`
	Password string `env:"SQL_DB_PASSWORD"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ConfigLocation != "" {
		err = cfg.loadFile()
		if err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// DriverName maps the configured engine to the registered database/sql
// driver: pgx/v4 stdlib for postgres, modernc for sqlite.
func (cfg *Config) DriverName() (string, error) {
	switch strings.ToLower(cfg.Engine) {
	case "postgres":
		return "pgx", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", ErrDatabaseEngineNotSupported
	}
}

func (cfg *Config) FullAddress() string {
	switch strings.ToLower(cfg.Engine) {
	case "postgres":
		address := fmt.Sprintf("postgres://%s:%s@%s/%s",
			cfg.Username,
			cfg.Password,
			cfg.Address,
			cfg.DatabaseName)
		if cfg.Options != "" {
			address += "?" + cfg.Options
		}
		return address
	case "sqlite":
		if cfg.Address != "" {
			return cfg.Address
		}
		return ":memory:"
	default:
		return ""
	}
}

func (cfg *Config) loadFile() error {
	f, err := os.Open(cfg.ConfigLocation)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, &cfg.ConfigSecrets); err != nil {
		return err
	}

	return nil
}
