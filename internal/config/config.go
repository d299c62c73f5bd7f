package config

import (
	lconfig "github.com/splitpilot/splitpilot/pkg/config"
)

type Config struct {
	Migrate          bool  `env:"MIGRATE" envDefault:"true"`
	MigrationVersion *uint `env:"MIGRATION_VERSION"`
	DefaultPageSize  int64 `env:"DEFAULT_PAGE_SIZE" envDefault:"20"`
	MaxPageSize      int64 `env:"MAX_PAGE_SIZE" envDefault:"100"`
	MaxBodyBytes     int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
