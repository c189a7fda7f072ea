// Package config reads service settings from RETAILHUB_* environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const envPrefix = "retailhub"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMySQL  = "mysql"
)

type Config struct {
	Addr         string        `envconfig:"ADDR" default:":9091"`
	Storage      string        `envconfig:"STORAGE" default:"memory"`
	DataDir      string        `envconfig:"DATA_DIR" default:"data"`
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	MySQLDSN     string        `envconfig:"MYSQL_DSN" default:"retailhub:retailhub@tcp(localhost:3306)/retailhub?parseTime=true&multiStatements=true"`
	JWTSecret    string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	PaymentDelay time.Duration `envconfig:"PAYMENT_DELAY" default:"0s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageFile, StorageRedis, StorageMySQL:
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.PaymentDelay < 0 {
		return errors.New("payment delay cannot be negative")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// Level returns the parsed log level; Validate has already checked it.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
