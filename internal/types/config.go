package types

import (
	"fmt"
	"time"
)

const (
	BackendRedis = "redis"
	BackendDDB   = "ddb"
	BackendFile  = "file"
	BackendNone  = "none"

	MinSettingsRefresh = time.Second
)

// AppConfig is the process level configuration. It is loaded once at start up;
// runtime variables go through the flags provider instead.
// PlaceID and UniverseID identify the execution context. A PlaceID below 1
// means no context and no store handle can be handed out.
type AppConfig struct {
	PlaceID    int64  `mapstructure:"place-id"`
	UniverseID int64  `mapstructure:"universe-id"`
	LogLevel   string `mapstructure:"log-level"`

	DataBackend     string        `mapstructure:"data-backend"`
	SettingsBackend string        `mapstructure:"settings-backend"`
	SettingsFile    string        `mapstructure:"settings-file"`
	SettingsRefresh time.Duration `mapstructure:"settings-refresh"`
	DefaultsFile    string        `mapstructure:"defaults-file"`

	Redis RedisConfig `mapstructure:",squash"`
	DDB   DDBConfig   `mapstructure:",squash"`

	APIBaseURL string `mapstructure:"api-base-url"`
	APIKey     string `mapstructure:"api-key"`
	// APIAccess is used instead of the remote probe when APIBaseURL is empty.
	APIAccess bool `mapstructure:"api-access"`

	SNSTopicArn string `mapstructure:"sns-topic-arn"`
	SNSEndpoint string `mapstructure:"sns-endpoint"`

	MetricsAddr string `mapstructure:"metrics-addr"`
}

type RedisConfig struct {
	Host  string `mapstructure:"redis-host"`
	Port  string `mapstructure:"redis-port"`
	User  string `mapstructure:"redis-user"`
	Pass  string `mapstructure:"redis-pass"`
	TLS   bool   `mapstructure:"redis-tls"`
	DBNum int    `mapstructure:"redis-db"`
}

type DDBConfig struct {
	Endpoint string `mapstructure:"ddb-endpoint"`
	Table    string `mapstructure:"ddb-table"`
	Region   string `mapstructure:"ddb-region"`
}

func (c AppConfig) Validate() error {
	switch c.DataBackend {
	case BackendRedis, BackendDDB:
	default:
		return fmt.Errorf("data-backend must be one of %s, %s; got %q", BackendRedis, BackendDDB, c.DataBackend)
	}
	switch c.SettingsBackend {
	case BackendRedis, BackendDDB, BackendFile, BackendNone, "":
	default:
		return fmt.Errorf("settings-backend must be one of redis, ddb, file, none; got %q", c.SettingsBackend)
	}
	if c.SettingsBackend == BackendFile && c.SettingsFile == "" {
		return fmt.Errorf("settings-file is required for the file settings backend")
	}
	if c.SettingsRefresh != 0 && c.SettingsRefresh < MinSettingsRefresh {
		return fmt.Errorf("settings-refresh must be at least %s", MinSettingsRefresh)
	}
	if c.UniverseID < 0 {
		return fmt.Errorf("universe-id must be non-negative")
	}
	return nil
}
