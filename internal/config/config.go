// Package config loads the process configuration from flags, the environment
// and .env files.
package config

import (
	"dsclient/internal/types"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const EnvPrefix = "dsclient"

// New returns a viper instance reading DSCLIENT_* variables. Values from .env
// and .env.local are loaded into the environment first; variables that are
// already set win.
func New() *viper.Viper {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // read in environment variables that match
	return v
}

// SetupFlags registers every AppConfig key as a persistent flag on cmd.
func SetupFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.Int64("place-id", 0, "place the process runs in; below 1 means no place is open")
	f.Int64("universe-id", 0, "universe the stores belong to")
	f.String("log-level", "info", "logrus level (trace, debug, info, warn, error)")

	f.String("data-backend", types.BackendRedis, "data backend (redis, ddb)")
	f.String("settings-backend", types.BackendNone, "runtime variable source (redis, ddb, file, none)")
	f.String("settings-file", "", "YAML settings file for the file settings backend")
	f.Duration("settings-refresh", 30*time.Second, "how long a fetched settings snapshot stays live")
	f.String("defaults-file", "", "YAML document with runtime variable defaults")

	f.String("redis-host", "localhost", "Redis host")
	f.String("redis-port", "6379", "Redis port")
	f.String("redis-user", "", "Redis user")
	f.String("redis-pass", "", "Redis password")
	f.Bool("redis-tls", false, "connect to Redis over TLS")
	f.Int("redis-db", 0, "Redis database number")

	f.String("ddb-endpoint", "", "DynamoDB endpoint override, for local testing")
	f.String("ddb-table", "dsclient", "DynamoDB table")
	f.String("ddb-region", "", "DynamoDB region")

	f.String("api-base-url", "", "base URL of the remote persistence API; empty disables it")
	f.String("api-key", "", "API key sent to the remote persistence API")
	f.Bool("api-access", false, "capability answer used when no API is configured")

	f.String("sns-topic-arn", "", "SNS topic for handle lifecycle events; empty disables them")
	f.String("sns-endpoint", "", "SNS endpoint override, for local testing")

	f.String("metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
}

// Load binds cmd's flags into v and decodes the result. Flags set on the
// command line win over the environment, which wins over flag defaults.
func Load(v *viper.Viper, cmd *cobra.Command) (types.AppConfig, error) {
	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return types.AppConfig{}, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return types.AppConfig{}, err
	}
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.AppConfig{}, types.Err(types.ErrInvalidArgument, err, "")
	}
	return cfg, nil
}
