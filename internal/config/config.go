// Package config loads the engine's typed, nested configuration via Viper,
// following the dotted-key/env-var-override shape spec.md §6 defines
// (scheduler.polling_interval_ms, retry.base_delay_ms, ...), generalized
// from the teacher's flat GetEnv(key, default) helper
// (internal/utils/env.go) into the namespaced tree the spec's own config
// keys already imply.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
)

// Config is the engine's full runtime configuration tree.
type Config struct {
	Postgres   PostgresConfig
	Scheduler  SchedulerConfig
	Worker     WorkerConfig
	Retry      RetryConfig
	Monitoring MonitoringConfig
	HTTP       HTTPConfig
	LogMode    string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SchedulerConfig struct {
	PollingInterval time.Duration
	Enabled         bool
}

type WorkerConfig struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	Enabled           bool
}

type RetryConfig struct {
	DefaultMaxRetries int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	SweepInterval     time.Duration
}

type MonitoringConfig struct {
	FailureDetectionInterval time.Duration
}

type HTTPConfig struct {
	Addr string
}

// Load reads configuration from environment variables (no config file is
// required — every key has a spec-mandated default), using the dotted keys
// from spec.md §6 bound to SCREAMING_SNAKE_CASE env vars, the way
// tyemirov-utils' preflight/viperconfig binds Viper keys to env names.
func Load(log *logger.Logger) Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "taskscheduler")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("scheduler.polling_interval_ms", 1000)
	v.SetDefault("scheduler.enabled", true)

	v.SetDefault("worker.heartbeat_interval_ms", 30000)
	v.SetDefault("worker.heartbeat_timeout_ms", 60000)
	v.SetDefault("worker.enabled", true)

	v.SetDefault("retry.default_max_retries", 3)
	v.SetDefault("retry.base_delay_ms", 1000)
	v.SetDefault("retry.max_delay_ms", 300000)
	v.SetDefault("retry.sweep_interval_ms", 30000)

	v.SetDefault("monitoring.failure_detection_interval_ms", 30000)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log_mode", "development")

	cfg := Config{
		Postgres: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.name"),
			SSLMode:  v.GetString("postgres.sslmode"),
		},
		Scheduler: SchedulerConfig{
			PollingInterval: time.Duration(v.GetInt("scheduler.polling_interval_ms")) * time.Millisecond,
			Enabled:         v.GetBool("scheduler.enabled"),
		},
		Worker: WorkerConfig{
			HeartbeatInterval: time.Duration(v.GetInt("worker.heartbeat_interval_ms")) * time.Millisecond,
			HeartbeatTimeout:  time.Duration(v.GetInt("worker.heartbeat_timeout_ms")) * time.Millisecond,
			Enabled:           v.GetBool("worker.enabled"),
		},
		Retry: RetryConfig{
			DefaultMaxRetries: v.GetInt("retry.default_max_retries"),
			BaseDelay:         time.Duration(v.GetInt("retry.base_delay_ms")) * time.Millisecond,
			MaxDelay:          time.Duration(v.GetInt("retry.max_delay_ms")) * time.Millisecond,
			SweepInterval:     time.Duration(v.GetInt("retry.sweep_interval_ms")) * time.Millisecond,
		},
		Monitoring: MonitoringConfig{
			FailureDetectionInterval: time.Duration(v.GetInt("monitoring.failure_detection_interval_ms")) * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		LogMode: v.GetString("log_mode"),
	}

	if log != nil {
		log.Info("Configuration loaded",
			"scheduler.polling_interval", cfg.Scheduler.PollingInterval,
			"worker.heartbeat_interval", cfg.Worker.HeartbeatInterval,
			"worker.heartbeat_timeout", cfg.Worker.HeartbeatTimeout,
			"retry.default_max_retries", cfg.Retry.DefaultMaxRetries,
		)
	}
	return cfg
}
