package main

import "time"

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
)

type appConfig struct {
	Name    string `env:"APP_NAME" envDefault:"arnsnotify"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
	// LogLevel overrides the level implied by APP_ENV when set.
	LogLevel string `env:"LOG_LEVEL"`

	// Storage is "postgres" or "memory". Memory is for local runs only.
	Storage string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	// RedisEnabled adds the cross-instance lock around the expiration scan.
	RedisEnabled     bool          `env:"REDIS_ENABLED" envDefault:"true"`
	SchedulerEnabled bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	AdminToken       string        `env:"ADMIN_TOKEN"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s"`
}
