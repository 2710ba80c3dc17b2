package arns

import "time"

type Config struct {
	RegistryURL       string        `env:"ARNS_REGISTRY_URL,required"`
	ResolverURL       string        `env:"ARNS_RESOLVER_URL,required"`
	PageSize          int           `env:"ARNS_PAGE_SIZE" envDefault:"1000"`
	ResolverTimeout   time.Duration `env:"ARNS_RESOLVER_TIMEOUT" envDefault:"10s"`
	ResolverRPS       float64       `env:"ARNS_RESOLVER_RPS" envDefault:"20"`
	ResolverBurst     int           `env:"ARNS_RESOLVER_BURST" envDefault:"20"`
	EnrichConcurrency int           `env:"ARNS_ENRICH_CONCURRENCY" envDefault:"8"`

	GracePeriod time.Duration `env:"ARNS_GRACE_PERIOD" envDefault:"336h"`
	EndingLead  time.Duration `env:"ARNS_GRACE_ENDING_LEAD" envDefault:"72h"`

	SyncInterval       time.Duration `env:"ARNS_SYNC_INTERVAL" envDefault:"1h"`
	ExpirationInterval time.Duration `env:"ARNS_EXPIRATION_INTERVAL" envDefault:"1h"`
	MonitorLockTTL     time.Duration `env:"ARNS_MONITOR_LOCK_TTL" envDefault:"10m"`
	// AlignSchedules runs jobs on wall-clock multiples of their interval
	// instead of counting from process start.
	AlignSchedules bool `env:"ARNS_ALIGN_SCHEDULES" envDefault:"false"`
}

func (c Config) WindowPolicy() WindowPolicy {
	return WindowPolicy{GracePeriod: c.GracePeriod, EndingLead: c.EndingLead}
}
