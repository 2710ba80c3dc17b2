// Package config loads typed configuration structs from the environment.
//
// Structs declare their variables with caarlos0/env tags. A .env file in the
// working directory is read once, before the first load, and never overrides
// variables already set in the process environment.
//
//	type Config struct {
//	    RegistryURL string        `env:"ARNS_REGISTRY_URL,required"`
//	    PageSize    int           `env:"ARNS_PAGE_SIZE" envDefault:"1000"`
//	    Timeout     time.Duration `env:"ARNS_RESOLVER_TIMEOUT" envDefault:"10s"`
//	}
//
//	cfg, err := config.Load[Config]()
package config
