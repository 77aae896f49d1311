package config

import (
	"os"
	"strings"
)

// AppConfig is the root configuration, composed from the per-domain
// structs in this package (auth.go, database.go, http.go). Values come
// from the environment via github.com/caarlos0/env.
type AppConfig struct {
	// IsDev switches on development behavior such as demo seeding and
	// template reloading. DEV=true or APP_ENV=development enables it.
	IsDev bool `env:"DEV" envDefault:"false"`

	// SeedOnStart loads demo customers and orders at startup. Ignored
	// outside dev mode.
	SeedOnStart bool `env:"SEED_ON_START" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig
}

// Sanitize clamps loaded values to safe ranges and resolves dev mode.
// Call it once, right after parsing the environment.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()

	// APP_ENV is the second way to request dev mode; DEV=true wins.
	if !c.IsDev {
		switch strings.ToLower(os.Getenv("APP_ENV")) {
		case "development", "dev":
			c.IsDev = true
		}
	}
}
