package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Debug    bool     `yaml:"debug" env:"DEBUG"`
	Limiter  Limiter  `yaml:"limiter"`
	Airtable Airtable `yaml:"airtable"`
}

// Limiter throttles outbound requests to the record store, which
// enforces its own per-base request budget.
type Limiter struct {
	Enabled bool    `yaml:"enabled" env-default:"true"`
	Rps     float64 `yaml:"rps" env-default:"5"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Airtable struct {
	BaseURL     string        `yaml:"base_url" env:"AIRTABLE_BASE_URL" env-required:"true"`
	Token       string        `yaml:"token" env:"AIRTABLE_TOKEN" env-required:"true"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	MaxInFlight int           `yaml:"max_in_flight" env-default:"8"`
}

func MustLoad(configPath string) *Config {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic(fmt.Errorf("config file %s not found", configPath))
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(err)
	}

	return &cfg
}
