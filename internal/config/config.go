package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/kitedrift.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// OpenWeather credentials for the wind provider. An empty key leaves the
	// provider wired but failing as unavailable, which the engine tolerates
	// by skipping the affected tick step.
	WindAPIKey  string `env:"OPENWEATHER_API_KEY"`
	WindBaseURL string `env:"OPENWEATHER_URL" envDefault:"https://api.openweathermap.org/data/2.5/weather"`

	// TickInterval is how often playing rooms advance. Game balance assumes
	// 60s; shorter values are for local experimentation only.
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"60s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
