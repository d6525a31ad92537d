package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	App struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"app"`

	Calendar struct {
		Provider        string `yaml:"provider"` // "teamup" or "google"
		BaseURL         string `yaml:"base_url"`
		CalendarKey     string `yaml:"calendar_key"`
		APIKey          string `yaml:"api_key"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`

		// Google backend only: service-account credentials plus the
		// mapping from subcalendar ID to Google calendar ID.
		CredentialsFile string           `yaml:"credentials_file"`
		GoogleCalendars map[int64]string `yaml:"google_calendars"`
	} `yaml:"calendar"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Booking struct {
		SlotGranularityMinutes   int `yaml:"slot_granularity_minutes"`
		MinAdvanceMinutes        int `yaml:"min_advance_minutes"`
		SearchHorizonDays        int `yaml:"search_horizon_days"`
		ExistingLookaheadDays    int `yaml:"existing_lookahead_days"`
		NextAvailableTimeoutSecs int `yaml:"next_available_timeout_seconds"`
	} `yaml:"booking"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Audit struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"audit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Calendar.Provider == "" {
		cfg.Calendar.Provider = "teamup"
	}

	return &cfg, nil
}

// Location resolves the configured time zone. All slot arithmetic happens
// in this single zone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.App.Timezone
	if tz == "" {
		tz = "Europe/Bratislava"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", tz, err)
	}
	return loc, nil
}

func (c *Config) SlotGranularity() time.Duration {
	if c.Booking.SlotGranularityMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SlotGranularityMinutes) * time.Minute
}

func (c *Config) MinAdvance() time.Duration {
	if c.Booking.MinAdvanceMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Booking.MinAdvanceMinutes) * time.Minute
}

func (c *Config) SearchHorizonDays() int {
	if c.Booking.SearchHorizonDays <= 0 {
		return 14
	}
	return c.Booking.SearchHorizonDays
}

func (c *Config) ExistingLookaheadDays() int {
	if c.Booking.ExistingLookaheadDays <= 0 {
		return 30
	}
	return c.Booking.ExistingLookaheadDays
}

func (c *Config) NextAvailableTimeout() time.Duration {
	if c.Booking.NextAvailableTimeoutSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.NextAvailableTimeoutSecs) * time.Second
}

func (c *Config) CalendarCacheTTL() time.Duration {
	if c.Calendar.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Calendar.CacheTTLSeconds) * time.Second
}
