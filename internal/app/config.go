package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port          string `toml:"port"`
		AuthMode      string `toml:"auth_mode"` // manual | proxy | sso
		PublicBaseURL string `toml:"public_base_url"`
	} `toml:"server"`

	Roles struct {
		Admins      []string `toml:"admins"`
		Instructors []string `toml:"instructors"`
		Secretaries []string `toml:"secretaries"`
	} `toml:"roles"`

	CheckIn struct {
		EmailDomain    string `toml:"email_domain"`
		DefaultMinutes int    `toml:"default_minutes"`
		MinMinutes     int    `toml:"min_minutes"`
		MaxMinutes     int    `toml:"max_minutes"`
	} `toml:"checkin"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Auth struct {
		RedisURL           string `toml:"redis_url"`
		TokenHeader        string `toml:"token_header"`
		SessionKeyTemplate string `toml:"session_key_template"`
	} `toml:"auth"`

	Reporting struct {
		Timezone string `toml:"timezone"`
	} `toml:"reporting"`

	Export struct {
		Schedule    string `toml:"schedule"`
		Dir         string `toml:"dir"`
		WindowDays  int    `toml:"window_days"`
		Granularity string `toml:"granularity"`
	} `toml:"export"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :8080")
	}
	if config.Server.AuthMode == "" {
		config.Server.AuthMode = "manual"
	}
	if config.CheckIn.EmailDomain == "" {
		config.CheckIn.EmailDomain = "@hua.gr"
	}
	if config.CheckIn.DefaultMinutes == 0 {
		config.CheckIn.DefaultMinutes = 15
	}
	if config.CheckIn.MinMinutes == 0 {
		config.CheckIn.MinMinutes = 5
	}
	if config.CheckIn.MaxMinutes == 0 {
		config.CheckIn.MaxMinutes = 240
	}
	if config.Reporting.Timezone == "" {
		config.Reporting.Timezone = "Europe/Athens"
	}
	if config.Auth.TokenHeader == "" {
		config.Auth.TokenHeader = "Authorization"
	}
	if config.Auth.SessionKeyTemplate == "" {
		config.Auth.SessionKeyTemplate = "sso:session:{token}"
	}
	if config.Export.WindowDays == 0 {
		config.Export.WindowDays = 30
	}
	if config.Export.Granularity == "" {
		config.Export.Granularity = "day"
	}

	logger.Debug.Printf("Loaded check-in config: %+v", config.CheckIn)

	return &config, nil
}
