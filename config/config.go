package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the non-secret application settings. Secrets (DATABASE_URL,
// JWT_SECRET, SENDGRID_API_KEY) stay in the environment.
type Config struct {
	Port         string `yaml:"port"`
	RolloverCron string `yaml:"rollover_cron"`
	FrontendURL  string `yaml:"frontend_url"`
	EmailFrom    string `yaml:"email_from"`
}

func Defaults() Config {
	return Config{
		Port:         "4000",
		RolloverCron: "0 1 * * *",
	}
}

// Load reads a YAML config file if it exists and applies env overrides.
// A missing file is not an error; defaults cover local development.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		cfg.FrontendURL = frontend
	}
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		cfg.EmailFrom = from
	}
	if spec := os.Getenv("ROLLOVER_CRON"); spec != "" {
		cfg.RolloverCron = spec
	}

	return cfg, nil
}
