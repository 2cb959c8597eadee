// Package config loads engine configuration from an optional YAML file with
// environment overrides for deploy-time secrets.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	DatabaseURL          string `yaml:"database_url"`
	Port                 int    `yaml:"port"`
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
	SweepInvoiceLimit    int    `yaml:"sweep_invoice_limit"`
	SweepTxnLimit        int    `yaml:"sweep_txn_limit"`

	Collections struct {
		PoliteDays         int `yaml:"polite_days"`
		FirmDays           int `yaml:"firm_days"`
		LegalDays          int `yaml:"legal_days"`
		RiskThreshold      int `yaml:"risk_threshold"`
		PoliteFollowupDays int `yaml:"polite_followup_days"`
		FirmFollowupDays   int `yaml:"firm_followup_days"`
	} `yaml:"collections"`

	Productivity struct {
		WeeklyCapacityHours  float64 `yaml:"weekly_capacity_hours"`
		UtilizationThreshold float64 `yaml:"utilization_threshold"`
		DeepWorkStartHour    int     `yaml:"deep_work_start_hour"`
		DeepWorkHours        int     `yaml:"deep_work_hours"`
	} `yaml:"productivity"`

	Drafting struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"drafting"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Calendar struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		CalendarID      string `yaml:"calendar_id"`
	} `yaml:"calendar"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Port = 8080
	c.SweepIntervalSeconds = 3600
	c.SweepInvoiceLimit = 200
	c.SweepTxnLimit = 200

	c.Collections.PoliteDays = 3
	c.Collections.FirmDays = 10
	c.Collections.LegalDays = 30
	c.Collections.RiskThreshold = 80
	c.Collections.PoliteFollowupDays = 4
	c.Collections.FirmFollowupDays = 7

	c.Productivity.WeeklyCapacityHours = 30
	c.Productivity.UtilizationThreshold = 0.75
	c.Productivity.DeepWorkStartHour = 9
	c.Productivity.DeepWorkHours = 2

	c.Calendar.CalendarID = "primary"
	return c
}

// Load reads the YAML file at path onto the defaults and applies environment
// overrides. A missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Drafting.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = n
		}
	}
}
