package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the API, bot and scheduler.
type Config struct {
	TelegramToken  string
	EnableBot      bool
	AppURL         string
	DatabaseURL    string
	HTTPAddr       string
	APIPrefix      string
	MetricsEnabled bool
	// ReminderTime is the HH:MM of the morning digest; "off" disables it.
	ReminderTime string
	Log          LogConfig
	Economy      Economy
}

type LogConfig struct {
	Level    string
	Encoding string
}

// Economy holds the numbers the entitlement and bonus engines run on.
type Economy struct {
	FreeTasksPerDay  int     `toml:"free_tasks_per_day"`
	ExtraTaskCost    int64   `toml:"extra_task_cost"`
	BonusTable       []int64 `toml:"bonus_table"`
	Timezone         string  `toml:"timezone"`
	FallbackLanguage string  `toml:"fallback_language"`
}

type fileConfig struct {
	Economy Economy `toml:"economy"`
}

// BonusDays is the length of one streak cycle.
const BonusDays = 7

// ResetTime is when the daily sweep runs. It must stay on the midnight
// boundary the calendar reports, otherwise free counters would restart
// mid-day.
const ResetTime = "00:00"

// DefaultEconomy returns the stock numbers: 3 free tasks, 10 sparks per
// extra task, bonuses 10..40 over a 7-day cycle, Moscow day boundaries.
func DefaultEconomy() Economy {
	return Economy{
		FreeTasksPerDay:  3,
		ExtraTaskCost:    10,
		BonusTable:       []int64{10, 15, 20, 25, 30, 35, 40},
		Timezone:         "Europe/Moscow",
		FallbackLanguage: "ru",
	}
}

// Load reads configuration from environment variables (optionally .env and a
// TOML file named by SPARKS_CONFIG) with sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		EnableBot:      parseBool(os.Getenv("ENABLE_TELEGRAM_BOT"), true),
		AppURL:         strings.TrimSpace(os.Getenv("APP_URL")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_PATH")),
		HTTPAddr:       strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		APIPrefix:      strings.TrimSpace(os.Getenv("API_PREFIX")),
		MetricsEnabled: parseBool(os.Getenv("METRICS_ENABLED"), true),
		ReminderTime:   strings.TrimSpace(os.Getenv("REMINDER_TIME")),
		Log: LogConfig{
			Level:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
			Encoding: strings.TrimSpace(os.Getenv("LOG_ENCODING")),
		},
		Economy: DefaultEconomy(),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sparks.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.ReminderTime == "" {
		cfg.ReminderTime = "10:00"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "json"
	}

	if path := strings.TrimSpace(os.Getenv("SPARKS_CONFIG")); path != "" {
		economy, err := LoadEconomyFile(path, cfg.Economy)
		if err != nil {
			return cfg, err
		}
		cfg.Economy = economy
	}
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		cfg.Economy.Timezone = tz
	}

	if err := cfg.Economy.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEconomyFile overlays the [economy] table of a TOML file on base.
// Keys absent from the file keep their base values.
func LoadEconomyFile(path string, base Economy) (Economy, error) {
	fc := fileConfig{Economy: base}
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	return fc.Economy, nil
}

// RemindersEnabled reports whether the daily digest job should run.
func (c Config) RemindersEnabled() bool {
	return c.BotEnabled() && !strings.EqualFold(c.ReminderTime, "off")
}

// BotEnabled reports whether the Telegram bot should be started.
func (c Config) BotEnabled() bool {
	return c.EnableBot && c.TelegramToken != ""
}

func (e Economy) Validate() error {
	if e.FreeTasksPerDay < 0 {
		return fmt.Errorf("free_tasks_per_day must not be negative, got %d", e.FreeTasksPerDay)
	}
	if e.ExtraTaskCost <= 0 {
		return fmt.Errorf("extra_task_cost must be positive, got %d", e.ExtraTaskCost)
	}
	if len(e.BonusTable) != BonusDays {
		return fmt.Errorf("bonus_table must have %d entries, got %d", BonusDays, len(e.BonusTable))
	}
	for i, amount := range e.BonusTable {
		if amount <= 0 {
			return fmt.Errorf("bonus_table day %d must be positive, got %d", i+1, amount)
		}
	}
	if e.FallbackLanguage == "" {
		return fmt.Errorf("fallback_language is required")
	}
	if _, err := e.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the reference timezone.
func (e Economy) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func parseBool(raw string, def bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}
