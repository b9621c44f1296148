package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultEconomy_Valid(t *testing.T) {
	e := DefaultEconomy()
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if e.FreeTasksPerDay != 3 {
		t.Errorf("FreeTasksPerDay = %d, want 3", e.FreeTasksPerDay)
	}
	if e.ExtraTaskCost != 10 {
		t.Errorf("ExtraTaskCost = %d, want 10", e.ExtraTaskCost)
	}
	if e.BonusTable[0] != 10 || e.BonusTable[6] != 40 {
		t.Errorf("BonusTable = %v, want 10..40", e.BonusTable)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "HTTP_ADDR", "SPARKS_CONFIG", "TIMEZONE", "ENABLE_TELEGRAM_BOT", "REMINDER_TIME", "API_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DatabaseURL != "sparks.db" {
		t.Errorf("DatabaseURL = %q, want sparks.db", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.APIPrefix != "/api/v1" {
		t.Errorf("APIPrefix = %q, want /api/v1", cfg.APIPrefix)
	}
	if cfg.BotEnabled() {
		t.Error("bot should be disabled without a token")
	}
	if cfg.ReminderTime != "10:00" {
		t.Errorf("ReminderTime = %q, want 10:00", cfg.ReminderTime)
	}
}

func TestRemindersEnabled(t *testing.T) {
	cfg := Config{TelegramToken: "t", EnableBot: true, ReminderTime: "09:00"}
	if !cfg.RemindersEnabled() {
		t.Error("reminders should run with a bot and a time")
	}
	cfg.ReminderTime = "OFF"
	if cfg.RemindersEnabled() {
		t.Error("reminders should be disabled by \"off\"")
	}
	cfg = Config{ReminderTime: "09:00"}
	if cfg.RemindersEnabled() {
		t.Error("reminders need the bot")
	}
}

func TestLoadEconomyFile_RejectsResetTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparks.toml")
	body := `
[economy]
reset_time = "12:00"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadEconomyFile(path, DefaultEconomy()); err == nil {
		t.Fatal("LoadEconomyFile() accepted reset_time, want unknown key error")
	}
}

func TestLoad_TimezoneOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SPARKS_CONFIG", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Economy.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Economy.Timezone)
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SPARKS_CONFIG", "")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail for an unknown timezone")
	}
}

func TestLoadEconomyFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparks.toml")
	body := `
[economy]
extra_task_cost = 25
bonus_table = [5, 10, 15, 20, 25, 30, 50]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	e, err := LoadEconomyFile(path, DefaultEconomy())
	if err != nil {
		t.Fatalf("LoadEconomyFile() error: %v", err)
	}
	if e.ExtraTaskCost != 25 {
		t.Errorf("ExtraTaskCost = %d, want 25", e.ExtraTaskCost)
	}
	if e.BonusTable[6] != 50 {
		t.Errorf("BonusTable[6] = %d, want 50", e.BonusTable[6])
	}
	if e.FreeTasksPerDay != 3 {
		t.Errorf("FreeTasksPerDay = %d, want untouched default 3", e.FreeTasksPerDay)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestEconomy_ValidateRejectsShortTable(t *testing.T) {
	e := DefaultEconomy()
	e.BonusTable = []int64{10, 20}
	if err := e.Validate(); err == nil {
		t.Error("Validate() should reject a bonus table without 7 tiers")
	}
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"on", false, true},
		{"off", true, false},
		{"0", true, false},
		{"trueimage.png", true, false},
	}
	for _, c := range cases {
		if got := parseBool(c.raw, c.def); got != c.want {
			t.Errorf("parseBool(%q, %v) = %v, want %v", c.raw, c.def, got, c.want)
		}
	}
}
