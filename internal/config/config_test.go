package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=labman password=labman dbname=labman port=5432 sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MAIL_API_URL", "https://mail.example.com/v1/send")
	t.Setenv("MAIL_FROM", "noreply@lab.example.com")
	t.Setenv("BASE_URL", "https://lab.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.LabName != "Lab Manager" {
		t.Errorf("LabName = %s, want Lab Manager", cfg.LabName)
	}
	if cfg.LabTimezone != "Asia/Kolkata" {
		t.Errorf("LabTimezone = %s, want Asia/Kolkata", cfg.LabTimezone)
	}
	if cfg.MailRatePerSec != 10 {
		t.Errorf("MailRatePerSec = %d, want 10", cfg.MailRatePerSec)
	}
	if cfg.DispatchQueueSize != 1024 {
		t.Errorf("DispatchQueueSize = %d, want 1024", cfg.DispatchQueueSize)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LAB_TIMEZONE", "Europe/Berlin")
	t.Setenv("MAIL_RATE_PER_SEC", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.LabTimezone != "Europe/Berlin" {
		t.Errorf("LabTimezone = %s, want Europe/Berlin", cfg.LabTimezone)
	}
	if cfg.MailRatePerSec != 25 {
		t.Errorf("MailRatePerSec = %d, want 25", cfg.MailRatePerSec)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseDSN == "" {
		t.Error("DatabaseDSN should not be empty")
	}
	if cfg.MailAPIURL == "" {
		t.Error("MailAPIURL should not be empty")
	}
	if cfg.MailFrom == "" {
		t.Error("MailFrom should not be empty")
	}
	if cfg.BaseURL == "" {
		t.Error("BaseURL should not be empty")
	}
}
