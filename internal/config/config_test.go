package config

import (
	"testing"
	"time"
)

func TestEnvStr(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if v := envStr("TEST_STR", "fallback"); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := envStr("TEST_STR_MISSING", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %s", v)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := envInt("TEST_INT", 0); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if v := envInt("TEST_INT_MISSING", 99); v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}

	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7 for unparseable value, got %d", v)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !envBool("TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	if envBool("TEST_BOOL_MISSING", false) {
		t.Fatal("expected fallback false")
	}

	t.Setenv("TEST_BOOL_BAD", "yep")
	if !envBool("TEST_BOOL_BAD", true) {
		t.Fatal("expected fallback true for unparseable value")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	if v := envDuration("TEST_DUR", 0); v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}

	t.Setenv("TEST_DUR_BAD", "five-seconds")
	if v := envDuration("TEST_DUR_BAD", time.Minute); v != time.Minute {
		t.Fatalf("expected fallback 1m for unparseable value, got %s", v)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.MetricsDefaultDays != 30 {
		t.Fatalf("expected default window of 30 days, got %d", cfg.MetricsDefaultDays)
	}
}

func TestValidateRejectsBadWindowBounds(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	cfg.MetricsMaxDays = cfg.MetricsDefaultDays - 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate() to reject max days below default days")
	}
}
