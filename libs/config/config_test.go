package config

import (
	"testing"
	"time"
)

func TestString_Fallback(t *testing.T) {
	if got := String("GARAGEBOOK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("GARAGEBOOK_TEST_SET", "value")
	if got := String("GARAGEBOOK_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestPort_Validation(t *testing.T) {
	t.Setenv("GARAGEBOOK_TEST_PORT", "8086")
	if p, err := Port("GARAGEBOOK_TEST_PORT", "8080"); err != nil || p != "8086" {
		t.Fatalf("expected 8086, got %q err=%v", p, err)
	}

	t.Setenv("GARAGEBOOK_TEST_PORT", "not-a-port")
	if _, err := Port("GARAGEBOOK_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for invalid port")
	}

	t.Setenv("GARAGEBOOK_TEST_PORT", "70000")
	if _, err := Port("GARAGEBOOK_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("GARAGEBOOK_TEST_DUR", "90s")
	if d := Duration("GARAGEBOOK_TEST_DUR", time.Second); d != 90*time.Second {
		t.Fatalf("expected 90s, got %s", d)
	}
	t.Setenv("GARAGEBOOK_TEST_DUR", "bogus")
	if d := Duration("GARAGEBOOK_TEST_DUR", 10*time.Second); d != 10*time.Second {
		t.Fatalf("expected fallback 10s, got %s", d)
	}
	t.Setenv("GARAGEBOOK_TEST_DUR", "-5s")
	if d := Duration("GARAGEBOOK_TEST_DUR", 10*time.Second); d != 10*time.Second {
		t.Fatalf("expected fallback for negative duration, got %s", d)
	}
}
