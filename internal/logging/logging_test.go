package logging

import (
	"log/slog"
	"testing"
)

func TestLFallsBackToSetup(t *testing.T) {
	defaultLogger = nil
	l := L()
	if l == nil {
		t.Fatal("expected L to initialize a logger when none exists")
	}
	if defaultLogger == nil {
		t.Fatal("expected L to populate defaultLogger as a side effect")
	}
}

func TestSetupHonorsLogLevelEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	l := Setup()
	if !l.Enabled(nil, slog.LevelDebug) {
		t.Fatalf("expected debug level to be enabled")
	}
}

func TestSetupDefaultsToTextFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	l := Setup()
	if l == nil {
		t.Fatal("expected a non-nil logger")
	}
	if _, ok := l.Handler().(*slog.TextHandler); !ok {
		t.Fatalf("expected a text handler when LOG_FORMAT is unset, got %T", l.Handler())
	}
}
