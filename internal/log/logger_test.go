package log

import (
	"log/slog"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Setenv("LOG_LEVEL", tc.in)
		if got := levelFromEnv(); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWithComponentScopesLogger(t *testing.T) {
	base := New(DefaultConfig())
	scoped := base.WithComponent(ComponentStorage)

	if scoped.Component() != ComponentStorage {
		t.Fatalf("component = %q, want %q", scoped.Component(), ComponentStorage)
	}
	if base.Component() != ComponentApp {
		t.Fatalf("base component mutated to %q", base.Component())
	}
}
