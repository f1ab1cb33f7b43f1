package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"noisy": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewBuildsLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := New("debug", format)
		if err != nil {
			t.Fatalf("new %s logger: %v", format, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug enabled for %s", format)
		}
	}
}
