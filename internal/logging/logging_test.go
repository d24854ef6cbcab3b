package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelRouting(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	core, err := NewCore(Config{Env: "production"}, &stdout, &stderr, &file)
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	logger := slog.New(zapslog.NewHandler(core))

	logger.Debug("hidden")
	logger.Info("stock received", "lines", 2)
	logger.Warn("intake line failed")
	logger.Error("notification not sent")

	if strings.Contains(stdout.String(), "hidden") || strings.Contains(file.String(), "hidden") {
		t.Error("expected debug to be filtered at info level")
	}
	if !strings.Contains(stdout.String(), "stock received") || !strings.Contains(stdout.String(), "intake line failed") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "notification not sent") {
		t.Error("expected error to stay off stdout")
	}
	if !strings.Contains(stderr.String(), "notification not sent") {
		t.Errorf("expected error on stderr, got %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "stock received") {
		t.Error("expected info to stay off stderr")
	}
	if got := strings.Count(file.String(), "\n"); got != 3 {
		t.Errorf("expected 3 lines in the file, got %d", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.name, tt.want, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSlogAttributesReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := slog.New(zapslog.NewHandler(core))

	logger.With("kind", "saidas").Info("transaction recorded", "lines", 3)

	entries := logs.FilterMessage("transaction recorded").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != "saidas" {
		t.Errorf("expected kind attribute, got %v", fields["kind"])
	}
	if fields["lines"] != int64(3) {
		t.Errorf("expected lines=3, got %v (%T)", fields["lines"], fields["lines"])
	}
}
