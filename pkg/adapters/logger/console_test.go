package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/labelkit/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleTo(ports.LevelWarn, &buf)

	log.Debug("hidden %d", 1)
	log.Info("hidden %d", 2)
	log.Warn("shown %d", 3)
	log.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown 3") || !strings.Contains(out, "shown 4") {
		t.Errorf("expected warn and error output, got %q", out)
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleTo(ports.LevelDebug, &buf).WithComponent("raster")

	log.Info("converted %s to %dx%d", "svg-1", 10, 20)

	if got := strings.TrimSpace(buf.String()); got != "[raster] converted svg-1 to 10x20" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestNoopLogger(t *testing.T) {
	log := NewNoop()
	if log.WithComponent("x") != log {
		t.Error("expected WithComponent to return the same logger")
	}
}
