package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error", "err"} {
		if _, err := parseLevel(level); err != nil {
			t.Fatalf("parseLevel(%q) returned error: %v", level, err)
		}
	}
	if _, err := parseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("newLogger returned error: %v", err)
	}

	logger.Debugf("IN : %s", "hidden")
	logger.Infof("hidden too")
	logger.Warnf("adapter loop error: %v", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("unexpected low-level entry in %q", out)
	}
	if !strings.Contains(out, `"message":"adapter loop error: boom"`) {
		t.Fatalf("missing warning in %q", out)
	}
	if !strings.Contains(out, `"app":"cbus-bridge"`) {
		t.Fatalf("missing app field in %q", out)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug")
	if err != nil {
		t.Fatalf("newLogger returned error: %v", err)
	}

	logger.With("client", "abc").Infof("client connected")
	if !strings.Contains(buf.String(), `"client":"abc"`) {
		t.Fatalf("missing client field in %q", buf.String())
	}
}
