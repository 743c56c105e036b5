package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoFormatsKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)
	Info("loaded", "events", 3, "title", "team sync")

	out := buf.String()
	if !strings.Contains(out, "[INFO] loaded") {
		t.Fatalf("missing level/msg: %q", out)
	}
	if !strings.Contains(out, "events=3") {
		t.Fatalf("missing kv: %q", out)
	}
	if !strings.Contains(out, `title="team sync"`) {
		t.Fatalf("values with spaces should be quoted: %q", out)
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := capture(t, LevelInfo)
	Debug("noisy")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed, got %q", buf.String())
	}
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t, LevelError)
	Info("hidden")
	Error("request failed", errors.New("boom"), "op", "create")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info should be suppressed at error level")
	}
	if !strings.Contains(out, "err=boom") || !strings.Contains(out, "op=create") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": LevelDebug,
		"ERROR": LevelError,
		"info":  LevelInfo,
		"":      LevelInfo,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
