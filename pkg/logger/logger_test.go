package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	defer Init("info")
	cases := map[string]string{
		"debug":    "debug",
		"WARN":     "warn",
		"warning":  "warn",
		"Error":    "error",
		"fatal":    "fatal",
		"nonsense": "info",
		"":         "info",
	}
	for in, want := range cases {
		Init(in)
		if got := LevelString(); got != want {
			t.Fatalf("Init(%q): LevelString() = %q, want %q", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer Init("info")

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	out := buf.String()
	if strings.Contains(out, "debug-msg") || strings.Contains(out, "info-msg") {
		t.Fatalf("debug/info should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn-msg") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error-msg") {
		t.Fatalf("error message missing: %q", out)
	}
}

func TestScopedLoggerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	Init("debug")
	defer Init("info")

	For("relay").Infof("joined room %s", "u1")
	if !strings.Contains(buf.String(), "[INFO] relay: joined room u1") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestFatalfExits(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	code := 0
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Init("error")
	defer Init("info")
	Fatalf("boom %d", 7)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom 7") {
		t.Fatalf("fatal line missing: %q", buf.String())
	}
}
