package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestVerboseToggle(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true")
	}
}

func TestDebugGatedByVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	SetVerbose(false)
	Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}

	SetVerbose(true)
	Debug("shown %d", 2)
	if got := buf.String(); !strings.Contains(got, "[DEBUG] shown 2") {
		t.Errorf("expected debug output, got %q", got)
	}
}

func TestInfoAndSectionGatedByVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Fetch")
	Info("found %d items", 3)

	got := buf.String()
	if !strings.Contains(got, "=== Fetch ===") {
		t.Errorf("expected section header, got %q", got)
	}
	if !strings.Contains(got, "[INFO] found 3 items") {
		t.Errorf("expected info line, got %q", got)
	}
}

func TestWarnAndErrorAlwaysPrint(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("batch %d failed", 2)
	Error("store unreachable")

	got := buf.String()
	if !strings.Contains(got, "[WARN] batch 2 failed") {
		t.Errorf("expected warning despite verbose off, got %q", got)
	}
	if !strings.Contains(got, "[ERROR] store unreachable") {
		t.Errorf("expected error despite verbose off, got %q", got)
	}
}
