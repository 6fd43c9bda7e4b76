package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_DefaultConfig(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.config.Level != "info" {
		t.Errorf("expected default level info, got %s", l.config.Level)
	}
	if l.config.Format != "console" {
		t.Errorf("expected default format console, got %s", l.config.Format)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"bad level", &Config{Level: "verbose", Format: "json"}},
		{"bad format", &Config{Level: "info", Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_JSONFieldsToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.WithDocument("scan.pdf").WithPage(3).WithOperation("merge").Infow("regions merged", "count", 7)
	_ = l.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a JSON line: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "regions merged" {
		t.Errorf("msg: got %v", entry["msg"])
	}
	if entry["document"] != "scan.pdf" || entry["operation"] != "merge" {
		t.Errorf("context fields missing: %v", entry)
	}
	if entry["page"] != float64(3) || entry["count"] != float64(7) {
		t.Errorf("numeric fields wrong: %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("hidden")
	l.Warn("shown")
	_ = l.Sync()

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}

func TestNew_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	l, err := New(&Config{Level: "info", Format: "json", OutputPath: logFile, Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("written to file")
	_ = l.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestInitAndGet(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(&Config{Level: "info", Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	WithOperation("extract").Info("global")
	_ = Sync()

	if !strings.Contains(buf.String(), `"operation":"extract"`) {
		t.Errorf("global logger did not write expected entry: %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.WithPage(1).Error("discarded")
}
