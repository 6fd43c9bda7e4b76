package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGroupCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "words.json")
	data := `[
		{"quad": [[10,10],[50,10],[50,30],[10,30]], "text": "Net", "confidence": 91},
		{"quad": [[55,10],[95,10],[95,30],[55,30]], "text": "total", "confidence": 87},
		{"rect": [200,200,40,40], "payload": "X-1", "symbology": "CODE128"}
	]`
	if err := os.WriteFile(input, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "group", input, "--page", "2", "--json-mode", "with_text", "--log-level", "error")
	if err != nil {
		t.Fatalf("group failed: %v\n%s", err, out)
	}

	var page layout.Page
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("output is not a page record: %v\n%s", err, out)
	}
	if page.Number != 2 || len(page.Boxes) != 2 {
		t.Fatalf("got %+v", page)
	}
	if page.Text != "Net total Barcode (CODE128): X-1" {
		t.Errorf("page text: got %q", page.Text)
	}
	if !strings.Contains(out, "\n    \"page\": 2") {
		t.Errorf("expected four-space indentation:\n%s", out)
	}
}

func TestGroupCommand_InvalidDetections(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(input, []byte(`[{"quad": [[0,0]], "text": "x", "confidence": 90}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "group", input, "--log-level", "error"); err == nil {
		t.Error("expected error for malformed quad")
	}
}

func TestDimensionsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 64, 32))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, err := runCLI(t, "dimensions", path)
	if err != nil {
		t.Fatalf("dimensions failed: %v", err)
	}
	if strings.TrimSpace(out) != "64x32" {
		t.Errorf("got %q, want 64x32", out)
	}
}

func TestRescaleCommand_ArgCount(t *testing.T) {
	if _, err := runCLI(t, "rescale", "only-one"); err == nil {
		t.Error("expected error for a single argument")
	}
}
