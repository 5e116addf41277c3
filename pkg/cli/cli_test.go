package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("proxima.yaml", "downstream url is required")
	if got := err.Error(); !strings.Contains(got, "proxima.yaml") {
		t.Errorf("error should name the file, got %q", got)
	}

	err = NewConfigError("", "no file given")
	if got := err.Error(); strings.Contains(got, " in ") {
		t.Errorf("pathless error should omit location, got %q", got)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := errors.New("listen: address in use")
	err := NewCommandError("run", cause)

	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
	if got := err.Error(); !strings.Contains(got, "run") {
		t.Errorf("error should name the command, got %q", got)
	}
}

func TestFormatters(t *testing.T) {
	data := map[string]any{"valid": true, "routes": 3}

	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).FormatTo(&buf, data); err != nil {
		t.Fatalf("json format: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["valid"] != true {
		t.Errorf("expected valid=true, got %v", decoded["valid"])
	}

	buf.Reset()
	if err := NewFormatter(FormatText).FormatTo(&buf, "3 routes"); err != nil {
		t.Fatalf("text format: %v", err)
	}
	if got := buf.String(); got != "3 routes\n" {
		t.Errorf("text output = %q", got)
	}

	if _, ok := NewFormatter("csv").(*TextFormatter); !ok {
		t.Error("unknown format should fall back to text")
	}
}
