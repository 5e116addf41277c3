package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxima.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfigValid(t *testing.T) {
	cfgFile = writeConfig(t, `
downstream:
  url: http://localhost:3000
presets:
  - name: developer
    headers:
      X-User-Id: dev-1
`)
	validateFlags.env = false

	if err := validateConfig(nil, []string{}); err != nil {
		t.Errorf("validateConfig() error = %v", err)
	}
}

func TestValidateConfigInvalid(t *testing.T) {
	cfgFile = writeConfig(t, `
downstream:
  url: ftp://wrong-scheme
routes:
  - path_pattern: ""
    target_url: http://localhost:4000
`)
	validateFlags.env = false

	if err := validateConfig(nil, []string{}); err == nil {
		t.Error("expected error for invalid configuration")
	}
}

func TestValidateConfigMissingFile(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")

	if err := validateConfig(nil, []string{}); err == nil {
		t.Error("expected error for missing file")
	}
}
