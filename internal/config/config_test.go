package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	if err == nil {
		t.Fatal("explicit CONFIG_FILE that does not exist should error")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("port: \"9090\"\ndefaultCapacity: 5\nosrmBaseUrl: http://osrm.local\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should win: got port %s", cfg.Port)
	}
	if cfg.DefaultCapacity != 5 {
		t.Fatalf("yaml capacity: got %d", cfg.DefaultCapacity)
	}
	if cfg.OSRMBaseURL != "http://osrm.local" {
		t.Fatalf("yaml osrm url: got %s", cfg.OSRMBaseURL)
	}
	if cfg.DefaultSpeedKph != 50 {
		t.Fatalf("default speed: got %v", cfg.DefaultSpeedKph)
	}
}
