package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asap", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" || cfg.WeekStart != "sunday" || cfg.Refresh != "*/5 * * * *" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Hub.CounterAddr != ":8080" || cfg.Hub.ChatAddr != ":8082" {
		t.Fatalf("hub = %+v", cfg.Hub)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}
}

func TestLoadPartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api:\n  base_url: https://sched.example.com\n  timeout: nope\nweek_start: friday\ntasks:\n  page_size: 50\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://sched.example.com" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout())
	}
	if cfg.WeekStart != "sunday" {
		t.Fatalf("unknown week start kept: %q", cfg.WeekStart)
	}
	if cfg.Tasks.PageSize != 50 {
		t.Fatalf("page size = %d", cfg.Tasks.PageSize)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("api: [unclosed"), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.WeekStart = "monday"
	cfg.API.Timeout = "3s"
	cfg.Refresh = "off"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Fatalf("round trip:\n got %+v\nwant %+v", got, cfg)
	}
	if got.RefreshEnabled() {
		t.Fatal("refresh should be off")
	}
	if got.Timeout() != 3*time.Second {
		t.Fatalf("timeout = %v", got.Timeout())
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("empty timezone: %v %v", loc, err)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("UTC: %v %v", loc, err)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
