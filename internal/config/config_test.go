package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"timelane/internal/config"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.ErrorBannerSeconds != 5 {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	again, err := config.Load(path)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.Zoom != cfg.Zoom || again.RefreshCron != cfg.RefreshCron {
		t.Errorf("reloaded config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `listen: ":9000"
zoom:
  max: 3
  default: 8
ics:
  - url: https://example.com/team.ics
    id: team
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Zoom.Min != 0.3 || cfg.Zoom.Max != 3 || cfg.Zoom.Step != 1.5 {
		t.Errorf("Zoom = %+v", cfg.Zoom)
	}
	if cfg.Zoom.Default != 3 {
		t.Errorf("Zoom.Default = %v, want clamp to 3", cfg.Zoom.Default)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].SourceID() != "team" {
		t.Errorf("ICS = %+v", cfg.ICS)
	}
	if cfg.BannerTTL() != 5*time.Second {
		t.Errorf("BannerTTL() = %v", cfg.BannerTTL())
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if _, err := config.Load(""); err == nil {
		t.Fatal("Load(\"\") expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TIMELANE_LISTEN", "0.0.0.0:7000")
	t.Setenv("TIMELANE_ITEMS_FILE", "/tmp/items.yaml")
	t.Setenv("TIMELANE_ERROR_BANNER_SECONDS", "9")

	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"
	if err := config.ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Listen != "0.0.0.0:7000" || cfg.ItemsFile != "/tmp/items.yaml" || cfg.ErrorBannerSeconds != 9 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unset env var replaced LogLevel: %q", cfg.LogLevel)
	}
}

func TestSourceID(t *testing.T) {
	tests := []struct {
		in   config.ICSConfig
		want string
	}{
		{config.ICSConfig{ID: "a", Name: "b", URL: "c"}, "a"},
		{config.ICSConfig{Name: "b", URL: "c"}, "b"},
		{config.ICSConfig{URL: "c"}, "c"},
	}
	for _, tt := range tests {
		if got := tt.in.SourceID(); got != tt.want {
			t.Errorf("SourceID() = %q, want %q", got, tt.want)
		}
	}
}
