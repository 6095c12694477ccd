package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Store.Driver)
	}
	if cfg.Logger.Level != "info" {
		t.Fatalf("expected info level, got %q", cfg.Logger.Level)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	want := Default()
	want.Web.Enabled = true
	want.Web.Port = 9090
	want.Store.Driver = DriverSQLite
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("LAZYTODO_WEB_PORT", "7070")

	cfg, err := Load(New(), filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Web.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "sqlite", mutate: func(c *Config) { c.Store.Driver = DriverSQLite }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Web.Port = 70000 }, wantErr: true},
		{name: "debug level", mutate: func(c *Config) { c.Logger.Level = "debug" }},
		{name: "unknown level", mutate: func(c *Config) { c.Logger.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
