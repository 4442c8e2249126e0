package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Resolve.RecheckDelay != 5*time.Second {
		t.Errorf("recheck delay = %v, want 5s", cfg.Resolve.RecheckDelay)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wmstriage.yaml")
	yml := `
database:
  driver: postgres
resolve:
  workers: 2
  recheck_delay: 250ms
notify:
  external_team: ops@example.com
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Resolve.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Resolve.Workers)
	}
	if cfg.Resolve.RecheckDelay != 250*time.Millisecond {
		t.Errorf("recheck delay = %v, want 250ms", cfg.Resolve.RecheckDelay)
	}
	if cfg.Notify.ExternalTeam != "ops@example.com" {
		t.Errorf("external team = %q", cfg.Notify.ExternalTeam)
	}
	// Untouched sections keep their defaults.
	if cfg.Messaging.RequestsTopic != "wms.external.requests" {
		t.Errorf("requests topic = %q", cfg.Messaging.RequestsTopic)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.Web.Port = 9090
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Web.Port != 9090 {
		t.Errorf("port = %d, want 9090", got.Web.Port)
	}
}
