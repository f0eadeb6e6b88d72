package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Catalog.TTL != 60*time.Second {
		t.Errorf("catalog ttl = %v, want 60s", cfg.Catalog.TTL)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodflow.yaml")
	data := []byte("database:\n  driver: postgres\ncatalog:\n  ttl: 15s\nweb:\n  port: 9100\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Catalog.TTL != 15*time.Second {
		t.Errorf("ttl = %v, want 15s", cfg.Catalog.TTL)
	}
	if cfg.Web.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Web.Port)
	}
	// untouched sections keep defaults
	if cfg.Messaging.EventsTopic != "production.events" {
		t.Errorf("events topic = %q", cfg.Messaging.EventsTopic)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRODFLOW_WEB_PORT", "9200")
	t.Setenv("PRODFLOW_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRODFLOW_CATALOG_TTL", "30s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 9200 {
		t.Errorf("port = %d, want 9200", cfg.Web.Port)
	}
	if len(cfg.Messaging.Kafka.Brokers) != 2 || cfg.Messaging.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Messaging.Kafka.Brokers)
	}
	if cfg.Catalog.TTL != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", cfg.Catalog.TTL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.Web.Port = 9300
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Web.Port != 9300 {
		t.Errorf("port = %d, want 9300", got.Web.Port)
	}
}

func TestValidateSessionSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		trust   bool
		wantErr bool
	}{
		{"default secret", DefaultSessionSecret, false, true},
		{"empty secret", "", false, true},
		{"private secret", "s3cr3t-from-vault", false, false},
		{"gateway identity", DefaultSessionSecret, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Web.SessionSecret = tt.secret
			cfg.Web.TrustIdentityHeaders = tt.trust
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
