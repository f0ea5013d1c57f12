package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[parse]
lenient = true
workers = 4

[cache]
dir = "/var/cache/diagrams"

[server]
addr = ":9090"
cache_scope = "staging:"

[redis]
addr = "localhost:6379"
db = 2

[mongo]
uri = "mongodb://localhost:27017"
database = "diagrams"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if !cfg.Parse.Lenient || cfg.Parse.Workers != 4 {
		t.Errorf("parse config = %+v", cfg.Parse)
	}
	if cfg.Cache.Dir != "/var/cache/diagrams" {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.CacheScope != "staging:" {
		t.Errorf("server config = %+v", cfg.Server)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis config = %+v", cfg.Redis)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" || cfg.Mongo.Database != "diagrams" {
		t.Errorf("mongo config = %+v", cfg.Mongo)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "[server]\naddr = \":3000\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	// Unset sections keep their defaults.
	if cfg.Server.Addr != ":3000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Mongo.Database != "mermaid" {
		t.Errorf("mongo database default = %q", cfg.Mongo.Database)
	}
	if cfg.Parse.Lenient {
		t.Error("lenient should default to false")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "[server]\nadress = \":3000\"\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("unknown key should be rejected")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[server\naddr=")

	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid TOML should error")
	}
}
