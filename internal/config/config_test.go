package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOrDefault_Defaults(t *testing.T) {
	c, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.JWT.Issuer != "mailjohn" {
		t.Errorf("issuer = %q", c.JWT.Issuer)
	}
	if c.Auth.ReuseWindow != "5s" {
		t.Errorf("reuse_window = %q", c.Auth.ReuseWindow)
	}
	if c.Cache.Kind != "memory" {
		t.Errorf("cache kind = %q", c.Cache.Kind)
	}
	if c.Rate.Send.Limit != 120 || c.Rate.Login.Limit != 10 {
		t.Errorf("rate defaults: send=%d login=%d", c.Rate.Send.Limit, c.Rate.Login.Limit)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9000"
storage:
  dsn: "postgres://yaml/db"
jwt:
  access_secret: "a"
  refresh_secret: "b"
  access_ttl: 30m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	// El env pisa al YAML.
	t.Setenv("DATABASE_DSN", "postgres://env/db")
	t.Setenv("SERVER_ADDR", ":7777")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Storage.DSN != "postgres://env/db" {
		t.Errorf("dsn = %q, env debe ganar", c.Storage.DSN)
	}
	if c.Server.Addr != ":7777" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.JWT.AccessTTL != "30m" {
		t.Errorf("access_ttl = %q", c.JWT.AccessTTL)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_MissingSecrets(t *testing.T) {
	var c Config
	c.applyDefaults()
	c.Storage.DSN = "postgres://x/y"
	if err := c.Validate(); err == nil {
		t.Fatal("Validate debería fallar sin secretos JWT")
	}
	c.JWT.AccessSecret = "a"
	if err := c.Validate(); err == nil {
		t.Fatal("Validate debería fallar sin refresh secret")
	}
	c.JWT.RefreshSecret = "b"
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDur(t *testing.T) {
	if d := Dur("45s", time.Minute); d != 45*time.Second {
		t.Errorf("Dur(45s) = %v", d)
	}
	if d := Dur("", time.Minute); d != time.Minute {
		t.Errorf("Dur('') = %v", d)
	}
	if d := Dur("basura", time.Minute); d != time.Minute {
		t.Errorf("Dur(basura) = %v", d)
	}
	if d := Dur("-5s", time.Minute); d != time.Minute {
		t.Errorf("Dur(-5s) = %v", d)
	}
}
