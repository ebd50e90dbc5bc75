package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d, expected 24", cfg.JWT.ExpireHour)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: "9090"
  mode: release
database:
  driver: postgres
  dsn: host=db user=app dbname=app
jwt:
  secret: file-secret
  expire_hour: 48
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected postgres", cfg.Database.Driver)
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Errorf("JWT.Secret = %q", cfg.JWT.Secret)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, expected warn", cfg.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %q, expected env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, expected mysql", cfg.Database.Driver)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("JWT.Secret = %q, expected env override", cfg.JWT.Secret)
	}
}

func TestParseRedisURL(t *testing.T) {
	cases := []struct {
		url          string
		wantAddr     string
		wantPassword string
		wantDB       int
	}{
		{"redis://localhost:6379/0", "localhost:6379", "", 0},
		{"redis://:secret@redis.internal:6380/2", "redis.internal:6380", "secret", 2},
		{"redis://user:pw@10.0.0.5:6379/1", "10.0.0.5:6379", "pw", 1},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tc.url)
		if cfg.Redis.Addr != tc.wantAddr {
			t.Errorf("%s: Addr = %q, expected %q", tc.url, cfg.Redis.Addr, tc.wantAddr)
		}
		if cfg.Redis.Password != tc.wantPassword {
			t.Errorf("%s: Password = %q, expected %q", tc.url, cfg.Redis.Password, tc.wantPassword)
		}
		if cfg.Redis.DB != tc.wantDB {
			t.Errorf("%s: DB = %d, expected %d", tc.url, cfg.Redis.DB, tc.wantDB)
		}
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = "8181"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if reloaded.Server.Port != "8181" {
		t.Errorf("reloaded Server.Port = %q, expected 8181", reloaded.Server.Port)
	}
}
