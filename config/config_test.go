package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleConfig = `
server:
  port: 9090
logging:
  level: debug
  format: console
debug: true
routes:
  greet:
    description: say hello
    paths:
      - echo say --message hello
  fanout:
    broadcast: true
    schedule: "*/5 * * * *"
    paths:
      - a run
      - b run
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("routes = %d", len(cfg.Routes))
	}

	greet := cfg.Routes["greet"]
	if greet.Description != "say hello" || len(greet.Paths) != 1 {
		t.Errorf("greet = %+v", greet)
	}

	fanout := cfg.Routes["fanout"]
	if !fanout.Broadcast || fanout.Schedule != "*/5 * * * *" {
		t.Errorf("fanout = %+v", fanout)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "routes: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Database.DSN != "modgate.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Metrics.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MODGATE_SERVER_PORT", "7070")
	t.Setenv("MODGATE_LOG_LEVEL", "warn")
	t.Setenv("MODGATE_DEBUG", "yes")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env should win", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if !cfg.Debug {
		t.Error("debug should parse from 'yes'")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("KV_TARGET", "deploys")

	cfg, err := Load(writeConfig(t, `
routes:
  pin:
    paths:
      - kv set --key ${KV_TARGET}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Routes["pin"].Paths[0]; got != "kv set --key deploys" {
		t.Errorf("path = %q", got)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad level",
			content: "logging:\n  level: loud\n",
			want:    "logging.level",
		},
		{
			name:    "route without paths",
			content: "routes:\n  empty: {}\n",
			want:    "needs at least one path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRouteNamesSorted(t *testing.T) {
	cfg := &Config{Routes: map[string]RouteConfig{
		"zeta":  {Paths: []string{"a b"}},
		"alpha": {Paths: []string{"a b"}},
		"mid":   {Paths: []string{"a b"}},
	}}

	got := cfg.RouteNames()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RouteNames = %v, want %v", got, want)
	}
}
