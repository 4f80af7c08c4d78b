package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PARACLETE_CONFIG", "PORT", "ALLOWED_ORIGINS", "STATIC_DIR", "DEBUG_ENDPOINTS", "LOG_LEVEL",
		"PARACLETE_SERVER", "STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadServerDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadServer(ServerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != DefaultPort || cfg.Addr() != ":3000" {
		t.Errorf("port = %d, addr = %s", cfg.Port, cfg.Addr())
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{DefaultAllowedOrigin}) {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.DebugEndpoints || cfg.StaticDir != "" || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServerPriority(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "paraclete.yaml")
	yaml := "port: 4000\nallowed_origins: [\"https://a.example\"]\nlog_level: warn\ndebug_endpoints: true\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServer(ServerOptions{ConfigFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 4000 || cfg.LogLevel != "warn" || !cfg.DebugEndpoints {
		t.Errorf("yaml not applied: %+v", cfg)
	}

	t.Setenv("PORT", "5000")
	t.Setenv("ALLOWED_ORIGINS", "https://b.example, https://c.example")
	cfg, err = LoadServer(ServerOptions{ConfigFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5000 {
		t.Errorf("env port = %d, want 5000", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://b.example", "https://c.example"}) {
		t.Errorf("env origins = %v", cfg.AllowedOrigins)
	}

	off := false
	cfg, err = LoadServer(ServerOptions{ConfigFile: file, Port: 6000, DebugEndpoints: &off, StaticDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 6000 || cfg.DebugEndpoints || cfg.StaticDir != dir {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestLoadServerErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		opts ServerOptions
	}{
		{name: "bad port env", env: map[string]string{"PORT": "http"}},
		{name: "port out of range", opts: ServerOptions{Port: 70000}},
		{name: "bad debug flag", env: map[string]string{"DEBUG_ENDPOINTS": "maybe"}},
		{name: "missing static dir", opts: ServerOptions{StaticDir: "/does/not/exist"}},
		{name: "missing config file", opts: ServerOptions{ConfigFile: "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadServer(tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadClient(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadClient(ClientOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != DefaultServerURL || cfg.HTTPBaseURL() != "http://localhost:3000" {
		t.Errorf("server = %s, base = %s", cfg.ServerURL, cfg.HTTPBaseURL())
	}
	if got := cfg.GetSTUNServers(); !reflect.DeepEqual(got, []string{DefaultSTUN}) {
		t.Errorf("stun = %v", got)
	}
	if cfg.GetTURNServers() != nil {
		t.Error("turn servers without TURN_SERVER")
	}

	t.Setenv("PARACLETE_SERVER", "wss://signal.example/ws")
	t.Setenv("TURN_SERVER", "turn:relay.example")
	t.Setenv("TURN_USERNAME", "u")
	cfg, err = LoadClient(ClientOptions{TURNPass: "p", ForceRelay: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPBaseURL() != "https://signal.example" {
		t.Errorf("base = %s", cfg.HTTPBaseURL())
	}
	want := []string{"turn:relay.example:3478?transport=udp", "turn:relay.example:3478?transport=tcp"}
	if got := cfg.GetTURNServers(); !reflect.DeepEqual(got, want) {
		t.Errorf("turn = %v", got)
	}
	if u, p := cfg.GetTURNCredentials(); u != "u" || p != "p" {
		t.Errorf("credentials = %s/%s", u, p)
	}
}

func TestLoadClientRelayNeedsTURN(t *testing.T) {
	clearEnv(t)
	if _, err := LoadClient(ClientOptions{ForceRelay: true}); !errors.Is(err, ErrRelayWithoutTURN) {
		t.Errorf("err = %v, want ErrRelayWithoutTURN", err)
	}
}
