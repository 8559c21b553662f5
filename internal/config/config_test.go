package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BCA_API_BASE", "BCA_LOGIN_PATH", "BCA_ADDR", "BCA_STATE_DIR"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q, want loopback only by default", cfg.Addr)
	}
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true); err == nil {
		t.Fatal("expected error for missing required config")
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
api_base: https://api.example.com/api
login_path: /auth/admin/login
timeout: 5s
addr: 127.0.0.1:9000
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://api.example.com/api" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.LoginPath != "/auth/admin/login" {
		t.Errorf("LoginPath = %q", cfg.LoginPath)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "api_base: https://file.example.com\n")
	t.Setenv("BCA_API_BASE", "https://env.example.com")
	t.Setenv("BCA_STATE_DIR", "/tmp/bca-state")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://env.example.com" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.StatePath() != filepath.Join("/tmp/bca-state", "state.db") {
		t.Errorf("StatePath = %q", cfg.StatePath())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "api_base: [\n"},
		{"bad login path", "login_path: /auth/other\n"},
		{"zero timeout", "timeout: 0s\n"},
	}
	clearEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.content), true); err == nil {
				t.Error("expected error")
			}
		})
	}
}
