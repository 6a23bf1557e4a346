package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devmesh.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
identity: file-app
sock_dir: /run/mesh
port: 9090
tidewave:
  enabled: true
  upstream: localhost:9100
`)

	cfg, err := ApplyFile(Defaults(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Identity != "file-app" {
		t.Fatalf("identity = %q", cfg.Identity)
	}
	if cfg.SockDir != "/run/mesh" {
		t.Fatalf("sock dir = %q", cfg.SockDir)
	}
	if cfg.FallbackPort != 9090 {
		t.Fatalf("port = %d", cfg.FallbackPort)
	}
	if !cfg.Tidewave || cfg.TidewaveUpstream != "localhost:9100" {
		t.Fatalf("tidewave not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.AdminURL != "http://localhost:2019" {
		t.Fatalf("admin = %q", cfg.AdminURL)
	}
}

func TestApplyFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ApplyFile(Defaults(), filepath.Join(t.TempDir(), "nope.yml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected IsNotExist, got %v", err)
	}
}

func TestApplyFileMalformed(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "identity: [unclosed")
	if _, err := ApplyFile(Defaults(), path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvBeatsFile(t *testing.T) {
	path := writeConfigFile(t, "identity: file-app")
	t.Setenv("DEVMESH_ID", "env-app")

	cfg, err := ApplyFile(Defaults(), path)
	if err != nil {
		t.Fatal(err)
	}
	cfg = cfg.WithEnv()
	if cfg.Identity != "env-app" {
		t.Fatalf("identity = %q, env must beat the file", cfg.Identity)
	}
}
