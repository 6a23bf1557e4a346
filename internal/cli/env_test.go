package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigFileFromArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		path     string
		explicit bool
	}{
		{"none", []string{"-admin", "http://localhost:2019"}, "", false},
		{"short", []string{"-f", "mesh.yml"}, "mesh.yml", true},
		{"long", []string{"--file", "mesh.yml"}, "mesh.yml", true},
		{"short equals", []string{"-f=mesh.yml"}, "mesh.yml", true},
		{"long equals", []string{"--file=mesh.yml"}, "mesh.yml", true},
		{"dangling", []string{"-port", "4400", "-f"}, "", false},
		{"positional f is not a flag", []string{"f", "mesh.yml"}, "", false},
		{"mixed with other flags", []string{"-id", "my-app", "--file", "x.yml", "-port", "1"}, "x.yml", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path, explicit := configFileFromArgs(tc.args)
			if path != tc.path || explicit != tc.explicit {
				t.Fatalf("got (%q, %v), want (%q, %v)", path, explicit, tc.path, tc.explicit)
			}
		})
	}
}

func TestBaseConfigExplicitFileMissing(t *testing.T) {
	if _, err := baseConfig([]string{"-f", filepath.Join(t.TempDir(), "nope.yml")}); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestBaseConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devmesh.yml")
	if err := os.WriteFile(path, []byte("identity: filesvc\nport: 4500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := baseConfig([]string{"-f", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Identity != "filesvc" {
		t.Fatalf("identity = %q", cfg.Identity)
	}
	if cfg.FallbackPort != 4500 {
		t.Fatalf("port = %d", cfg.FallbackPort)
	}
}

func TestBaseConfigEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devmesh.yml")
	if err := os.WriteFile(path, []byte("identity: filesvc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEVMESH_ID", "envsvc")

	cfg, err := baseConfig([]string{"-f", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Identity != "envsvc" {
		t.Fatalf("identity = %q", cfg.Identity)
	}
}
