package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked for in the working directory when no -f flag
// is given; its absence is not an error.
const DefaultConfigFile = "devmesh.yml"

// fileConfig is the devmesh.yml document. Every field is optional; zero
// values leave the corresponding RunConfig field untouched, so the file
// sits between compiled defaults and environment/flags in precedence.
type fileConfig struct {
	Admin    string `yaml:"admin"`
	Identity string `yaml:"identity"`
	SockDir  string `yaml:"sock_dir"`
	Port     int    `yaml:"port"`
	Server   string `yaml:"server"`
	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`

	Tidewave struct {
		Enabled  bool   `yaml:"enabled"`
		Upstream string `yaml:"upstream"`
		Server   string `yaml:"server"`
		Listen   string `yaml:"listen"`
	} `yaml:"tidewave"`
}

// ApplyFile overlays the YAML config at path onto def and returns the
// result. The caller decides whether a missing file is an error (it is for
// an explicit -f, not for the default file), so the os.IsNotExist check
// stays with the caller.
func ApplyFile(def RunConfig, path string) (RunConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return def, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return def, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := def
	if fc.Admin != "" {
		cfg.AdminURL = fc.Admin
	}
	if fc.Identity != "" {
		cfg.Identity = fc.Identity
	}
	if fc.SockDir != "" {
		cfg.SockDir = fc.SockDir
	}
	if fc.Port != 0 {
		cfg.FallbackPort = fc.Port
	}
	if fc.Server != "" {
		cfg.Server = fc.Server
	}
	if fc.DB != "" {
		cfg.DBPath = fc.DB
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.Tidewave.Enabled {
		cfg.Tidewave = true
	}
	if fc.Tidewave.Upstream != "" {
		cfg.TidewaveUpstream = fc.Tidewave.Upstream
	}
	if fc.Tidewave.Server != "" {
		cfg.TidewaveServer = fc.Tidewave.Server
	}
	if fc.Tidewave.Listen != "" {
		cfg.TidewaveListen = fc.Tidewave.Listen
	}
	return cfg, nil
}
