// Package config resolves the agent configuration from flags, DEVMESH_*
// environment variables, an optional YAML file, and compiled defaults, in
// that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RunConfig is everything the agent needs: where the proxy admin API
// lives, how the service identifies itself, where sockets go, and the
// optional tidewave companion registration.
type RunConfig struct {
	AdminURL     string
	Identity     string // default identity; a .devmesh marker file overrides it
	SockDir      string
	FallbackPort int
	Server       string // primary Caddy server name
	DBPath       string // event journal; "off" disables
	LogLevel     string
	PprofListen  string

	Tidewave         bool
	TidewaveUpstream string // host:port
	TidewaveServer   string
	TidewaveListen   string
}

// JournalDisabled is the DBPath value that turns the event journal off.
const JournalDisabled = "off"

const (
	defaultAdminURL     = "http://localhost:2019"
	defaultIdentity     = "devmesh"
	defaultSockDir      = "/tmp/caddy-dev"
	defaultFallbackPort = 4400
	defaultServer       = "srv0"
	defaultTidewaveAddr = ":4443"
)

// Defaults returns the compiled-in configuration, before any file,
// environment, or flag overlays.
func Defaults() RunConfig {
	return RunConfig{
		AdminURL:       defaultAdminURL,
		Identity:       defaultIdentity,
		SockDir:        defaultSockDir,
		FallbackPort:   defaultFallbackPort,
		Server:         defaultServer,
		LogLevel:       "info",
		TidewaveServer: "tidewave",
		TidewaveListen: defaultTidewaveAddr,
	}
}

// WithEnv overlays DEVMESH_* environment variables onto c.
func (c RunConfig) WithEnv() RunConfig {
	c.AdminURL = envOr("DEVMESH_ADMIN", c.AdminURL)
	c.Identity = envOr("DEVMESH_ID", c.Identity)
	c.SockDir = envOr("DEVMESH_SOCK_DIR", c.SockDir)
	c.FallbackPort = envIntOr("DEVMESH_PORT", c.FallbackPort)
	c.Server = envOr("DEVMESH_SERVER", c.Server)
	c.DBPath = envOr("DEVMESH_DB", c.DBPath)
	c.LogLevel = envOr("DEVMESH_LOG_LEVEL", c.LogLevel)
	c.PprofListen = envOr("DEVMESH_PPROF_LISTEN", c.PprofListen)
	c.Tidewave = envBoolOr("DEVMESH_TIDEWAVE", c.Tidewave)
	c.TidewaveUpstream = envOr("DEVMESH_TIDEWAVE_UPSTREAM", c.TidewaveUpstream)
	c.TidewaveServer = envOr("DEVMESH_TIDEWAVE_SERVER", c.TidewaveServer)
	c.TidewaveListen = envOr("DEVMESH_TIDEWAVE_LISTEN", c.TidewaveListen)
	return c
}

// ParseAgentFlags parses the shared agent flag set on top of def, then
// normalizes and validates the result. name labels the flag set in usage
// output ("run", "status", ...).
func ParseAgentFlags(name string, args []string, def RunConfig) (RunConfig, error) {
	cfg := def
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	bindAgentFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 0 {
		return cfg, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if err := cfg.normalizeAndValidate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseStatusFlags is [ParseAgentFlags] plus the status command's --json
// output switch.
func ParseStatusFlags(args []string, def RunConfig) (RunConfig, bool, error) {
	cfg := def
	jsonOut := false
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	bindAgentFlags(fs, &cfg)
	fs.BoolVar(&jsonOut, "json", false, "Print the snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if fs.NArg() != 0 {
		return cfg, false, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if err := cfg.normalizeAndValidate(); err != nil {
		return cfg, false, err
	}
	return cfg, jsonOut, nil
}

func bindAgentFlags(fs *flag.FlagSet, cfg *RunConfig) {
	// -f is pre-scanned by the CLI before defaults are built; it is bound
	// here again only so flag parsing accepts it.
	var configFile string
	fs.StringVar(&configFile, "f", "", "Path to devmesh YAML config")
	fs.StringVar(&configFile, "file", "", "Path to devmesh YAML config")

	fs.StringVar(&cfg.AdminURL, "admin", cfg.AdminURL, "Caddy admin API base URL")
	fs.StringVar(&cfg.Identity, "id", cfg.Identity, "Route identity (overridden by a .devmesh marker file)")
	fs.StringVar(&cfg.SockDir, "sock-dir", cfg.SockDir, "Directory for per-service Unix sockets")
	fs.IntVar(&cfg.FallbackPort, "port", cfg.FallbackPort, "Fallback TCP port when the proxy is unavailable")
	fs.StringVar(&cfg.Server, "server", cfg.Server, "Primary Caddy server name")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Event journal SQLite path (\"off\" disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	fs.BoolVar(&cfg.Tidewave, "tidewave", cfg.Tidewave, "Also register the tidewave companion route")
	fs.StringVar(&cfg.TidewaveUpstream, "tidewave-upstream", cfg.TidewaveUpstream, "Tidewave upstream host:port")
	fs.StringVar(&cfg.TidewaveServer, "tidewave-server", cfg.TidewaveServer, "Auxiliary Caddy server name")
	fs.StringVar(&cfg.TidewaveListen, "tidewave-listen", cfg.TidewaveListen, "Auxiliary server listen address")
}

func (c *RunConfig) normalizeAndValidate() error {
	c.AdminURL = strings.TrimSuffix(strings.TrimSpace(c.AdminURL), "/")
	if c.AdminURL == "" {
		return errors.New("missing --admin or DEVMESH_ADMIN")
	}
	c.Identity = strings.ToLower(strings.TrimSpace(c.Identity))
	if c.Identity == "" {
		return errors.New("missing --id or DEVMESH_ID")
	}
	if !validIdentity(c.Identity) {
		return fmt.Errorf("identity %q must be a hostname label (letters, digits, hyphens)", c.Identity)
	}
	c.SockDir = strings.TrimSpace(c.SockDir)
	if c.SockDir == "" {
		return errors.New("missing --sock-dir or DEVMESH_SOCK_DIR")
	}
	if c.FallbackPort <= 0 || c.FallbackPort > 65535 {
		return errors.New("fallback port must be between 1 and 65535")
	}
	c.Server = strings.TrimSpace(c.Server)
	if c.Server == "" {
		c.Server = defaultServer
	}
	if c.DBPath = strings.TrimSpace(c.DBPath); c.DBPath == "" {
		// Journal lives next to the sockets unless configured elsewhere.
		c.DBPath = filepath.Join(c.SockDir, "devmesh.db")
	}
	if c.Tidewave {
		c.TidewaveUpstream = strings.TrimSpace(c.TidewaveUpstream)
		if c.TidewaveUpstream == "" {
			return errors.New("tidewave requires --tidewave-upstream (host:port)")
		}
	}
	return nil
}

func validIdentity(id string) bool {
	if len(id) > 63 || strings.HasPrefix(id, "-") || strings.HasSuffix(id, "-") {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
