package cli

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/devmesh-sh/devmesh/internal/config"
)

// baseConfig builds the pre-flag configuration for a subcommand:
// compiled defaults, overlaid by the YAML file (explicit -f, DEVMESH_CONFIG,
// or ./devmesh.yml), overlaid by environment (including a .env file).
// Flags are parsed on top of the result by the caller.
func baseConfig(args []string) (config.RunConfig, error) {
	// godotenv.Load never overrides variables already set in the
	// environment, which is exactly the precedence we want.
	_ = godotenv.Load()

	def := config.Defaults()

	path, explicit := configFileFromArgs(args)
	if path == "" {
		if v := strings.TrimSpace(os.Getenv("DEVMESH_CONFIG")); v != "" {
			path, explicit = v, true
		} else {
			path = config.DefaultConfigFile
		}
	}
	cfg, err := config.ApplyFile(def, path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return def, err
		}
		cfg = def // default file absent: fine
	}

	return cfg.WithEnv(), nil
}

// configFileFromArgs pre-scans args for -f/--file before real flag
// parsing, since the file's contents feed the defaults that parsing needs.
func configFileFromArgs(args []string) (path string, explicit bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if name == "f" || name == "file" {
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		}
		for _, prefix := range []string{"-f=", "--f=", "-file=", "--file="} {
			if v, ok := strings.CutPrefix(arg, prefix); ok {
				return v, true
			}
		}
	}
	return "", false
}
