package cli

import "fmt"

// Version is stamped at build time via -ldflags.
var Version = "dev"

func printVersion() {
	fmt.Println("devmesh", Version)
}

func printUsage() {
	fmt.Print(`devmesh - register a local service with Caddy at a stable hostname

Usage:
  devmesh [run] [flags]     run the agent and status dashboard
  devmesh status [flags]    print the mesh status (--json for machines)
  devmesh register [flags]  one-shot route registration
  devmesh deregister [flags] one-shot route removal
  devmesh version

Common flags (also DEVMESH_* env vars, .env, and devmesh.yml via -f):
  --admin URL       Caddy admin API base URL (default http://localhost:2019)
  --id NAME         route identity; a .devmesh marker file wins
  --sock-dir DIR    Unix socket directory (default /tmp/caddy-dev)
  --port N          fallback TCP port when Caddy is unavailable
  --tidewave        also register the tidewave companion route
`)
}
