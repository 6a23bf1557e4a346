package lifecycle

import (
	"os"
	"path/filepath"
	"strings"
)

// IdentityMarkerFile is the optional per-workspace override for the route
// identity: a one-line file read once at startup, never watched.
const IdentityMarkerFile = ".devmesh"

// ResolveIdentity returns the route identity for a workspace: the first
// line of dir's marker file if present and non-empty, otherwise fallback.
func ResolveIdentity(dir, fallback string) string {
	b, err := os.ReadFile(filepath.Join(dir, IdentityMarkerFile))
	if err != nil {
		return fallback
	}
	line, _, _ := strings.Cut(string(b), "\n")
	if id := strings.TrimSpace(line); id != "" {
		return id
	}
	return fallback
}
