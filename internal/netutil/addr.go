// Package netutil provides shared host and upstream-address helpers.
package netutil

import (
	"net"
	"path/filepath"
	"strings"
)

// NormalizeHost lower-cases and strips ports/trailing dots from host values.
func NormalizeHost(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if host == "" {
		return ""
	}

	if h, p, err := net.SplitHostPort(host); err == nil && p != "" {
		host = h
	} else if strings.Count(host, ":") == 1 {
		left, right, ok := strings.Cut(host, ":")
		if ok && isDigits(right) {
			host = left
		}
	}

	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return strings.TrimSuffix(host, ".")
}

// UnixDialAddr renders a socket path in Caddy's network-prefixed dial
// syntax, e.g. "/tmp/caddy-dev/app.sock" -> "unix//tmp/caddy-dev/app.sock".
func UnixDialAddr(sockPath string) string {
	return "unix/" + sockPath
}

// SocketPathFromDial extracts the filesystem path from a Caddy unix dial
// address. It returns "" for TCP addresses.
func SocketPathFromDial(dial string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dial), "unix/")
	if !ok {
		return ""
	}
	return rest
}

// SocketPath joins a socket directory and route identity into the
// conventional per-service socket path "{dir}/{identity}.sock".
func SocketPath(dir, identity string) string {
	return filepath.Join(dir, identity+".sock")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
