package lifecycle

import (
	"fmt"
	"net"
	"os"
)

// ListenerConfig describes how the local service should bind and what URL
// it should advertise. The controller's startup transition takes the
// fallback config and returns a possibly rewritten copy; it never reaches
// into the serving layer directly, so the transformation stays testable.
type ListenerConfig struct {
	Network   string // "tcp" or "unix"
	Address   string // listen address or socket path
	PublicURL string // externally visible base URL
}

// TCPFallback is the listener config used when the proxy is unavailable:
// a plain localhost TCP port with a matching http URL.
func TCPFallback(port int) ListenerConfig {
	return ListenerConfig{
		Network:   "tcp",
		Address:   fmt.Sprintf("127.0.0.1:%d", port),
		PublicURL: fmt.Sprintf("http://localhost:%d", port),
	}
}

// Listen binds the configured address. Unix sockets are chmodded 0777
// after bind: the proxy usually runs as a different user and must be able
// to dial the socket.
func (lc ListenerConfig) Listen() (net.Listener, error) {
	ln, err := net.Listen(lc.Network, lc.Address)
	if err != nil {
		return nil, err
	}
	if lc.Network == "unix" {
		if err := os.Chmod(lc.Address, 0o777); err != nil {
			_ = ln.Close()
			return nil, err
		}
	}
	return ln, nil
}

// removeStaleSocket unlinks a socket file left behind by an unclean
// shutdown so the fresh bind cannot fail with "address already in use".
// A missing file is the normal case and not an error.
func removeStaleSocket(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
