package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-known failure conditions that cross package
// boundaries.  Callers should use [errors.Is] to match these.
var (
	// ErrProxyUnavailable means the proxy admin API could not be reached,
	// answered non-200, or returned a body without a usable wildcard
	// domain. This is an expected condition (the proxy is simply not
	// running) and callers branch on it rather than failing.
	ErrProxyUnavailable = errors.New("proxy unavailable")

	// ErrRouteNotFound means the proxy has no route under the given ID.
	ErrRouteNotFound = errors.New("route not found")

	// ErrServerNotFound means the named virtual server does not exist on
	// the proxy. The admin API reports this as HTTP 200 with a null body,
	// which must not be mistaken for an existing server.
	ErrServerNotFound = errors.New("server not found")
)

// RouteError wraps an underlying error with route registration context.
type RouteError struct {
	ID  string
	Op  string
	Err error
}

func (e *RouteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("route %s: %s: %v", e.ID, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
