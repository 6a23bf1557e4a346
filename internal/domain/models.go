// Package domain defines the core data types shared across the devmesh
// agent, Caddy admin client, status aggregator, and event store layers.
package domain

import "time"

// Agent state constants describe the lifecycle of the mesh registration.
const (
	StateStarting = "starting"
	StateActive   = "active"
	StateDegraded = "degraded"
	StateStopped  = "stopped"
)

// Event kind constants for the lifecycle journal.
const (
	EventRegistered   = "registered"
	EventDegraded     = "degraded"
	EventDeregistered = "deregistered"
)

// Event is one lifecycle journal entry shown on the dashboard.
type Event struct {
	ID       int64
	Kind     string
	Identity string
	Domain   string
	Detail   string
	At       time.Time
}

// ServiceStatus is the per-service view aggregated from the proxy: one
// registered route joined with its upstream counters and health.
type ServiceStatus struct {
	ID           string   `json:"id"`
	Hosts        []string `json:"hosts"`
	SocketPath   string   `json:"socket"`
	SocketExists bool     `json:"socket_exists"`
	Healthy      bool     `json:"healthy"`
	Requests     int64    `json:"requests"`
	Fails        int64    `json:"fails"`
}

// DNSStatus reports the proxy's dynamic DNS configuration.
type DNSStatus struct {
	Domains map[string][]string `json:"domains"`
	IPv4    bool                `json:"ipv4"`
	IPv6    bool                `json:"ipv6"`
}

// MeshStatus is the full dashboard snapshot.
type MeshStatus struct {
	Services   []ServiceStatus `json:"services"`
	TLSDomains []string        `json:"tls_domains"`
	DNS        DNSStatus       `json:"dns"`
}
