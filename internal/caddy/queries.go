package caddy

import (
	"context"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

// Upstream is one entry from the proxy's /reverse_proxy/upstreams report.
type Upstream struct {
	Address     string `json:"address"`
	NumRequests int64  `json:"num_requests"`
	Fails       int64  `json:"fails"`
}

// Upstreams returns the proxy's live reverse-proxy upstream counters.
func (c *Client) Upstreams(ctx context.Context) ([]Upstream, error) {
	var ups []Upstream
	if err := c.getJSON(ctx, "/reverse_proxy/upstreams", &ups); err != nil {
		return nil, err
	}
	return ups, nil
}

// DynamicDNS reads the dynamic_dns app config, if the proxy carries one.
func (c *Client) DynamicDNS(ctx context.Context) (domain.DNSStatus, error) {
	var app struct {
		Domains  map[string][]string `json:"domains"`
		Versions struct {
			IPv4 bool `json:"ipv4"`
			IPv6 bool `json:"ipv6"`
		} `json:"versions"`
	}
	if err := c.getJSON(ctx, "/config/apps/dynamic_dns/", &app); err != nil {
		return domain.DNSStatus{}, err
	}
	return domain.DNSStatus{
		Domains: app.Domains,
		IPv4:    app.Versions.IPv4,
		IPv6:    app.Versions.IPv6,
	}, nil
}

// MetricsText fetches the proxy's Prometheus metrics exposition as-is.
func (c *Client) MetricsText(ctx context.Context) (string, error) {
	b, err := c.getRaw(ctx, "/metrics")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
