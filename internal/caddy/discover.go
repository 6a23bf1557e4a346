package caddy

import (
	"context"
	"strings"

	"github.com/devmesh-sh/devmesh/internal/domain"
)

// tlsApp mirrors the parts of Caddy's /config/apps/tls/ document devmesh
// reads. Wildcard subjects normally live under certificates.automate, but a
// Caddyfile-managed instance reports them under automation.policies instead.
type tlsApp struct {
	Certificates struct {
		Automate []string `json:"automate"`
	} `json:"certificates"`
	Automation struct {
		Policies []struct {
			Subjects []string `json:"subjects"`
		} `json:"policies"`
	} `json:"automation"`
}

// DiscoverDomain reads the proxy's TLS automation config and derives the
// active base domain from the first wildcard certificate subject, e.g.
// "*.dev.example.com" -> "dev.example.com".
//
// It is a single short-timeout GET with no retry, safe to call
// speculatively: every failure mode (connection refused, timeout, non-200,
// malformed body, no wildcard subject) maps to
// [domain.ErrProxyUnavailable], which callers treat as "the proxy is not
// running" rather than as a fault.
func (c *Client) DiscoverDomain(ctx context.Context) (string, error) {
	subjects, err := c.TLSSubjects(ctx)
	if err != nil {
		return "", domain.ErrProxyUnavailable
	}
	for _, s := range subjects {
		if rest, ok := strings.CutPrefix(s, "*."); ok && rest != "" {
			return rest, nil
		}
	}
	return "", domain.ErrProxyUnavailable
}

// TLSSubjects returns every certificate subject the proxy manages.
func (c *Client) TLSSubjects(ctx context.Context) ([]string, error) {
	var app tlsApp
	if err := c.getJSON(ctx, "/config/apps/tls/", &app); err != nil {
		return nil, err
	}
	if len(app.Certificates.Automate) > 0 {
		return app.Certificates.Automate, nil
	}
	var subjects []string
	for _, p := range app.Automation.Policies {
		subjects = append(subjects, p.Subjects...)
	}
	return subjects, nil
}
