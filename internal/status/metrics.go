package status

import "strings"

const upstreamHealthMetric = "caddy_reverse_proxy_upstreams_healthy{"

// ParseUpstreamHealth extracts per-upstream health from the proxy's
// Prometheus exposition, keyed by upstream dial address. Lines that do not
// parse are skipped; the exposition format is not worth a full client
// dependency for one gauge.
func ParseUpstreamHealth(metricsText string) map[string]bool {
	health := map[string]bool{}
	for line := range strings.Lines(metricsText) {
		rest, ok := strings.CutPrefix(line, upstreamHealthMetric)
		if !ok {
			continue
		}
		addr, ok := labelValue(rest, "upstream")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		health[addr] = fields[len(fields)-1] == "1"
	}
	return health
}

// labelValue pulls the quoted value of one label out of a Prometheus label
// set like `upstream="unix//tmp/x.sock",handler="reverse_proxy"} 1`.
func labelValue(labels, name string) (string, bool) {
	_, rest, ok := strings.Cut(labels, name+`="`)
	if !ok {
		return "", false
	}
	val, _, ok := strings.Cut(rest, `"`)
	return val, ok
}
