package utils

import (
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the proxy is trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// parseIP accepts "ip", "ip:port" and "[v6]:port". IPv4-mapped addresses are unmapped.
func parseIP(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

// ClientIP resolves the client address of r.
// With trustProxy, the first parseable proxy header wins (X-Forwarded-For
// contributes its left-most entry); RemoteAddr is the fallback.
//
// NOTE: Use trustProxy=true only when the origin is reachable exclusively through a trusted reverse proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if a, ok := parseIP(v); ok {
				return a.String()
			}
		}
	}
	if a, ok := parseIP(r.RemoteAddr); ok {
		return a.String()
	}
	return r.RemoteAddr
}

// IPMatcher matches addresses against a list of IPs and CIDRs.
type IPMatcher struct {
	nets []netip.Prefix
}

// NewIPMatcher parses each entry as a CIDR or a single address, skipping anything else.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if p, err := netip.ParsePrefix(s); err == nil {
			m.nets = append(m.nets, p.Masked())
		} else if a, ok := parseIP(s); ok {
			m.nets = append(m.nets, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.nets) == 0 }

// Allow reports whether ip falls in one of the configured networks.
func (m *IPMatcher) Allow(ip string) bool {
	a, ok := parseIP(ip)
	if !ok {
		return false
	}
	for _, p := range m.nets {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
