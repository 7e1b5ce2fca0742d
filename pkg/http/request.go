package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPResolver determines the caller's address. Forwarding headers are
// honoured only when the direct peer is inside one of the trusted prefixes.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver parses CIDR ranges of trusted proxies. Invalid entries are skipped.
func NewClientIPResolver(trustedProxies []string) *ClientIPResolver {
	res := &ClientIPResolver{}
	for _, cidr := range trustedProxies {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			continue
		}
		res.trusted = append(res.trusted, prefix.Masked())
	}
	return res
}

// ClientIP returns the best known client address for r.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := peerAddr(r)

	if c != nil && c.isTrusted(peer) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, candidate := range strings.Split(xff, ",") {
				if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
					return addr.String()
				}
			}
		}
		if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return addr.String()
		}
	}

	return peer
}

func (c *ClientIPResolver) isTrusted(ip string) bool {
	if len(c.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
