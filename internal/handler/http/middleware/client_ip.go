package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"slices"
	"strings"
)

// ClientIPSource resolves the client IP a request should be accounted
// under.
//
// Two strategies exist: PeerAddrSource (default, trusts only the TCP
// connection) and ProxyHeaderSource (opt-in, reads forwarding headers
// when the request comes from a known reverse proxy).
type ClientIPSource interface {
	ClientIP(r *http.Request) (string, error)
}

// PeerAddrSource takes the TCP peer address as the client IP. The peer
// address cannot be forged by the client, so this is the right default
// whenever the API is reached directly.
type PeerAddrSource struct{}

// ClientIP strips the port from r.RemoteAddr and returns the IP, handling
// both "192.168.1.1:54321" and bracketed IPv6 forms.
func (PeerAddrSource) ClientIP(r *http.Request) (string, error) {
	return peerIP(r.RemoteAddr)
}

// ProxyTrust lists the reverse proxies whose forwarding headers may be
// believed. An empty trust set means headers are never believed.
type ProxyTrust struct {
	// Ranges holds the trusted proxy networks. Single IPs are stored
	// as /32 or /128 prefixes.
	Ranges []netip.Prefix
}

// Trusts reports whether remoteAddr belongs to a trusted proxy.
func (p ProxyTrust) Trusts(remoteAddr string) bool {
	host, err := peerIP(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(p.Ranges, func(r netip.Prefix) bool {
		return r.Contains(addr)
	})
}

// LoadProxyTrust reads proxy trust settings from the environment:
// API_TRUST_PROXY ("true" turns it on) and API_TRUSTED_PROXIES, a
// comma-separated list of proxy IPs or CIDR ranges.
//
// Misconfiguration fails closed. Turning trust on without listing
// proxies, or listing a bad entry, is a startup error rather than a
// silently permissive config.
func LoadProxyTrust() (ProxyTrust, error) {
	var trust ProxyTrust
	if os.Getenv("API_TRUST_PROXY") != "true" {
		return trust, nil
	}

	raw := strings.TrimSpace(os.Getenv("API_TRUSTED_PROXIES"))
	if raw == "" {
		return trust, errors.New("API_TRUST_PROXY is enabled but API_TRUSTED_PROXIES is empty")
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefix, err := parseTrustEntry(part)
		if err != nil {
			return ProxyTrust{}, err
		}
		trust.Ranges = append(trust.Ranges, prefix)
	}
	if len(trust.Ranges) == 0 {
		return ProxyTrust{}, errors.New("API_TRUST_PROXY is enabled but no valid proxies found in API_TRUSTED_PROXIES")
	}

	return trust, nil
}

// parseTrustEntry accepts CIDR notation or a bare IP, widening the latter
// to a single-address prefix.
func parseTrustEntry(s string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid proxy entry %q: want an IP or a CIDR range like 10.0.0.0/8", s)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// ProxyHeaderSource reads X-Forwarded-For, then X-Real-IP, when and only
// when the request arrives from a trusted proxy, with the peer address as
// the final fallback. Anything from an untrusted source sticks to the
// peer address, so a client cannot rotate its apparent IP with forged
// headers.
type ProxyHeaderSource struct {
	trust ProxyTrust
}

func NewProxyHeaderSource(trust ProxyTrust) *ProxyHeaderSource {
	return &ProxyHeaderSource{trust: trust}
}

// ClientIP implements ClientIPSource.
func (s *ProxyHeaderSource) ClientIP(r *http.Request) (string, error) {
	if len(s.trust.Ranges) == 0 {
		return peerIP(r.RemoteAddr)
	}
	if !s.trust.Trusts(r.RemoteAddr) {
		s.warnDroppedHeaders(r)
		return peerIP(r.RemoteAddr)
	}

	if ip := firstForwarded(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip, nil
	}
	if real, err := netip.ParseAddr(r.Header.Get("X-Real-IP")); err == nil {
		return real.String(), nil
	}

	return peerIP(r.RemoteAddr)
}

// warnDroppedHeaders logs forwarding headers we refuse to honor. A client
// sending them straight to us is either misconfigured or probing the rate
// limiter.
func (s *ProxyHeaderSource) warnDroppedHeaders(r *http.Request) {
	for _, name := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if v := r.Header.Get(name); v != "" {
			slog.Warn("ignoring forwarding header from untrusted source",
				slog.String("header", name), slog.String("value", v),
				slog.String("remote_addr", r.RemoteAddr))
		}
	}
}

// peerIP extracts the IP from a "host:port" or bare "IP" string.
func peerIP(addr string) (string, error) {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h, nil
	}
	// ポートなしの裸のIPかもしれない
	if bare, err := netip.ParseAddr(addr); err == nil {
		return bare.String(), nil
	}
	return "", fmt.Errorf("unusable client address %q", addr)
}

// firstForwarded parses the first IP from a comma-separated
// X-Forwarded-For value ("client, proxy1, proxy2"). Returns "" when the
// first entry is not a valid IP; a padded entry counts as invalid rather
// than being repaired.
func firstForwarded(s string) string {
	first, _, _ := strings.Cut(s, ",")
	addr, err := netip.ParseAddr(first)
	if err != nil {
		return ""
	}
	return addr.String()
}
