package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/worker"
)

// ErrPrivateAddress is returned when a connection would reach a
// non-public address
var ErrPrivateAddress = errors.New("refusing to connect to non-public address")

// Carrier-grade NAT range, not covered by netip.Addr.IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// NewPublicFetcher creates a Fetcher for caller-supplied URLs. Every dial,
// including those for redirects and robots.txt, is refused unless the
// resolved address is a public unicast address. Proxies are not used so
// the check always sees the real destination.
func NewPublicFetcher(cfg model.HTTPConfig, limiter *worker.Limiter) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return newFetcher(cfg, limiter, transport)
}

// publicOnly runs after DNS resolution, once per candidate address
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%s: %w", address, ErrPrivateAddress)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !IsPublicAddr(addr) {
		return fmt.Errorf("%s: %w", address, ErrPrivateAddress)
	}
	return nil
}

// IsPublicAddr reports whether addr is a globally routable unicast address
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	switch {
	case addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}
	if addr.Is4() && sharedAddressSpace.Contains(addr) {
		return false
	}
	return true
}
