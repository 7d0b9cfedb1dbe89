package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrPrivateAddress is returned when an outbound request would reach a
// loopback, private, link-local or otherwise internal address.
var ErrPrivateAddress = errors.New("destination address is not public")

// Ranges that pass IsGlobalUnicast but are not reachable on the internet.
var internalPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
}

// IsPublicAddr reports whether addr is a globally routable unicast address.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	if !addr.IsValid() || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range internalPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// DenyInternalDial is a net.Dialer Control hook. It sees the resolved
// address, so redirects and DNS answers pointing inside are refused too.
func DenyInternalDial(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	if !IsPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ap.Addr())
	}
	return nil
}

// OutboundTransport returns a transport for fetching user-supplied URLs.
// Unless allowInternal is set, connections to internal addresses fail with
// ErrPrivateAddress. Environment proxies are ignored since they would hide
// the real destination from the dial hook.
func OutboundTransport(allowInternal bool) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	t := http.DefaultTransport.(*http.Transport).Clone()
	if !allowInternal {
		dialer.Control = DenyInternalDial
		t.Proxy = nil
	}
	t.DialContext = dialer.DialContext
	return t
}

// CheckPublicHost resolves host and fails unless every address is public.
// It is for clients that cannot take a dial hook, such as external binaries.
func CheckPublicHost(ctx context.Context, host string) error {
	host = ParseHostNoPort(host)
	if addr, err := netip.ParseAddr(host); err == nil {
		if !IsPublicAddr(addr) {
			return fmt.Errorf("%w: %s", ErrPrivateAddress, addr)
		}
		return nil
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, a := range addrs {
		if !IsPublicAddr(a) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateAddress, host, a)
		}
	}
	return nil
}
