// Package netutil guards outbound fetches of caller-supplied URLs. Import
// URLs come in over the API, so every connection is checked against private
// and reserved address space before dialing.
package netutil

import (
	"context"
	"fmt"
	"net"
)

// IsPrivateIP reports whether ip falls in a private, loopback, link-local or
// otherwise reserved range.
func IsPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// DialGuard wraps dialer so every outbound connection resolves its host and
// refuses private or reserved destinations. Loopback stays allowed so local
// test servers keep working. Because the check runs at dial time it also
// covers redirect targets.
func DialGuard(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if ip := net.ParseIP(host); ip != nil {
			if IsPrivateIP(ip) && !ip.IsLoopback() {
				return nil, fmt.Errorf("refusing to dial private address %s", host)
			}
		} else {
			addrs, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", host, err)
			}
			for _, a := range addrs {
				if IsPrivateIP(a) && !a.IsLoopback() {
					return nil, fmt.Errorf("%s resolves to private address %s", host, a)
				}
			}
		}
		return dialer.DialContext(ctx, network, addr)
	}
}
