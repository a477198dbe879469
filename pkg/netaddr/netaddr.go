// Package netaddr discovers the local IPv4 address other machines on the LAN
// would use to reach this host.
//
// Discovery "connects" a UDP socket to an address outside the local network.
// Connecting a datagram socket sends nothing; it only makes the kernel pick
// the route and therefore the source address, which is read back and the
// socket closed. No DNS, hostname or external service is involved.
package netaddr

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/getmockd/wsecho/pkg/logging"
)

const (
	// Fallback is returned whenever discovery fails.
	Fallback = "127.0.0.1"

	// DefaultTarget is the probe destination. It does not need to be reachable.
	DefaultTarget = "10.255.255.255:1"
)

// DialFunc opens a connection. net.Dial satisfies it.
type DialFunc func(network, address string) (net.Conn, error)

// Resolver resolves the outbound-facing local IPv4 address.
// The zero value is ready to use.
type Resolver struct {
	// Dial opens the probe socket. Defaults to net.Dial.
	Dial DialFunc
	// Target is the probe destination. Defaults to DefaultTarget.
	Target string
	// Logger receives the cause of a fallback at debug level.
	Logger *slog.Logger
}

// LocalIPv4 resolves the local address with a default Resolver.
func LocalIPv4() string {
	return (&Resolver{}).Resolve()
}

// Resolve returns the local IPv4 address selected for outbound traffic, or
// Fallback. It never fails.
func (r *Resolver) Resolve() string {
	ip, err := r.discover()
	if err != nil {
		r.logger().Debug("local address discovery failed, using loopback",
			"fallback", Fallback, "error", err)
		return Fallback
	}
	return ip
}

func (r *Resolver) discover() (ip string, err error) {
	dial := r.Dial
	if dial == nil {
		dial = net.Dial
	}
	target := r.Target
	if target == "" {
		target = DefaultTarget
	}

	// A panicking dialer is still a discovery failure, not a caller failure.
	defer func() {
		if p := recover(); p != nil {
			ip, err = "", fmt.Errorf("discovery panicked: %v", p)
		}
	}()

	conn, err := dial("udp4", target)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	return ipv4Of(conn.LocalAddr())
}

// ipv4Of extracts a usable IPv4 literal from a socket address.
func ipv4Of(addr net.Addr) (string, error) {
	var ip net.IP
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip = a.IP
	case *net.TCPAddr:
		ip = a.IP
	case nil:
		return "", fmt.Errorf("no local address")
	default:
		host, _, err := net.SplitHostPort(a.String())
		if err != nil {
			return "", fmt.Errorf("parse local address %q: %w", a.String(), err)
		}
		ip = net.ParseIP(host)
	}

	v4 := ip.To4()
	if v4 == nil {
		return "", fmt.Errorf("local address %v is not IPv4", ip)
	}
	if v4.IsUnspecified() {
		return "", fmt.Errorf("local address %v is unspecified", v4)
	}
	return v4.String(), nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.Nop()
}

// IsWildcard reports whether host binds every interface.
func IsWildcard(host string) bool {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return true
	}
	return false
}

// IsLoopback reports whether host only accepts local connections.
func IsLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// AdvertisedURLs returns the ws:// URLs a client can use to reach a server
// bound to host:port. The loopback URL always comes first. When the server
// listens on every interface, the LAN URL built from lanIP follows, unless
// lanIP is itself loopback. A server bound to one specific non-loopback
// address is only reachable there, so that address is the only URL.
func AdvertisedURLs(host string, port int, path, lanIP string) []string {
	if path == "" {
		path = "/"
	}
	hostPort := func(h string) string {
		return "ws://" + net.JoinHostPort(h, strconv.Itoa(port)) + trimRoot(path)
	}

	switch {
	case IsWildcard(host):
		urls := []string{hostPort("localhost")}
		if lanIP != "" && !IsLoopback(lanIP) {
			urls = append(urls, hostPort(lanIP))
		}
		return urls
	case IsLoopback(host):
		return []string{hostPort("localhost")}
	default:
		return []string{hostPort(host)}
	}
}

// trimRoot keeps "ws://host:port" free of a trailing slash for the root path.
func trimRoot(path string) string {
	if path == "/" {
		return ""
	}
	return path
}
