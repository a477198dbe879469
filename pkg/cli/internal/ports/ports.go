// Package ports provides port availability checking.
package ports

import (
	"net"
	"strconv"
)

// Check binds host:port briefly and returns the bind error, if any.
// Port 0 always succeeds.
func Check(host string, port int) error {
	if port == 0 {
		return nil
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}
