package cli

import (
	"errors"
	"fmt"
	"syscall"
)

// isAddrInUseError reports whether err is a bind failure on a busy port.
func isAddrInUseError(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// isPermissionDeniedError reports whether err is a bind failure on a
// privileged port.
func isPermissionDeniedError(err error) bool {
	return errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM)
}

// bindError turns a listen failure into an actionable message.
func bindError(host string, port int, err error) error {
	switch {
	case isAddrInUseError(err):
		return fmt.Errorf("port %d is already in use on %s: try a different port with --port or check what's using it: lsof -i :%d", port, host, port)
	case isPermissionDeniedError(err):
		return fmt.Errorf("permission denied binding %s:%d: ports below 1024 usually need elevated privileges, try --port 8080", host, port)
	}
	return fmt.Errorf("failed to start server: %w", err)
}
