package util

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"syscall"
)

// CreateListener opens a TCP listener on address. Only "tcp", "tcp4" and
// "tcp6" are accepted.
func CreateListener(network, address string) (net.Listener, error) {
	if network != "tcp" && network != "tcp4" && network != "tcp6" {
		return nil, fmt.Errorf("unsupported network type: %s, only 'tcp', 'tcp4', or 'tcp6' are supported for CreateListener", network)
	}
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s %s: %w", network, address, err)
	}
	return l, nil
}

// CreateListenerForAddrPort opens a listener bound exactly to ap, choosing
// tcp4 or tcp6 from the address family so "[::1]:4000" never falls back to
// an IPv4 socket.
func CreateListenerForAddrPort(ap netip.AddrPort) (net.Listener, error) {
	network := "tcp6"
	if ap.Addr().Unmap().Is4() {
		network = "tcp4"
		ap = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return CreateListener(network, ap.String())
}

// ListenerURL formats the base URL a client would use to reach l.
func ListenerURL(l net.Listener) string {
	return "http://" + l.Addr().String()
}

// IsAddrInUse checks if the error indicates an "address already in use" condition.
func IsAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && sysErr.Err == syscall.EADDRINUSE {
		return true
	}
	// Some platforms only surface the condition in the message.
	return strings.Contains(strings.ToLower(err.Error()), "address already in use")
}
