// Package tun creates the local virtual network interface.
package tun

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrUnsupported is returned on platforms without TUN support.
var ErrUnsupported = errors.New("tun devices are only supported on linux")

// maxNameLen is IFNAMSIZ minus the trailing NUL.
const maxNameLen = 15

// Config describes the interface to create.
type Config struct {
	Name    string
	Address string // CIDR assigned to the interface
	MTU     int
}

// Validate checks the interface name, address and MTU.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("interface name is required")
	}
	if len(c.Name) > maxNameLen {
		return fmt.Errorf("interface name %q longer than %d bytes", c.Name, maxNameLen)
	}
	if _, err := netip.ParsePrefix(c.Address); err != nil {
		return fmt.Errorf("interface address: %w", err)
	}
	if c.MTU <= 0 {
		return fmt.Errorf("interface mtu must be positive, got %d", c.MTU)
	}
	return nil
}
