//go:build linux

package tun

import (
	"fmt"
	"io"

	"github.com/songgao/water"
	"github.com/vishvananda/netlink"
)

// Open creates the TUN device, sets its MTU and address and brings it up.
// Requires CAP_NET_ADMIN.
func Open(c Config) (io.ReadWriteCloser, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dev, err := water.New(water.Config{
		DeviceType: water.TUN,
		PlatformSpecificParams: water.PlatformSpecificParams{
			Name: c.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating tun device: %w", err)
	}

	if err := configure(dev.Name(), c); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

func configure(name string, c Config) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", name, err)
	}

	addr, err := netlink.ParseAddr(c.Address)
	if err != nil {
		return fmt.Errorf("parsing address %s: %w", c.Address, err)
	}

	if err := netlink.LinkSetMTU(link, c.MTU); err != nil {
		return fmt.Errorf("setting mtu on %s: %w", name, err)
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return fmt.Errorf("adding address to %s: %w", name, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("bringing up %s: %w", name, err)
	}
	return nil
}
