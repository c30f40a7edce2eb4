//go:build !linux

package tun

import "io"

// Open is only implemented on linux.
func Open(c Config) (io.ReadWriteCloser, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}
