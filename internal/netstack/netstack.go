// Package netstack runs a userspace IPv4/TCP stack whose link layer is a
// send callback plus Inject, so whole IP packets can be carried over any
// message transport.
package netstack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"gvisor.dev/gvisor/pkg/buffer"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"gvisor.dev/gvisor/pkg/tcpip/link/channel"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"
	"gvisor.dev/gvisor/pkg/tcpip/stack"
	"gvisor.dev/gvisor/pkg/tcpip/transport/tcp"
)

const (
	nicID = 1

	// DefaultQueueSize is the number of outbound packets buffered between
	// the stack and the send callback.
	DefaultQueueSize = 256
)

// ErrPacketTooLarge is returned by Inject for packets longer than the MTU.
var ErrPacketTooLarge = errors.New("packet larger than mtu")

// Config describes the local end of the stack.
type Config struct {
	LocalAddress string // IPv4 address, e.g. 10.0.1.2
	MTU          int
	QueueSize    int // defaults to DefaultQueueSize
}

// Stack is a userspace network stack with a single NIC.
type Stack struct {
	s    *stack.Stack
	ep   *channel.Endpoint
	mtu  int
	send func([]byte)

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a stack addressed at cfg.LocalAddress. Every packet the stack
// emits is passed to send, in order, from a single goroutine; send owns the
// slice.
func New(cfg Config, send func([]byte)) (*Stack, error) {
	addr, err := netip.ParseAddr(cfg.LocalAddress)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("local address %q is not an IPv4 address", cfg.LocalAddress)
	}
	if cfg.MTU <= 0 {
		return nil, fmt.Errorf("mtu must be positive, got %d", cfg.MTU)
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}

	s := stack.New(stack.Options{
		NetworkProtocols:   []stack.NetworkProtocolFactory{ipv4.NewProtocol},
		TransportProtocols: []stack.TransportProtocolFactory{tcp.NewProtocol},
	})

	ep := channel.New(queue, uint32(cfg.MTU), "")
	if tcpErr := s.CreateNIC(nicID, ep); tcpErr != nil {
		s.Close()
		return nil, fmt.Errorf("creating nic: %v", tcpErr)
	}

	protocolAddr := tcpip.ProtocolAddress{
		Protocol:          ipv4.ProtocolNumber,
		AddressWithPrefix: tcpip.AddrFrom4(addr.As4()).WithPrefix(),
	}
	if tcpErr := s.AddProtocolAddress(nicID, protocolAddr, stack.AddressProperties{}); tcpErr != nil {
		s.Close()
		return nil, fmt.Errorf("adding address %s: %v", addr, tcpErr)
	}

	// Everything not local goes out of the single NIC.
	s.SetRouteTable([]tcpip.Route{{
		Destination: header.IPv4EmptySubnet,
		NIC:         nicID,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	st := &Stack{
		s:      s,
		ep:     ep,
		mtu:    cfg.MTU,
		send:   send,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go st.pump(ctx)
	return st, nil
}

func (st *Stack) pump(ctx context.Context) {
	defer close(st.done)
	for {
		pkt := st.ep.ReadContext(ctx)
		if pkt == nil {
			return
		}
		buf := pkt.ToBuffer()
		b := buf.Flatten()
		buf.Release()
		pkt.DecRef()
		st.send(b)
	}
}

// Inject delivers one inbound IPv4 packet to the stack. The stack copies
// b, so the caller may reuse it.
func (st *Stack) Inject(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if len(b) > st.mtu {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(b), st.mtu)
	}

	pkt := stack.NewPacketBuffer(stack.PacketBufferOptions{
		Payload: buffer.MakeWithData(b),
	})
	st.ep.InjectInbound(ipv4.ProtocolNumber, pkt)
	pkt.DecRef()
	return nil
}

// DialTCP opens a TCP connection through the stack.
func (st *Stack) DialTCP(ctx context.Context, host string, port uint16) (net.Conn, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("host %q is not an IPv4 address", host)
	}
	remote := tcpip.FullAddress{
		NIC:  nicID,
		Addr: tcpip.AddrFrom4(addr.As4()),
		Port: port,
	}
	conn, err := gonet.DialContextTCP(ctx, st.s, remote, ipv4.ProtocolNumber)
	if err != nil {
		return nil, fmt.Errorf("dialing %s:%d: %w", host, port, err)
	}
	return conn, nil
}

// ListenTCP accepts TCP connections on the local address.
func (st *Stack) ListenTCP(port uint16) (net.Listener, error) {
	l, err := gonet.ListenTCP(st.s, tcpip.FullAddress{NIC: nicID, Port: port}, ipv4.ProtocolNumber)
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", port, err)
	}
	return l, nil
}

// Close stops the packet pump and tears the stack down.
func (st *Stack) Close() error {
	st.once.Do(func() {
		st.cancel()
		<-st.done
		st.ep.Close()
		st.s.Close()
		st.s.Wait()
	})
	return nil
}
