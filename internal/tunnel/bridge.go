// Package tunnel bridges a packet device to a peer link.
package tunnel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/thingify-app/thingify-net/internal/metrics"
	"github.com/thingify-app/thingify-net/internal/packet"
	"github.com/thingify-app/thingify-net/internal/peer"
)

// Stats is a snapshot of the bridge counters.
type Stats struct {
	OutboundPackets uint64
	OutboundBytes   uint64
	InboundPackets  uint64
	InboundBytes    uint64
	Dropped         uint64
	WriteErrors     uint64
}

// Bridge moves whole IP packets between a device and a peer link, one
// packet per message.
type Bridge struct {
	dev  io.ReadWriteCloser
	link peer.Link
	mtu  int
	log  zerolog.Logger

	state   atomic.Int32
	stopped atomic.Bool

	outPackets, outBytes atomic.Uint64
	inPackets, inBytes   atomic.Uint64
	dropped, writeErrs   atomic.Uint64
}

// New creates a bridge and subscribes it to link, so it should be called
// before link.Connect to avoid missing early messages.
func New(dev io.ReadWriteCloser, link peer.Link, mtu int, log zerolog.Logger) *Bridge {
	b := &Bridge{
		dev:  dev,
		link: link,
		mtu:  mtu,
		log:  log,
	}
	b.state.Store(int32(peer.Disconnected))
	link.OnStateChange(b.setState)
	link.OnMessage(b.inbound)
	return b
}

// State returns the last connection state reported by the link.
func (b *Bridge) State() peer.State {
	return peer.State(b.state.Load())
}

// Stats returns the current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		OutboundPackets: b.outPackets.Load(),
		OutboundBytes:   b.outBytes.Load(),
		InboundPackets:  b.inPackets.Load(),
		InboundBytes:    b.inBytes.Load(),
		Dropped:         b.dropped.Load(),
		WriteErrors:     b.writeErrs.Load(),
	}
}

// Run forwards device packets to the link until ctx is cancelled or the
// device fails. Cancellation closes the device and returns nil.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.stopped.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(b.outbound)
	g.Go(func() error {
		<-gctx.Done()
		return b.dev.Close()
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (b *Bridge) outbound() error {
	buf := make([]byte, b.mtu)
	for {
		n, err := b.dev.Read(buf)
		if err != nil {
			return fmt.Errorf("reading from device: %w", err)
		}
		if n == 0 {
			continue
		}

		if b.State() != peer.Connected {
			b.drop(metrics.DirectionOutbound, metrics.ReasonNotConnected, n)
			continue
		}

		pkt := bytes.Clone(buf[:n])
		b.trace(metrics.DirectionOutbound, pkt)
		b.link.Send(pkt)
		b.outPackets.Add(1)
		b.outBytes.Add(uint64(n))
		metrics.ObserveForwarded(metrics.DirectionOutbound, n)
	}
}

func (b *Bridge) inbound(msg []byte) {
	if b.stopped.Load() || len(msg) == 0 {
		return
	}
	if len(msg) > b.mtu {
		b.drop(metrics.DirectionInbound, metrics.ReasonOversize, len(msg))
		return
	}

	b.trace(metrics.DirectionInbound, msg)
	if _, err := b.dev.Write(msg); err != nil {
		b.writeErrs.Add(1)
		metrics.ObserveDrop(metrics.DirectionInbound, metrics.ReasonWriteError)
		b.log.Warn().Err(err).Int("len", len(msg)).Msg("writing packet to device")
		return
	}
	b.inPackets.Add(1)
	b.inBytes.Add(uint64(len(msg)))
	metrics.ObserveForwarded(metrics.DirectionInbound, len(msg))
}

func (b *Bridge) setState(s peer.State) {
	prev := peer.State(b.state.Swap(int32(s)))
	metrics.SetPeerState(int(s))
	if prev != s {
		b.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("peer state changed")
	}
}

func (b *Bridge) drop(direction, reason string, n int) {
	b.dropped.Add(1)
	metrics.ObserveDrop(direction, reason)
	b.log.Debug().Str("direction", direction).Str("reason", reason).Int("len", n).Msg("dropped packet")
}

func (b *Bridge) trace(direction string, pkt []byte) {
	if e := b.log.Trace(); e.Enabled() {
		e.Str("direction", direction).Str("packet", packet.Describe(pkt)).Msg("forward")
	}
}
