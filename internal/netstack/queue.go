package netstack

import (
	"context"
	"errors"
	"fmt"
)

// ErrQueueFull is returned by Queue.Offer when the injector has fallen
// behind and the packet was dropped.
var ErrQueueFull = errors.New("inbound queue full")

// Queue buffers inbound packets for a single injector goroutine, so they
// reach the stack in arrival order without blocking the caller.
type Queue struct {
	ch  chan []byte
	mtu int
}

// NewQueue returns a queue holding up to size packets of at most mtu bytes.
func NewQueue(size, mtu int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan []byte, size), mtu: mtu}
}

// Offer enqueues pkt without blocking. The queue keeps pkt, so callers must
// pass a copy of any buffer they reuse.
func (q *Queue) Offer(pkt []byte) error {
	if len(pkt) > q.mtu {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(pkt), q.mtu)
	}
	select {
	case q.ch <- pkt:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports the number of packets waiting.
func (q *Queue) Len() int { return len(q.ch) }

// Run hands queued packets to inject in order until ctx is done.
func (q *Queue) Run(ctx context.Context, inject func([]byte)) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt := <-q.ch:
			inject(pkt)
		}
	}
}
