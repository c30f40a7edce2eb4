package netstack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2, 100)
	for i := 0; i < 2; i++ {
		if err := q.Offer([]byte{byte(i)}); err != nil {
			t.Fatalf("offer %d: %v", i, err)
		}
	}
	if err := q.Offer([]byte{2}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("got %v, want ErrQueueFull", err)
	}
	if q.Len() != 2 {
		t.Errorf("len: %d, want 2", q.Len())
	}
}

func TestQueueRejectsOversized(t *testing.T) {
	q := NewQueue(4, 3)
	if err := q.Offer(make([]byte, 4)); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("got %v, want ErrPacketTooLarge", err)
	}
	if err := q.Offer(make([]byte, 3)); err != nil {
		t.Errorf("packet at mtu: %v", err)
	}
}

func TestQueueRunsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := NewQueue(8, 100)
	for i := 0; i < 5; i++ {
		if err := q.Offer([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan byte, 5)
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(pkt []byte) { got <- pkt[0] })
	}()

	var order []byte
	for len(order) < 5 {
		select {
		case b := <-got:
			order = append(order, b)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %v", order)
		}
	}
	cancel()
	<-done

	if diff := cmp.Diff([]byte{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}
