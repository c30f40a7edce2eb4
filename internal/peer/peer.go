// Package peer adapts the thing-rtc-go peer connection to the small surface
// the tunnel needs.
package peer

import (
	"sync"

	thingrtc "github.com/thingify-app/thing-rtc-go"

	"github.com/thingify-app/thingify-net/internal/config"
	"github.com/thingify-app/thingify-net/internal/pairing"
)

// State is the peer connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Link is a binary message channel to the paired peer.
type Link interface {
	Connect()
	// Disconnect closes the peer connection and its signalling session.
	Disconnect()
	// Send transmits one message. The link may retain msg.
	Send(msg []byte)
	OnMessage(func(msg []byte))
	OnStateChange(func(State))
}

// New builds a link to the paired peer, with a video track when media is
// enabled in cfg.
func New(cfg *config.Config, tg pairing.TokenGenerator) (Link, error) {
	if !cfg.Media.Enabled {
		return wrap(thingrtc.NewPeer(cfg.SignallingServerURL, tg)), nil
	}

	source, err := mediaSource(cfg.Media)
	if err != nil {
		return nil, err
	}
	return wrap(thingrtc.NewPeerWithMedia(cfg.SignallingServerURL, tg, source)), nil
}

// rtcPeer is the part of thingrtc.Peer the link drives.
type rtcPeer interface {
	Connect()
	Disconnect()
	SendBinaryMessage(msg []byte)
	OnBinaryMessage(h func([]byte))
	OnConnectionStateChange(h func(int))
}

// thingPeer adapts thingrtc.Peer to rtcPeer, discarding call results.
type thingPeer struct {
	p thingrtc.Peer
}

func (t thingPeer) Connect()                            { t.p.Connect() }
func (t thingPeer) Disconnect()                         { t.p.Disconnect() }
func (t thingPeer) SendBinaryMessage(msg []byte)        { t.p.SendBinaryMessage(msg) }
func (t thingPeer) OnBinaryMessage(h func([]byte))      { t.p.OnBinaryMessage(h) }
func (t thingPeer) OnConnectionStateChange(h func(int)) { t.p.OnConnectionStateChange(h) }

type rtcLink struct {
	p rtcPeer

	mu       sync.Mutex
	onState  []func(State)
	onMsg    []func([]byte)
	attached bool
}

func wrap(p thingrtc.Peer) *rtcLink {
	return newLink(thingPeer{p: p})
}

func newLink(p rtcPeer) *rtcLink {
	return &rtcLink{p: p}
}

// attach registers the single underlying callbacks on first use so that
// multiple listeners can observe the same peer.
func (l *rtcLink) attach() {
	if l.attached {
		return
	}
	l.attached = true
	l.p.OnBinaryMessage(func(msg []byte) {
		l.mu.Lock()
		handlers := l.onMsg
		l.mu.Unlock()
		for _, h := range handlers {
			h(msg)
		}
	})
	l.p.OnConnectionStateChange(func(s int) {
		state := fromRTC(s)
		l.mu.Lock()
		handlers := l.onState
		l.mu.Unlock()
		for _, h := range handlers {
			h(state)
		}
	})
}

func (l *rtcLink) Connect() {
	l.mu.Lock()
	l.attach()
	l.mu.Unlock()
	l.p.Connect()
}

func (l *rtcLink) Disconnect() {
	l.p.Disconnect()
}

func (l *rtcLink) Send(msg []byte) {
	l.p.SendBinaryMessage(msg)
}

func (l *rtcLink) OnMessage(h func([]byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attach()
	l.onMsg = append(l.onMsg, h)
}

func (l *rtcLink) OnStateChange(h func(State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attach()
	l.onState = append(l.onState, h)
}

func fromRTC(s int) State {
	switch s {
	case thingrtc.Connecting:
		return Connecting
	case thingrtc.Connected:
		return Connected
	default:
		return Disconnected
	}
}
