//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/thingify-app/thingify-net/internal/config"
)

// browserSettings are read from the optional thingifyConfig global, which
// the page fills from /config.json before loading the module.
type browserSettings struct {
	LocalAddress string
	MTU          int
	SSHPort      int
}

func readSettings() browserSettings {
	s := browserSettings{
		LocalAddress: config.DefaultLocalAddress,
		MTU:          config.DefaultMTU,
		SSHPort:      config.DefaultSSHPort,
	}
	cfg := js.Global().Get("thingifyConfig")
	if cfg.Type() != js.TypeObject {
		return s
	}
	if v := cfg.Get("localAddress"); v.Type() == js.TypeString {
		s.LocalAddress = v.String()
	}
	if v := cfg.Get("mtu"); v.Type() == js.TypeNumber && v.Int() > 0 {
		s.MTU = v.Int()
	}
	if v := cfg.Get("sshPort"); v.Type() == js.TypeNumber && v.Int() > 0 {
		s.SSHPort = v.Int()
	}
	return s
}

// messageListenerJS is called by the page after it has filled
// outgoingMessageBuffer with a packet from the peer.
// Args: length (number)
func (m *module) messageListenerJS(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	n := args[0].Int()
	if n <= 0 {
		return nil
	}
	if n > m.settings.MTU {
		m.log.Warn().Int("len", n).Int("mtu", m.settings.MTU).Msg("dropping oversized message")
		return nil
	}

	// The page reuses the buffer as soon as we return, so copy now.
	pkt := make([]byte, n)
	js.CopyBytesToGo(pkt, m.inBuf.Call("subarray", 0, n))

	if err := m.inbound.Offer(pkt); err != nil {
		m.log.Warn().Err(err).Int("len", n).Msg("dropping message")
	}
	return nil
}

// sendToPeer copies one outbound packet into messageBuffer and hands it to
// the page.
func (m *module) sendToPeer(pkt []byte) {
	if len(pkt) > m.settings.MTU {
		m.log.Warn().Int("len", len(pkt)).Msg("dropping oversized packet")
		return
	}
	js.CopyBytesToJS(m.outBuf, pkt)
	js.Global().Call("sendToPeer", len(pkt))
}

// stdInListenerJS receives terminal input from the page.
// Args: data (string)
func (m *module) stdInListenerJS(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	m.sessions.Push(args[0].String())
	return nil
}

// initJS starts the SSH session.
// Args: host (string), username (string), password (string)
// Returns: { error: string|null }
func (m *module) initJS(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return errorResult("missing arguments (need host, username, password)")
	}
	if err := m.startSession(args[0].String(), args[1].String(), args[2].String()); err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(map[string]any{"error": nil})
}

func writeToConsole(s string) {
	js.Global().Call("writeToConsole", s)
}

func errorResult(msg string) any {
	return js.ValueOf(map[string]any{
		"error": msg,
	})
}
