//go:build js && wasm

// Command wasm is the browser side of thingify-net. It runs a userspace
// network stack whose packets travel over the page's peer connection and
// opens an SSH shell through it into a terminal on the page.
package main

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/rs/zerolog"

	"github.com/thingify-app/thingify-net/internal/logging"
	"github.com/thingify-app/thingify-net/internal/netstack"
	"github.com/thingify-app/thingify-net/internal/sshclient"
	"github.com/thingify-app/thingify-net/internal/webterm"
)

type module struct {
	settings browserSettings
	log      zerolog.Logger

	stack   *netstack.Stack
	inBuf   js.Value
	outBuf  js.Value
	inbound *netstack.Queue

	console  *webterm.Console
	sessions webterm.Sessions
}

func main() {
	logging.Configure(logging.Config{Level: "info"})
	log := logging.WithComponent("wasm")

	m := &module{
		settings: readSettings(),
		log:      log,
		inBuf:    js.Global().Get("outgoingMessageBuffer"),
		outBuf:   js.Global().Get("messageBuffer"),
		console:  webterm.NewConsole(writeToConsole),
	}
	m.inbound = netstack.NewQueue(netstack.DefaultQueueSize, m.settings.MTU)

	st, err := netstack.New(netstack.Config{
		LocalAddress: m.settings.LocalAddress,
		MTU:          m.settings.MTU,
	}, m.sendToPeer)
	if err != nil {
		log.Error().Err(err).Msg("creating network stack")
		return
	}
	m.stack = st
	go m.inbound.Run(context.Background(), m.inject)

	js.Global().Set("messageListener", js.FuncOf(m.messageListenerJS))
	js.Global().Set("stdInListener", js.FuncOf(m.stdInListenerJS))
	js.Global().Set("init", js.FuncOf(m.initJS))

	js.Global().Set("thingifyReady", true)
	log.Info().Str("address", m.settings.LocalAddress).Int("mtu", m.settings.MTU).Msg("WASM loaded.")

	select {}
}

func (m *module) inject(pkt []byte) {
	if err := m.stack.Inject(pkt); err != nil {
		m.log.Warn().Err(err).Msg("injecting packet")
	}
}

func (m *module) startSession(host, user, password string) error {
	err := m.sessions.Start(func(in *webterm.Input) error {
		return m.runSession(host, user, password, in)
	}, m.sessionEnded)
	if err != nil {
		return err
	}
	m.log.Info().Str("host", host).Str("user", user).Msg("Connecting to host")
	return nil
}

func (m *module) sessionEnded(err error) {
	if err != nil {
		m.log.Error().Err(err).Msg("ssh session ended")
		fmt.Fprintf(m.console, "\r\n%v\r\n", err)
		return
	}
	m.log.Info().Msg("ssh session closed")
}

func (m *module) runSession(host, user, password string, in *webterm.Input) error {
	ctx := context.Background()
	conn, err := m.stack.DialTCP(ctx, host, uint16(m.settings.SSHPort))
	if err != nil {
		return err
	}
	return sshclient.Run(ctx, conn, sshclient.Options{
		Host:     host,
		User:     user,
		Password: password,
	}, in, m.console)
}
