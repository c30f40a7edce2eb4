// Package sshclient runs an interactive SSH shell over an existing
// connection.
package sshclient

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/crypto/ssh"
)

// Options configures the session.
type Options struct {
	Host     string // used for the handshake and error messages only
	User     string
	Password string
	Term     string // defaults to xterm
	Rows     int    // defaults to 40
	Cols     int    // defaults to 80
}

// termModes are the PTY modes requested for the shell.
var termModes = ssh.TerminalModes{
	ssh.ECHO:          1,
	ssh.ICRNL:         1,
	ssh.IXON:          1,
	ssh.IXANY:         1,
	ssh.IMAXBEL:       1,
	ssh.OPOST:         1,
	ssh.ONLCR:         1,
	ssh.ISIG:          1,
	ssh.ICANON:        1,
	ssh.IEXTEN:        1,
	ssh.ECHOE:         1,
	ssh.ECHOK:         1,
	ssh.ECHOCTL:       1,
	ssh.ECHOKE:        1,
	ssh.TTY_OP_ISPEED: 14400,
	ssh.TTY_OP_OSPEED: 14400,
}

func (o Options) withDefaults() Options {
	if o.Term == "" {
		o.Term = "xterm"
	}
	if o.Rows <= 0 {
		o.Rows = 40
	}
	if o.Cols <= 0 {
		o.Cols = 80
	}
	return o
}

// Run authenticates over conn, starts an interactive shell and pipes in to
// the shell's stdin and its stdout and stderr to out. It returns when the
// shell exits or ctx is cancelled; conn is closed either way.
//
// The host key is not verified: conn is expected to run over a peer link
// that was already authenticated by pairing.
func Run(ctx context.Context, conn net.Conn, opts Options, in io.Reader, out io.Writer) error {
	opts = opts.withDefaults()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            []ssh.AuthMethod{ssh.Password(opts.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, opts.Host, cfg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", opts.Host, err)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening stdin: %w", err)
	}
	session.Stdout = out
	session.Stderr = out

	if err := session.RequestPty(opts.Term, opts.Rows, opts.Cols, termModes); err != nil {
		return fmt.Errorf("requesting pty: %w", err)
	}
	if err := session.Shell(); err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}

	// The copy ends when the session closes stdin; in may block forever, so
	// the goroutine is not waited for.
	go func() {
		_, _ = io.Copy(stdin, in)
	}()

	if err := session.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}
