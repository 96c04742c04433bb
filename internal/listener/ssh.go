package listener

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SshListener serves the protocol over SSH session channels. Clients are not
// authenticated.
type SshListener struct {
	*boundAddr
	port    uint16
	cm      *ConnectionManager
	hostKey ssh.Signer
}

func NewSshListener(port uint16, cm *ConnectionManager, hostKey ssh.Signer) *SshListener {
	return &SshListener{
		boundAddr: newBoundAddr(),
		port:      port,
		cm:        cm,
		hostKey:   hostKey,
	}
}

func (l *SshListener) Start(ctx context.Context) error {
	config := &ssh.ServerConfig{
		NoClientAuth: true,
	}
	config.AddHostKey(l.hostKey)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	l.set(listener.Addr())
	zap.S().Infow("listening for ssh", "addr", listener.Addr().String())

	connCtx, cancelConns := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var backoff acceptBackoff
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				cancelConns()
				wg.Wait()
				return nil
			default:
			}
			delay := backoff.next()
			zap.S().Errorw("accepting ssh connection", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			continue
		}
		backoff.reset()

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handleConnection(connCtx, conn, config)
		}()
	}
}

func (l *SshListener) handleConnection(ctx context.Context, conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		zap.S().Warnw("ssh handshake", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	defer sshConn.Close()

	zap.S().Debugw("ssh connection established", "remote", conn.RemoteAddr().String())

	// Unblocks the channel loop below on shutdown.
	go func() {
		<-ctx.Done()
		sshConn.Close()
	}()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			zap.S().Errorw("accepting ssh channel", "error", err)
			continue
		}

		if !waitForStart(ctx, requests) {
			ch.Close()
			continue
		}

		l.cm.AcceptConnection(ctx, newCRLFConn(ch))
		ch.Close()
	}
}

// waitForStart answers channel requests until the client asks for a shell
// or a command. SSH clients won't forward input before that reply.
func waitForStart(ctx context.Context, in <-chan *ssh.Request) bool {
	started := make(chan struct{})
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var once sync.Once
		for req := range in {
			switch req.Type {
			case "shell", "exec":
				req.Reply(true, nil)
				once.Do(func() { close(started) })
			default:
				// Rejecting pty-req keeps local echo and line buffering.
				req.Reply(false, nil)
			}
		}
	}()

	select {
	case <-started:
		return true
	case <-gone:
		return false
	case <-ctx.Done():
		return false
	}
}
