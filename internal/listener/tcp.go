package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// TcpListener serves the raw newline-delimited protocol.
type TcpListener struct {
	*boundAddr
	port uint16
	cm   *ConnectionManager
}

func NewTcpListener(port uint16, cm *ConnectionManager) *TcpListener {
	return &TcpListener{
		boundAddr: newBoundAddr(),
		port:      port,
		cm:        cm,
	}
}

func (l *TcpListener) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	l.set(listener.Addr())

	zap.S().Infow("listening for tcp", "addr", listener.Addr().String())

	connCtx, cancelConns := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Close the listener when the parent context is canceled
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var backoff acceptBackoff
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Check if shutdown was requested
			select {
			case <-ctx.Done():
				cancelConns()
				wg.Wait()
				return nil
			default:
			}
			delay := backoff.next()
			zap.S().Errorw("accepting tcp connection", "error", err, "retry_in", delay)
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
			defer conn.Close()
			zap.S().Debugw("tcp connection established", "remote", conn.RemoteAddr().String())
			l.cm.AcceptConnection(connCtx, conn)
		}()
	}
}
