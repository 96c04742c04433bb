package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
	"go.uber.org/zap"
)

// TelnetListener serves the arena protocol to telnet clients. Telnet option
// bytes are stripped by the telnet library and CRLF line endings are
// normalised, so sessions see the same records as over raw TCP.
type TelnetListener struct {
	*boundAddr
	port uint16
	cm   *ConnectionManager
}

func NewTelnetListener(port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		boundAddr: newBoundAddr(),
		port:      port,
		cm:        cm,
	}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}
	l.set(listener.Addr())

	// Create a cancelable context for all connections
	connCtx, cancelConns := context.WithCancel(context.Background())

	handler := &telnetHandler{
		cFunc:       l.cm.AcceptConnection,
		logger:      zap.S().With("listener", "telnet"),
		connCtx:     connCtx,
		cancelConns: cancelConns,
	}

	svr := telnet.NewServer(listener.Addr().String(), handler)

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	// When parent context is canceled, stop accepting and cancel all connections
	go func() {
		select {
		case <-ctx.Done():
			listener.Close()
		case <-done:
		}
	}()

	zap.S().Infow("listening for telnet", "addr", listener.Addr().String())

	err = svr.Serve(listener)
	if ctx.Err() != nil {
		handler.Stop()
		return nil
	}
	cancelConns()
	if err != nil {
		return fmt.Errorf("serving telnet on port %d: %w", l.port, err)
	}

	return nil
}

type telnetHandler struct {
	wg          sync.WaitGroup
	cFunc       func(context.Context, io.ReadWriteCloser)
	logger      *zap.SugaredLogger
	connCtx     context.Context
	cancelConns context.CancelFunc
}

func (h *telnetHandler) HandleTelnet(conn *telnet.Connection) {
	h.wg.Add(1)
	defer h.wg.Done()
	defer func() {
		// the session closes its side first, so a second close may fail
		if err := conn.Close(); err != nil {
			h.logger.Debugw("closing telnet connection", "error", err)
		}
	}()

	h.cFunc(h.connCtx, newCRLFConn(conn))
}

func (h *telnetHandler) Stop() {
	h.cancelConns()
	h.wg.Wait()
}
