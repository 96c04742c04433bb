package listener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const DefaultWebsocketPath = "/ws"

// WebsocketListener serves the protocol with one record per text frame.
type WebsocketListener struct {
	port     uint16
	path     string
	cm       *ConnectionManager
	upgrader websocket.Upgrader

	connCtx     context.Context
	cancelConns context.CancelFunc
	wg          sync.WaitGroup
}

func NewWebsocketListener(port uint16, path string, cm *ConnectionManager) *WebsocketListener {
	if path == "" {
		path = DefaultWebsocketPath
	}
	connCtx, cancel := context.WithCancel(context.Background())
	return &WebsocketListener{
		port: port,
		path: path,
		cm:   cm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connCtx:     connCtx,
		cancelConns: cancel,
	}
}

// Handler returns the HTTP handler that upgrades requests on the configured
// path.
func (l *WebsocketListener) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.serveWS)
	return mux
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	svr := &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		l.cancelConns()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svr.Shutdown(shutdownCtx); err != nil {
			zap.S().Warnw("shutting down websocket server", "error", err)
		}
	}()

	zap.S().Infow("listening for websocket", "port", l.port, "path", l.path)

	err = svr.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
	}

	// Hijacked connections are not tracked by Shutdown.
	l.wg.Wait()
	return nil
}

func (l *WebsocketListener) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Debugw("websocket upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}

	l.wg.Add(1)
	defer l.wg.Done()

	conn := newWSConn(ws)
	defer conn.Close()

	zap.S().Debugw("websocket connection established", "remote", r.RemoteAddr)

	// Close the socket on shutdown so the session's read unblocks.
	stop := context.AfterFunc(l.connCtx, func() { conn.Close() })
	defer stop()

	l.cm.AcceptConnection(l.connCtx, conn)
}

// wsConn presents a websocket as a newline-delimited byte stream.
type wsConn struct {
	ws      *websocket.Conn
	pending []byte

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		c.pending = append(bytes.TrimRight(data, "\r\n"), '\n')
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write sends each line of p as its own text frame.
func (c *wsConn) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
