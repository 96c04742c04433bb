package session

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-arena/internal/game"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Conn is one client byte stream with a bounded outbound queue drained by
// its own writer goroutine.
type Conn struct {
	id     string
	player game.PlayerID
	rwc    io.ReadWriteCloser

	outbox       chan []byte
	writeTimeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu  sync.Mutex
	err error
}

func NewConn(rwc io.ReadWriteCloser, opts ...ConnOpt) *Conn {
	c := &Conn{
		id:           uuid.NewString(),
		rwc:          rwc,
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.outbox == nil {
		c.outbox = make(chan []byte, DefaultOutboxSize)
	}

	return c
}

// ID returns the player bound to this connection, empty until registered.
func (c *Conn) ID() game.PlayerID {
	return c.player
}

// ConnID identifies the connection itself in logs.
func (c *Conn) ConnID() string {
	return c.id
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.rwc.Read(p)
}

// Enqueue queues a record without blocking. A full queue closes the
// connection.
func (c *Conn) Enqueue(record []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.outbox <- record:
		return true
	default:
		c.fail(ErrOutboxFull)
		return false
	}
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure that closed the connection, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the transport down. Only the first call has any effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	_ = c.Close()
}

func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case record := <-c.outbox:
			if err := c.write(record); err != nil {
				c.fail(&TransportError{Op: "write", Err: err})
				return
			}
		}
	}
}

func (c *Conn) write(record []byte) error {
	if d, ok := c.rwc.(writeDeadliner); ok && c.writeTimeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.rwc.Write(record)
	return err
}
