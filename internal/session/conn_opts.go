package session

import "time"

type ConnOpt func(*Conn)

func WithOutboxSize(n int) ConnOpt {
	return func(c *Conn) {
		if n > 0 {
			c.outbox = make(chan []byte, n)
		}
	}
}

func WithWriteTimeout(d time.Duration) ConnOpt {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}
