package listener

import (
	"net"
	"sync"
	"time"
)

// boundAddr publishes the address a listener actually bound, which differs
// from the configured one when the port is 0.
type boundAddr struct {
	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
}

func newBoundAddr() *boundAddr {
	return &boundAddr{ready: make(chan struct{})}
}

// Addr returns the bound address once Start is listening.
func (b *boundAddr) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// Ready is closed once the listener is accepting connections.
func (b *boundAddr) Ready() <-chan struct{} {
	return b.ready
}

func (b *boundAddr) set(addr net.Addr) {
	b.mu.Lock()
	b.addr = addr
	b.mu.Unlock()
	close(b.ready)
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptBackoff spaces out retries after Accept failures such as running
// out of file descriptors.
type acceptBackoff struct {
	delay time.Duration
}

func (b *acceptBackoff) next() time.Duration {
	if b.delay == 0 {
		b.delay = minAcceptDelay
	} else {
		b.delay = min(b.delay*2, maxAcceptDelay)
	}
	return b.delay
}

func (b *acceptBackoff) reset() {
	b.delay = 0
}
