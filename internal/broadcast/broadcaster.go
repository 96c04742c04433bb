// Package broadcast fans serialized messages out to every live connection.
package broadcast

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pixil98/go-arena/internal/game"
	"github.com/pixil98/go-arena/internal/protocol"
	"go.uber.org/zap"
)

// Target is one delivery endpoint. Enqueue must never block; it reports
// false when the record was not accepted.
type Target interface {
	ID() game.PlayerID
	Enqueue(record []byte) bool
}

// TargetSource returns a point-in-time copy of the live targets.
type TargetSource interface {
	SnapshotTargets() []Target
}

// StateSource provides the world snapshot sent after each tick.
type StateSource interface {
	Snapshot() game.Snapshot
}

// Publisher mirrors broadcast messages to an external feed.
type Publisher interface {
	PublishMessage(protocol.Message) error
}

// Sender delivers messages while the fan-out lock is held.
type Sender interface {
	Send(msg protocol.Message, exclude ...game.PlayerID) (int, error)
}

type Broadcaster struct {
	mu      sync.Mutex
	targets TargetSource
	state   StateSource
	mirror  Publisher
}

func NewBroadcaster(targets TargetSource, state StateSource, opts ...BroadcasterOpt) *Broadcaster {
	b := &Broadcaster{
		targets: targets,
		state:   state,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Batch runs fn while holding the fan-out lock. State changes made inside fn
// together with the messages it sends are observed by every connection in
// the same order relative to other broadcasts.
func (b *Broadcaster) Batch(fn func(Sender)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(sender{b: b})
}

// Broadcast sends msg to every target except the excluded ids and returns
// how many targets accepted it.
func (b *Broadcaster) Broadcast(msg protocol.Message, exclude ...game.PlayerID) (int, error) {
	var n int
	var err error
	b.Batch(func(s Sender) {
		n, err = s.Send(msg, exclude...)
	})
	return n, err
}

// Tick builds one state snapshot and fans it out.
func (b *Broadcaster) Tick(ctx context.Context) error {
	var err error
	b.Batch(func(s Sender) {
		_, err = s.Send(protocol.NewState(b.state.Snapshot()))
	})
	if err != nil {
		return fmt.Errorf("broadcasting state: %w", err)
	}
	return nil
}

type sender struct {
	b *Broadcaster
}

func (s sender) Send(msg protocol.Message, exclude ...game.PlayerID) (int, error) {
	record, err := protocol.Encode(msg)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, t := range s.b.targets.SnapshotTargets() {
		if slices.Contains(exclude, t.ID()) {
			continue
		}
		// A refused record is the owning session's problem; keep going.
		if t.Enqueue(record) {
			delivered++
		}
	}

	if s.b.mirror != nil {
		if err := s.b.mirror.PublishMessage(msg); err != nil {
			zap.S().Debugw("mirroring message", "type", msg.Type(), "error", err)
		}
	}

	return delivered, nil
}
