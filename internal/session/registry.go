package session

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-arena/internal/broadcast"
	"github.com/pixil98/go-arena/internal/game"
	"go.uber.org/zap"
)

// Registry maps player ids to their live connections and keeps the world's
// player set in step with it.
type Registry struct {
	mu      sync.RWMutex
	conns   map[game.PlayerID]*Conn
	world   *game.World
	spawner *game.Spawner
	nextId  atomic.Uint64
}

func NewRegistry(world *game.World, spawner *game.Spawner) *Registry {
	return &Registry{
		conns:   map[game.PlayerID]*Conn{},
		world:   world,
		spawner: spawner,
	}
}

// Register assigns c a fresh player id, spawns its player and makes it
// visible to broadcasts.
func (r *Registry) Register(c *Conn) (game.PlayerState, error) {
	id := game.PlayerID(strconv.FormatUint(r.nextId.Add(1), 10))

	ps, err := r.spawner.Spawn(id)
	if err != nil {
		return game.PlayerState{}, fmt.Errorf("spawning player %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.world.AddPlayer(ps); err != nil {
		return game.PlayerState{}, fmt.Errorf("adding player %s: %w", id, err)
	}
	c.player = id
	r.conns[id] = c

	stored, ok := r.world.GetPlayer(id)
	if !ok {
		return game.PlayerState{}, game.ErrPlayerNotFound
	}
	return stored, nil
}

// Unregister drops id and its player. It reports whether anything was
// removed, so only one caller ever observes true.
func (r *Registry) Unregister(id game.PlayerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)

	if _, err := r.world.RemovePlayer(id); err != nil {
		zap.S().Debugw("removing player", "player", id, "error", err)
	}
	return true
}

func (r *Registry) Get(id game.PlayerID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// SnapshotTargets returns the connections registered at the time of the call.
func (r *Registry) SnapshotTargets() []broadcast.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]broadcast.Target, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
