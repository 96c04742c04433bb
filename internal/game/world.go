package game

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// World holds the player and projectile stores. Each mutation holds the lock
// for one change and Step holds it for a whole tick.
type World struct {
	mu  sync.RWMutex
	cfg Config
	now func() time.Time

	players     map[PlayerID]*PlayerState
	projectiles []*Projectile

	nextProjectileId uint64
	tick             uint64
}

// Snapshot is a point-in-time copy of the world.
type Snapshot struct {
	Tick        uint64
	Players     map[PlayerID]PlayerState
	Projectiles []Projectile
}

// NewWorld creates an empty world.
func NewWorld(cfg Config, opts ...WorldOpt) *World {
	w := &World{
		cfg:     cfg,
		now:     time.Now,
		players: make(map[PlayerID]*PlayerState),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Config returns the tuning the world was created with.
func (w *World) Config() Config {
	return w.cfg
}

// AddPlayer inserts a new player, clamping its position and angle into range.
func (w *World) AddPlayer(ps PlayerState) error {
	if ps.ID == "" {
		return fmt.Errorf("player id must be set")
	}

	c := ps.Clone()
	c.X, c.Y = w.cfg.ClampPosition(c.X, c.Y)
	c.Angle = NormalizeAngle(c.Angle)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.players[ps.ID]; exists {
		return ErrPlayerExists
	}
	w.players[ps.ID] = &c
	return nil
}

// RemovePlayer deletes a player and returns its final state.
func (w *World) RemovePlayer(id PlayerID) (PlayerState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, exists := w.players[id]
	if !exists {
		return PlayerState{}, ErrPlayerNotFound
	}
	delete(w.players, id)
	return ps.Clone(), nil
}

// GetPlayer returns a copy of the player state.
func (w *World) GetPlayer(id PlayerID) (PlayerState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ps, ok := w.players[id]
	if !ok {
		return PlayerState{}, false
	}
	return ps.Clone(), true
}

// PlayerCount returns the number of players in the world.
func (w *World) PlayerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}

// Players returns a copy of every player keyed by id.
func (w *World) Players() map[PlayerID]PlayerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.copyPlayers()
}

// Projectiles returns a copy of every live projectile in creation order.
func (w *World) Projectiles() []Projectile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.copyProjectiles()
}

// Snapshot copies players and projectiles under a single lock.
func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return Snapshot{
		Tick:        w.tick,
		Players:     w.copyPlayers(),
		Projectiles: w.copyProjectiles(),
	}
}

func (w *World) copyPlayers() map[PlayerID]PlayerState {
	out := make(map[PlayerID]PlayerState, len(w.players))
	for id, ps := range w.players {
		out[id] = ps.Clone()
	}
	return out
}

func (w *World) copyProjectiles() []Projectile {
	out := make([]Projectile, 0, len(w.projectiles))
	for _, p := range w.projectiles {
		out = append(out, *p)
	}
	return out
}

// SetInput sets or clears one input flag of a player.
func (w *World) SetInput(id PlayerID, dir Direction, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	return ps.Inputs.Set(dir, on)
}

// Chat records text as the player's most recent chat line.
func (w *World) Chat(id PlayerID, text string) (ChatEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[id]
	if !ok {
		return ChatEntry{}, ErrPlayerNotFound
	}
	return ps.pushChat(text, w.now(), w.cfg.ChatTTL, w.cfg.ChatHistory), nil
}

// Shoot spawns a projectile at the player's position along its facing angle.
func (w *World) Shoot(id PlayerID) (Projectile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[id]
	if !ok {
		return Projectile{}, ErrPlayerNotFound
	}

	w.nextProjectileId++
	p := &Projectile{
		ID:        w.nextProjectileId,
		X:         ps.X,
		Y:         ps.Y,
		Angle:     ps.Angle,
		Owner:     id,
		Remaining: w.cfg.ProjectileLifetime,
	}
	w.projectiles = append(w.projectiles, p)
	return *p, nil
}

// Step advances the simulation by one tick: players first, then projectiles.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++

	for _, ps := range w.players {
		w.cfg.stepPlayer(ps)
	}

	live := w.projectiles[:0]
	for _, p := range w.projectiles {
		if w.cfg.stepProjectile(p) {
			live = append(live, p)
		}
	}
	// release references held past the new length
	for i := len(live); i < len(w.projectiles); i++ {
		w.projectiles[i] = nil
	}
	w.projectiles = live
}

// Tick satisfies driver.Ticker.
func (w *World) Tick(ctx context.Context) error {
	w.Step()
	return nil
}
