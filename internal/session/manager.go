package session

import (
	"context"
	"io"

	"github.com/pixil98/go-arena/internal/broadcast"
	"github.com/pixil98/go-arena/internal/game"
	"go.uber.org/zap"
)

// Manager starts a Handler for every accepted connection.
type Manager struct {
	cfg      Config
	world    *game.World
	registry *Registry
	bc       *broadcast.Broadcaster
}

func NewManager(cfg Config, world *game.World, registry *Registry, bc *broadcast.Broadcaster) *Manager {
	return &Manager{
		cfg:      cfg,
		world:    world,
		registry: registry,
		bc:       bc,
	}
}

// NewHandler wraps rwc in a connection ready to Run.
func (m *Manager) NewHandler(rwc io.ReadWriteCloser) *Handler {
	conn := NewConn(rwc,
		WithOutboxSize(m.cfg.OutboxSize),
		WithWriteTimeout(m.cfg.WriteTimeout),
	)

	maxLine := m.cfg.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	return &Handler{
		conn:     conn,
		registry: m.registry,
		world:    m.world,
		bc:       m.bc,
		maxLine:  maxLine,
		state:    StateHandshaking,
		log:      zap.S().With("conn", conn.ConnID()),
	}
}

// RunSession serves rwc until the client leaves or ctx is cancelled.
func (m *Manager) RunSession(ctx context.Context, rwc io.ReadWriteCloser) error {
	return m.NewHandler(rwc).Run(ctx)
}
