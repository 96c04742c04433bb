package listener

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// SessionRunner serves one client stream until it ends.
type SessionRunner interface {
	RunSession(ctx context.Context, rwc io.ReadWriteCloser) error
}

type ConnectionManager struct {
	sr SessionRunner
}

func NewConnectionManager(sr SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		sr: sr,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriteCloser) {
	if err := m.sr.RunSession(ctx, conn); err != nil {
		zap.S().Warnw("player session", "error", err)
	}
}
